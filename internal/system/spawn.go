package system

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/crowdnav/crowdsim/internal/component"
	"github.com/crowdnav/crowdsim/internal/core/event"
	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/world"
)

// Profiler picks the spawn profile of the seq-th agent. def carries the
// configured defaults.
type Profiler interface {
	AgentProfile(seq int, def component.SpawnProfile) component.SpawnProfile
}

// DefaultProfiler hands out the defaults unchanged.
type DefaultProfiler struct{}

func (DefaultProfiler) AgentProfile(_ int, def component.SpawnProfile) component.SpawnProfile {
	return def
}

// SpawnSystem turns the pending spawn count into Idle agents standing on
// residential destinations. Phase 1 (PreUpdate), before idle dispatch so
// new agents are sent out in the frame they appear.
type SpawnSystem struct {
	world    *world.State
	profiler Profiler
	defaults component.SpawnProfile
	bus      *event.Bus
	log      *zap.Logger
}

func NewSpawnSystem(ws *world.State, profiler Profiler, defaults component.SpawnProfile, bus *event.Bus, log *zap.Logger) *SpawnSystem {
	if profiler == nil {
		profiler = DefaultProfiler{}
	}
	return &SpawnSystem{world: ws, profiler: profiler, defaults: defaults, bus: bus, log: log}
}

func (s *SpawnSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *SpawnSystem) Update(_ time.Duration) {
	dests := s.world.Destinations
	// Leave the signal untouched until there is somewhere to stand.
	if dests.Len(component.Residential) == 0 {
		return
	}
	n := s.world.Spawns.Take()
	for k := 0; k < n; k++ {
		pos, err := dests.GetNext(component.Residential)
		if err != nil {
			s.world.Spawns.Add(n - k)
			return
		}
		prof := s.profiler.AgentProfile(s.world.SpawnedTotal, s.defaults)
		var avoid *component.NavAgentAvoidance
		if prof.Avoidance {
			avoid = &component.NavAgentAvoidance{Radius: prof.AvoidanceRadius}
		}
		id := s.world.SpawnAgent(component.NewNavAgent(pos, mgl64.QuatIdent(), prof.Params), avoid)
		event.Emit(s.bus, event.AgentSpawned{Entity: id, Position: pos})
	}
	if n > 0 {
		s.log.Debug("agents spawned", zap.Int("count", n), zap.Int("total", s.world.SpawnedTotal))
	}
}
