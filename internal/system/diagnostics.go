package system

import (
	"time"

	"github.com/crowdnav/crowdsim/internal/component"
	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/diag"
	"github.com/crowdnav/crowdsim/internal/pathreq"
	"github.com/crowdnav/crowdsim/internal/world"
)

// Publisher receives throttled snapshots; diag.Server satisfies it.
type Publisher interface {
	Publish(diag.Snapshot)
}

// DiagnosticsSystem samples the simulation counters every frame and hands
// a snapshot to its publishers every interval. Phase 4 (Output).
// Nothing here writes back into the world.
type DiagnosticsSystem struct {
	world      *world.State
	coord      *pathreq.Coordinator
	avoidance  *AvoidanceSystem // optional
	publishers []Publisher
	interval   time.Duration
	now        func() time.Time

	frame     uint64
	elapsed   time.Duration
	lastFrame time.Duration
	last      diag.Snapshot
}

func NewDiagnosticsSystem(ws *world.State, coord *pathreq.Coordinator, avoidance *AvoidanceSystem, interval time.Duration, publishers ...Publisher) *DiagnosticsSystem {
	return &DiagnosticsSystem{
		world:      ws,
		coord:      coord,
		avoidance:  avoidance,
		publishers: publishers,
		interval:   interval,
		now:        time.Now,
	}
}

func (s *DiagnosticsSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *DiagnosticsSystem) Update(dt time.Duration) {
	s.frame++
	s.last = s.sample()

	s.elapsed += dt
	if s.elapsed < s.interval {
		return
	}
	s.elapsed = 0
	for _, p := range s.publishers {
		p.Publish(s.last)
	}
}

// ObserveFrameTime records how long the previous frame took to run.
func (s *DiagnosticsSystem) ObserveFrameTime(d time.Duration) { s.lastFrame = d }

// Last returns the snapshot taken this frame.
func (s *DiagnosticsSystem) Last() diag.Snapshot { return s.last }

func (s *DiagnosticsSystem) sample() diag.Snapshot {
	gw := s.coord.Gateway()
	idle, queued, moving := s.world.StatusCounts()
	succeeded, failed := s.coord.Results()
	snap := diag.Snapshot{
		Frame:            s.frame,
		At:               s.now(),
		SpawnedTotal:     s.world.SpawnedTotal,
		PendingPathCount: gw.PendingCount(),
		CachedPathCount:  gw.CachedCount(),
		InFlight:         s.coord.InFlight(),
		Idle:             idle,
		PathQueued:       queued,
		Moving:           moving,
		Residential:      s.world.Destinations.Len(component.Residential),
		Commercial:       s.world.Destinations.Len(component.Commercial),
		PathSucceeded:    succeeded,
		PathFailed:       failed,
		NavmeshVersion:   gw.Version(),
		FrameMillis:      float64(s.lastFrame.Microseconds()) / 1000,
	}
	if s.avoidance != nil {
		snap.Buckets, snap.Followers = s.avoidance.Stats()
	}
	return snap
}
