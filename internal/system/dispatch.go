package system

import (
	"time"

	"github.com/crowdnav/crowdsim/internal/component"
	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/pathreq"
	"github.com/crowdnav/crowdsim/internal/world"
)

// IdleDispatchSystem sends every Idle agent to the next commercial
// destination. Phase 1 (PreUpdate). Agents that go Idle later in the frame
// wait for the next scan; failed requests are retried the same way.
type IdleDispatchSystem struct {
	world *world.State
	coord *pathreq.Coordinator

	dispatched int
}

func NewIdleDispatchSystem(ws *world.State, coord *pathreq.Coordinator) *IdleDispatchSystem {
	return &IdleDispatchSystem{world: ws, coord: coord}
}

func (s *IdleDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *IdleDispatchSystem) Update(_ time.Duration) {
	dests := s.world.Destinations
	if dests.Len(component.Commercial) == 0 {
		return
	}
	agents := s.world.Agents
	for i := 0; i < agents.Len(); i++ {
		a := agents.At(i)
		if a.Status != component.AgentIdle {
			continue
		}
		dest, err := dests.GetNext(component.Commercial)
		if err != nil {
			return
		}
		if s.coord.RequestDestination(agents.ID(i), dest, a.AreaMask) {
			s.dispatched++
		}
	}
}

// Dispatched returns the number of requests issued since start.
func (s *IdleDispatchSystem) Dispatched() int { return s.dispatched }
