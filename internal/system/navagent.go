package system

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/crowdnav/crowdsim/internal/component"
	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/geom"
	"github.com/crowdnav/crowdsim/internal/parallel"
	"github.com/crowdnav/crowdsim/internal/pathreq"
	"github.com/crowdnav/crowdsim/internal/world"
)

// headingEpsilon is the distance below which the agent keeps its rotation.
const headingEpsilon = 0.001

// NavAgentSystem advances every agent along its waypoints. Phase 2 (Update).
//
// Three stages, each a barrier for the next:
//  1. detect: parallel scan for Moving agents inside stopping distance,
//     queueing the ones with waypoints left and idling the rest.
//  2. assign: single-threaded drain of that queue against the
//     coordinator's waypoint store.
//  3. integrate: parallel speed, pose and staged next-position update.
type NavAgentSystem struct {
	world *world.State
	coord *pathreq.Coordinator
	pool  *parallel.Pool

	advance [][]int // per-chunk dense indices needing their next waypoint
}

func NewNavAgentSystem(ws *world.State, coord *pathreq.Coordinator, pool *parallel.Pool) *NavAgentSystem {
	return &NavAgentSystem{
		world: ws,
		coord: coord,
		pool:  pool,
	}
}

func (s *NavAgentSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *NavAgentSystem) Update(dt time.Duration) {
	n := s.world.Agents.Len()
	if n == 0 {
		return
	}
	s.detect(n)
	s.assign()
	s.integrate(n, dt.Seconds())
}

func (s *NavAgentSystem) detect(n int) {
	chunks := s.pool.Chunks(n)
	for len(s.advance) < chunks {
		s.advance = append(s.advance, make([]int, 0, 16))
	}
	agents := s.world.Agents
	s.pool.Range(n, func(chunk, lo, hi int) {
		queue := s.advance[chunk][:0]
		for i := lo; i < hi; i++ {
			a := agents.At(i)
			if a.Status != component.AgentMoving || a.RemainingDistance-a.StoppingDistance > 0 {
				continue
			}
			if a.NextWaypointIndex != a.TotalWaypoints {
				queue = append(queue, i)
				continue
			}
			// Route consumed. A route stamped with an older navmesh version
			// ends here too; it is never cut short mid-way.
			a.TotalWaypoints = 0
			a.CurrentWaypoint = mgl64.Vec3{}
			a.Status = component.AgentIdle
		}
		s.advance[chunk] = queue
	})
	for c := chunks; c < len(s.advance); c++ {
		s.advance[c] = s.advance[c][:0]
	}
}

func (s *NavAgentSystem) assign() {
	agents := s.world.Agents
	for c := range s.advance {
		for _, i := range s.advance[c] {
			a := agents.At(i)
			wp, ok := s.coord.Waypoint(agents.ID(i), a.NextWaypointIndex)
			if !ok {
				continue
			}
			a.CurrentWaypoint = wp
			a.RemainingDistance = geom.Distance(a.Position, wp)
			a.NextWaypointIndex++
		}
		s.advance[c] = s.advance[c][:0]
	}
}

func (s *NavAgentSystem) integrate(n int, dt float64) {
	agents := s.world.Agents
	s.pool.Range(n, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			integrateAgent(agents.At(i), dt)
		}
	})
}

func integrateAgent(a *component.NavAgent, dt float64) {
	if a.Status != component.AgentMoving {
		return
	}
	if a.RemainingDistance > 0 {
		a.CurrentMoveSpeed = geom.Lerp(a.CurrentMoveSpeed, a.MoveSpeed, dt*a.Acceleration)
		if a.HasNextPosition {
			a.Position = a.NextPosition
		}
		heading := a.CurrentWaypoint.Sub(a.Position)
		a.RemainingDistance = heading.Len()
		if a.RemainingDistance > headingEpsilon {
			target := geom.LookYaw(heading)
			if a.RemainingDistance < 1 {
				a.Rotation = target
			} else {
				a.Rotation = geom.Slerp(a.Rotation, target, dt*a.RotationSpeed)
			}
		}
		step := geom.FacingOf(a.Rotation).Mul(a.CurrentMoveSpeed * dt)
		a.NextPosition = a.Position.Add(step)
		a.HasNextPosition = true
		return
	}
	if a.NextWaypointIndex == a.TotalWaypoints {
		a.NextPosition = mgl64.Vec3{}
		a.HasNextPosition = false
		a.Status = component.AgentIdle
	}
}
