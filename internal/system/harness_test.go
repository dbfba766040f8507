package system

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/crowdnav/crowdsim/internal/component"
	"github.com/crowdnav/crowdsim/internal/core/command"
	"github.com/crowdnav/crowdsim/internal/core/ecs"
	"github.com/crowdnav/crowdsim/internal/core/event"
	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/nav/navtest"
	"github.com/crowdnav/crowdsim/internal/parallel"
	"github.com/crowdnav/crowdsim/internal/pathreq"
	"github.com/crowdnav/crowdsim/internal/world"
)

const frame = 100 * time.Millisecond

var testParams = component.NavAgentParams{
	StoppingDistance: 0.5,
	MoveSpeed:        2,
	Acceleration:     10,
	RotationSpeed:    10,
	AreaMask:         -1,
}

// sim wires the core systems around a hand-driven gateway. The pool uses
// tiny chunks so the parallel paths run even for a handful of agents.
type sim struct {
	t      *testing.T
	world  *world.State
	gw     *navtest.ManualGateway
	bus    *event.Bus
	coord  *pathreq.Coordinator
	pool   *parallel.Pool
	runner *coresys.Runner

	sync     *CommandSyncSystem
	spawn    *SpawnSystem
	dispatch *IdleDispatchSystem
	nav      *NavAgentSystem
	avoid    *AvoidanceSystem
}

func newSim(t *testing.T) *sim {
	t.Helper()
	s := &sim{
		t:     t,
		world: world.NewState(16),
		gw:    navtest.NewManualGateway(),
		bus:   event.NewBus(),
		pool:  parallel.NewPool(3, 2),
	}
	log := zap.NewNop()
	s.coord = pathreq.NewCoordinator(s.gw, s.world.Agents, command.NewBuffer(), s.bus, log)

	s.sync = NewCommandSyncSystem(s.coord, s.bus)
	s.spawn = NewSpawnSystem(s.world, nil, component.SpawnProfile{Params: testParams, Avoidance: true, AvoidanceRadius: 2}, s.bus, log)
	s.dispatch = NewIdleDispatchSystem(s.world, s.coord)
	s.nav = NewNavAgentSystem(s.world, s.coord, s.pool)
	s.avoid = NewAvoidanceSystem(s.world, navtest.OpenSampler{}, s.pool, AvoidanceConfig{MinSpeed: 0.5, SampleExtent: 3, GridWidth: 100})

	s.runner = coresys.NewRunner()
	s.runner.Register(NewPlacementSystem(s.world, log))
	s.runner.Register(s.sync)
	s.runner.Register(s.spawn)
	s.runner.Register(s.dispatch)
	s.runner.Register(s.nav)
	s.runner.Register(s.avoid)
	return s
}

func (s *sim) place(cat component.DestinationCategory, ps ...mgl64.Vec3) {
	for _, p := range ps {
		s.world.Destinations.Add(component.Placement{Position: p, Category: cat})
	}
}

// addAgent creates an agent directly, bypassing intake.
func (s *sim) addAgent(pos mgl64.Vec3, avoidance bool) ecs.EntityID {
	var av *component.NavAgentAvoidance
	if avoidance {
		av = &component.NavAgentAvoidance{Radius: 2}
	}
	return s.world.SpawnAgent(component.NewNavAgent(pos, mgl64.QuatIdent(), testParams), av)
}

func (s *sim) agent(id ecs.EntityID) *component.NavAgent {
	s.t.Helper()
	a, ok := s.world.Agents.Get(id)
	if !ok {
		s.t.Fatalf("agent %d missing", id)
	}
	return a
}

// moving puts id into Moving with waypoints via the coordinator.
func (s *sim) moving(id ecs.EntityID, wps ...mgl64.Vec3) {
	s.t.Helper()
	if !s.coord.RequestDestination(id, wps[len(wps)-1], -1) {
		s.t.Fatalf("request for %d rejected", id)
	}
	s.gw.Succeed(id.Key(), wps...)
	s.coord.Apply()
}
