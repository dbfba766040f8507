package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdnav/crowdsim/internal/component"
	"github.com/crowdnav/crowdsim/internal/core/ecs"
	"github.com/crowdnav/crowdsim/internal/core/event"
	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/nav"
)

func TestDispatchSendsIdleAgentsRoundRobin(t *testing.T) {
	s := newSim(t)
	shopA, shopB := mgl64.Vec3{50, 0, 0}, mgl64.Vec3{0, 0, 50}
	s.place(component.Commercial, shopA, shopB)
	a := s.addAgent(mgl64.Vec3{}, false)
	b := s.addAgent(mgl64.Vec3{1, 0, 0}, false)
	c := s.addAgent(mgl64.Vec3{2, 0, 0}, false)

	s.dispatch.Update(frame)
	reqs := s.gw.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, []mgl64.Vec3{shopA, shopB, shopA}, []mgl64.Vec3{reqs[0].To, reqs[1].To, reqs[2].To})
	for _, id := range []ecs.EntityID{a, b, c} {
		assert.Equal(t, component.AgentPathQueued, s.agent(id).Status)
	}
	assert.Equal(t, 3, s.dispatch.Dispatched())

	// Queued agents are not dispatched again.
	s.dispatch.Update(frame)
	assert.Len(t, s.gw.Requests(), 3)
}

func TestDispatchWithoutCommercialIsNoop(t *testing.T) {
	s := newSim(t)
	s.addAgent(mgl64.Vec3{}, false)
	s.dispatch.Update(frame)
	assert.Empty(t, s.gw.Requests())
}

func TestFailedRequestRedispatchedNextFrame(t *testing.T) {
	s := newSim(t)
	s.place(component.Commercial, mgl64.Vec3{50, 0, 0})
	id := s.addAgent(mgl64.Vec3{}, false)
	var failures []event.PathFailed
	event.Subscribe(s.bus, func(e event.PathFailed) { failures = append(failures, e) })

	s.runner.Tick(frame)
	require.Equal(t, component.AgentPathQueued, s.agent(id).Status)
	require.Equal(t, 1, s.gw.RequestsFor(id.Key()))

	s.gw.Fail(id.Key(), nav.FailureInvalidTo)
	s.runner.TickPhase(coresys.PhaseInput, frame)
	a := s.agent(id)
	assert.Equal(t, component.AgentIdle, a.Status)
	assert.Zero(t, a.TotalWaypoints)
	require.Len(t, failures, 1)
	assert.Equal(t, "invalid_to", failures[0].Reason)

	s.runner.TickPhase(coresys.PhasePreUpdate, frame)
	assert.Equal(t, component.AgentPathQueued, s.agent(id).Status)
	assert.Equal(t, 2, s.gw.RequestsFor(id.Key()))
}

func TestSuccessScenarioThroughFrame(t *testing.T) {
	s := newSim(t)
	s.place(component.Commercial, mgl64.Vec3{9, 0, 9})
	id := s.addAgent(mgl64.Vec3{}, false)
	s.runner.Tick(frame)

	w0, w1, w2 := mgl64.Vec3{3, 0, 0}, mgl64.Vec3{6, 0, 6}, mgl64.Vec3{9, 0, 9}
	s.gw.Succeed(id.Key(), w0, w1, w2)
	s.runner.TickPhase(coresys.PhaseInput, frame)

	a := s.agent(id)
	assert.Equal(t, component.AgentMoving, a.Status)
	assert.Equal(t, w0, a.CurrentWaypoint)
	assert.Equal(t, 1, a.NextWaypointIndex)
	assert.Equal(t, 3, a.TotalWaypoints)
	assert.InDelta(t, 3.0, a.RemainingDistance, 1e-9)
}
