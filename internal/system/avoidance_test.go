package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowdnav/crowdsim/internal/component"
	"github.com/crowdnav/crowdsim/internal/core/ecs"
	"github.com/crowdnav/crowdsim/internal/nav/navtest"
	"github.com/crowdnav/crowdsim/internal/world"
)

type rejectSampler struct{}

func (rejectSampler) Sample(pos mgl64.Vec3, _ float64, _ int32) (mgl64.Vec3, bool) {
	return pos, false
}

// crowd builds Moving agents at the given positions, each heading +Z with
// waypoints left and a staged next position.
func crowd(t *testing.T, s *sim, positions ...mgl64.Vec3) []ecs.EntityID {
	t.Helper()
	ids := make([]ecs.EntityID, len(positions))
	for i, p := range positions {
		ids[i] = s.addAgent(p, true)
		s.moving(ids[i], p.Add(mgl64.Vec3{0, 0, 10}), p.Add(mgl64.Vec3{0, 0, 20}))
		a := s.agent(ids[i])
		a.CurrentMoveSpeed = 2
		a.NextPosition = p
		a.HasNextPosition = true
	}
	return ids
}

func TestAvoidanceBucketPartition(t *testing.T) {
	s := newSim(t)
	ids := crowd(t, s,
		mgl64.Vec3{10, 0, 10},     // 0: leader of the shared cell
		mgl64.Vec3{10.5, 0, 9.8},  // 1: same cell, odd
		mgl64.Vec3{30, 0, 10},     // 2: alone
		mgl64.Vec3{9.6, 0, 10.4},  // 3: same cell, odd
		mgl64.Vec3{10.2, 0, 10.2}, // 4: same cell, even
	)
	before := make([]component.NavAgent, len(ids))
	for i, id := range ids {
		before[i] = *s.agent(id)
	}

	s.avoid.Update(frame) // dt = 0.1s, drift = rot*(fwd+side)*2*0.1
	const d = 0.2

	shared := world.BucketKey(mgl64.Vec3{10, 0, 10}, 2, 100)
	for _, i := range []int{0, 1, 3, 4} {
		p, _ := s.world.Avoidance.Get(ids[i])
		assert.Equal(t, shared, p.Partition, "agent %d", i)
	}
	alone, _ := s.world.Avoidance.Get(ids[2])
	assert.NotEqual(t, shared, alone.Partition)

	for _, i := range []int{0, 2} {
		assert.Equal(t, before[i], *s.agent(ids[i]), "agent %d must be untouched", i)
	}

	right := mgl64.Vec3{d, 0, d}
	left := mgl64.Vec3{-d, 0, d}
	for i, side := range map[int]mgl64.Vec3{1: right, 3: right, 4: left} {
		a := s.agent(ids[i])
		assert.InDelta(t, 1.0, a.CurrentMoveSpeed, 1e-9, "agent %d speed", i)
		assert.True(t, a.NextPosition.ApproxEqualThreshold(before[i].Position.Add(side), 1e-9), "agent %d next %v", i, a.NextPosition)
		assert.True(t, a.CurrentWaypoint.ApproxEqualThreshold(before[i].CurrentWaypoint.Add(side), 1e-9), "agent %d waypoint", i)
	}

	buckets, followers := s.avoid.Stats()
	assert.Equal(t, 2, buckets)
	assert.Equal(t, 3, followers)
}

func TestAvoidanceSpeedFloorAndOffMeshFallback(t *testing.T) {
	s := newSim(t)
	s.avoid = NewAvoidanceSystem(s.world, rejectSampler{}, s.pool, AvoidanceConfig{MinSpeed: 0.5, SampleExtent: 3, GridWidth: 100})
	ids := crowd(t, s, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.1, 0, 0.1})
	follower := s.agent(ids[1])
	follower.CurrentMoveSpeed = 0.6
	follower.NextPosition = mgl64.Vec3{5, 5, 5}
	wp := follower.CurrentWaypoint

	s.avoid.Update(frame)
	follower = s.agent(ids[1])
	assert.Equal(t, 0.5, follower.CurrentMoveSpeed)
	assert.Equal(t, follower.Position, follower.NextPosition)
	assert.Equal(t, wp, follower.CurrentWaypoint)
}

func TestAvoidanceLastWaypointKept(t *testing.T) {
	s := newSim(t)
	ids := crowd(t, s, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.1, 0, 0.1})
	f := s.agent(ids[1])
	f.NextWaypointIndex = f.TotalWaypoints
	wp := f.CurrentWaypoint

	s.avoid.Update(frame)
	assert.Equal(t, wp, s.agent(ids[1]).CurrentWaypoint)
	assert.InDelta(t, 1.0, s.agent(ids[1]).CurrentMoveSpeed, 1e-9)
}

func TestAvoidanceIdleAgentLeadsItsBucket(t *testing.T) {
	s := newSim(t)
	idle := s.addAgent(mgl64.Vec3{0, 0, 0}, true)
	bare := s.addAgent(mgl64.Vec3{0, 0, 0}, false)
	ids := crowd(t, s, mgl64.Vec3{0.1, 0, 0})
	s.agent(bare).Status = component.AgentMoving
	leader := *s.agent(idle)
	bareBefore := *s.agent(bare)

	s.avoid.Update(frame)

	assert.Equal(t, leader, *s.agent(idle), "lowest index leads, whatever its status")
	assert.Equal(t, bareBefore, *s.agent(bare), "agents without a profile are never bucketed")
	require.InDelta(t, 1.0, s.agent(ids[0]).CurrentMoveSpeed, 1e-9, "moving agent follows the idle leader")
	p, _ := s.world.Avoidance.Get(idle)
	assert.Equal(t, world.BucketKey(mgl64.Vec3{}, 2, 100), p.Partition)
	buckets, followers := s.avoid.Stats()
	assert.Equal(t, 1, buckets)
	assert.Equal(t, 1, followers)
}

func TestAvoidanceCorrectsIdleFollower(t *testing.T) {
	s := newSim(t)
	ids := crowd(t, s, mgl64.Vec3{0, 0, 0})
	idle := s.addAgent(mgl64.Vec3{0.1, 0, 0.1}, true)
	s.agent(idle).CurrentMoveSpeed = 2

	s.avoid.Update(frame)

	a := s.agent(idle)
	assert.Equal(t, component.AgentIdle, a.Status)
	assert.InDelta(t, 1.0, a.CurrentMoveSpeed, 1e-9)
	assert.True(t, a.HasNextPosition)
	assert.Equal(t, mgl64.Vec3{}, a.CurrentWaypoint, "no waypoints left to drift")
	assert.InDelta(t, 2.0, s.agent(ids[0]).CurrentMoveSpeed, 1e-9)
}

func TestAvoidanceDefaultGridWidth(t *testing.T) {
	s := newSim(t)
	s.avoid = NewAvoidanceSystem(s.world, navtest.OpenSampler{}, s.pool, AvoidanceConfig{MinSpeed: 0.5, SampleExtent: 3})
	crowd(t, s, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0})
	s.avoid.Update(frame)
	_, followers := s.avoid.Stats()
	assert.Equal(t, 1, followers, "grid width defaults to 1")
}
