package system

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crowdnav/crowdsim/internal/component"
	"github.com/crowdnav/crowdsim/internal/core/event"
	coresys "github.com/crowdnav/crowdsim/internal/core/system"
)

func TestSpawnCyclesResidential(t *testing.T) {
	s := newSim(t)
	a, b := mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0, 0, 10}
	s.place(component.Residential, a, b)
	var spawned []event.AgentSpawned
	event.Subscribe(s.bus, func(e event.AgentSpawned) { spawned = append(spawned, e) })

	s.world.Spawns.Add(3)
	s.spawn.Update(frame)

	require.Equal(t, 3, s.world.Agents.Len())
	var got []mgl64.Vec3
	for i := 0; i < 3; i++ {
		ag := s.world.Agents.At(i)
		got = append(got, ag.Position)
		assert.Equal(t, component.AgentIdle, ag.Status)
		assert.Equal(t, testParams.MoveSpeed, ag.MoveSpeed)
	}
	assert.Equal(t, []mgl64.Vec3{a, b, a}, got)
	assert.Equal(t, 3, s.world.SpawnedTotal)
	assert.Equal(t, 3, s.world.Avoidance.Len())
	assert.Zero(t, s.world.Spawns.Peek())

	s.bus.SwapBuffers()
	s.bus.DispatchAll()
	assert.Len(t, spawned, 3)
}

func TestSpawnWaitsForResidential(t *testing.T) {
	s := newSim(t)
	s.world.Spawns.Add(2)
	s.spawn.Update(frame)
	assert.Zero(t, s.world.Agents.Len())
	assert.Equal(t, 2, s.world.Spawns.Peek())
}

type oddNoAvoid struct{}

func (oddNoAvoid) AgentProfile(seq int, def component.SpawnProfile) component.SpawnProfile {
	def.Avoidance = seq%2 == 0
	def.Params.MoveSpeed = float64(seq + 1)
	return def
}

func TestSpawnUsesProfiler(t *testing.T) {
	s := newSim(t)
	s.place(component.Residential, mgl64.Vec3{})
	sp := NewSpawnSystem(s.world, oddNoAvoid{}, component.SpawnProfile{Params: testParams, AvoidanceRadius: 2}, s.bus, zap.NewNop())
	s.world.Spawns.Add(4)
	sp.Update(frame)

	assert.Equal(t, 4, s.world.Agents.Len())
	assert.Equal(t, 2, s.world.Avoidance.Len())
	assert.Equal(t, 4.0, s.world.Agents.At(3).MoveSpeed)
}

func TestPlacementSystemIngestsOnce(t *testing.T) {
	s := newSim(t)
	s.world.Placements.Push(
		component.Placement{Position: mgl64.Vec3{1, 0, 1}, Category: component.Residential},
		component.Placement{Position: mgl64.Vec3{2, 0, 2}, Category: component.Commercial},
	)
	s.runner.TickPhase(coresys.PhaseInput, frame)
	s.runner.TickPhase(coresys.PhaseInput, frame)
	assert.Equal(t, 1, s.world.Destinations.Len(component.Residential))
	assert.Equal(t, 1, s.world.Destinations.Len(component.Commercial))
}
