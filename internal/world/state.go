package world

import (
	"github.com/crowdnav/crowdsim/internal/component"
	"github.com/crowdnav/crowdsim/internal/core/ecs"
)

// State is the simulation world owned by the frame goroutine. Stores are
// dense so pipeline stages can split them into disjoint index ranges.
type State struct {
	ECS       *ecs.World
	Agents    *ecs.DenseStore[component.NavAgent]
	Avoidance *ecs.DenseStore[component.NavAgentAvoidance]

	Destinations *DestinationCache
	Placements   *PlacementInbox
	Spawns       *SpawnSignal

	SpawnedTotal int
}

func NewState(capacity int) *State {
	return &State{
		ECS:          ecs.NewWorld(),
		Agents:       ecs.NewDenseStore[component.NavAgent](capacity),
		Avoidance:    ecs.NewDenseStore[component.NavAgentAvoidance](capacity),
		Destinations: NewDestinationCache(),
		Placements:   NewPlacementInbox(),
		Spawns:       &SpawnSignal{},
	}
}

// SpawnAgent creates an entity carrying agent, plus an avoidance profile
// when avoidance is non-nil. Frame goroutine only, between stages.
func (s *State) SpawnAgent(agent component.NavAgent, avoidance *component.NavAgentAvoidance) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Agents.Add(id, agent)
	if avoidance != nil {
		s.Avoidance.Add(id, *avoidance)
	}
	s.SpawnedTotal++
	return id
}

// StatusCounts tallies agents per status.
func (s *State) StatusCounts() (idle, queued, moving int) {
	s.Agents.Each(func(_ int, _ ecs.EntityID, a *component.NavAgent) {
		switch a.Status {
		case component.AgentIdle:
			idle++
		case component.AgentPathQueued:
			queued++
		case component.AgentMoving:
			moving++
		}
	})
	return idle, queued, moving
}
