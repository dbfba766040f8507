package event

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/crowdnav/crowdsim/internal/core/ecs"
)

// PathFailed is emitted when a failure callback is applied to an agent.
type PathFailed struct {
	Entity ecs.EntityID
	Reason string
}

// AgentSpawned is emitted by population intake for every new agent.
type AgentSpawned struct {
	Entity   ecs.EntityID
	Position mgl64.Vec3
}

// NavmeshRebuilt is emitted when the gateway version moves forward.
type NavmeshRebuilt struct {
	Version int
}
