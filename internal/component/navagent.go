package component

import "github.com/go-gl/mathgl/mgl64"

// AgentStatus is the movement state of a NavAgent.
type AgentStatus uint8

const (
	AgentIdle       AgentStatus = iota // no goal, eligible for a new destination
	AgentPathQueued                    // path request in flight, does not move
	AgentMoving                        // following waypoints
)

func (s AgentStatus) String() string {
	switch s {
	case AgentIdle:
		return "idle"
	case AgentPathQueued:
		return "path_queued"
	case AgentMoving:
		return "moving"
	}
	return "unknown"
}

// NavAgent stores the pose and waypoint cursor of one simulated agent.
// Pure data; systems do all the mutation.
type NavAgent struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat

	Destination mgl64.Vec3

	// Waypoint cursor. The full list lives with the path coordinator.
	CurrentWaypoint   mgl64.Vec3
	NextWaypointIndex int
	TotalWaypoints    int

	RemainingDistance float64
	StoppingDistance  float64

	MoveSpeed        float64
	CurrentMoveSpeed float64
	Acceleration     float64
	RotationSpeed    float64

	AreaMask int32 // navigable-area filter, -1 = all areas

	Status       AgentStatus
	QueryVersion int // navmesh version stamped at request time

	// NextPosition is staged by movement integration (and adjusted by
	// avoidance) and committed into Position on the following frame.
	// HasNextPosition=false means "unset, keep the current position".
	NextPosition    mgl64.Vec3
	HasNextPosition bool
}

// NavAgentParams are the per-agent tuning values chosen at spawn time.
type NavAgentParams struct {
	StoppingDistance float64
	MoveSpeed        float64
	Acceleration     float64
	RotationSpeed    float64
	AreaMask         int32
}

// NewNavAgent returns an Idle agent standing at position.
func NewNavAgent(position mgl64.Vec3, rotation mgl64.Quat, p NavAgentParams) NavAgent {
	return NavAgent{
		Position:         position,
		Rotation:         rotation,
		StoppingDistance: p.StoppingDistance,
		MoveSpeed:        p.MoveSpeed,
		Acceleration:     p.Acceleration,
		RotationSpeed:    p.RotationSpeed,
		AreaMask:         p.AreaMask,
		Status:           AgentIdle,
	}
}

// SpawnProfile is everything intake needs to create one agent.
type SpawnProfile struct {
	Params          NavAgentParams
	Avoidance       bool
	AvoidanceRadius float64
}
