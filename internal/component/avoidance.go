package component

// NavAgentAvoidance opts an agent into local avoidance.
type NavAgentAvoidance struct {
	Radius    float64 // bucket cell size
	Partition int     // bucket key from the last avoidance pass (derived)
}
