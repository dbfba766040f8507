package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhaseInput      Phase = iota // 0: placements, deferred path results, events
	PhasePreUpdate               // 1: spawn intake, idle dispatch
	PhaseUpdate                  // 2: movement pipeline
	PhasePostUpdate              // 3: local avoidance
	PhaseOutput                  // 4: diagnostics + telemetry
	PhasePersist                 // 5: stats batch handoff
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre-update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post-update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	}
	return "unknown"
}

// System is the interface every frame system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
