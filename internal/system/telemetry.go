package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/diag"
)

// FrameSink stores frame summaries; telemetry.FrameLogger satisfies it.
type FrameSink interface {
	WriteFrame(diag.Snapshot) error
}

// TelemetrySystem writes the diagnostics sample of every Nth frame to the
// frame log. Phase 4 (Output), registered after DiagnosticsSystem.
type TelemetrySystem struct {
	diag  *DiagnosticsSystem
	sink  FrameSink
	every int
	log   *zap.Logger

	tickCount int
	failures  int
}

func NewTelemetrySystem(d *DiagnosticsSystem, sink FrameSink, every int, log *zap.Logger) *TelemetrySystem {
	if every < 1 {
		every = 1
	}
	return &TelemetrySystem{diag: d, sink: sink, every: every, log: log}
}

func (s *TelemetrySystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *TelemetrySystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.every {
		return
	}
	s.tickCount = 0
	if err := s.sink.WriteFrame(s.diag.Last()); err != nil {
		s.failures++
		// Log the first failure and every 100th after it.
		if s.failures%100 == 1 {
			s.log.Error("write frame telemetry", zap.Int("failures", s.failures), zap.Error(err))
		}
	}
}
