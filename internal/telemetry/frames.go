package telemetry

import (
	"path/filepath"

	"github.com/google/uuid"

	"github.com/crowdnav/crowdsim/internal/diag"
)

// FrameRecord is one line of the frame log.
type FrameRecord struct {
	RunID string `json:"run"`
	diag.Snapshot
}

// FrameLogger writes frame summaries tagged with a per-process run id.
type FrameLogger struct {
	runID string
	w     *JSONLZstdWriter
}

// NewFrameLogger logs into <dir>/frames. An empty runID gets a fresh uuid.
func NewFrameLogger(dir, runID string) *FrameLogger {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &FrameLogger{
		runID: runID,
		w:     NewJSONLZstdWriter(filepath.Join(dir, "frames"), "frames"),
	}
}

func (l *FrameLogger) RunID() string { return l.runID }

func (l *FrameLogger) WriteFrame(s diag.Snapshot) error {
	return l.w.Write(FrameRecord{RunID: l.runID, Snapshot: s})
}

func (l *FrameLogger) Flush() error { return l.w.Flush() }
func (l *FrameLogger) Close() error { return l.w.Close() }
