package system

import (
	"time"

	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/persist"
)

// StatsSink takes finished batches; persist.StatsWriter satisfies it.
type StatsSink interface {
	Submit(rows []persist.FrameStatRow)
}

// PersistenceSystem samples frame stats every interval frames and hands
// them to the database writer in batches. Phase 5 (Persist). Agent state
// itself is never saved.
type PersistenceSystem struct {
	diag      *DiagnosticsSystem
	sink      StatsSink
	runID     string
	interval  int // sample every N frames
	batchSize int

	tickCount int
	batch     []persist.FrameStatRow
}

func NewPersistenceSystem(d *DiagnosticsSystem, sink StatsSink, runID string, intervalFrames, batchSize int) *PersistenceSystem {
	if intervalFrames < 1 {
		intervalFrames = 1
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &PersistenceSystem{
		diag:      d,
		sink:      sink,
		runID:     runID,
		interval:  intervalFrames,
		batchSize: batchSize,
		batch:     make([]persist.FrameStatRow, 0, batchSize),
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0

	snap := s.diag.Last()
	s.batch = append(s.batch, persist.FrameStatRow{
		RunID:        s.runID,
		Frame:        snap.Frame,
		SampledAt:    snap.At,
		SpawnedTotal: snap.SpawnedTotal,
		Idle:         snap.Idle,
		PathQueued:   snap.PathQueued,
		Moving:       snap.Moving,
		PendingPaths: snap.PendingPathCount,
		CachedPaths:  snap.CachedPathCount,
		PathFailed:   snap.PathFailed,
		FrameMillis:  snap.FrameMillis,
	})
	if len(s.batch) >= s.batchSize {
		s.Flush()
	}
}

// Flush submits the partial batch. Called on shutdown.
func (s *PersistenceSystem) Flush() {
	if len(s.batch) == 0 {
		return
	}
	s.sink.Submit(s.batch)
	s.batch = make([]persist.FrameStatRow, 0, s.batchSize)
}
