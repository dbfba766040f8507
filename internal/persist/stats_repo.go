package persist

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// FrameStatRow is one sampled frame.
type FrameStatRow struct {
	RunID        string
	Frame        uint64
	SampledAt    time.Time
	SpawnedTotal int
	Idle         int
	PathQueued   int
	Moving       int
	PendingPaths int
	CachedPaths  int
	PathFailed   int
	FrameMillis  float64
}

type FrameStatsRepo struct {
	db *DB
}

func NewFrameStatsRepo(db *DB) *FrameStatsRepo {
	return &FrameStatsRepo{db: db}
}

// InsertBatch writes rows in a single transaction.
func (r *FrameStatsRepo) InsertBatch(ctx context.Context, rows []FrameStatRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("frame_stats begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range rows {
		if _, err := tx.Exec(ctx,
			`INSERT INTO frame_stats (run_id, frame, sampled_at, spawned_total, idle, path_queued,
			     moving, pending_paths, cached_paths, path_failed, frame_ms)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			s.RunID, int64(s.Frame), s.SampledAt, s.SpawnedTotal, s.Idle, s.PathQueued,
			s.Moving, s.PendingPaths, s.CachedPaths, s.PathFailed, s.FrameMillis,
		); err != nil {
			return fmt.Errorf("frame_stats insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// BatchInserter is the part of FrameStatsRepo the writer needs.
type BatchInserter interface {
	InsertBatch(ctx context.Context, rows []FrameStatRow) error
}

// StatsWriter moves frame stat batches off the frame goroutine. Submit
// never blocks; when the writer falls behind, batches are dropped and
// counted.
type StatsWriter struct {
	repo    BatchInserter
	log     *zap.Logger
	queue   chan []FrameStatRow
	done    chan struct{}
	dropped int
}

func NewStatsWriter(repo BatchInserter, log *zap.Logger) *StatsWriter {
	return &StatsWriter{
		repo:  repo,
		log:   log,
		queue: make(chan []FrameStatRow, 16),
		done:  make(chan struct{}),
	}
}

// Submit hands rows to the writer goroutine. Frame goroutine only.
func (w *StatsWriter) Submit(rows []FrameStatRow) {
	select {
	case w.queue <- rows:
	default:
		w.dropped++
		w.log.Warn("frame stats dropped", zap.Int("rows", len(rows)), zap.Int("dropped_batches", w.dropped))
	}
}

// Run writes batches until Close; call it on its own goroutine.
func (w *StatsWriter) Run() {
	defer close(w.done)
	for rows := range w.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := w.repo.InsertBatch(ctx, rows); err != nil {
			w.log.Error("write frame stats", zap.Int("rows", len(rows)), zap.Error(err))
		}
		cancel()
	}
}

// Close stops accepting batches and waits for queued ones to be written.
func (w *StatsWriter) Close() {
	close(w.queue)
	<-w.done
}
