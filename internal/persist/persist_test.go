package persist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/crowdnav/crowdsim/internal/component"
)

type fakeClaimer struct {
	batches [][]PlacementRow
	err     error
}

func (f *fakeClaimer) ClaimPending(_ context.Context, _ int) ([]PlacementRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

type sliceSink struct{ got []component.Placement }

func (s *sliceSink) Push(ps ...component.Placement) { s.got = append(s.got, ps...) }

func TestPollPlacementsConvertsRows(t *testing.T) {
	claimer := &fakeClaimer{batches: [][]PlacementRow{{
		{ID: 1, Category: "residential", X: 1, Z: 2},
		{ID: 2, Category: "park", X: 5},
		{ID: 3, Category: "Commercial", X: 3, Y: 1, Z: 4},
	}}}
	sink := &sliceSink{}

	n := pollPlacements(context.Background(), claimer, sink, zap.NewNop())
	assert.Equal(t, 2, n)
	assert.Equal(t, []component.Placement{
		{Position: mgl64.Vec3{1, 0, 2}, Category: component.Residential},
		{Position: mgl64.Vec3{3, 1, 4}, Category: component.Commercial},
	}, sink.got)
}

func TestPollPlacementsError(t *testing.T) {
	sink := &sliceSink{}
	n := pollPlacements(context.Background(), &fakeClaimer{err: errors.New("down")}, sink, zap.NewNop())
	assert.Zero(t, n)
	assert.Empty(t, sink.got)
}

type recordingInserter struct {
	mu   sync.Mutex
	rows []FrameStatRow
}

func (r *recordingInserter) InsertBatch(_ context.Context, rows []FrameStatRow) error {
	r.mu.Lock()
	r.rows = append(r.rows, rows...)
	r.mu.Unlock()
	return nil
}

func TestStatsWriterFlushesOnClose(t *testing.T) {
	rec := &recordingInserter{}
	w := NewStatsWriter(rec, zap.NewNop())
	go w.Run()

	w.Submit([]FrameStatRow{{Frame: 1}, {Frame: 2}})
	w.Submit([]FrameStatRow{{Frame: 3}})
	w.Close()

	require.Len(t, rec.rows, 3)
	assert.Equal(t, uint64(3), rec.rows[2].Frame)
}

func TestGooseLoggerWritesThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := gooseLogger{log: zap.New(core)}

	l.Printf("OK   %s (%dms)\n", "00001_init.sql", 12)
	l.Fatalf("failed to open %s", "migrations")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "OK   00001_init.sql (12ms)", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "failed to open migrations", entries[1].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestMigrationsEmbedded(t *testing.T) {
	b, err := migrations.ReadFile("migrations/00001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "frame_stats")
	assert.Contains(t, string(b), "placements")
}
