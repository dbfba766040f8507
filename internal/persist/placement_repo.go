package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/crowdnav/crowdsim/internal/component"
)

// PlacementRow is one row of the placements table.
type PlacementRow struct {
	ID       int64
	Category string
	X, Y, Z  float64
}

// Placement converts the row into a placement event.
func (r PlacementRow) Placement() (component.Placement, error) {
	cat, err := component.ParseDestinationCategory(r.Category)
	if err != nil {
		return component.Placement{}, err
	}
	return component.Placement{Position: mgl64.Vec3{r.X, r.Y, r.Z}, Category: cat}, nil
}

type PlacementRepo struct {
	db *DB
}

func NewPlacementRepo(db *DB) *PlacementRepo {
	return &PlacementRepo{db: db}
}

// ClaimPending marks up to limit unconsumed placements as consumed and
// returns them in id order. A row is returned by exactly one claim.
func (r *PlacementRepo) ClaimPending(ctx context.Context, limit int) ([]PlacementRow, error) {
	rows, err := r.db.Pool.Query(ctx,
		`WITH claimed AS (
		     UPDATE placements SET consumed = TRUE, consumed_at = now()
		     WHERE id IN (
		         SELECT id FROM placements WHERE NOT consumed
		         ORDER BY id LIMIT $1 FOR UPDATE SKIP LOCKED
		     )
		     RETURNING id, category, pos_x, pos_y, pos_z
		 )
		 SELECT id, category, pos_x, pos_y, pos_z FROM claimed ORDER BY id`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("claim placements: %w", err)
	}
	defer rows.Close()

	var out []PlacementRow
	for rows.Next() {
		var p PlacementRow
		if err := rows.Scan(&p.ID, &p.Category, &p.X, &p.Y, &p.Z); err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim placements: %w", err)
	}
	return out, nil
}

// Insert queues a new placement; used by tooling and tests.
func (r *PlacementRepo) Insert(ctx context.Context, p component.Placement) (int64, error) {
	var id int64
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO placements (category, pos_x, pos_y, pos_z) VALUES ($1, $2, $3, $4) RETURNING id`,
		p.Category.String(), p.Position.X(), p.Position.Y(), p.Position.Z(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert placement: %w", err)
	}
	return id, nil
}

// PlacementSink receives claimed placements; world.PlacementInbox
// satisfies it.
type PlacementSink interface {
	Push(ps ...component.Placement)
}

// PlacementClaimer is the part of PlacementRepo the feed needs.
type PlacementClaimer interface {
	ClaimPending(ctx context.Context, limit int) ([]PlacementRow, error)
}

// RunPlacementFeed polls claimer every interval and pushes new placements
// into sink until ctx is done. Rows with an unknown category are logged
// and dropped.
func RunPlacementFeed(ctx context.Context, claimer PlacementClaimer, sink PlacementSink, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		pollPlacements(ctx, claimer, sink, log)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func pollPlacements(ctx context.Context, claimer PlacementClaimer, sink PlacementSink, log *zap.Logger) int {
	const batch = 500
	total := 0
	for {
		rows, err := claimer.ClaimPending(ctx, batch)
		if err != nil {
			if ctx.Err() == nil {
				log.Error("placement poll failed", zap.Error(err))
			}
			return total
		}
		ps := make([]component.Placement, 0, len(rows))
		for _, row := range rows {
			p, err := row.Placement()
			if err != nil {
				log.Warn("skip placement", zap.Int64("id", row.ID), zap.Error(err))
				continue
			}
			ps = append(ps, p)
		}
		sink.Push(ps...)
		total += len(ps)
		if len(rows) < batch {
			if total > 0 {
				log.Info("placements claimed", zap.Int("count", total))
			}
			return total
		}
	}
}
