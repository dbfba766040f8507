package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/crowdnav/crowdsim/internal/component"
	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/world"
)

// PlacementSystem moves queued placement events into the destination
// cache. Phase 0 (Input). Each event is ingested once and discarded.
type PlacementSystem struct {
	world *world.State
	log   *zap.Logger
	buf   []component.Placement
}

func NewPlacementSystem(ws *world.State, log *zap.Logger) *PlacementSystem {
	return &PlacementSystem{world: ws, log: log}
}

func (s *PlacementSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *PlacementSystem) Update(_ time.Duration) {
	s.buf = s.world.Placements.Drain(s.buf[:0])
	if len(s.buf) == 0 {
		return
	}
	for _, p := range s.buf {
		s.world.Destinations.Add(p)
	}
	s.log.Debug("placements ingested",
		zap.Int("count", len(s.buf)),
		zap.Int("residential", s.world.Destinations.Len(component.Residential)),
		zap.Int("commercial", s.world.Destinations.Len(component.Commercial)),
	)
}
