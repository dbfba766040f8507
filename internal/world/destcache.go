package world

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/crowdnav/crowdsim/internal/component"
)

// ErrEmptyCache is returned by GetNext for a category with no entries.
// Callers are expected to check Len first.
var ErrEmptyCache = errors.New("destination cache empty")

type categoryList struct {
	positions []mgl64.Vec3
	cursor    int // always in [0, len(positions)) once non-empty
}

// DestinationCache holds placed points of interest per category and hands
// them out round-robin. Entries are never removed. Frame goroutine only.
type DestinationCache struct {
	lists [2]categoryList
}

func NewDestinationCache() *DestinationCache {
	return &DestinationCache{}
}

func (c *DestinationCache) list(cat component.DestinationCategory) *categoryList {
	if int(cat) >= len(c.lists) {
		return nil
	}
	return &c.lists[cat]
}

// Add ingests one placement record.
func (c *DestinationCache) Add(p component.Placement) {
	l := c.list(p.Category)
	if l == nil {
		return
	}
	l.positions = append(l.positions, p.Position)
}

// Len returns the number of entries in cat.
func (c *DestinationCache) Len(cat component.DestinationCategory) int {
	l := c.list(cat)
	if l == nil {
		return 0
	}
	return len(l.positions)
}

// GetNext returns the entry under cat's cursor and advances it, wrapping
// to 0 past the end.
func (c *DestinationCache) GetNext(cat component.DestinationCategory) (mgl64.Vec3, error) {
	l := c.list(cat)
	if l == nil || len(l.positions) == 0 {
		return mgl64.Vec3{}, fmt.Errorf("%w: %s", ErrEmptyCache, cat)
	}
	p := l.positions[l.cursor]
	l.cursor++
	if l.cursor >= len(l.positions) {
		l.cursor = 0
	}
	return p, nil
}
