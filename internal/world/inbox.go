package world

import (
	"sync"
	"sync/atomic"

	"github.com/crowdnav/crowdsim/internal/component"
)

// PlacementInbox collects placement events from loaders and the database
// feed (any goroutine) until the frame drains them. Each event is handed
// out exactly once.
type PlacementInbox struct {
	mu      sync.Mutex
	pending []component.Placement
}

func NewPlacementInbox() *PlacementInbox {
	return &PlacementInbox{}
}

func (in *PlacementInbox) Push(ps ...component.Placement) {
	if len(ps) == 0 {
		return
	}
	in.mu.Lock()
	in.pending = append(in.pending, ps...)
	in.mu.Unlock()
}

// Drain appends every queued event to dst and empties the inbox.
func (in *PlacementInbox) Drain(dst []component.Placement) []component.Placement {
	in.mu.Lock()
	dst = append(dst, in.pending...)
	in.pending = in.pending[:0]
	in.mu.Unlock()
	return dst
}

func (in *PlacementInbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.pending)
}

// SpawnSignal is the external pending-spawn counter. Producers Add from any
// goroutine; intake reads and resets it once per frame.
type SpawnSignal struct {
	n atomic.Int64
}

func (s *SpawnSignal) Add(n int) {
	if n > 0 {
		s.n.Add(int64(n))
	}
}

// Take returns the pending count and resets it to zero.
func (s *SpawnSignal) Take() int { return int(s.n.Swap(0)) }

// Peek returns the pending count without consuming it.
func (s *SpawnSignal) Peek() int { return int(s.n.Load()) }
