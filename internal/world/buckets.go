package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SpatialBuckets groups agents whose positions round to the same avoidance
// cell. Rebuilt from scratch every frame on the frame goroutine; no locks.

// BucketKey hashes pos into a cell of size radius on the XZ plane. gridWidth
// is the row stride and must exceed any rounded Z span for keys to be unique.
func BucketKey(pos mgl64.Vec3, radius float64, gridWidth int) int {
	cx := int(math.Round(pos.X() / radius))
	cz := int(math.Round(pos.Z() / radius))
	return cx*gridWidth + cz
}

// BucketMember is one agent's entry in a cell.
type BucketMember struct {
	Index int        // dense agent index
	Next  mgl64.Vec3 // proposed next position at bucketing time
}

// SpatialBuckets maps cell key → members in insertion order.
type SpatialBuckets struct {
	cells map[int][]BucketMember
	keys  []int // first-insert order, for deterministic iteration
}

func NewSpatialBuckets() *SpatialBuckets {
	return &SpatialBuckets{
		cells: make(map[int][]BucketMember),
	}
}

// Reset empties every cell.
func (b *SpatialBuckets) Reset() {
	clear(b.cells)
	b.keys = b.keys[:0]
}

// Insert appends m to the cell identified by key.
func (b *SpatialBuckets) Insert(key int, m BucketMember) {
	cell, ok := b.cells[key]
	if !ok {
		b.keys = append(b.keys, key)
	}
	b.cells[key] = append(cell, m)
}

// Keys returns occupied cell keys in the order they were first filled.
func (b *SpatialBuckets) Keys() []int { return b.keys }

// Members returns the members of one cell. The slice is owned by the
// buckets and valid until the next Reset.
func (b *SpatialBuckets) Members(key int) []BucketMember { return b.cells[key] }

// Len returns the number of occupied cells.
func (b *SpatialBuckets) Len() int { return len(b.keys) }

// Crowded returns keys of cells with more than one member.
func (b *SpatialBuckets) Crowded(dst []int) []int {
	dst = dst[:0]
	for _, k := range b.keys {
		if len(b.cells[k]) > 1 {
			dst = append(dst, k)
		}
	}
	return dst
}
