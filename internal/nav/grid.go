package nav

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Blocked marks a cell that no agent may enter.
const Blocked int8 = -1

// Grid is a uniform tile navmesh on the XZ plane. Every cell carries an
// area id (0..31) or Blocked. Cell (0,0) starts at Origin.
// Immutable after construction; rebuilds swap in a new Grid.
type Grid struct {
	width    int
	height   int
	cellSize float64
	origin   mgl64.Vec3
	areas    []int8 // flat array [z*width + x]
}

func NewGrid(width, height int, cellSize float64, origin mgl64.Vec3, areas []int8) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrBadNavmesh, width, height)
	}
	if cellSize <= 0 {
		return nil, fmt.Errorf("%w: cell size %v", ErrBadNavmesh, cellSize)
	}
	if len(areas) != width*height {
		return nil, fmt.Errorf("%w: %d cells for %dx%d", ErrBadNavmesh, len(areas), width, height)
	}
	return &Grid{
		width:    width,
		height:   height,
		cellSize: cellSize,
		origin:   origin,
		areas:    append([]int8(nil), areas...),
	}, nil
}

func (g *Grid) Width() int        { return g.width }
func (g *Grid) Height() int       { return g.height }
func (g *Grid) CellSize() float64 { return g.cellSize }

// MaxMapWidth is an upper bound on any rounded world coordinate span, used
// as the row stride for avoidance bucket keys.
func (g *Grid) MaxMapWidth() int {
	span := float64(g.width)
	if g.height > g.width {
		span = float64(g.height)
	}
	return int(math.Ceil(span*g.cellSize)) + 1
}

// Cell returns the cell containing pos.
func (g *Grid) Cell(pos mgl64.Vec3) (int, int, bool) {
	cx := int(math.Floor((pos.X() - g.origin.X()) / g.cellSize))
	cz := int(math.Floor((pos.Z() - g.origin.Z()) / g.cellSize))
	return cx, cz, g.inBounds(cx, cz)
}

// Center returns the world position of the middle of cell (cx, cz).
func (g *Grid) Center(cx, cz int) mgl64.Vec3 {
	return mgl64.Vec3{
		g.origin.X() + (float64(cx)+0.5)*g.cellSize,
		g.origin.Y(),
		g.origin.Z() + (float64(cz)+0.5)*g.cellSize,
	}
}

func (g *Grid) Area(cx, cz int) int8 {
	if !g.inBounds(cx, cz) {
		return Blocked
	}
	return g.areas[cz*g.width+cx]
}

func (g *Grid) Walkable(cx, cz int, areaMask int32) bool {
	return AreaAllowed(g.Area(cx, cz), areaMask)
}

// Sample returns the point of the nearest walkable cell (by distance from
// pos) whose footprint intersects the box pos±extent. The returned point
// sits on the navmesh plane.
func (g *Grid) Sample(pos mgl64.Vec3, extent float64, areaMask int32) (mgl64.Vec3, bool) {
	if extent < 0 || math.IsNaN(pos.X()) || math.IsNaN(pos.Z()) {
		return pos, false
	}
	minX := int(math.Floor((pos.X() - extent - g.origin.X()) / g.cellSize))
	maxX := int(math.Floor((pos.X() + extent - g.origin.X()) / g.cellSize))
	minZ := int(math.Floor((pos.Z() - extent - g.origin.Z()) / g.cellSize))
	maxZ := int(math.Floor((pos.Z() + extent - g.origin.Z()) / g.cellSize))

	best := math.Inf(1)
	var found mgl64.Vec3
	for cz := max(minZ, 0); cz <= min(maxZ, g.height-1); cz++ {
		for cx := max(minX, 0); cx <= min(maxX, g.width-1); cx++ {
			if !g.Walkable(cx, cz, areaMask) {
				continue
			}
			p := g.closestInCell(cx, cz, pos)
			d := (p.X()-pos.X())*(p.X()-pos.X()) + (p.Z()-pos.Z())*(p.Z()-pos.Z())
			if d < best {
				best = d
				found = p
			}
		}
	}
	if math.IsInf(best, 1) {
		return pos, false
	}
	return found, true
}

func (g *Grid) closestInCell(cx, cz int, pos mgl64.Vec3) mgl64.Vec3 {
	x0 := g.origin.X() + float64(cx)*g.cellSize
	z0 := g.origin.Z() + float64(cz)*g.cellSize
	return mgl64.Vec3{
		clamp(pos.X(), x0, x0+g.cellSize),
		g.origin.Y(),
		clamp(pos.Z(), z0, z0+g.cellSize),
	}
}

func (g *Grid) inBounds(cx, cz int) bool {
	return cx >= 0 && cz >= 0 && cx < g.width && cz < g.height
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
