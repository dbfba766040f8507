package nav

import (
	"container/heap"
	"math"
)

type cell struct{ x, z int }

var neighbourOffsets = [8]cell{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

type openNode struct {
	idx int
	f   float64
	seq int // insertion order breaks f ties, keeps results deterministic
}

type openSet []openNode

func (s openSet) Len() int { return len(s) }
func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}
func (s openSet) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s *openSet) Push(x any)   { *s = append(*s, x.(openNode)) }
func (s *openSet) Pop() any {
	old := *s
	n := old[len(old)-1]
	*s = old[:len(old)-1]
	return n
}

// findCells runs 8-neighbour A* from start to goal. Diagonal steps are only
// taken when both orthogonal cells are walkable, so paths never clip a
// blocked corner. The returned cells include start and goal.
func (g *Grid) findCells(start, goal cell, areaMask int32) ([]cell, bool) {
	if start == goal {
		return []cell{start}, true
	}
	n := g.width * g.height
	gScore := make([]float64, n)
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}
	cameFrom := make([]int32, n)
	closed := make([]bool, n)

	si := start.z*g.width + start.x
	gi := goal.z*g.width + goal.x
	gScore[si] = 0
	cameFrom[si] = -1

	open := &openSet{}
	seq := 0
	heap.Push(open, openNode{idx: si, f: octile(start, goal), seq: seq})

	for open.Len() > 0 {
		cur := heap.Pop(open).(openNode)
		if closed[cur.idx] {
			continue
		}
		if cur.idx == gi {
			return g.unwind(cameFrom, gi), true
		}
		closed[cur.idx] = true
		c := cell{cur.idx % g.width, cur.idx / g.width}

		for _, off := range neighbourOffsets {
			nx, nz := c.x+off.x, c.z+off.z
			if !g.Walkable(nx, nz, areaMask) {
				continue
			}
			step := 1.0
			if off.x != 0 && off.z != 0 {
				if !g.Walkable(c.x+off.x, c.z, areaMask) || !g.Walkable(c.x, c.z+off.z, areaMask) {
					continue
				}
				step = math.Sqrt2
			}
			ni := nz*g.width + nx
			if closed[ni] {
				continue
			}
			tentative := gScore[cur.idx] + step
			if tentative >= gScore[ni] {
				continue
			}
			gScore[ni] = tentative
			cameFrom[ni] = int32(cur.idx)
			seq++
			heap.Push(open, openNode{idx: ni, f: tentative + octile(cell{nx, nz}, goal), seq: seq})
		}
	}
	return nil, false
}

func (g *Grid) unwind(cameFrom []int32, goal int) []cell {
	var rev []cell
	for i := goal; i >= 0; i = int(cameFrom[i]) {
		rev = append(rev, cell{i % g.width, i / g.width})
	}
	out := make([]cell, len(rev))
	for i, c := range rev {
		out[len(rev)-1-i] = c
	}
	return out
}

func octile(a, b cell) float64 {
	dx := math.Abs(float64(a.x - b.x))
	dz := math.Abs(float64(a.z - b.z))
	return math.Max(dx, dz) + (math.Sqrt2-1)*math.Min(dx, dz)
}

// corners drops cells that continue in the same direction as the previous
// step, leaving only the turns. The first cell (the start) is not a corner.
func corners(cells []cell) []cell {
	if len(cells) <= 2 {
		return cells[1:]
	}
	out := make([]cell, 0, len(cells)/2+1)
	for i := 1; i < len(cells)-1; i++ {
		d0 := cell{cells[i].x - cells[i-1].x, cells[i].z - cells[i-1].z}
		d1 := cell{cells[i+1].x - cells[i].x, cells[i+1].z - cells[i].z}
		if d0 != d1 {
			out = append(out, cells[i])
		}
	}
	return append(out, cells[len(cells)-1])
}
