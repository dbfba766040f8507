package nav

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gridFrom builds a unit-cell grid from rows of '.', '#' and digits.
// Row 0 is z=0.
func gridFrom(t *testing.T, rows ...string) *Grid {
	t.Helper()
	w := len(rows[0])
	areas := make([]int8, 0, w*len(rows))
	for _, r := range rows {
		require.Len(t, r, w)
		for _, ch := range r {
			switch {
			case ch == '#':
				areas = append(areas, Blocked)
			case ch == '.':
				areas = append(areas, 0)
			default:
				areas = append(areas, int8(ch-'0'))
			}
		}
	}
	g, err := NewGrid(w, len(rows), 1, mgl64.Vec3{}, areas)
	require.NoError(t, err)
	return g
}

func TestNewGridRejectsBadShapes(t *testing.T) {
	_, err := NewGrid(2, 2, 1, mgl64.Vec3{}, make([]int8, 3))
	assert.ErrorIs(t, err, ErrBadNavmesh)
	_, err = NewGrid(2, 2, 0, mgl64.Vec3{}, make([]int8, 4))
	assert.ErrorIs(t, err, ErrBadNavmesh)
}

func TestSampleSnapsToNearestWalkable(t *testing.T) {
	g := gridFrom(t,
		"..#",
		"..#",
		"###",
	)
	p, ok := g.Sample(mgl64.Vec3{0.5, 3, 0.5}, 3, AllAreas)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{0.5, 0, 0.5}, p, "inside a walkable cell the point is kept, y flattened")

	p, ok = g.Sample(mgl64.Vec3{2.5, 0, 0.5}, 3, AllAreas)
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{2, 0, 0.5}, p, "pulled onto the edge of the closest walkable cell")

	_, ok = g.Sample(mgl64.Vec3{2.5, 0, 2.5}, 0.4, AllAreas)
	assert.False(t, ok, "nothing walkable within extent")
}

func TestAreaMaskFiltersCells(t *testing.T) {
	g := gridFrom(t, "1.")
	assert.True(t, g.Walkable(0, 0, AllAreas))
	assert.False(t, g.Walkable(0, 0, 1<<0))
	assert.True(t, g.Walkable(1, 0, 1<<0))
	assert.False(t, g.Walkable(5, 0, AllAreas))
}

func TestFindCellsAvoidsWallsAndCorners(t *testing.T) {
	g := gridFrom(t,
		".....",
		".###.",
		".....",
	)
	cells, ok := g.findCells(cell{0, 0}, cell{2, 2}, AllAreas)
	require.True(t, ok)
	assert.Equal(t, cell{0, 0}, cells[0])
	assert.Equal(t, cell{2, 2}, cells[len(cells)-1])
	for i := 1; i < len(cells); i++ {
		assert.True(t, g.Walkable(cells[i].x, cells[i].z, AllAreas))
		dx, dz := cells[i].x-cells[i-1].x, cells[i].z-cells[i-1].z
		if dx != 0 && dz != 0 {
			assert.True(t, g.Walkable(cells[i-1].x+dx, cells[i-1].z, AllAreas), "corner cut at %v", cells[i])
			assert.True(t, g.Walkable(cells[i-1].x, cells[i-1].z+dz, AllAreas), "corner cut at %v", cells[i])
		}
	}
}

func TestFindCellsNoRoute(t *testing.T) {
	g := gridFrom(t, ".#.")
	_, ok := g.findCells(cell{0, 0}, cell{2, 0}, AllAreas)
	assert.False(t, ok)
}

func TestCornersKeepsTurnsOnly(t *testing.T) {
	straight := []cell{{0, 0}, {1, 0}, {2, 0}, {3, 0}}
	assert.Equal(t, []cell{{3, 0}}, corners(straight))

	bent := []cell{{0, 0}, {1, 0}, {2, 0}, {2, 1}, {2, 2}}
	assert.Equal(t, []cell{{2, 0}, {2, 2}}, corners(bent))

	assert.Empty(t, corners([]cell{{4, 4}}))
}

func TestMaxMapWidth(t *testing.T) {
	g := gridFrom(t, strings.Repeat(".", 10))
	assert.Equal(t, 11, g.MaxMapWidth())
}
