package data

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/crowdnav/crowdsim/internal/nav"
)

// NavmeshInfo is the metadata block of a navmesh YAML file.
type NavmeshInfo struct {
	Name     string     `yaml:"name"`
	CellSize float64    `yaml:"cell_size"`
	Origin   [3]float64 `yaml:"origin"`
	// Tiles holds the rows inline; TileFile points at a text file with the
	// same row format, relative to the YAML file.
	Tiles    []string `yaml:"tiles"`
	TileFile string   `yaml:"tile_file"`
}

// LoadNavmesh reads a navmesh description and builds the grid.
// Tile characters: '.' area 0, '1'..'9' that area, '#' or 'x' blocked.
// Row 0 is the lowest Z.
func LoadNavmesh(path string) (*nav.Grid, NavmeshInfo, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NavmeshInfo{}, fmt.Errorf("read navmesh %s: %w", path, err)
	}
	var info NavmeshInfo
	if err := yaml.Unmarshal(raw, &info); err != nil {
		return nil, info, fmt.Errorf("parse navmesh %s: %w", path, err)
	}
	if info.CellSize == 0 {
		info.CellSize = 1
	}

	rows := info.Tiles
	if info.TileFile != "" {
		rows, err = loadTileRows(filepath.Join(filepath.Dir(path), info.TileFile))
		if err != nil {
			return nil, info, fmt.Errorf("navmesh %s tiles: %w", path, err)
		}
	}
	grid, err := buildGrid(rows, info)
	if err != nil {
		return nil, info, fmt.Errorf("navmesh %s: %w", path, err)
	}
	return grid, info, nil
}

// loadTileRows reads one row per line. Blank lines and lines starting with
// ';' are skipped.
func loadTileRows(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == ';' {
			continue
		}
		rows = append(rows, line)
	}
	return rows, scanner.Err()
}

func buildGrid(rows []string, info NavmeshInfo) (*nav.Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no tile rows")
	}
	width := len(rows[0])
	areas := make([]int8, 0, width*len(rows))
	for z, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d tiles, want %d", z, len(row), width)
		}
		for x := 0; x < len(row); x++ {
			a, err := tileArea(row[x])
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", z, x, err)
			}
			areas = append(areas, a)
		}
	}
	origin := mgl64.Vec3{info.Origin[0], info.Origin[1], info.Origin[2]}
	return nav.NewGrid(width, len(rows), info.CellSize, origin, areas)
}

func tileArea(ch byte) (int8, error) {
	switch {
	case ch == '.':
		return 0, nil
	case ch == '#' || ch == 'x':
		return nav.Blocked, nil
	case ch >= '1' && ch <= '9':
		return int8(ch - '0'), nil
	}
	return 0, fmt.Errorf("unknown tile %q", ch)
}
