package data

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/crowdnav/crowdsim/internal/component"
)

// PlacementEntry is one building record in placements.yaml.
type PlacementEntry struct {
	Category string     `yaml:"category"`
	Position [3]float64 `yaml:"position"`
	// Repeat > 1 lays out copies along Step, handy for rows of houses.
	Repeat int        `yaml:"repeat"`
	Step   [3]float64 `yaml:"step"`
}

type placementListFile struct {
	Placements []PlacementEntry `yaml:"placements"`
}

// LoadPlacements reads placement events from YAML in file order.
func LoadPlacements(path string) ([]component.Placement, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read placements %s: %w", path, err)
	}
	var file placementListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse placements %s: %w", path, err)
	}

	out := make([]component.Placement, 0, len(file.Placements))
	for i, e := range file.Placements {
		cat, err := component.ParseDestinationCategory(e.Category)
		if err != nil {
			return nil, fmt.Errorf("placements %s entry %d: %w", path, i, err)
		}
		n := e.Repeat
		if n < 1 {
			n = 1
		}
		base := mgl64.Vec3{e.Position[0], e.Position[1], e.Position[2]}
		step := mgl64.Vec3{e.Step[0], e.Step[1], e.Step[2]}
		for k := 0; k < n; k++ {
			out = append(out, component.Placement{
				Position: base.Add(step.Mul(float64(k))),
				Category: cat,
			})
		}
	}
	return out, nil
}
