package component

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// DestinationCategory partitions points of interest.
type DestinationCategory uint8

const (
	Residential DestinationCategory = iota
	Commercial
)

func (c DestinationCategory) String() string {
	switch c {
	case Residential:
		return "residential"
	case Commercial:
		return "commercial"
	}
	return "unknown"
}

// ParseDestinationCategory accepts the names used in data files and the
// placements table.
func ParseDestinationCategory(s string) (DestinationCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "residential", "home":
		return Residential, nil
	case "commercial", "work", "shop":
		return Commercial, nil
	}
	return 0, fmt.Errorf("unknown destination category %q", s)
}

// Placement is a one-shot "building placed" record. The destination cache
// ingests each one exactly once.
type Placement struct {
	Position mgl64.Vec3
	Category DestinationCategory
}
