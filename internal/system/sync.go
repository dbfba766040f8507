package system

import (
	"time"

	"github.com/crowdnav/crowdsim/internal/core/event"
	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/nav"
	"github.com/crowdnav/crowdsim/internal/pathreq"
)

// CommandSyncSystem is the frame's sync point. Phase 0 (Input): it applies
// buffered path results, notices navmesh rebuilds and delivers last
// frame's events, all before the movement pipeline runs.
type CommandSyncSystem struct {
	coord   *pathreq.Coordinator
	gateway nav.Gateway
	bus     *event.Bus

	version int
	applied int
}

func NewCommandSyncSystem(coord *pathreq.Coordinator, bus *event.Bus) *CommandSyncSystem {
	gw := coord.Gateway()
	return &CommandSyncSystem{coord: coord, gateway: gw, bus: bus, version: gw.Version()}
}

func (s *CommandSyncSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *CommandSyncSystem) Update(_ time.Duration) {
	s.applied += s.coord.Apply()
	if v := s.gateway.Version(); v != s.version {
		s.version = v
		event.Emit(s.bus, event.NavmeshRebuilt{Version: v})
	}
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// Applied returns how many buffered results have been applied.
func (s *CommandSyncSystem) Applied() int { return s.applied }
