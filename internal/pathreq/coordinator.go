// Package pathreq owns the path request protocol between agents and the
// navmesh gateway: at most one request in flight per agent, results applied
// on the frame goroutine at a single sync point.
package pathreq

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/crowdnav/crowdsim/internal/component"
	"github.com/crowdnav/crowdsim/internal/core/command"
	"github.com/crowdnav/crowdsim/internal/core/ecs"
	"github.com/crowdnav/crowdsim/internal/core/event"
	"github.com/crowdnav/crowdsim/internal/geom"
	"github.com/crowdnav/crowdsim/internal/nav"
)

// PendingPathRequest is the snapshot taken when a request is issued.
type PendingPathRequest struct {
	Index  int // dense agent index at request time
	Entity ecs.EntityID
	Agent  component.NavAgent
}

// Coordinator deduplicates destination requests and applies gateway results
// back onto agents. Gateway callbacks may run on any goroutine; they only
// queue commands, which Apply runs on the frame goroutine.
type Coordinator struct {
	gateway nav.Gateway
	agents  *ecs.DenseStore[component.NavAgent]
	cmds    *command.Buffer
	bus     *event.Bus
	log     *zap.Logger

	mu      sync.Mutex
	pending map[ecs.EntityID]PendingPathRequest

	// Touched only by Apply and the waypoint drain, both on the frame goroutine.
	waypoints map[ecs.EntityID][]mgl64.Vec3

	succeeded int
	failed    int
}

// NewCoordinator wires itself into gateway's callbacks. For a gateway with
// workers this must happen before the gateway starts.
func NewCoordinator(gateway nav.Gateway, agents *ecs.DenseStore[component.NavAgent], cmds *command.Buffer, bus *event.Bus, log *zap.Logger) *Coordinator {
	c := &Coordinator{
		gateway:   gateway,
		agents:    agents,
		cmds:      cmds,
		bus:       bus,
		log:       log,
		pending:   make(map[ecs.EntityID]PendingPathRequest),
		waypoints: make(map[ecs.EntityID][]mgl64.Vec3),
	}
	gateway.RegisterCallbacks(c.OnPathSuccess, c.OnPathFailed)
	return c
}

// RequestDestination asks the gateway for a path from the agent's position
// to destination. It returns false without side effects when a request for
// id is already in flight or id has no agent.
func (c *Coordinator) RequestDestination(id ecs.EntityID, destination mgl64.Vec3, areaMask int32) bool {
	idx := c.agents.IndexOf(id)
	if idx < 0 {
		return false
	}
	agent := c.agents.At(idx)

	c.mu.Lock()
	if _, exists := c.pending[id]; exists {
		c.mu.Unlock()
		return false
	}
	c.pending[id] = PendingPathRequest{Index: idx, Entity: id, Agent: *agent}
	c.mu.Unlock()

	agent.Status = component.AgentPathQueued
	agent.Destination = destination
	agent.QueryVersion = c.gateway.Version()
	c.gateway.RequestPath(id.Key(), agent.Position, destination, areaMask)
	return true
}

// OnPathSuccess is the gateway success callback.
func (c *Coordinator) OnPathSuccess(key uint64, waypoints []mgl64.Vec3) {
	id := ecs.EntityID(key)
	c.cmds.Push(func() { c.applySuccess(id, waypoints) })
}

// OnPathFailed is the gateway failure callback.
func (c *Coordinator) OnPathFailed(key uint64, reason nav.FailureReason) {
	id := ecs.EntityID(key)
	c.cmds.Push(func() { c.applyFailure(id, reason) })
}

// Apply runs every queued callback result. It is the sync point and must be
// called on the frame goroutine outside any parallel stage.
func (c *Coordinator) Apply() int {
	return c.cmds.Flush()
}

func (c *Coordinator) take(id ecs.EntityID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[id]; !ok {
		return false
	}
	delete(c.pending, id)
	return true
}

func (c *Coordinator) applySuccess(id ecs.EntityID, waypoints []mgl64.Vec3) {
	if !c.take(id) {
		return
	}
	agent, ok := c.agents.Get(id)
	if !ok {
		return
	}
	if len(waypoints) == 0 {
		c.log.Error("gateway returned empty path", zap.Uint64("agent", id.Key()))
		resetIdle(agent)
		c.failed++
		return
	}

	c.waypoints[id] = waypoints
	agent.Status = component.AgentMoving
	agent.NextWaypointIndex = 1
	agent.TotalWaypoints = len(waypoints)
	agent.CurrentWaypoint = waypoints[0]
	agent.RemainingDistance = geom.Distance(agent.Position, waypoints[0])
	c.succeeded++
}

func (c *Coordinator) applyFailure(id ecs.EntityID, reason nav.FailureReason) {
	if !c.take(id) {
		return
	}
	agent, ok := c.agents.Get(id)
	if !ok {
		return
	}
	resetIdle(agent)
	c.failed++
	c.log.Debug("path request failed",
		zap.Uint64("agent", id.Key()),
		zap.String("reason", reason.String()),
	)
	event.Emit(c.bus, event.PathFailed{Entity: id, Reason: reason.String()})
}

func resetIdle(agent *component.NavAgent) {
	agent.Status = component.AgentIdle
	agent.TotalWaypoints = 0
	agent.NextWaypointIndex = 0
}

// Waypoint returns waypoint i of the last path resolved for id.
// Frame goroutine only.
func (c *Coordinator) Waypoint(id ecs.EntityID, i int) (mgl64.Vec3, bool) {
	wps := c.waypoints[id]
	if i < 0 || i >= len(wps) {
		return mgl64.Vec3{}, false
	}
	return wps[i], true
}

// Waypoints returns the last path resolved for id. Frame goroutine only.
func (c *Coordinator) Waypoints(id ecs.EntityID) []mgl64.Vec3 {
	return c.waypoints[id]
}

// Pending reports whether a request for id is in flight.
func (c *Coordinator) Pending(id ecs.EntityID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	return ok
}

// InFlight returns the number of outstanding requests.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Results returns how many successes and failures have been applied.
func (c *Coordinator) Results() (succeeded, failed int) {
	return c.succeeded, c.failed
}

func (c *Coordinator) Gateway() nav.Gateway { return c.gateway }
