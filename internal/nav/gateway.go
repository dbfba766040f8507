// Package nav is the path query side of the simulation: the gateway
// contract the agent systems depend on, and a grid navmesh that serves it.
package nav

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// AllAreas is the area mask that accepts every walkable area.
const AllAreas int32 = -1

var (
	ErrOffMesh    = errors.New("position is not on the navmesh")
	ErrBadNavmesh = errors.New("invalid navmesh")
)

// FailureReason says why a path request did not produce waypoints.
type FailureReason uint8

const (
	FailureInvalidFrom FailureReason = iota + 1 // start is off-mesh or filtered out
	FailureInvalidTo                            // destination is off-mesh or filtered out
	FailureNoPath                               // both ends valid, no connecting route
	FailureQueueFull                            // request dropped, gateway saturated
	FailureShutdown                             // gateway closed before serving the request
)

func (r FailureReason) String() string {
	switch r {
	case FailureInvalidFrom:
		return "invalid_from"
	case FailureInvalidTo:
		return "invalid_to"
	case FailureNoPath:
		return "no_path"
	case FailureQueueFull:
		return "queue_full"
	case FailureShutdown:
		return "shutdown"
	}
	return "unknown"
}

// SuccessFunc receives a non-empty waypoint list owned by the callee.
type SuccessFunc func(key uint64, waypoints []mgl64.Vec3)

// FailureFunc receives the reason a request failed.
type FailureFunc func(key uint64, reason FailureReason)

// Gateway is the asynchronous path query service. RequestPath never blocks
// on the search; exactly one of the registered callbacks fires later for
// every request, possibly on another goroutine.
type Gateway interface {
	RegisterCallbacks(onSuccess SuccessFunc, onFailure FailureFunc)
	RequestPath(key uint64, from, to mgl64.Vec3, areaMask int32)
	// Version increases every time the walkable surface is rebuilt.
	Version() int
	PendingCount() int
	CachedCount() int
}

// Sampler maps a point to the nearest navigable location within extent on
// each horizontal axis.
type Sampler interface {
	Sample(pos mgl64.Vec3, extent float64, areaMask int32) (mgl64.Vec3, bool)
}

// AreaAllowed reports whether area passes mask.
func AreaAllowed(area int8, mask int32) bool {
	if area < 0 || area > 31 {
		return false
	}
	return mask&(1<<uint(area)) != 0
}
