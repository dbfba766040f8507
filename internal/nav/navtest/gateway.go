// Package navtest provides a hand-driven path gateway for tests.
package navtest

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/crowdnav/crowdsim/internal/nav"
)

// Request records one RequestPath call.
type Request struct {
	Key      uint64
	From, To mgl64.Vec3
	AreaMask int32
}

// ManualGateway never answers on its own; tests resolve requests with
// Succeed and Fail, which invoke the registered callbacks synchronously.
type ManualGateway struct {
	mu        sync.Mutex
	requests  []Request
	open      map[uint64]int
	version   int
	cached    int
	onSuccess nav.SuccessFunc
	onFailure nav.FailureFunc
}

func NewManualGateway() *ManualGateway {
	return &ManualGateway{open: make(map[uint64]int), version: 1}
}

func (g *ManualGateway) RegisterCallbacks(onSuccess nav.SuccessFunc, onFailure nav.FailureFunc) {
	g.onSuccess = onSuccess
	g.onFailure = onFailure
}

func (g *ManualGateway) RequestPath(key uint64, from, to mgl64.Vec3, areaMask int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, Request{Key: key, From: from, To: to, AreaMask: areaMask})
	g.open[key]++
}

// Requests returns a copy of every request seen so far.
func (g *ManualGateway) Requests() []Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Request(nil), g.requests...)
}

// RequestsFor counts the requests issued for key.
func (g *ManualGateway) RequestsFor(key uint64) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, r := range g.requests {
		if r.Key == key {
			n++
		}
	}
	return n
}

func (g *ManualGateway) Succeed(key uint64, waypoints ...mgl64.Vec3) {
	g.resolve(key)
	g.onSuccess(key, waypoints)
}

func (g *ManualGateway) Fail(key uint64, reason nav.FailureReason) {
	g.resolve(key)
	g.onFailure(key, reason)
}

// Bump advances the navmesh version as a rebuild would.
func (g *ManualGateway) Bump() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.version++
	return g.version
}

func (g *ManualGateway) SetCached(n int) {
	g.mu.Lock()
	g.cached = n
	g.mu.Unlock()
}

func (g *ManualGateway) Version() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.version
}

func (g *ManualGateway) PendingCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, c := range g.open {
		n += c
	}
	return n
}

func (g *ManualGateway) CachedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cached
}

func (g *ManualGateway) resolve(key uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open[key] > 0 {
		g.open[key]--
	}
}

// OpenSampler treats every position as navigable.
type OpenSampler struct{}

func (OpenSampler) Sample(pos mgl64.Vec3, _ float64, _ int32) (mgl64.Vec3, bool) {
	return pos, true
}

var _ nav.Gateway = (*ManualGateway)(nil)
var _ nav.Sampler = OpenSampler{}
