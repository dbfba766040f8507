package nav

import (
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// QueryConfig sizes the worker side of a GridQuerySystem.
type QueryConfig struct {
	Workers   int // search goroutines
	QueueSize int // buffered requests before FailureQueueFull
	CacheSize int // cached cell routes, 0 disables caching
	// SnapExtent is how far an off-mesh endpoint may be pulled onto the grid.
	SnapExtent float64
}

type pathJob struct {
	key      uint64
	from, to mgl64.Vec3
	areaMask int32
}

// GridQuerySystem serves path requests against a Grid on a pool of worker
// goroutines. Callbacks run on those workers.
type GridQuerySystem struct {
	cfg QueryConfig
	log *zap.Logger

	mu      sync.RWMutex // guards grid swaps
	grid    *Grid
	version atomic.Int64

	cache *routeCache

	onSuccess SuccessFunc
	onFailure FailureFunc

	jobs    chan pathJob
	pending atomic.Int64
	closed  atomic.Bool
	wg      sync.WaitGroup
}

func NewGridQuerySystem(grid *Grid, cfg QueryConfig, log *zap.Logger) *GridQuerySystem {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if cfg.SnapExtent <= 0 {
		cfg.SnapExtent = grid.CellSize()
	}
	q := &GridQuerySystem{
		cfg:   cfg,
		log:   log,
		grid:  grid,
		cache: newRouteCache(cfg.CacheSize),
		jobs:  make(chan pathJob, cfg.QueueSize),
	}
	q.version.Store(1)
	return q
}

// RegisterCallbacks must be called before Start.
func (q *GridQuerySystem) RegisterCallbacks(onSuccess SuccessFunc, onFailure FailureFunc) {
	q.onSuccess = onSuccess
	q.onFailure = onFailure
}

// Start launches the search workers.
func (q *GridQuerySystem) Start() {
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.log.Info("path query workers started",
		zap.Int("workers", q.cfg.Workers),
		zap.Int("queue", q.cfg.QueueSize),
		zap.Int("cache", q.cfg.CacheSize))
}

// Close stops accepting requests, fails whatever is still queued and waits
// for the workers to exit.
func (q *GridQuerySystem) Close() {
	if q.closed.Swap(true) {
		return
	}
	close(q.jobs)
	q.wg.Wait()
}

func (q *GridQuerySystem) RequestPath(key uint64, from, to mgl64.Vec3, areaMask int32) {
	if q.closed.Load() {
		q.fail(key, FailureShutdown)
		return
	}
	q.pending.Add(1)
	select {
	case q.jobs <- pathJob{key: key, from: from, to: to, areaMask: areaMask}:
	default:
		q.pending.Add(-1)
		q.fail(key, FailureQueueFull)
	}
}

func (q *GridQuerySystem) Version() int      { return int(q.version.Load()) }
func (q *GridQuerySystem) PendingCount() int { return int(q.pending.Load()) }
func (q *GridQuerySystem) CachedCount() int  { return q.cache.Len() }

// Grid returns the navmesh currently served.
func (q *GridQuerySystem) Grid() *Grid {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.grid
}

// Rebuild swaps in a new navmesh, drops cached routes and advances the
// version so agents holding older waypoints go back to Idle.
func (q *GridQuerySystem) Rebuild(grid *Grid) int {
	q.mu.Lock()
	q.grid = grid
	v := q.version.Add(1)
	q.mu.Unlock()
	q.cache.Reset()
	q.log.Info("navmesh rebuilt", zap.Int64("version", v),
		zap.Int("width", grid.Width()), zap.Int("height", grid.Height()))
	return int(v)
}

func (q *GridQuerySystem) Sample(pos mgl64.Vec3, extent float64, areaMask int32) (mgl64.Vec3, bool) {
	return q.Grid().Sample(pos, extent, areaMask)
}

func (q *GridQuerySystem) worker() {
	defer q.wg.Done()
	for job := range q.jobs {
		if q.closed.Load() {
			q.fail(job.key, FailureShutdown)
		} else {
			q.serve(job)
		}
		q.pending.Add(-1)
	}
}

func (q *GridQuerySystem) serve(job pathJob) {
	q.mu.RLock()
	grid := q.grid
	version := q.version.Load()
	q.mu.RUnlock()

	waypoints, reason := q.findPath(grid, version, job)
	if reason != 0 {
		q.fail(job.key, reason)
		return
	}
	if q.onSuccess != nil {
		q.onSuccess(job.key, waypoints)
	}
}

func (q *GridQuerySystem) findPath(grid *Grid, version int64, job pathJob) ([]mgl64.Vec3, FailureReason) {
	from, ok := grid.Sample(job.from, q.cfg.SnapExtent, job.areaMask)
	if !ok {
		return nil, FailureInvalidFrom
	}
	to, ok := grid.Sample(job.to, q.cfg.SnapExtent, job.areaMask)
	if !ok {
		return nil, FailureInvalidTo
	}
	sx, sz, _ := grid.Cell(from)
	gx, gz, _ := grid.Cell(to)
	// Sampled points can sit on a shared cell edge; pull them into a
	// walkable cell so the search starts on the mesh.
	sx, sz = clampToWalkable(grid, sx, sz, from, job.areaMask)
	gx, gz = clampToWalkable(grid, gx, gz, to, job.areaMask)

	key := routeKey{from: cell{sx, sz}, to: cell{gx, gz}, areaMask: job.areaMask, version: version}
	turns, hit := q.cache.Get(key)
	if !hit {
		cells, found := grid.findCells(key.from, key.to, job.areaMask)
		if !found {
			return nil, FailureNoPath
		}
		turns = corners(cells)
		q.cache.Put(key, turns)
	}

	waypoints := make([]mgl64.Vec3, 0, len(turns)+1)
	if len(turns) > 0 {
		for _, c := range turns[:len(turns)-1] {
			waypoints = append(waypoints, grid.Center(c.x, c.z))
		}
	}
	return append(waypoints, to), 0
}

func (q *GridQuerySystem) fail(key uint64, reason FailureReason) {
	if q.onFailure != nil {
		q.onFailure(key, reason)
	}
}

func clampToWalkable(g *Grid, cx, cz int, p mgl64.Vec3, areaMask int32) (int, int) {
	if g.Walkable(cx, cz, areaMask) {
		return cx, cz
	}
	// p lies on the max edge of the walkable cell it was clamped into.
	for _, off := range [...]cell{{-1, 0}, {0, -1}, {-1, -1}} {
		if g.Walkable(cx+off.x, cz+off.z, areaMask) {
			return cx + off.x, cz + off.z
		}
	}
	return cx, cz
}
