// Package parallel runs data-parallel frame stages over disjoint index
// ranges with a bounded number of goroutines.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool splits [0, n) into chunks of at most Grain indices and runs them on
// at most Workers goroutines. Range returns once every chunk is done, which
// makes each call a barrier between pipeline stages.
type Pool struct {
	workers int
	grain   int
}

// NewPool builds a pool. workers <= 0 means GOMAXPROCS; grain <= 0 means 64,
// the batch size the agent jobs were tuned with.
func NewPool(workers, grain int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if grain <= 0 {
		grain = 64
	}
	return &Pool{workers: workers, grain: grain}
}

func (p *Pool) Workers() int { return p.workers }

// Chunks returns how many chunks Range will use for n items.
func (p *Pool) Chunks(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + p.grain - 1) / p.grain
}

// Range calls fn(chunk, lo, hi) for every chunk of [0, n). Chunk numbers run
// from 0 to Chunks(n)-1 in index order so callers can keep per-chunk output
// buffers and merge them deterministically afterwards.
func (p *Pool) Range(n int, fn func(chunk, lo, hi int)) {
	chunks := p.Chunks(n)
	if chunks == 0 {
		return
	}
	if chunks == 1 || p.workers == 1 {
		for c := 0; c < chunks; c++ {
			lo, hi := p.bounds(c, n)
			fn(c, lo, hi)
		}
		return
	}

	var g errgroup.Group
	g.SetLimit(p.workers)
	for c := 0; c < chunks; c++ {
		lo, hi := p.bounds(c, n)
		g.Go(func() error {
			fn(c, lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Pool) bounds(chunk, n int) (int, int) {
	lo := chunk * p.grain
	hi := lo + p.grain
	if hi > n {
		hi = n
	}
	return lo, hi
}
