package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteCacheKeepsRecentlyUsed(t *testing.T) {
	c := newRouteCache(2)
	a := routeKey{from: cell{0, 0}, to: cell{1, 0}, areaMask: -1, version: 1}
	b := routeKey{from: cell{0, 0}, to: cell{2, 0}, areaMask: -1, version: 1}
	d := routeKey{from: cell{0, 0}, to: cell{3, 0}, areaMask: -1, version: 1}

	c.Put(a, []cell{{0, 0}, {1, 0}})
	c.Put(b, []cell{{0, 0}, {2, 0}})
	_, ok := c.Get(a) // a is now the most recent
	assert.True(t, ok)

	c.Put(d, []cell{{0, 0}, {3, 0}})
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get(a)
	assert.True(t, ok, "recently read route survives eviction")
	_, ok = c.Get(b)
	assert.False(t, ok, "least recently used route is evicted")

	c.Reset()
	assert.Zero(t, c.Len())
}

func TestRouteCacheDisabled(t *testing.T) {
	c := newRouteCache(0)
	k := routeKey{to: cell{1, 1}}
	c.Put(k, []cell{{1, 1}})
	_, ok := c.Get(k)
	assert.False(t, ok)
	assert.Zero(t, c.Len())
	c.Reset()
}
