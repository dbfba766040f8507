package nav

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

type routeKey struct {
	from, to cell
	areaMask int32
	version  int64
}

// routeCache keeps the limit most recently used cell routes. A nil lru
// means caching is disabled.
type routeCache struct {
	lru *lru.Cache[routeKey, []cell]
}

func newRouteCache(limit int) *routeCache {
	if limit <= 0 {
		return &routeCache{}
	}
	c, err := lru.New[routeKey, []cell](limit)
	if err != nil {
		return &routeCache{}
	}
	return &routeCache{lru: c}
}

func (c *routeCache) Get(k routeKey) ([]cell, bool) {
	if c.lru == nil {
		return nil, false
	}
	return c.lru.Get(k)
}

func (c *routeCache) Put(k routeKey, v []cell) {
	if c.lru == nil {
		return
	}
	c.lru.Add(k, v)
}

func (c *routeCache) Len() int {
	if c.lru == nil {
		return 0
	}
	return c.lru.Len()
}

func (c *routeCache) Reset() {
	if c.lru != nil {
		c.lru.Purge()
	}
}
