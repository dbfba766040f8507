package system

import (
	"math"
	"time"

	"github.com/crowdnav/crowdsim/internal/component"
	"github.com/crowdnav/crowdsim/internal/core/ecs"
	coresys "github.com/crowdnav/crowdsim/internal/core/system"
	"github.com/crowdnav/crowdsim/internal/geom"
	"github.com/crowdnav/crowdsim/internal/nav"
	"github.com/crowdnav/crowdsim/internal/parallel"
	"github.com/crowdnav/crowdsim/internal/world"
)

// AvoidanceConfig tunes the follower correction.
type AvoidanceConfig struct {
	MinSpeed     float64 // floor for the halved follower speed
	SampleExtent float64 // navmesh search box half-size for drifted points
	GridWidth    int     // bucket key row stride
}

type keyedMember struct {
	key int
	m   world.BucketMember
}

// AvoidanceSystem spreads out agents that share a spatial bucket.
// Phase 3 (PostUpdate), after movement has staged next positions. Every
// agent with a positive avoidance radius is bucketed, whatever its status.
//
// Bucketing runs in parallel chunks whose outputs are merged in chunk
// order, so every bucket lists its members by ascending agent index and the
// lowest index leads. Buckets are then resolved in parallel; inside a
// bucket every follower drifts sideways (left for even indices, right for
// odd), has its speed halved and gets a new staged position.
type AvoidanceSystem struct {
	world   *world.State
	sampler nav.Sampler
	pool    *parallel.Pool
	cfg     AvoidanceConfig

	pairs   []ecs.IndexPair
	chunks  [][]keyedMember
	buckets *world.SpatialBuckets
	crowded []int

	followers int
}

func NewAvoidanceSystem(ws *world.State, sampler nav.Sampler, pool *parallel.Pool, cfg AvoidanceConfig) *AvoidanceSystem {
	if cfg.GridWidth <= 0 {
		cfg.GridWidth = 1
	}
	return &AvoidanceSystem{
		world:   ws,
		sampler: sampler,
		pool:    pool,
		cfg:     cfg,
		buckets: world.NewSpatialBuckets(),
	}
}

func (s *AvoidanceSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *AvoidanceSystem) Update(dt time.Duration) {
	s.pairs = ecs.Join(s.world.Agents, s.world.Avoidance, s.pairs)
	s.buckets.Reset()
	s.followers = 0
	if len(s.pairs) == 0 {
		return
	}
	s.bucket()
	s.resolve(dt.Seconds())
}

func (s *AvoidanceSystem) bucket() {
	n := len(s.pairs)
	chunks := s.pool.Chunks(n)
	for len(s.chunks) < chunks {
		s.chunks = append(s.chunks, make([]keyedMember, 0, 64))
	}
	agents, profiles := s.world.Agents, s.world.Avoidance
	gridWidth := s.cfg.GridWidth

	s.pool.Range(n, func(chunk, lo, hi int) {
		out := s.chunks[chunk][:0]
		for _, p := range s.pairs[lo:hi] {
			a := agents.At(p.A)
			prof := profiles.At(p.B)
			if prof.Radius <= 0 {
				continue
			}
			key := world.BucketKey(a.Position, prof.Radius, gridWidth)
			prof.Partition = key
			out = append(out, keyedMember{key: key, m: world.BucketMember{Index: p.A, Next: a.NextPosition}})
		}
		s.chunks[chunk] = out
	})

	for c := 0; c < chunks; c++ {
		for _, km := range s.chunks[c] {
			s.buckets.Insert(km.key, km.m)
		}
	}
}

func (s *AvoidanceSystem) resolve(dt float64) {
	s.crowded = s.buckets.Crowded(s.crowded)
	agents := s.world.Agents
	for _, key := range s.crowded {
		s.followers += len(s.buckets.Members(key)) - 1
	}
	s.pool.Range(len(s.crowded), func(_, lo, hi int) {
		for _, key := range s.crowded[lo:hi] {
			members := s.buckets.Members(key)
			for _, m := range members[1:] {
				s.follow(agents.At(m.Index), m.Index, dt)
			}
		}
	})
}

// follow applies the follower correction to one agent. Drifted points that
// miss the navmesh fall back to the undrifted waypoint and to the current
// position.
func (s *AvoidanceSystem) follow(a *component.NavAgent, index int, dt float64) {
	side := geom.Left
	if index%2 == 1 {
		side = geom.Right
	}
	drift := a.Rotation.Rotate(geom.Forward.Add(side)).Mul(a.CurrentMoveSpeed * dt)

	if a.NextWaypointIndex != a.TotalWaypoints {
		if wp, ok := s.sampler.Sample(a.CurrentWaypoint.Add(drift), s.cfg.SampleExtent, a.AreaMask); ok {
			a.CurrentWaypoint = wp
		}
	}
	a.CurrentMoveSpeed = math.Max(a.CurrentMoveSpeed/2, s.cfg.MinSpeed)

	if p, ok := s.sampler.Sample(a.Position.Add(drift), s.cfg.SampleExtent, a.AreaMask); ok {
		a.NextPosition = p
	} else {
		a.NextPosition = a.Position
	}
	a.HasNextPosition = true
}

// Stats returns occupied buckets and corrected followers from the last pass.
func (s *AvoidanceSystem) Stats() (buckets, followers int) {
	return s.buckets.Len(), s.followers
}
