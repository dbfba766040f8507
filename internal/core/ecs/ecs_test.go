package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPool(t *testing.T) {
	p := NewEntityPool(7)
	a := p.Create()
	b := p.Create()

	assert.NotEqual(t, a, b)
	assert.False(t, a.IsZero())
	assert.Equal(t, uint32(7), a.Generation())
	assert.Equal(t, uint32(1), a.Index())
	assert.True(t, p.Alive(b))
	assert.False(t, p.Alive(NewEntityID(b.Index(), 8)), "foreign generation")
	assert.False(t, p.Alive(NewEntityID(99, 7)), "never created")
	assert.Equal(t, 2, p.Len())
}

func TestDenseStore(t *testing.T) {
	w := NewWorld()
	s := NewDenseStore[int](4)

	a, b := w.CreateEntity(), w.CreateEntity()
	assert.Equal(t, 0, s.Add(a, 10))
	assert.Equal(t, 1, s.Add(b, 20))
	assert.Equal(t, 0, s.Add(a, 11), "re-adding keeps the slot")

	v, ok := s.Get(a)
	require.True(t, ok)
	assert.Equal(t, 11, *v)

	*s.At(1) = 21
	v, _ = s.Get(b)
	assert.Equal(t, 21, *v)
	assert.Equal(t, b, s.ID(1))
	assert.Equal(t, -1, s.IndexOf(EntityID(12345)))
	assert.Equal(t, 2, s.Len())
}

func TestJoinFollowsFirstStoreOrder(t *testing.T) {
	w := NewWorld()
	agents := NewDenseStore[string](4)
	extras := NewDenseStore[int](4)

	ids := []EntityID{w.CreateEntity(), w.CreateEntity(), w.CreateEntity()}
	for _, id := range ids {
		agents.Add(id, "agent")
	}
	extras.Add(ids[2], 2)
	extras.Add(ids[0], 0)

	pairs := Join(extras, agents, nil)
	assert.Equal(t, []IndexPair{{A: 0, B: 2}, {A: 1, B: 0}}, pairs)
}
