package ecs

// EntityID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Index 0 is reserved so the zero value means "no entity".
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

// Key is the identity handed to collaborators that must not import ecs
// (the path query gateway keys its callbacks by it).
func (id EntityID) Key() uint64 { return uint64(id) }

// EntityPool hands out entity ids. Agents live for the whole simulation, so
// there is no free list; the generation is fixed per pool and lets ids from
// different pools (tests, restarts of the loop) never compare equal.
type EntityPool struct {
	generation uint32
	nextIndex  uint32
}

func NewEntityPool(generation uint32) *EntityPool {
	return &EntityPool{generation: generation, nextIndex: 1}
}

func (p *EntityPool) Create() EntityID {
	idx := p.nextIndex
	p.nextIndex++
	return NewEntityID(idx, p.generation)
}

func (p *EntityPool) Alive(id EntityID) bool {
	if id.Generation() != p.generation {
		return false
	}
	idx := id.Index()
	return idx != 0 && idx < p.nextIndex
}

// Len returns the number of entities created so far.
func (p *EntityPool) Len() int { return int(p.nextIndex - 1) }
