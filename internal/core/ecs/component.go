package ecs

// DenseStore keeps components of one type in a packed slice so systems can
// split the set into disjoint index ranges and work on them in parallel.
// Adding entries is only legal between stages (single goroutine); during a
// stage workers may read the id index concurrently and write At(i) for the
// indices they own.
type DenseStore[T any] struct {
	ids   []EntityID
	data  []T
	index map[EntityID]int
}

func NewDenseStore[T any](capacity int) *DenseStore[T] {
	return &DenseStore[T]{
		ids:   make([]EntityID, 0, capacity),
		data:  make([]T, 0, capacity),
		index: make(map[EntityID]int, capacity),
	}
}

// Add appends c for id and returns its dense index. Adding an id twice
// overwrites the existing component in place.
func (s *DenseStore[T]) Add(id EntityID, c T) int {
	if i, ok := s.index[id]; ok {
		s.data[i] = c
		return i
	}
	i := len(s.data)
	s.ids = append(s.ids, id)
	s.data = append(s.data, c)
	s.index[id] = i
	return i
}

func (s *DenseStore[T]) Get(id EntityID) (*T, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.data[i], true
}

// IndexOf returns the dense index of id, or -1.
func (s *DenseStore[T]) IndexOf(id EntityID) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

func (s *DenseStore[T]) Has(id EntityID) bool {
	_, ok := s.index[id]
	return ok
}

// At returns a pointer to the component at dense index i.
func (s *DenseStore[T]) At(i int) *T { return &s.data[i] }

// ID returns the entity owning dense index i.
func (s *DenseStore[T]) ID(i int) EntityID { return s.ids[i] }

func (s *DenseStore[T]) Len() int { return len(s.data) }

// Each visits every component in dense order.
func (s *DenseStore[T]) Each(fn func(int, EntityID, *T)) {
	for i := range s.data {
		fn(i, s.ids[i], &s.data[i])
	}
}
