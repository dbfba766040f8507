package ecs

// IndexPair links the dense indices of one entity in two stores.
type IndexPair struct {
	A int
	B int
}

// Join appends an IndexPair for every entity present in both stores, in the
// dense order of sa, and returns the extended slice. It walks sa and probes
// sb, so pass the smaller (optional) store first.
func Join[A, B any](sa *DenseStore[A], sb *DenseStore[B], dst []IndexPair) []IndexPair {
	for i, id := range sa.ids {
		if j, ok := sb.index[id]; ok {
			dst = append(dst, IndexPair{A: i, B: j})
		}
	}
	return dst
}
