// Equivalence map construction for global label reconciliation.

package stitcher

// EquivalenceMap is an undirected partition of globally-offset label IDs
// into equivalence classes, each represented by one chosen member ("body
// to body" map from any member to its class representative).  It is built
// once by a single sequential owner and read-only thereafter, so parallel
// relabel tasks may share it without locking.  Applying it twice yields
// the same result as once.
type EquivalenceMap struct {
	rep     map[uint64]uint64
	members map[uint64]map[uint64]struct{}
}

// buildEquivalences folds merge edges into equivalence classes.  Edges are
// first sorted into a fixed total order; the pass itself is order
// dependent (the resolved second element of each edge always wins as the
// class representative), so the sort is what makes representative choice
// deterministic.
func buildEquivalences(edges []MergeEdge) *EquivalenceMap {
	em := &EquivalenceMap{
		rep:     make(map[uint64]uint64),
		members: make(map[uint64]map[uint64]struct{}),
	}
	sortEdges(edges)
	for _, edge := range edges {
		// Resolve both endpoints through any existing assignments.
		body1 := edge.A
		if rep, found := em.rep[body1]; found {
			body1 = rep
		}
		body2 := edge.B
		if rep, found := em.rep[body2]; found {
			body2 = rep
		}
		if body1 == body2 {
			continue
		}

		if em.members[body2] == nil {
			em.members[body2] = make(map[uint64]struct{})
		}
		em.members[body2][body1] = struct{}{}
		em.rep[body1] = body2

		// The resolved first element hands its entire member set to the
		// new representative.
		if absorbed, found := em.members[body1]; found {
			for member := range absorbed {
				em.members[body2][member] = struct{}{}
				em.rep[member] = body2
			}
			delete(em.members, body1)
		}
	}
	return em
}

// Rep returns the class representative for a label and whether the label
// is a known member of any merged class.
func (em *EquivalenceMap) Rep(label uint64) (uint64, bool) {
	rep, found := em.rep[label]
	return rep, found
}

// NumMerged returns the number of labels mapped to a different
// representative.
func (em *EquivalenceMap) NumMerged() int {
	return len(em.rep)
}
