package labels

// Connected-component labeling of a label volume using 6-connectivity.
// Two voxels belong to one component only if they carry the same positive
// label; background 0 is never connected to anything.

// unionFind tracks provisional component equivalences with path halving.
type unionFind struct {
	parent []uint64
}

func newUnionFind() *unionFind {
	return &unionFind{parent: []uint64{0}} // element 0 reserved for background
}

// add registers a new element and returns its id.
func (uf *unionFind) add() uint64 {
	id := uint64(len(uf.parent))
	uf.parent = append(uf.parent, id)
	return id
}

func (uf *unionFind) find(x uint64) uint64 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// union merges the components of a and b, keeping the smaller root so
// that final component numbering follows scan order.
func (uf *unionFind) union(a, b uint64) {
	rootA, rootB := uf.find(a), uf.find(b)
	if rootA == rootB {
		return
	}
	if rootA < rootB {
		uf.parent[rootB] = rootA
	} else {
		uf.parent[rootA] = rootB
	}
}

// ConnectedComponents computes a 6-connectivity connected-components
// labeling of the volume.  The result labels components 1..numComponents
// in order of first appearance in scan order (z, then y, then x), with
// background voxels remaining 0.
func ConnectedComponents(v *Volume) (*Volume, uint64) {
	nx, ny, nz := v.Size[0], v.Size[1], v.Size[2]
	provisional := make([]uint64, len(v.Data))
	uf := newUnionFind()

	// First pass: provisional labels, unioning across -x/-y/-z neighbors
	// that carry the same original label.
	for z := int32(0); z < nz; z++ {
		for y := int32(0); y < ny; y++ {
			for x := int32(0); x < nx; x++ {
				i := v.Index(x, y, z)
				label := v.Data[i]
				if label == 0 {
					continue
				}
				var id uint64
				if x > 0 && v.Data[i-1] == label {
					id = provisional[i-1]
				}
				if y > 0 && v.Data[i-int64(nx)] == label {
					if id == 0 {
						id = provisional[i-int64(nx)]
					} else {
						uf.union(id, provisional[i-int64(nx)])
					}
				}
				if z > 0 && v.Data[i-int64(nx)*int64(ny)] == label {
					if id == 0 {
						id = provisional[i-int64(nx)*int64(ny)]
					} else {
						uf.union(id, provisional[i-int64(nx)*int64(ny)])
					}
				}
				if id == 0 {
					id = uf.add()
				}
				provisional[i] = id
			}
		}
	}

	// Second pass: assign final consecutive ids by order of first
	// appearance of each root.
	out := NewVolume(v.Size)
	final := make(map[uint64]uint64)
	var numComponents uint64
	for i, id := range provisional {
		if id == 0 {
			continue
		}
		root := uf.find(id)
		component, found := final[root]
		if !found {
			numComponents++
			component = numComponents
			final[root] = component
		}
		out.Data[i] = component
	}
	return out, numComponents
}
