package stitcher

import (
	"fmt"
	"sort"
)

// OffsetAssignment is an immutable per-subvolume label offset snapshot.
// Offsets are assigned in ascending subvolume index order, each offset the
// cumulative sum of max labels of preceding subvolumes, so that
// "offset + local label" is globally unique across blocks before merging.
// Once published it is read-only and safe to share across parallel tasks.
type OffsetAssignment struct {
	offsets map[int32]uint64
}

// assignOffsets walks subvolumes in stable ascending index order and
// accumulates offsets from the per-block max labels, which are indexed
// parallel to subvols.
func assignOffsets(subvols []*Subvolume, maxLabels []uint64) (*OffsetAssignment, error) {
	if len(subvols) != len(maxLabels) {
		return nil, fmt.Errorf("got %d subvolumes but %d max labels", len(subvols), len(maxLabels))
	}
	order := make([]int, len(subvols))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return subvols[order[a]].Index < subvols[order[b]].Index
	})

	oa := &OffsetAssignment{offsets: make(map[int32]uint64, len(subvols))}
	var offset uint64
	for _, i := range order {
		sv := subvols[i]
		if _, found := oa.offsets[sv.Index]; found {
			return nil, fmt.Errorf("duplicate subvolume index %d in offset assignment", sv.Index)
		}
		oa.offsets[sv.Index] = offset
		offset += maxLabels[i]
	}
	return oa, nil
}

// Offset returns the label offset assigned to the given subvolume index.
func (oa *OffsetAssignment) Offset(index int32) (uint64, error) {
	offset, found := oa.offsets[index]
	if !found {
		return 0, fmt.Errorf("no offset assigned for subvolume index %d", index)
	}
	return offset, nil
}
