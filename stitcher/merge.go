package stitcher

import (
	"fmt"
	"sort"
)

// MergeEdge records that two globally-offset labels represent the same
// physical object: A from the lower-indexed subvolume of a boundary pair,
// B from the higher-indexed one.
type MergeEdge struct {
	A, B uint64
}

// MalformedBoundaryError signals inconsistent partitioning upstream: a
// boundary key resolved to a contributor count other than exactly two, or
// the two contributions had mismatched shapes.  It is fatal to the whole
// stitch.
type MalformedBoundaryError struct {
	Key    BoundaryKey
	Reason string
}

func (e MalformedBoundaryError) Error() string {
	return fmt.Sprintf("malformed boundary %s: %s", e.Key, e.Reason)
}

// computePairwiseMerges determines the merge edges across one boundary.
// The two contributions are ordered by ascending subvolume index, and the
// comparison is restricted to a one-voxel interface slab at the midpoint of
// each axis that actually separates the two subvolumes: only labels of the
// higher-indexed volume appearing within that slab are eligible merge
// targets, preventing spurious merges from the full overlap region.
func computePairwiseMerges(key BoundaryKey, pieces []boundaryPiece, offsets *OffsetAssignment) ([]MergeEdge, error) {
	if len(pieces) != 2 {
		return nil, MalformedBoundaryError{
			Key:    key,
			Reason: fmt.Sprintf("expected exactly 2 contributing subvolumes, got %d", len(pieces)),
		}
	}
	piece1, piece2 := pieces[0], pieces[1]
	if piece1.sv.Index > piece2.sv.Index {
		piece1, piece2 = piece2, piece1
	}
	vol1, vol2 := piece1.overlap, piece2.overlap
	if vol1.Size != vol2.Size {
		return nil, MalformedBoundaryError{
			Key:    key,
			Reason: fmt.Sprintf("extracted boundaries have different shapes: %s vs %s", vol1.Size, vol2.Size),
		}
	}

	// Restrict to the interface slab along whichever axis separates the
	// two subvolumes.
	sv1, sv2 := piece1.sv, piece2.sv
	x1, x2 := int32(0), vol1.Size[0]
	y1, y2 := int32(0), vol1.Size[1]
	z1, z2 := int32(0), vol1.Size[2]
	if sv1.Touches(sv1.Box.X1, sv1.Box.X2, sv2.Box.X1, sv2.Box.X2) {
		x1 = x2 / 2
		x2 = x1 + 1
	}
	if sv1.Touches(sv1.Box.Y1, sv1.Box.Y2, sv2.Box.Y1, sv2.Box.Y2) {
		y1 = y2 / 2
		y2 = y1 + 1
	}
	if sv1.Touches(sv1.Box.Z1, sv1.Box.Z2, sv2.Box.Z1, sv2.Box.Z2) {
		z1 = z2 / 2
		z2 = z1 + 1
	}
	eligible := make(map[uint64]struct{})
	for z := z1; z < z2; z++ {
		for y := y1; y < y2; y++ {
			for x := x1; x < x2; x++ {
				if label := vol2.Value(x, y, z); label != 0 {
					eligible[label] = struct{}{}
				}
			}
		}
	}

	// Traverse the full overlap to tally voxel overlap per label pair.
	overlaps := make(map[uint64]map[uint64]uint64)
	for i, label1 := range vol1.Data {
		label2 := vol2.Data[i]
		if label1 == 0 || label2 == 0 {
			continue
		}
		counts := overlaps[label2]
		if counts == nil {
			counts = make(map[uint64]uint64)
			overlaps[label2] = counts
		}
		counts[label1]++
	}

	offset1, err := offsets.Offset(sv1.Index)
	if err != nil {
		return nil, err
	}
	offset2, err := offsets.Offset(sv2.Index)
	if err != nil {
		return nil, err
	}

	// Any nonzero overlap with an eligible body is a merge.
	var edges []MergeEdge
	for label2, counts := range overlaps {
		if _, found := eligible[label2]; !found {
			continue
		}
		for label1, count := range counts {
			if count > 0 {
				edges = append(edges, MergeEdge{A: label1 + offset1, B: label2 + offset2})
			}
		}
	}
	sortEdges(edges)
	return edges, nil
}

// sortEdges imposes a fixed total order so later reconciliation is
// reproducible regardless of collection order.
func sortEdges(edges []MergeEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
}
