package stitcher

import (
	"fmt"

	"github.com/janelia-flyem/stitch/labels"
)

// BoundaryKey identifies the boundary between two subvolumes as an
// unordered pair, so both halves of a boundary converge at the same key.
type BoundaryKey struct {
	A, B int32 // A < B
}

func makeBoundaryKey(index1, index2 int32) BoundaryKey {
	if index1 > index2 {
		index1, index2 = index2, index1
	}
	return BoundaryKey{A: index1, B: index2}
}

func (k BoundaryKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.A, k.B)
}

// boundaryPiece is one subvolume's contribution to a pairwise boundary:
// the labels cropped to the overlap region of the two bordered boxes.
type boundaryPiece struct {
	sv      *Subvolume
	overlap *labels.Volume
}

// extractBoundaries computes, for every neighbor of a subvolume, the
// axis-aligned intersection of their bordered bounding boxes, crops the
// subvolume's labeling to that region, and emits one piece per boundary
// key.  vol must cover the subvolume's bordered box.
func extractBoundaries(sv *Subvolume, vol *labels.Volume) (map[BoundaryKey]boundaryPiece, error) {
	bordered := sv.BorderedBox()
	if vol.Size != bordered.Size() {
		return nil, fmt.Errorf("subvolume %d labeling has size %s but bordered box is %s",
			sv.Index, vol.Size, bordered)
	}

	pieces := make(map[BoundaryKey]boundaryPiece, len(sv.Neighbors))
	for _, neighbor := range sv.Neighbors {
		// Clip to the overlapping region only, independently per axis.
		isect, ok := bordered.Intersect(neighbor.Box.Expanded(sv.Border))
		if !ok {
			return nil, fmt.Errorf("subvolume %d and neighbor %d share no bordered overlap",
				sv.Index, neighbor.Index)
		}
		cropped, err := vol.Crop(
			isect.X1-bordered.X1, isect.X2-bordered.X1,
			isect.Y1-bordered.Y1, isect.Y2-bordered.Y1,
			isect.Z1-bordered.Z1, isect.Z2-bordered.Z1)
		if err != nil {
			return nil, fmt.Errorf("cropping boundary of subvolume %d against %d: %v",
				sv.Index, neighbor.Index, err)
		}
		key := makeBoundaryKey(sv.Index, neighbor.Index)
		pieces[key] = boundaryPiece{sv: sv, overlap: cropped}
	}
	return pieces, nil
}
