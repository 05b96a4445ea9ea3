/*
	Package stitcher reassembles a single globally-consistent labeling from
	independently-labeled sub-blocks of a larger volume.  Each block is
	internally consistent but uses block-local label numbering; the stitcher
	assigns globally unique labels via per-block offsets, finds labels that
	represent the same physical object across block boundaries, and applies
	the resulting equivalence relation everywhere.
*/
package stitcher

import (
	"github.com/janelia-flyem/stitch/stitch"
)

// Neighbor is a spatially-adjacent subvolume referenced by another
// subvolume's descriptor.
type Neighbor struct {
	Index int32
	Box   stitch.Box3d
}

// Subvolume describes one partition of the overall volume: its identity,
// its interior bounding box in the global coordinate frame, the halo
// (border) width added for safe boundary handling, and the descriptors of
// spatially-adjacent neighbors.  A Subvolume is created once by
// partitioning and immutable thereafter.
type Subvolume struct {
	Index     int32
	Box       stitch.Box3d
	Border    int32
	Neighbors []Neighbor
}

// BorderedBox returns the subvolume's bounding box grown by its border.
func (sv *Subvolume) BorderedBox() stitch.Box3d {
	return sv.Box.Expanded(sv.Border)
}

// Touches returns true if the subvolume's interior box abuts the given box
// at a face along the given ranges.
func (sv *Subvolume) Touches(a1, a2, b1, b2 int32) bool {
	return stitch.RangesTouch(a1, a2, b1, b2)
}
