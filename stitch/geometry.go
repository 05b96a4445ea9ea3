/*
	Geometry primitives for axis-aligned sub-blocks of a 3d volume.
*/

package stitch

import "fmt"

// Point3d is a 3d point or size in voxel coordinates.
type Point3d [3]int32

func (p Point3d) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p[0], p[1], p[2])
}

// Prod returns the product of the point's elements, e.g., the number of
// voxels within a volume of this size.
func (p Point3d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2])
}

// Box3d is an axis-aligned bounding box in the global coordinate frame.
// Ranges are half-open: voxels span [X1, X2) x [Y1, Y2) x [Z1, Z2).
type Box3d struct {
	X1, X2 int32
	Y1, Y2 int32
	Z1, Z2 int32
}

func (b Box3d) String() string {
	return fmt.Sprintf("[%d,%d) x [%d,%d) x [%d,%d)", b.X1, b.X2, b.Y1, b.Y2, b.Z1, b.Z2)
}

// Size returns the extents of the box along each axis.
func (b Box3d) Size() Point3d {
	return Point3d{b.X2 - b.X1, b.Y2 - b.Y1, b.Z2 - b.Z1}
}

// NumVoxels returns the number of voxels within the box.
func (b Box3d) NumVoxels() int64 {
	return b.Size().Prod()
}

// Empty returns true if the box contains no voxels.
func (b Box3d) Empty() bool {
	return b.X2 <= b.X1 || b.Y2 <= b.Y1 || b.Z2 <= b.Z1
}

// Expanded returns the box grown by the given border on all sides.
func (b Box3d) Expanded(border int32) Box3d {
	return Box3d{
		X1: b.X1 - border, X2: b.X2 + border,
		Y1: b.Y1 - border, Y2: b.Y2 + border,
		Z1: b.Z1 - border, Z2: b.Z2 + border,
	}
}

// Intersect returns the overlapping region of two boxes and whether any
// overlap exists.  Each axis is clipped independently.
func (b Box3d) Intersect(b2 Box3d) (Box3d, bool) {
	isect := Box3d{
		X1: maxInt32(b.X1, b2.X1), X2: minInt32(b.X2, b2.X2),
		Y1: maxInt32(b.Y1, b2.Y1), Y2: minInt32(b.Y2, b2.Y2),
		Z1: maxInt32(b.Z1, b2.Z1), Z2: minInt32(b.Z2, b2.Z2),
	}
	if isect.Empty() {
		return Box3d{}, false
	}
	return isect, true
}

// RangesTouch returns true if the half-open ranges [a1,a2) and [b1,b2)
// abut at a shared face, i.e., one begins exactly where the other ends.
func RangesTouch(a1, a2, b1, b2 int32) bool {
	return a2 == b1 || b2 == a1
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
