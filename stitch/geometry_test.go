package stitch

import "testing"

func TestBoxIntersect(t *testing.T) {
	a := Box3d{X1: -1, X2: 5, Y1: -1, Y2: 5, Z1: -1, Z2: 5}
	b := Box3d{X1: 3, X2: 9, Y1: -1, Y2: 5, Z1: -1, Z2: 5}
	isect, ok := a.Intersect(b)
	if !ok {
		t.Fatalf("Expected boxes %s and %s to intersect\n", a, b)
	}
	want := Box3d{X1: 3, X2: 5, Y1: -1, Y2: 5, Z1: -1, Z2: 5}
	if isect != want {
		t.Errorf("Expected intersection %s, got %s\n", want, isect)
	}

	c := Box3d{X1: 5, X2: 9, Y1: 0, Y2: 4, Z1: 0, Z2: 4}
	if _, ok := a.Intersect(c); ok {
		t.Errorf("Expected abutting boxes %s and %s to have no intersection\n", a, c)
	}
}

func TestBoxExpanded(t *testing.T) {
	b := Box3d{X1: 0, X2: 4, Y1: 0, Y2: 4, Z1: 0, Z2: 4}
	got := b.Expanded(1)
	want := Box3d{X1: -1, X2: 5, Y1: -1, Y2: 5, Z1: -1, Z2: 5}
	if got != want {
		t.Errorf("Expected expanded box %s, got %s\n", want, got)
	}
	if got.Size() != (Point3d{6, 6, 6}) {
		t.Errorf("Expected expanded size (6,6,6), got %s\n", got.Size())
	}
	if b.NumVoxels() != 64 {
		t.Errorf("Expected 64 voxels, got %d\n", b.NumVoxels())
	}
}

func TestRangesTouch(t *testing.T) {
	if !RangesTouch(0, 4, 4, 8) || !RangesTouch(4, 8, 0, 4) {
		t.Errorf("Expected abutting ranges to touch\n")
	}
	if RangesTouch(0, 4, 5, 8) {
		t.Errorf("Expected separated ranges not to touch\n")
	}
	if RangesTouch(0, 4, 2, 8) {
		t.Errorf("Expected overlapping ranges not to touch\n")
	}
}
