package stitcher

import "testing"

func TestOffsetAssignment(t *testing.T) {
	// Subvolumes deliberately out of index order; assignment must follow
	// ascending index regardless.
	subvols := []*Subvolume{
		{Index: 2},
		{Index: 0},
		{Index: 1},
	}
	maxLabels := []uint64{7, 10, 5} // parallel to subvols

	oa, err := assignOffsets(subvols, maxLabels)
	if err != nil {
		t.Fatalf("Error assigning offsets: %v\n", err)
	}
	expected := map[int32]uint64{0: 0, 1: 10, 2: 15}
	for index, want := range expected {
		got, err := oa.Offset(index)
		if err != nil {
			t.Fatalf("Error getting offset for subvolume %d: %v\n", index, err)
		}
		if got != want {
			t.Errorf("Expected offset %d for subvolume %d, got %d\n", want, index, got)
		}
	}
	if _, err := oa.Offset(99); err == nil {
		t.Errorf("Expected error for unknown subvolume index, got none\n")
	}

	// Ranges [offset, offset+maxLabel] for distinct blocks must never
	// overlap except at 0: a local label L in block i becomes offset+L,
	// so distinct blocks can never collide without an explicit merge.
	type labelRange struct{ lo, hi uint64 }
	ranges := []labelRange{{1, 10}, {11, 15}, {16, 22}} // from expected offsets
	for i := 1; i < len(ranges); i++ {
		if ranges[i].lo <= ranges[i-1].hi {
			t.Errorf("Global label ranges overlap: %v\n", ranges)
		}
	}
}

func TestOffsetAssignmentDuplicateIndex(t *testing.T) {
	subvols := []*Subvolume{{Index: 3}, {Index: 3}}
	if _, err := assignOffsets(subvols, []uint64{1, 2}); err == nil {
		t.Errorf("Expected error for duplicate subvolume index, got none\n")
	}
}
