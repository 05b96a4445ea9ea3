package workflow

import (
	"testing"

	"github.com/janelia-flyem/stitch/stitch"
)

func TestPartitionBox(t *testing.T) {
	box := stitch.Box3d{X1: 0, X2: 10, Y1: 0, Y2: 4, Z1: 0, Z2: 4}
	subvols, err := PartitionBox(box, 4, 1)
	if err != nil {
		t.Fatalf("Error partitioning box: %v\n", err)
	}
	if len(subvols) != 3 {
		t.Fatalf("Expected 3 subvolumes, got %d\n", len(subvols))
	}

	// Scan order along x, with the final chunk clipped to the box.
	if subvols[0].Box.X2 != 4 || subvols[1].Box.X1 != 4 || subvols[2].Box.X2 != 10 {
		t.Errorf("Unexpected chunk extents: %s, %s, %s\n",
			subvols[0].Box, subvols[1].Box, subvols[2].Box)
	}
	if subvols[2].Box.Size() != (stitch.Point3d{2, 4, 4}) {
		t.Errorf("Expected clipped final chunk of size (2,4,4), got %s\n", subvols[2].Box.Size())
	}

	// Middle chunk has two face neighbors, end chunks have one.
	if len(subvols[1].Neighbors) != 2 {
		t.Errorf("Expected middle chunk to have 2 neighbors, got %d\n", len(subvols[1].Neighbors))
	}
	if len(subvols[0].Neighbors) != 1 || subvols[0].Neighbors[0].Index != 1 {
		t.Errorf("Expected first chunk to neighbor only index 1, got %v\n", subvols[0].Neighbors)
	}
	for _, sv := range subvols {
		if sv.Border != 1 {
			t.Errorf("Expected border 1 on subvolume %d, got %d\n", sv.Index, sv.Border)
		}
	}
}

func TestPartitionBoxExcludesCorners(t *testing.T) {
	box := stitch.Box3d{X1: 0, X2: 8, Y1: 0, Y2: 8, Z1: 0, Z2: 4}
	subvols, err := PartitionBox(box, 4, 1)
	if err != nil {
		t.Fatalf("Error partitioning box: %v\n", err)
	}
	if len(subvols) != 4 {
		t.Fatalf("Expected 4 subvolumes, got %d\n", len(subvols))
	}
	// Index 0 at (0,0) touches faces of indexes 1 and 2 but only the
	// corner of index 3 at (4,4).
	for _, neighbor := range subvols[0].Neighbors {
		if neighbor.Index == 3 {
			t.Errorf("Corner-adjacent chunk recorded as neighbor\n")
		}
	}
	if len(subvols[0].Neighbors) != 2 {
		t.Errorf("Expected 2 face neighbors, got %d\n", len(subvols[0].Neighbors))
	}
}

func TestPartitionBoxErrors(t *testing.T) {
	empty := stitch.Box3d{X1: 4, X2: 4, Y1: 0, Y2: 4, Z1: 0, Z2: 4}
	if _, err := PartitionBox(empty, 4, 0); err == nil {
		t.Errorf("Expected error partitioning empty box, got none\n")
	}
	box := stitch.Box3d{X1: 0, X2: 4, Y1: 0, Y2: 4, Z1: 0, Z2: 4}
	if _, err := PartitionBox(box, 0, 0); err == nil {
		t.Errorf("Expected error for zero chunk size, got none\n")
	}
	if _, err := PartitionBox(box, 4, -1); err == nil {
		t.Errorf("Expected error for negative border, got none\n")
	}
}
