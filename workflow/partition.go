package workflow

import (
	"fmt"

	"github.com/janelia-flyem/stitch/stitch"
	"github.com/janelia-flyem/stitch/stitcher"
)

// PartitionBox splits a global bounding box into a grid of subvolumes of
// at most chunkSize per side, assigns scan-order indexes, and records
// face adjacency between them.  Chunks at the far faces of the box are
// clipped, so they may be smaller than chunkSize.
func PartitionBox(box stitch.Box3d, chunkSize, border int32) ([]*stitcher.Subvolume, error) {
	if box.Empty() {
		return nil, fmt.Errorf("cannot partition empty box %s", box)
	}
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1, got %d", chunkSize)
	}
	if border < 0 {
		return nil, fmt.Errorf("border must be non-negative, got %d", border)
	}

	var subvols []*stitcher.Subvolume
	var index int32
	for z := box.Z1; z < box.Z2; z += chunkSize {
		for y := box.Y1; y < box.Y2; y += chunkSize {
			for x := box.X1; x < box.X2; x += chunkSize {
				chunk := stitch.Box3d{
					X1: x, X2: minInt32(x+chunkSize, box.X2),
					Y1: y, Y2: minInt32(y+chunkSize, box.Y2),
					Z1: z, Z2: minInt32(z+chunkSize, box.Z2),
				}
				subvols = append(subvols, &stitcher.Subvolume{
					Index:  index,
					Box:    chunk,
					Border: border,
				})
				index++
			}
		}
	}

	// Record face neighbors pairwise, both directions.
	for i := 0; i < len(subvols)-1; i++ {
		for j := i + 1; j < len(subvols); j++ {
			if facesTouch(subvols[i].Box, subvols[j].Box) {
				subvols[i].Neighbors = append(subvols[i].Neighbors,
					stitcher.Neighbor{Index: subvols[j].Index, Box: subvols[j].Box})
				subvols[j].Neighbors = append(subvols[j].Neighbors,
					stitcher.Neighbor{Index: subvols[i].Index, Box: subvols[i].Box})
			}
		}
	}
	return subvols, nil
}

// facesTouch reports whether two boxes share a full face: they abut
// along exactly one axis and overlap along the other two.  Boxes that
// meet only at an edge or corner are not considered neighbors.
func facesTouch(a, b stitch.Box3d) bool {
	touching := 0
	overlapping := 0
	for _, axis := range [3][4]int32{
		{a.X1, a.X2, b.X1, b.X2},
		{a.Y1, a.Y2, b.Y1, b.Y2},
		{a.Z1, a.Z2, b.Z1, b.Z2},
	} {
		switch {
		case stitch.RangesTouch(axis[0], axis[1], axis[2], axis[3]):
			touching++
		case axis[0] < axis[3] && axis[2] < axis[1]:
			overlapping++
		}
	}
	return touching == 1 && overlapping == 2
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
