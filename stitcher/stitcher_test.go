package stitcher

import (
	"context"
	"errors"
	"testing"

	"github.com/janelia-flyem/stitch/labels"
	"github.com/janelia-flyem/stitch/stitch"
)

// newBorderedVolume returns a zero volume covering the subvolume's
// bordered box along with the global coordinate of its local origin.
func newBorderedVolume(sv *Subvolume) (*labels.Volume, stitch.Point3d) {
	bordered := sv.BorderedBox()
	vol := labels.NewVolume(bordered.Size())
	return vol, stitch.Point3d{bordered.X1, bordered.Y1, bordered.Z1}
}

// fillGlobal sets a label over the given global coordinate ranges in a
// volume whose local origin sits at the given global point.
func fillGlobal(vol *labels.Volume, origin stitch.Point3d, x1, x2, y1, y2, z1, z2 int32, label uint64) {
	for z := z1; z < z2; z++ {
		for y := y1; y < y2; y++ {
			for x := x1; x < x2; x++ {
				vol.SetValue(x-origin[0], y-origin[1], z-origin[2], label)
			}
		}
	}
}

// twoAdjacentBlocks builds the canonical fixture: two 4x4x4 blocks sharing
// a face at x=4 with a 1-voxel border.  Block A holds labels {1,2} with 2
// against the shared face; block B holds label 1 fully overlapping A's 2
// in the halo region.
func twoAdjacentBlocks() []Block {
	boxA := stitch.Box3d{X1: 0, X2: 4, Y1: 0, Y2: 4, Z1: 0, Z2: 4}
	boxB := stitch.Box3d{X1: 4, X2: 8, Y1: 0, Y2: 4, Z1: 0, Z2: 4}
	svA := &Subvolume{Index: 0, Box: boxA, Border: 1, Neighbors: []Neighbor{{Index: 1, Box: boxB}}}
	svB := &Subvolume{Index: 1, Box: boxB, Border: 1, Neighbors: []Neighbor{{Index: 0, Box: boxA}}}

	volA, originA := newBorderedVolume(svA)
	fillGlobal(volA, originA, 0, 2, 0, 4, 0, 4, 1)
	fillGlobal(volA, originA, 2, 5, 0, 4, 0, 4, 2) // extends into A's halo at x=4

	volB, originB := newBorderedVolume(svB)
	fillGlobal(volB, originB, 3, 8, 0, 4, 0, 4, 1) // extends into B's halo at x=3

	// MaxLabel is reported by the per-block segmentation and may exceed
	// the highest label present.
	return []Block{
		{Subvolume: svA, Labels: volA, MaxLabel: 3},
		{Subvolume: svB, Labels: volB, MaxLabel: 1},
	}
}

func TestStitchTwoBlocks(t *testing.T) {
	blocks := twoAdjacentBlocks()
	result, err := Stitch(context.Background(), blocks)
	if err != nil {
		t.Fatalf("Error stitching: %v\n", err)
	}

	offsetA, _ := result.Offsets.Offset(0)
	offsetB, _ := result.Offsets.Offset(1)
	if offsetA != 0 || offsetB != 3 {
		t.Fatalf("Expected offsets (0, 3), got (%d, %d)\n", offsetA, offsetB)
	}

	// The merge edge (2, 4) puts A's label 2 and B's global label 4 in
	// one class, with the higher-block label chosen as representative.
	rep, found := result.Equivalences.Rep(2)
	if !found || rep != 4 {
		t.Errorf("Expected label 2 to map to representative 4, got %d (found %t)\n", rep, found)
	}
	if _, found := result.Equivalences.Rep(4); found {
		t.Errorf("Representative 4 should have no further mapping\n")
	}

	// The object spanning the boundary must carry one label everywhere.
	outA, outB := result.Volumes[0], result.Volumes[1]
	originA := stitch.Point3d{-1, -1, -1}
	originB := stitch.Point3d{3, -1, -1}
	if got := outA.Value(2-originA[0], 0-originA[1], 0-originA[2]); got != 4 {
		t.Errorf("Expected A's merged body to become 4, got %d\n", got)
	}
	if got := outB.Value(5-originB[0], 0-originB[1], 0-originB[2]); got != 4 {
		t.Errorf("Expected B's body to become global 4, got %d\n", got)
	}
	if got := outA.Value(0-originA[0], 0-originA[1], 0-originA[2]); got != 1 {
		t.Errorf("Expected A's label 1 to be untouched by merging, got %d\n", got)
	}

	// Background must stay 0 after offsets are applied.
	if got := outA.Value(0, 0, 0); got != 0 {
		t.Errorf("Expected halo background to remain 0, got %d\n", got)
	}
	if got := outB.Value(0, 0, 0); got != 0 {
		t.Errorf("Expected halo background to remain 0, got %d\n", got)
	}
}

func TestStitchDeterministic(t *testing.T) {
	first, err := Stitch(context.Background(), twoAdjacentBlocks())
	if err != nil {
		t.Fatalf("Error stitching: %v\n", err)
	}
	second, err := Stitch(context.Background(), twoAdjacentBlocks())
	if err != nil {
		t.Fatalf("Error stitching: %v\n", err)
	}
	for i := range first.Volumes {
		if !first.Volumes[i].Equals(second.Volumes[i]) {
			t.Errorf("Stitch results differ between identical runs for block %d\n", i)
		}
	}
}

func TestStitchMalformedBoundary(t *testing.T) {
	blocks := twoAdjacentBlocks()
	// Drop B's neighbor record so boundary key (0,1) collects only one
	// contributor: inconsistent partitioning, fatal.
	blocks[1].Subvolume.Neighbors = nil

	if _, err := Stitch(context.Background(), blocks); err == nil {
		t.Fatalf("Expected malformed boundary error, got none\n")
	} else {
		var malformed MalformedBoundaryError
		if !errors.As(err, &malformed) {
			t.Errorf("Expected MalformedBoundaryError, got %T: %v\n", err, err)
		}
	}
}

func TestPairwiseMergesContributorCount(t *testing.T) {
	blocks := twoAdjacentBlocks()
	offsets, err := assignOffsets(
		[]*Subvolume{blocks[0].Subvolume, blocks[1].Subvolume},
		[]uint64{blocks[0].MaxLabel, blocks[1].MaxLabel})
	if err != nil {
		t.Fatalf("Error assigning offsets: %v\n", err)
	}
	piece := boundaryPiece{sv: blocks[0].Subvolume, overlap: blocks[0].Labels}
	key := makeBoundaryKey(0, 1)

	for _, count := range []int{1, 3} {
		pieces := make([]boundaryPiece, count)
		for i := range pieces {
			pieces[i] = piece
		}
		if _, err := computePairwiseMerges(key, pieces, offsets); err == nil {
			t.Errorf("Expected malformed boundary error for %d contributors, got none\n", count)
		}
	}
}

func TestPairwiseMergesShapeMismatch(t *testing.T) {
	blocks := twoAdjacentBlocks()
	offsets, _ := assignOffsets(
		[]*Subvolume{blocks[0].Subvolume, blocks[1].Subvolume},
		[]uint64{3, 1})
	small := labels.NewVolume(stitch.Point3d{2, 2, 2})
	big := labels.NewVolume(stitch.Point3d{4, 4, 4})
	pieces := []boundaryPiece{
		{sv: blocks[0].Subvolume, overlap: small},
		{sv: blocks[1].Subvolume, overlap: big},
	}
	if _, err := computePairwiseMerges(makeBoundaryKey(0, 1), pieces, offsets); err == nil {
		t.Errorf("Expected malformed boundary error for mismatched shapes, got none\n")
	}
}

func TestEquivalenceMapIdempotent(t *testing.T) {
	edges := []MergeEdge{{1, 5}, {5, 9}, {2, 5}, {3, 9}}
	em := buildEquivalences(edges)

	for _, label := range []uint64{1, 2, 3, 5, 9} {
		once, found := em.Rep(label)
		if !found {
			once = label
		}
		twice, found := em.Rep(once)
		if found && twice != once {
			t.Errorf("Equivalence map not idempotent: %d -> %d -> %d\n", label, once, twice)
		}
	}

	// All members must share one representative after transitive closure.
	want, found := em.Rep(1)
	if !found {
		t.Fatalf("Expected label 1 to have a representative\n")
	}
	for _, label := range []uint64{2, 3, 5} {
		rep, found := em.Rep(label)
		if !found || rep != want {
			t.Errorf("Expected label %d to share representative %d, got %d (found %t)\n",
				label, want, rep, found)
		}
	}
}

func TestEquivalenceDeterministicOrder(t *testing.T) {
	// Same edges in different received order must reconcile identically
	// because the builder sorts before the sequential pass.
	edgesA := []MergeEdge{{1, 5}, {2, 6}, {5, 6}}
	edgesB := []MergeEdge{{5, 6}, {1, 5}, {2, 6}}
	emA := buildEquivalences(edgesA)
	emB := buildEquivalences(edgesB)
	for _, label := range []uint64{1, 2, 5, 6} {
		repA, foundA := emA.Rep(label)
		repB, foundB := emB.Rep(label)
		if repA != repB || foundA != foundB {
			t.Errorf("Representative of %d differs by edge order: %d/%t vs %d/%t\n",
				label, repA, foundA, repB, foundB)
		}
	}
}
