package stitcher

import (
	"testing"

	"github.com/janelia-flyem/stitch/labels"
	"github.com/janelia-flyem/stitch/stitch"
)

func TestExtractBoundaries(t *testing.T) {
	blocks := twoAdjacentBlocks()
	svA, volA := blocks[0].Subvolume, blocks[0].Labels

	pieces, err := extractBoundaries(svA, volA)
	if err != nil {
		t.Fatalf("Error extracting boundaries: %v\n", err)
	}
	if len(pieces) != 1 {
		t.Fatalf("Expected 1 boundary piece, got %d\n", len(pieces))
	}
	piece, found := pieces[makeBoundaryKey(1, 0)]
	if !found {
		t.Fatalf("Expected boundary key (0,1), got %v\n", pieces)
	}

	// Bordered boxes [-1,5) and [3,9) overlap in x over [3,5) and span
	// the full bordered extent in y and z.
	wantSize := stitch.Point3d{2, 6, 6}
	if piece.overlap.Size != wantSize {
		t.Fatalf("Expected overlap size %s, got %s\n", wantSize, piece.overlap.Size)
	}

	// Global x in [3,5) lies inside A's label 2 region for y,z in [0,4).
	if got := piece.overlap.Value(0, 1, 1); got != 2 {
		t.Errorf("Expected label 2 at overlap origin of object, got %d\n", got)
	}
	if got := piece.overlap.Value(1, 4, 4); got != 2 {
		t.Errorf("Expected label 2 at far corner of object, got %d\n", got)
	}
	if got := piece.overlap.Value(0, 0, 0); got != 0 {
		t.Errorf("Expected background in halo corner, got %d\n", got)
	}
}

func TestExtractBoundariesSizeMismatch(t *testing.T) {
	blocks := twoAdjacentBlocks()
	tooSmall := labels.NewVolume(stitch.Point3d{4, 4, 4})
	if _, err := extractBoundaries(blocks[0].Subvolume, tooSmall); err == nil {
		t.Errorf("Expected size mismatch error, got none\n")
	}
	// A correctly sized volume is fine even when all background.
	sv := blocks[1].Subvolume
	vol, _ := newBorderedVolume(sv)
	if _, err := extractBoundaries(sv, vol); err != nil {
		t.Errorf("Error extracting boundaries from background volume: %v\n", err)
	}
}
