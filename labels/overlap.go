package labels

import (
	"fmt"
	"sort"

	"github.com/janelia-flyem/stitch/stitch"
)

// ShapeMismatchError signals two volumes that should share a shape do not.
type ShapeMismatchError struct {
	Shape1, Shape2 stitch.Point3d
}

func (e ShapeMismatchError) Error() string {
	return fmt.Sprintf("volume shapes differ: %s != %s", e.Shape1, e.Shape2)
}

// OverlapEntry is one nonzero cell of a contingency table: Count voxels
// carry label A in the first volume and label B in the second.
type OverlapEntry struct {
	A, B  uint64
	Count uint64
}

// OverlapTable is a cross-tabulation of co-occurring label pairs between
// two label volumes of identical shape.  Both a dense (array-backed) and
// a sparse representation satisfy this contract.
type OverlapTable interface {
	// Count returns the number of voxels where label a in the first volume
	// coincides with label b in the second.
	Count(a, b uint64) uint64

	// Entries returns all nonzero cells ordered by (A, B) ascending.
	Entries() []OverlapEntry

	// ArgmaxRows returns, for every label of the first volume appearing in
	// the table, the label of the second volume with maximum overlap count.
	// Ties are broken by the lowest second-volume label.
	ArgmaxRows() TotalMapping

	// RowSum returns the total voxel count of label a in the first volume.
	RowSum(a uint64) uint64
}

// ComputeOverlap builds the contingency table of two volumes.  The volumes
// must have identical shape.  If sparse is true, a hash-backed table is
// returned, suitable for large or non-consecutive label ranges; otherwise
// a dense table sized (maxA+1) x (maxB+1) is built.
func ComputeOverlap(a, b *Volume, sparse bool) (OverlapTable, error) {
	if a.Size != b.Size {
		return nil, ShapeMismatchError{Shape1: a.Size, Shape2: b.Size}
	}
	if sparse {
		t := sparseOverlap{counts: make(map[uint64]map[uint64]uint64)}
		for i, labelA := range a.Data {
			labelB := b.Data[i]
			row := t.counts[labelA]
			if row == nil {
				row = make(map[uint64]uint64)
				t.counts[labelA] = row
			}
			row[labelB]++
		}
		return t, nil
	}
	t := denseOverlap{
		numRows: a.MaxLabel() + 1,
		numCols: b.MaxLabel() + 1,
	}
	t.counts = make([]uint64, t.numRows*t.numCols)
	for i, labelA := range a.Data {
		t.counts[labelA*t.numCols+b.Data[i]]++
	}
	return t, nil
}

// --- dense representation ---

type denseOverlap struct {
	numRows, numCols uint64
	counts           []uint64
}

func (t denseOverlap) Count(a, b uint64) uint64 {
	if a >= t.numRows || b >= t.numCols {
		return 0
	}
	return t.counts[a*t.numCols+b]
}

func (t denseOverlap) Entries() []OverlapEntry {
	var entries []OverlapEntry
	for a := uint64(0); a < t.numRows; a++ {
		for b := uint64(0); b < t.numCols; b++ {
			if count := t.counts[a*t.numCols+b]; count != 0 {
				entries = append(entries, OverlapEntry{A: a, B: b, Count: count})
			}
		}
	}
	return entries
}

func (t denseOverlap) ArgmaxRows() TotalMapping {
	return argmaxFromEntries(t.Entries())
}

func (t denseOverlap) RowSum(a uint64) (sum uint64) {
	if a >= t.numRows {
		return 0
	}
	for b := uint64(0); b < t.numCols; b++ {
		sum += t.counts[a*t.numCols+b]
	}
	return
}

// --- sparse representation ---

type sparseOverlap struct {
	counts map[uint64]map[uint64]uint64
}

func (t sparseOverlap) Count(a, b uint64) uint64 {
	return t.counts[a][b]
}

func (t sparseOverlap) Entries() []OverlapEntry {
	var entries []OverlapEntry
	for a, row := range t.counts {
		for b, count := range row {
			entries = append(entries, OverlapEntry{A: a, B: b, Count: count})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].A != entries[j].A {
			return entries[i].A < entries[j].A
		}
		return entries[i].B < entries[j].B
	})
	return entries
}

func (t sparseOverlap) ArgmaxRows() TotalMapping {
	return argmaxFromEntries(t.Entries())
}

func (t sparseOverlap) RowSum(a uint64) (sum uint64) {
	for _, count := range t.counts[a] {
		sum += count
	}
	return
}

// argmaxFromEntries expects entries ordered by (A, B) so that keeping the
// first strictly-greater count per row makes ties resolve to the lowest B.
func argmaxFromEntries(entries []OverlapEntry) TotalMapping {
	argmax := make(TotalMapping)
	best := make(map[uint64]uint64)
	for _, e := range entries {
		if e.Count > best[e.A] {
			best[e.A] = e.Count
			argmax[e.A] = e.B
		}
	}
	return argmax
}
