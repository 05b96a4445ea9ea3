package workflow

import (
	"context"
	"os"
	"testing"

	"github.com/janelia-flyem/stitch/stitch"
	"github.com/janelia-flyem/stitch/storage"
)

// grayBar returns grayscale data for a bordered box with value 255 where
// the global coordinate falls inside the bar region, 0 elsewhere.
func grayBar(box stitch.Box3d, bar stitch.Box3d) []byte {
	size := box.Size()
	data := make([]byte, box.NumVoxels())
	i := 0
	for z := int32(0); z < size[2]; z++ {
		for y := int32(0); y < size[1]; y++ {
			for x := int32(0); x < size[0]; x++ {
				gx, gy, gz := box.X1+x, box.Y1+y, box.Z1+z
				if gx >= bar.X1 && gx < bar.X2 && gy >= bar.Y1 && gy < bar.Y2 &&
					gz >= bar.Z1 && gz < bar.Z2 {
					data[i] = 255
				}
				i++
			}
		}
	}
	return data
}

func TestRunStitchingJob(t *testing.T) {
	path := storage.TestPath()
	defer os.RemoveAll(path)

	job, err := ParseJob([]byte(`{
		"bounding-box": { "start": [0, 0, 0], "stop": [8, 4, 4] },
		"chunk-size": 4,
		"border": 1
	}`))
	if err != nil {
		t.Fatalf("Error parsing job spec: %v\n", err)
	}

	// One foreground bar crossing the chunk boundary at x=4.
	bar := stitch.Box3d{X1: 0, X2: 8, Y1: 1, Y2: 3, Z1: 1, Z2: 3}
	subvols, err := PartitionBox(job.Box(), job.ChunkSize, job.Border)
	if err != nil {
		t.Fatalf("Error partitioning job box: %v\n", err)
	}
	if len(subvols) != 2 {
		t.Fatalf("Expected 2 subvolumes, got %d\n", len(subvols))
	}

	store, err := storage.NewEngine().NewStore(path)
	if err != nil {
		t.Fatalf("Error opening store: %v\n", err)
	}
	for _, sv := range subvols {
		bordered := sv.BorderedBox()
		if err := store.PutGrayBlock(bordered, grayBar(bordered, bar)); err != nil {
			t.Fatalf("Error storing gray block %s: %v\n", bordered, err)
		}
	}
	store.Close()

	cfg := &Config{Store: StoreConfig{Path: path, CacheMB: 1}}
	summary, err := Run(context.Background(), cfg, job, ThresholdSegmenter(128))
	if err != nil {
		t.Fatalf("Error running stitching job: %v\n", err)
	}
	if summary.NumSubvolumes != 2 {
		t.Errorf("Expected 2 subvolumes in summary, got %d\n", summary.NumSubvolumes)
	}
	if summary.NumMerged != 1 {
		t.Errorf("Expected 1 merged body, got %d\n", summary.NumMerged)
	}

	// The persisted interior blocks must agree on the bar's label across
	// the chunk boundary.
	store, err = storage.NewEngine().NewStore(path)
	if err != nil {
		t.Fatalf("Error reopening store: %v\n", err)
	}
	defer store.Close()

	blockA, err := store.GetLabelBlock(subvols[0].Box)
	if err != nil {
		t.Fatalf("Error reading label block %s: %v\n", subvols[0].Box, err)
	}
	blockB, err := store.GetLabelBlock(subvols[1].Box)
	if err != nil {
		t.Fatalf("Error reading label block %s: %v\n", subvols[1].Box, err)
	}
	labelA := blockA.Value(3, 1, 1) // global (3,1,1), inside the bar
	labelB := blockB.Value(0, 1, 1) // global (4,1,1), inside the bar
	if labelA == 0 || labelA != labelB {
		t.Errorf("Expected one label across boundary, got %d and %d\n", labelA, labelB)
	}
	if got := blockA.Value(0, 0, 0); got != 0 {
		t.Errorf("Expected background to stay 0, got %d\n", got)
	}
}

func TestRunFailsWithoutGrayData(t *testing.T) {
	path := storage.TestPath()
	defer os.RemoveAll(path)

	job, err := ParseJob([]byte(`{
		"bounding-box": { "start": [0, 0, 0], "stop": [4, 4, 4] },
		"chunk-size": 4,
		"border": 0
	}`))
	if err != nil {
		t.Fatalf("Error parsing job spec: %v\n", err)
	}
	cfg := &Config{Store: StoreConfig{Path: path}}
	if _, err := Run(context.Background(), cfg, job, ThresholdSegmenter(128)); err == nil {
		t.Errorf("Expected job to fail with no gray blocks stored, got none\n")
	}
}
