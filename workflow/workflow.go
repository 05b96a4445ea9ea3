/*
	Package workflow orchestrates whole segmentation stitching jobs: it
	partitions a bounding box into bordered subvolumes, runs per-block
	segmentation, repairs disconnected bodies, stitches the blocks into a
	globally consistent labeling, and persists the result.
*/
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/janelia-flyem/stitch/compute"
	"github.com/janelia-flyem/stitch/labels"
	"github.com/janelia-flyem/stitch/stitch"
	"github.com/janelia-flyem/stitch/stitcher"
	"github.com/janelia-flyem/stitch/storage"
)

// SegmentFunc produces a label volume for one bordered subvolume from
// its grayscale data.  The returned volume must cover the subvolume's
// bordered box, with label 0 reserved for background.  Segmentation
// algorithms are plugged in here; the workflow treats them as black
// boxes.
type SegmentFunc func(ctx context.Context, sv *stitcher.Subvolume, gray []byte) (*labels.Volume, error)

// storeAttempts bounds retries of block store reads and writes.  Store
// I/O is the only part of a job that is retried; everything downstream
// of it fails the job on first error.
const storeAttempts = 3

// Summary reports what a finished job did.
type Summary struct {
	NumSubvolumes int
	NumMerged     int
	Elapsed       time.Duration
}

// Run executes a stitching job end to end: partition, fetch grayscale,
// segment, repair splits, stitch, and persist interior label blocks.
func Run(ctx context.Context, cfg *Config, job *Job, segment SegmentFunc) (*Summary, error) {
	timedLog := stitch.NewTimeLog()
	start := time.Now()

	var store storage.BlockStore
	badgerStore, err := storage.NewEngine().NewStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening block store: %v", err)
	}
	store = badgerStore
	if cfg.Store.CacheMB > 0 {
		store = storage.NewCachedStore(badgerStore, cfg.Store.CacheMB)
	}
	defer store.Close()

	subvols, err := PartitionBox(job.Box(), job.ChunkSize, job.Border)
	if err != nil {
		return nil, err
	}
	stitch.LogActivityToKafka(map[string]interface{}{
		"action":     "stitch-start",
		"box":        job.Box().String(),
		"subvolumes": len(subvols),
	})
	timedLog.Infof("Partitioned %s into %d subvolumes", job.Box(), len(subvols))

	// Per-block segmentation with split-body repair.  Each block is
	// independent, so this runs fully parallel.
	blocks := make([]stitcher.Block, len(subvols))
	err = compute.MapEach(ctx, len(subvols), func(ctx context.Context, i int) error {
		sv := subvols[i]
		gray, err := getGrayWithRetry(store, sv.BorderedBox())
		if err != nil {
			return fmt.Errorf("subvolume %d: %v", sv.Index, err)
		}
		seg, err := segment(ctx, sv, gray)
		if err != nil {
			return fmt.Errorf("segmenting subvolume %d: %v", sv.Index, err)
		}
		if seg.Size != sv.BorderedBox().Size() {
			return fmt.Errorf("segmentation of subvolume %d has size %s, expected %s",
				sv.Index, seg.Size, sv.BorderedBox().Size())
		}
		repaired, _, err := labels.SplitDisconnected(seg)
		if err != nil {
			return fmt.Errorf("repairing disconnected bodies in subvolume %d: %v", sv.Index, err)
		}
		blocks[i] = stitcher.Block{
			Subvolume: sv,
			Labels:    repaired,
			MaxLabel:  repaired.MaxLabel(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	timedLog.Infof("Segmented %s voxels across %d subvolumes",
		humanize.Comma(job.Box().NumVoxels()), len(subvols))

	result, err := stitcher.Stitch(ctx, blocks)
	if err != nil {
		return nil, err
	}

	// Only block interiors are persisted.  Border voxels duplicate data
	// owned by neighboring blocks.
	err = compute.MapEach(ctx, len(blocks), func(ctx context.Context, i int) error {
		sv := subvols[i]
		size := sv.Box.Size()
		interior, err := result.Volumes[i].Crop(
			sv.Border, sv.Border+size[0],
			sv.Border, sv.Border+size[1],
			sv.Border, sv.Border+size[2])
		if err != nil {
			return fmt.Errorf("cropping interior of subvolume %d: %v", sv.Index, err)
		}
		return putLabelWithRetry(store, sv.Box, interior)
	})
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		NumSubvolumes: len(subvols),
		NumMerged:     result.Equivalences.NumMerged(),
		Elapsed:       time.Since(start),
	}
	stitch.LogActivityToKafka(map[string]interface{}{
		"action":     "stitch-complete",
		"box":        job.Box().String(),
		"subvolumes": summary.NumSubvolumes,
		"merged":     summary.NumMerged,
		"elapsed":    summary.Elapsed.String(),
	})
	timedLog.Infof("Completed stitching job over %s: %d bodies merged across subvolume boundaries",
		job.Box(), summary.NumMerged)
	return summary, nil
}

func getGrayWithRetry(store storage.BlockStore, box stitch.Box3d) (gray []byte, err error) {
	for attempt := 0; attempt < storeAttempts; attempt++ {
		gray, err = store.GetGrayBlock(box)
		if err == nil || err == storage.ErrBlockNotFound {
			return
		}
		stitch.Warningf("attempt %d reading gray block %s failed: %v\n", attempt+1, box, err)
	}
	return
}

func putLabelWithRetry(store storage.BlockStore, box stitch.Box3d, vol *labels.Volume) (err error) {
	for attempt := 0; attempt < storeAttempts; attempt++ {
		if err = store.PutLabelBlock(box, vol); err == nil {
			return
		}
		stitch.Warningf("attempt %d writing label block %s failed: %v\n", attempt+1, box, err)
	}
	return
}

// ThresholdSegmenter returns a simple SegmentFunc that labels connected
// foreground regions, where a voxel is foreground if its grayscale value
// meets the threshold.  It stands in when no external segmentation
// algorithm is configured.
func ThresholdSegmenter(threshold uint8) SegmentFunc {
	return func(ctx context.Context, sv *stitcher.Subvolume, gray []byte) (*labels.Volume, error) {
		bordered := sv.BorderedBox()
		if int64(len(gray)) != bordered.NumVoxels() {
			return nil, fmt.Errorf("gray data has %d bytes, expected %d for box %s",
				len(gray), bordered.NumVoxels(), bordered)
		}
		mask := labels.NewVolume(bordered.Size())
		for i, v := range gray {
			if v >= threshold {
				mask.Data[i] = 1
			}
		}
		seg, _ := labels.ConnectedComponents(mask)
		return seg, nil
	}
}
