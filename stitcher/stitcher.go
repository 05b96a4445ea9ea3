package stitcher

import (
	"context"
	"fmt"
	"sort"

	"github.com/janelia-flyem/stitch/compute"
	"github.com/janelia-flyem/stitch/labels"
	"github.com/janelia-flyem/stitch/stitch"
)

// Block pairs a subvolume descriptor with its independently-computed
// labeling.  Labels must cover the subvolume's bordered box.  MaxLabel is
// the highest label id used by the block's segmentation, which may exceed
// the highest label actually present in the volume.
type Block struct {
	Subvolume *Subvolume
	Labels    *labels.Volume
	MaxLabel  uint64
}

// Result holds the outcome of a stitch: one globally-labeled volume per
// block, plus the offset assignment and equivalence map used, so a caller
// can relate global labels back to block-local ones.
type Result struct {
	Volumes      []*labels.Volume
	Offsets      *OffsetAssignment
	Equivalences *EquivalenceMap
}

// Stitch computes a single set of globally unique labels across
// independently-labeled blocks and merges labels that represent the same
// physical object across block boundaries.
//
// Stages 2, 3, and 5 fan out across blocks or boundary pairs with no
// shared mutable state; stages 1 and 4 are sequential synchronization
// points.  Any malformed boundary group aborts the whole stitch with no
// partial output.
func Stitch(ctx context.Context, blocks []Block) (*Result, error) {
	timedLog := stitch.NewTimeLog()
	subvols := make([]*Subvolume, len(blocks))
	maxLabels := make([]uint64, len(blocks))
	for i, block := range blocks {
		if block.Subvolume == nil || block.Labels == nil {
			return nil, fmt.Errorf("block %d is missing its subvolume or labeling", i)
		}
		subvols[i] = block.Subvolume
		maxLabels[i] = block.MaxLabel
	}

	// Stage 1: deterministic global offset assignment, sequential.
	offsets, err := assignOffsets(subvols, maxLabels)
	if err != nil {
		return nil, err
	}

	// Stage 2: parallel extraction of each pairwise boundary overlap
	// region, converging per boundary key.
	boundaries := compute.NewCollector[BoundaryKey, boundaryPiece]()
	err = compute.MapEach(ctx, len(blocks), func(ctx context.Context, i int) error {
		pieces, err := extractBoundaries(blocks[i].Subvolume, blocks[i].Labels)
		if err != nil {
			return err
		}
		for key, piece := range pieces {
			boundaries.Add(key, piece)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	groups := boundaries.Groups()

	// Stage 3: parallel per-pair merge computation.  Keys are walked in a
	// fixed order so per-key results land in stable slots.
	keys := make([]BoundaryKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].A != keys[j].A {
			return keys[i].A < keys[j].A
		}
		return keys[i].B < keys[j].B
	})
	edgesPerKey := make([][]MergeEdge, len(keys))
	err = compute.MapEach(ctx, len(keys), func(ctx context.Context, i int) error {
		edges, err := computePairwiseMerges(keys[i], groups[keys[i]], offsets)
		if err != nil {
			return err
		}
		edgesPerKey[i] = edges
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stage 4: centralized transitive-closure merge, sequential after all
	// pairwise results are collected.
	var allEdges []MergeEdge
	for _, edges := range edgesPerKey {
		allEdges = append(allEdges, edges...)
	}
	equivalences := buildEquivalences(allEdges)
	timedLog.Infof("Reconciled %d merge edges into %d label mappings across %d boundaries",
		len(allEdges), equivalences.NumMerged(), len(keys))

	// Stage 5: parallel application of offset plus equivalence map.
	relabeled := make([]*labels.Volume, len(blocks))
	err = compute.MapEach(ctx, len(blocks), func(ctx context.Context, i int) error {
		vol, err := applyGlobalLabels(blocks[i].Subvolume, blocks[i].Labels, offsets, equivalences)
		if err != nil {
			return err
		}
		relabeled[i] = vol
		return nil
	})
	if err != nil {
		return nil, err
	}
	timedLog.Infof("Stitched %d blocks", len(blocks))

	return &Result{
		Volumes:      relabeled,
		Offsets:      offsets,
		Equivalences: equivalences,
	}, nil
}

// applyGlobalLabels adds the subvolume's offset to every voxel, restores
// the background sentinel to 0, and remaps through the equivalence map.
// Labels with no equivalence entry pass through unchanged.
func applyGlobalLabels(sv *Subvolume, vol *labels.Volume, offsets *OffsetAssignment, equivalences *EquivalenceMap) (*labels.Volume, error) {
	offset, err := offsets.Offset(sv.Index)
	if err != nil {
		return nil, err
	}
	out := vol.Duplicate()
	for i, label := range out.Data {
		if label == 0 {
			continue
		}
		out.Data[i] = label + offset
	}

	// Build a task-local identity mapping over the volume's labels, seeded
	// from the read-only equivalence map wherever a label is a known member.
	mapping := make(labels.PartialMapping)
	for _, label := range out.Unique() {
		if rep, found := equivalences.Rep(label); found {
			mapping[label] = rep
		}
	}
	out.RemapPartial(mapping)
	return out, nil
}
