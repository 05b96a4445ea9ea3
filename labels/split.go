package labels

// SplitDisconnected detects labels whose support is spatially disconnected
// and splits each into consistently-numbered connected pieces.
//
// Segments that were not split keep their original IDs.  Among split
// segments, the piece with the largest voxel overlap against the original
// retains the original ID (ties broken by lowest component ID), and the
// remaining pieces are assigned new labels above the highest original
// label.  Label 0 is background and is never relabeled.
//
// The returned mapping sends new label IDs back to the original label they
// came from.  It is minimal among untouched labels and complete among
// split labels: every label involved in any split appears, including the
// identity entry for the piece that kept its ID, so a consumer can tell
// that an ID participated in a split without re-scanning the volume.
func SplitDisconnected(orig *Volume) (*Volume, PartialMapping, error) {
	// Renumber to consecutive ids 1..N, 0 staying 0.
	unique := orig.Unique()
	origToCons := make(TotalMapping, len(unique))
	var numOrig, maxOrig uint64
	for _, label := range unique {
		if label == 0 {
			origToCons[0] = 0
			continue
		}
		numOrig++
		origToCons[label] = numOrig
		maxOrig = label
	}
	if _, found := origToCons[0]; !found {
		origToCons[0] = 0
	}
	consToOrig, err := origToCons.Invert()
	if err != nil {
		return nil, nil, err
	}

	consVol := orig.Duplicate()
	if err := consVol.RemapTotal(origToCons); err != nil {
		return nil, nil, err
	}

	// Components get ids 1..(N+M) where M is the number of extra pieces
	// created by splitting.
	splitVol, numSplit := ConnectedComponents(consVol)
	if numSplit == numOrig {
		return orig.Duplicate(), PartialMapping{}, nil
	}
	numExtra := numSplit - numOrig

	table, err := ComputeOverlap(consVol, splitVol, true)
	if err != nil {
		return nil, nil, err
	}

	// For each consecutive label, the dominant piece it mainly ended up in.
	mainPiece := table.ArgmaxRows()

	// Each piece descends from exactly one consecutive label.
	splitToCons := make(TotalMapping, numSplit+1)
	for _, e := range table.Entries() {
		splitToCons[e.B] = e.A
	}
	splitToCons[0] = 0

	// Dominant pieces keep the consecutive id; the other pieces get new
	// non-conflicting ids N+1.., assigned in ascending piece-id order.
	splitToNonconflicting := make(TotalMapping, numSplit+1)
	isMain := make(map[uint64]struct{}, numOrig+1)
	for cons := uint64(0); cons <= numOrig; cons++ {
		piece := mainPiece[cons]
		splitToNonconflicting[piece] = cons
		isMain[piece] = struct{}{}
	}
	next := numOrig
	for piece := uint64(1); piece <= numSplit; piece++ {
		if _, found := isMain[piece]; found {
			continue
		}
		next++
		splitToNonconflicting[piece] = next
	}

	// Non-conflicting consecutive ids back to the original label space,
	// with the extra pieces mapped above the highest original label.
	consWithSplitsToOrig := make(TotalMapping, numSplit+1)
	for cons, origLabel := range consToOrig {
		consWithSplitsToOrig[cons] = origLabel
	}
	for j := uint64(1); j <= numExtra; j++ {
		consWithSplitsToOrig[numOrig+j] = maxOrig + j
	}

	splitToFinal, err := Compose(splitToNonconflicting, consWithSplitsToOrig)
	if err != nil {
		return nil, nil, err
	}
	if err := splitVol.RemapTotal(splitToFinal); err != nil {
		return nil, nil, err
	}

	newToOrig, err := splitProvenance(splitToNonconflicting, splitToCons, consToOrig,
		consWithSplitsToOrig, maxOrig)
	if err != nil {
		return nil, nil, err
	}
	return splitVol, newToOrig, nil
}

// splitProvenance composes the renumbering chain backwards
// (final-with-splits -> consecutive-with-splits -> consecutive -> original)
// and reduces it to the minimal split record described in SplitDisconnected.
func splitProvenance(splitToNonconflicting, splitToCons, consToOrig,
	consWithSplitsToOrig TotalMapping, maxOrig uint64) (PartialMapping, error) {

	origWithSplitsToCons, err := consWithSplitsToOrig.Invert()
	if err != nil {
		return nil, err
	}
	nonconflictingToSplit, err := splitToNonconflicting.Invert()
	if err != nil {
		return nil, err
	}
	nonconflictingToCons, err := Compose(nonconflictingToSplit, splitToCons)
	if err != nil {
		return nil, err
	}
	finalToOrig, err := Compose(origWithSplitsToCons, nonconflictingToCons, consToOrig)
	if err != nil {
		return nil, err
	}

	// New labels map to the original label they split from.
	newToOrig := make(PartialMapping)
	splitOrigins := make(map[uint64]struct{})
	for final, orig := range finalToOrig {
		if final > maxOrig {
			newToOrig[final] = orig
			splitOrigins[orig] = struct{}{}
		}
	}
	// Every label involved in a split is included, even the piece that
	// kept its original id.
	for final, orig := range finalToOrig {
		if _, found := splitOrigins[orig]; found {
			newToOrig[final] = orig
		}
	}
	return newToOrig, nil
}
