/*
	Package storage provides persistent block storage for label and
	grayscale volumes keyed by their global bounding box.
*/
package storage

import (
	"encoding/binary"
	"errors"

	"github.com/janelia-flyem/stitch/labels"
	"github.com/janelia-flyem/stitch/stitch"
)

// ErrBlockNotFound is returned when no block has been stored at the
// requested bounding box.
var ErrBlockNotFound = errors.New("block not found")

// BlockStore is the interface to a store of label and grayscale blocks
// addressed by their global bounding box.
type BlockStore interface {
	// PutLabelBlock stores a label volume at the given global box.
	// The volume size must match the box size.
	PutLabelBlock(box stitch.Box3d, vol *labels.Volume) error

	// GetLabelBlock retrieves the label volume stored at the given
	// global box, returning ErrBlockNotFound if absent.
	GetLabelBlock(box stitch.Box3d) (*labels.Volume, error)

	// PutGrayBlock stores raw grayscale data (one byte per voxel, x
	// varying fastest) at the given global box.
	PutGrayBlock(box stitch.Box3d, data []byte) error

	// GetGrayBlock retrieves the grayscale data stored at the given
	// global box, returning ErrBlockNotFound if absent.
	GetGrayBlock(box stitch.Box3d) ([]byte, error)

	Close()
}

// Key class prefixes keep label and grayscale blocks in separate
// lexicographic ranges of the underlying key-value store.
const (
	keyGrayBlock  byte = 0x10
	keyLabelBlock byte = 0x20
)

// blockKey encodes a key class and a global bounding box into a fixed
// 25-byte key.  Coordinates are stored big-endian with the sign bit
// flipped so negative coordinates sort before positive ones.
func blockKey(class byte, box stitch.Box3d) []byte {
	k := make([]byte, 25)
	k[0] = class
	for i, coord := range []int32{box.X1, box.X2, box.Y1, box.Y2, box.Z1, box.Z2} {
		binary.BigEndian.PutUint32(k[1+i*4:], uint32(coord)^0x80000000)
	}
	return k
}
