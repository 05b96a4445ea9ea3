/*
	Package labels supports operations on dense 3d volumes of uint64 labels:
	contingency (overlap) tables between two labelings of the same geometry,
	finite label mappings with explicit total/partial contracts, connected
	components, and split-body relabeling.  Label 0 is reserved for
	background everywhere and is never split, merged, or renumbered.
*/
package labels

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/janelia-flyem/stitch/stitch"
)

// Volume is a dense 3d array of uint64 labels.  Voxels are stored with x
// varying fastest, then y, then z, matching the C-order layout of label
// blocks on the wire.
type Volume struct {
	Size stitch.Point3d // extents along (x, y, z)
	Data []uint64       // len must equal Size.Prod()
}

// NewVolume returns a zero-initialized volume of the given size.
func NewVolume(size stitch.Point3d) *Volume {
	return &Volume{
		Size: size,
		Data: make([]uint64, size.Prod()),
	}
}

// NumVoxels returns the number of voxels in the volume.
func (v *Volume) NumVoxels() int64 {
	return v.Size.Prod()
}

// Index returns the position of voxel (x,y,z) within Data.
func (v *Volume) Index(x, y, z int32) int64 {
	return (int64(z)*int64(v.Size[1])+int64(y))*int64(v.Size[0]) + int64(x)
}

// Value returns the label at voxel (x,y,z).
func (v *Volume) Value(x, y, z int32) uint64 {
	return v.Data[v.Index(x, y, z)]
}

// SetValue sets the label at voxel (x,y,z).
func (v *Volume) SetValue(x, y, z int32, label uint64) {
	v.Data[v.Index(x, y, z)] = label
}

// Duplicate returns a deep copy of the volume.
func (v *Volume) Duplicate() *Volume {
	dup := &Volume{
		Size: v.Size,
		Data: make([]uint64, len(v.Data)),
	}
	copy(dup.Data, v.Data)
	return dup
}

// Equals returns true if both volumes have identical shape and labels.
func (v *Volume) Equals(v2 *Volume) bool {
	if v.Size != v2.Size {
		return false
	}
	for i, label := range v.Data {
		if v2.Data[i] != label {
			return false
		}
	}
	return true
}

// MaxLabel returns the highest label in the volume, which is 0 for an
// entirely background volume.
func (v *Volume) MaxLabel() uint64 {
	var max uint64
	for _, label := range v.Data {
		if label > max {
			max = label
		}
	}
	return max
}

// Unique returns the sorted set of labels present in the volume,
// including background 0 if present.
func (v *Volume) Unique() []uint64 {
	seen := make(map[uint64]struct{})
	for _, label := range v.Data {
		seen[label] = struct{}{}
	}
	unique := make([]uint64, 0, len(seen))
	for label := range seen {
		unique = append(unique, label)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })
	return unique
}

// Crop returns a copy of the sub-array over local voxel coordinates
// [x1,x2) x [y1,y2) x [z1,z2).
func (v *Volume) Crop(x1, x2, y1, y2, z1, z2 int32) (*Volume, error) {
	if x1 < 0 || y1 < 0 || z1 < 0 || x2 > v.Size[0] || y2 > v.Size[1] || z2 > v.Size[2] {
		return nil, fmt.Errorf("crop [%d,%d)x[%d,%d)x[%d,%d) exceeds volume of size %s",
			x1, x2, y1, y2, z1, z2, v.Size)
	}
	if x2 <= x1 || y2 <= y1 || z2 <= z1 {
		return nil, fmt.Errorf("crop [%d,%d)x[%d,%d)x[%d,%d) is empty", x1, x2, y1, y2, z1, z2)
	}
	cropped := NewVolume(stitch.Point3d{x2 - x1, y2 - y1, z2 - z1})
	var i int64
	for z := z1; z < z2; z++ {
		for y := y1; y < y2; y++ {
			row := v.Index(x1, y, z)
			copy(cropped.Data[i:i+int64(x2-x1)], v.Data[row:row+int64(x2-x1)])
			i += int64(x2 - x1)
		}
	}
	return cropped, nil
}

// MarshalBinary encodes the volume as little-endian uint64 voxels after
// a 3 x uint32 size header.
func (v *Volume) MarshalBinary() ([]byte, error) {
	b := make([]byte, 12+8*len(v.Data))
	for dim := 0; dim < 3; dim++ {
		binary.LittleEndian.PutUint32(b[dim*4:], uint32(v.Size[dim]))
	}
	for i, label := range v.Data {
		binary.LittleEndian.PutUint64(b[12+i*8:], label)
	}
	return b, nil
}

// UnmarshalBinary decodes a volume serialized by MarshalBinary.
func (v *Volume) UnmarshalBinary(b []byte) error {
	if len(b) < 12 {
		return fmt.Errorf("volume serialization too short: %d bytes", len(b))
	}
	var size stitch.Point3d
	for dim := 0; dim < 3; dim++ {
		size[dim] = int32(binary.LittleEndian.Uint32(b[dim*4:]))
	}
	numVoxels := size.Prod()
	if int64(len(b)-12) != numVoxels*8 {
		return fmt.Errorf("volume serialization of size %s should have %d bytes of voxels, got %d",
			size, numVoxels*8, len(b)-12)
	}
	v.Size = size
	v.Data = make([]uint64, numVoxels)
	for i := range v.Data {
		v.Data[i] = binary.LittleEndian.Uint64(b[12+i*8:])
	}
	return nil
}
