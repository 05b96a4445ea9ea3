package labels

import "fmt"

// TotalMapping is a finite mapping from old label IDs to new label IDs
// that must be total over the labels it is applied to: a lookup of an
// absent key is a data-consistency bug, not an expected condition.
type TotalMapping map[uint64]uint64

// PartialMapping is a finite mapping from old label IDs to new label IDs
// where absent keys pass through unchanged.
type PartialMapping map[uint64]uint64

// IncompleteMappingError signals that a composition chain referenced a
// label missing from the key set of a subsequent mapping.
type IncompleteMappingError struct {
	Label uint64 // the label with no entry
	Link  int    // position of the offending mapping within the chain
}

func (e IncompleteMappingError) Error() string {
	return fmt.Sprintf("label %d has no entry in mapping %d of composition chain", e.Label, e.Link)
}

// NonReversibleMappingError signals that inversion was requested on a
// many-to-one mapping, which would be ambiguous.
type NonReversibleMappingError struct {
	Value uint64 // the duplicated image
}

func (e NonReversibleMappingError) Error() string {
	return fmt.Sprintf("mapping is not reversible: two labels map to %d", e.Value)
}

// Compose chains mappings A->B, B->C, ... into a single mapping A->final.
// Every value of an earlier mapping must be present in the key set of the
// next mapping, else an IncompleteMappingError is returned.
func Compose(mappings ...TotalMapping) (TotalMapping, error) {
	if len(mappings) == 0 {
		return TotalMapping{}, nil
	}
	composed := mappings[0]
	for link, next := range mappings[1:] {
		step := make(TotalMapping, len(composed))
		for k, v := range composed {
			final, found := next[v]
			if !found {
				return nil, IncompleteMappingError{Label: v, Link: link + 1}
			}
			step[k] = final
		}
		composed = step
	}
	return composed, nil
}

// Invert reverses the mapping.  If any two keys share the same value,
// a NonReversibleMappingError is returned.
func (m TotalMapping) Invert() (TotalMapping, error) {
	inv := make(TotalMapping, len(m))
	for k, v := range m {
		if _, found := inv[v]; found {
			return nil, NonReversibleMappingError{Value: v}
		}
		inv[v] = k
	}
	return inv, nil
}

// Apply returns the mapped label, passing unmapped labels through unchanged.
func (m PartialMapping) Apply(label uint64) uint64 {
	if mapped, found := m[label]; found {
		return mapped
	}
	return label
}

// RemapTotal rewrites every voxel through a total mapping.  Every label
// present in the volume must have an entry.
func (v *Volume) RemapTotal(m TotalMapping) error {
	for i, label := range v.Data {
		mapped, found := m[label]
		if !found {
			return IncompleteMappingError{Label: label}
		}
		v.Data[i] = mapped
	}
	return nil
}

// RemapPartial rewrites every voxel through a partial mapping, leaving
// unmapped labels unchanged.
func (v *Volume) RemapPartial(m PartialMapping) {
	for i, label := range v.Data {
		if mapped, found := m[label]; found {
			v.Data[i] = mapped
		}
	}
}
