package model

import (
	"fmt"
	"strings"
)

// ImageNumber is the stable, 1-based identifier of an image set.
// It is assigned by the upstream collection stage and unique within
// an experiment. Zero is never a valid image number.
type ImageNumber uint32

// String returns a string representation of the ImageNumber.
func (n ImageNumber) String() string {
	return fmt.Sprintf("ImageSet(%d)", uint32(n))
}

// Record represents one image set: its identifier, its metadata
// mapping, and the position it arrived at before any grouping.
type Record struct {
	ImageNumber ImageNumber
	// Position is the 0-based arrival position of the record before
	// grouping. It is a total order; ties are impossible.
	Position int
	// Metadata maps metadata key names to their string values.
	// Values are compared by exact string equality; no normalization.
	Metadata map[string]string
}

// GroupKey is the ordered tuple of metadata values, one per selected
// grouping key, in configured key order. Two records belong to the
// same group iff their GroupKeys are equal.
type GroupKey []string

// Compare compares two group keys lexicographically with element-wise
// string comparison. Keys built from the same configured key list
// always have equal length; a shorter key sorts before a longer one
// sharing its prefix.
func (k GroupKey) Compare(other GroupKey) int {
	n := len(k)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if c := strings.Compare(k[i], other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k) < len(other):
		return -1
	case len(k) > len(other):
		return 1
	default:
		return 0
	}
}

// Equal reports whether two group keys are structurally equal.
func (k GroupKey) Equal(other GroupKey) bool {
	return k.Compare(other) == 0
}

// Key returns a stable string encoding for use as a map key.
//
// Values are joined with 0x1f (unit separator), which cannot be
// confused with value content in practice and keeps distinct tuples
// distinct. The encoding must remain stable for persisted snapshots.
func (k GroupKey) Key() string {
	return strings.Join(k, "\x1f")
}

// Clone returns a copy of the group key.
func (k GroupKey) Clone() GroupKey {
	if k == nil {
		return nil
	}
	out := make(GroupKey, len(k))
	copy(out, k)
	return out
}
