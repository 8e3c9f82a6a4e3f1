package measurements

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/imageset/model"
)

var (
	// ErrNotFound is returned when an image set does not exist in the
	// store.
	ErrNotFound = errors.New("image set not found")

	// ErrNotGrouped is returned when group numbers are requested
	// before any grouping result has been applied.
	ErrNotGrouped = errors.New("no grouping applied")

	// ErrInvalidRenumbering is returned when a reordering is not a
	// bijection from the stored image numbers onto 1..N. The store is
	// left untouched.
	ErrInvalidRenumbering = errors.New("renumbering is not a permutation of the stored image sets")
)

// InconsistentGroupingError indicates that a grouping result's keys or
// group key tuples do not match the stored metadata. The store is left
// untouched.
type InconsistentGroupingError struct {
	Group int
	Key   string
}

func (e *InconsistentGroupingError) Error() string {
	switch {
	case e.Group == 0:
		return fmt.Sprintf("grouping result does not match stored metadata: key %q", e.Key)
	case e.Key == "":
		return fmt.Sprintf("grouping result does not match stored metadata: group %d", e.Group)
	default:
		return fmt.Sprintf("grouping result does not match stored metadata: group %d, key %q", e.Group, e.Key)
	}
}

// DuplicateImageSetError indicates an attempt to add an image set with
// an image number that is already present.
type DuplicateImageSetError struct {
	ImageNumber model.ImageNumber
}

func (e *DuplicateImageSetError) Error() string {
	return fmt.Sprintf("image set %d already exists", e.ImageNumber)
}

// FeatureNotFoundError indicates that a feature is not recorded for an
// image set.
type FeatureNotFoundError struct {
	ImageNumber model.ImageNumber
	Feature     string
}

func (e *FeatureNotFoundError) Error() string {
	return fmt.Sprintf("feature %q not recorded for image set %d", e.Feature, e.ImageNumber)
}

// TagMismatchError indicates that a consumer's grouping keys are
// inconsistent with the tags stored when the grouping was applied.
// This is a fatal configuration problem, never silently patched.
type TagMismatchError struct {
	Stored    []string
	Requested []string
}

func (e *TagMismatchError) Error() string {
	return fmt.Sprintf("grouping tags mismatch: stored [%s], requested [%s]",
		strings.Join(e.Stored, ", "), strings.Join(e.Requested, ", "))
}
