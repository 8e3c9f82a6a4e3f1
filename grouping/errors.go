package grouping

import (
	"errors"
	"fmt"

	"github.com/hupe1980/imageset/model"
)

var (
	// ErrEmptyInput is returned when Partition is invoked with no
	// records. Zero groups is a degenerate, disallowed state since
	// downstream consumers expect at least one group.
	ErrEmptyInput = errors.New("no image sets to group")
)

// MissingKeyError indicates that a selected grouping key is absent
// from a record's metadata. It is a configuration error: the whole
// batch is rejected and no group numbers are assigned.
type MissingKeyError struct {
	Key         string
	ImageNumber model.ImageNumber
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("grouping key %q missing from metadata of image set %d", e.Key, e.ImageNumber)
}

// DuplicateImageNumberError indicates that two records carry the same
// image number. Image numbers must be unique and stable.
type DuplicateImageNumberError struct {
	ImageNumber model.ImageNumber
}

func (e *DuplicateImageNumberError) Error() string {
	return fmt.Sprintf("duplicate image number %d", e.ImageNumber)
}

// InvalidImageNumberError indicates a record with image number zero.
// Image numbers are 1-based.
type InvalidImageNumberError struct {
	Position int
}

func (e *InvalidImageNumberError) Error() string {
	return fmt.Sprintf("image set at position %d has image number 0", e.Position)
}
