package imageset

import (
	"errors"
	"fmt"

	"github.com/hupe1980/imageset/grouping"
	"github.com/hupe1980/imageset/measurements"
)

var (
	// ErrNotFound is returned when an image set is not found.
	ErrNotFound = errors.New("not found")

	// ErrNotGrouped is returned when an operation requires a prepared
	// grouping and none has been applied.
	ErrNotGrouped = errors.New("no grouping has been prepared")

	// ErrEmptyExperiment is returned when a grouping run is attempted
	// with no image sets registered.
	ErrEmptyExperiment = errors.New("experiment contains no image sets")

	// ErrNoSnapshotStore is returned when Snapshot/Restore is called
	// without a configured blob store.
	ErrNoSnapshotStore = errors.New("no snapshot store configured")
)

// ErrMissingMetadata indicates that a grouping key is absent from an
// image set's metadata.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrMissingMetadata struct {
	Key         string
	ImageNumber uint32
	cause       error
}

func (e *ErrMissingMetadata) Error() string {
	return fmt.Sprintf("image set %d has no metadata key %q", e.ImageNumber, e.Key)
}

func (e *ErrMissingMetadata) Unwrap() error { return e.cause }

// ErrGroupingTagMismatch indicates that the requested grouping keys
// differ from the tags recorded when the grouping was applied.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrGroupingTagMismatch struct {
	Stored    []string
	Requested []string
	cause     error
}

func (e *ErrGroupingTagMismatch) Error() string {
	return fmt.Sprintf("grouping tag mismatch: stored %v, requested %v", e.Stored, e.Requested)
}

func (e *ErrGroupingTagMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, measurements.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	var fnf *measurements.FeatureNotFoundError
	if errors.As(err, &fnf) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	if errors.Is(err, measurements.ErrNotGrouped) {
		return fmt.Errorf("%w: %w", ErrNotGrouped, err)
	}
	if errors.Is(err, grouping.ErrEmptyInput) {
		return fmt.Errorf("%w: %w", ErrEmptyExperiment, err)
	}

	var mk *grouping.MissingKeyError
	if errors.As(err, &mk) {
		return &ErrMissingMetadata{Key: mk.Key, ImageNumber: uint32(mk.ImageNumber), cause: err}
	}
	var tm *measurements.TagMismatchError
	if errors.As(err, &tm) {
		return &ErrGroupingTagMismatch{Stored: tm.Stored, Requested: tm.Requested, cause: err}
	}

	return err
}
