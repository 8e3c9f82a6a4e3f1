package measurements

import (
	"sort"
	"strings"
	"sync"
	"unique"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/imageset/grouping"
	"github.com/hupe1980/imageset/model"
)

type imageSet struct {
	metadata map[string]unique.Handle[string]
	values   map[string]float64

	// groupNumber/groupIndex are 0 until a grouping is applied.
	groupNumber int
	groupIndex  int
}

func newImageSet() *imageSet {
	return &imageSet{
		metadata: make(map[string]unique.Handle[string]),
		values:   make(map[string]float64),
	}
}

// Store is the in-memory measurements store for one experiment.
// It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	sets  map[model.ImageNumber]*imageSet
	order []model.ImageNumber
	index *invertedIndex

	// tags records the grouping keys of the applied grouping.
	// nil until ApplyGrouping succeeds.
	tags []string
}

// NewStore creates an empty measurements store.
func NewStore() *Store {
	return &Store{
		sets:  make(map[model.ImageNumber]*imageSet),
		index: newInvertedIndex(),
	}
}

// AddImageSet registers a new image set with its metadata mapping.
// Arrival order is the order of AddImageSet calls.
func (s *Store) AddImageSet(n model.ImageNumber, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n == 0 {
		return &grouping.InvalidImageNumberError{Position: len(s.order)}
	}
	if _, ok := s.sets[n]; ok {
		return &DuplicateImageSetError{ImageNumber: n}
	}

	is := newImageSet()
	for k, v := range metadata {
		is.metadata[k] = unique.Make(v)
		s.index.add(k, v, n)
	}
	s.sets[n] = is
	s.order = append(s.order, n)

	return nil
}

// Count returns the number of image sets.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.order)
}

// ImageNumbers returns the image numbers in arrival order.
func (s *Store) ImageNumbers() []model.ImageNumber {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]model.ImageNumber(nil), s.order...)
}

// numbersLocked returns the set of image numbers as a bitmap.
func (s *Store) numbersLocked() *roaring.Bitmap {
	bm := roaring.New()
	for _, n := range s.order {
		bm.Add(uint32(n))
	}
	return bm
}

// SetMetadata sets one metadata value on an existing image set.
func (s *Store) SetMetadata(n model.ImageNumber, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	is, ok := s.sets[n]
	if !ok {
		return ErrNotFound
	}
	if old, ok := is.metadata[key]; ok {
		s.index.remove(key, old.Value(), n)
	}
	is.metadata[key] = unique.Make(value)
	s.index.add(key, value, n)

	return nil
}

// Metadata returns the value of one metadata key for an image set.
// Feature-style names resolve too: MetadataFeature("Plate") reads the
// "Plate" key, and FeatureGroupingTags yields the applied grouping
// keys joined by commas.
func (s *Store) Metadata(n model.ImageNumber, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	is, ok := s.sets[n]
	if !ok {
		return "", ErrNotFound
	}
	if key == FeatureGroupingTags {
		if s.tags == nil {
			return "", ErrNotGrouped
		}
		return strings.Join(s.tags, ","), nil
	}
	h, ok := is.metadata[key]
	if !ok {
		if raw, isFeature := strings.CutPrefix(key, MetadataPrefix); isFeature {
			h, ok = is.metadata[raw]
		}
	}
	if !ok {
		return "", &FeatureNotFoundError{ImageNumber: n, Feature: key}
	}
	return h.Value(), nil
}

// MetadataKeys returns the sorted set of metadata keys present on any
// image set. This is the metadata schema a grouping configuration is
// validated against.
func (s *Store) MetadataKeys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, is := range s.sets {
		for k := range is.metadata {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetMeasurement records a numeric per-image measurement.
func (s *Store) SetMeasurement(n model.ImageNumber, feature string, value float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	is, ok := s.sets[n]
	if !ok {
		return ErrNotFound
	}
	is.values[feature] = value
	return nil
}

// Measurement returns a numeric per-image measurement. An applied
// grouping is exposed under the FeatureGroupNumber and
// FeatureGroupIndex feature names.
func (s *Store) Measurement(n model.ImageNumber, feature string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	is, ok := s.sets[n]
	if !ok {
		return 0, ErrNotFound
	}
	switch feature {
	case FeatureGroupNumber:
		if is.groupNumber == 0 {
			return 0, ErrNotGrouped
		}
		return float64(is.groupNumber), nil
	case FeatureGroupIndex:
		if is.groupIndex == 0 {
			return 0, ErrNotGrouped
		}
		return float64(is.groupIndex), nil
	}
	v, ok := is.values[feature]
	if !ok {
		return 0, &FeatureNotFoundError{ImageNumber: n, Feature: feature}
	}
	return v, nil
}

// ImagesWith returns the image numbers whose metadata key equals
// value. The returned bitmap is a copy.
func (s *Store) ImagesWith(key, value string) *roaring.Bitmap {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bm := s.index.lookup(key, value)
	if bm == nil {
		return roaring.New()
	}
	return bm.Clone()
}

// Records returns a snapshot of all image sets in arrival order, for
// handing to the group partitioner.
func (s *Store) Records() []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.recordsLocked()
}

func (s *Store) recordsLocked() []model.Record {
	records := make([]model.Record, len(s.order))
	for i, n := range s.order {
		is := s.sets[n]
		md := make(map[string]string, len(is.metadata))
		for k, h := range is.metadata {
			md[k] = h.Value()
		}
		records[i] = model.Record{
			ImageNumber: n,
			Position:    i,
			Metadata:    md,
		}
	}
	return records
}

// GroupNumber returns the group number of an image set. ErrNotGrouped
// is returned until a grouping has been applied.
func (s *Store) GroupNumber(n model.ImageNumber) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	is, ok := s.sets[n]
	if !ok {
		return 0, ErrNotFound
	}
	if is.groupNumber == 0 {
		return 0, ErrNotGrouped
	}
	return is.groupNumber, nil
}

// GroupIndex returns the index of an image set within its group.
func (s *Store) GroupIndex(n model.ImageNumber) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	is, ok := s.sets[n]
	if !ok {
		return 0, ErrNotFound
	}
	if is.groupIndex == 0 {
		return 0, ErrNotGrouped
	}
	return is.groupIndex, nil
}

// SetGroupNumber sets the group number of an image set.
func (s *Store) SetGroupNumber(n model.ImageNumber, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	is, ok := s.sets[n]
	if !ok {
		return ErrNotFound
	}
	is.groupNumber = number
	return nil
}

// SetGroupIndex sets the index of an image set within its group.
func (s *Store) SetGroupIndex(n model.ImageNumber, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	is, ok := s.sets[n]
	if !ok {
		return ErrNotFound
	}
	is.groupIndex = index
	return nil
}

// Reorder rekeys all image sets according to the renumbering map
// (old image number -> new image number). The map must be a bijection
// from exactly the stored image numbers onto 1..N; otherwise
// ErrInvalidRenumbering is returned and nothing changes.
func (s *Store) Reorder(renumbering map[model.ImageNumber]model.ImageNumber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reorderLocked(renumbering)
}

func (s *Store) reorderLocked(renumbering map[model.ImageNumber]model.ImageNumber) error {
	if len(renumbering) != len(s.sets) {
		return ErrInvalidRenumbering
	}
	total := len(s.sets)
	taken := make(map[model.ImageNumber]struct{}, total)
	for old, next := range renumbering {
		if _, ok := s.sets[old]; !ok {
			return ErrInvalidRenumbering
		}
		if next == 0 || int(next) > total {
			return ErrInvalidRenumbering
		}
		if _, dup := taken[next]; dup {
			return ErrInvalidRenumbering
		}
		taken[next] = struct{}{}
	}

	rekeyed := make(map[model.ImageNumber]*imageSet, total)
	order := make([]model.ImageNumber, total)
	for old, next := range renumbering {
		rekeyed[next] = s.sets[old]
		order[int(next)-1] = next
	}
	s.sets = rekeyed
	s.order = order

	// Image numbers changed everywhere; rebuild the postings.
	s.index.clear()
	for n, is := range s.sets {
		for k, h := range is.metadata {
			s.index.add(k, h.Value(), n)
		}
	}

	return nil
}

// ApplyGrouping atomically applies a partition result: group numbers,
// group indexes, the canonical reordering, and the grouping tags. The
// result must cover exactly the stored image sets and agree with their
// metadata; on any validation failure the store is left untouched.
func (s *Store) ApplyGrouping(res *grouping.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateGroupingLocked(res); err != nil {
		return err
	}

	// Assign by old image numbers first; the renumbering below rekeys
	// the image sets but not the values stored on them.
	for _, n := range res.Ordering {
		is := s.sets[n]
		is.groupNumber, _ = res.GroupNumber(n)
		is.groupIndex, _ = res.GroupIndex(n)
	}

	// Cannot fail: validation established a bijection onto 1..N.
	_ = s.reorderLocked(res.Renumbering())

	s.tags = append([]string(nil), res.Keys...)
	return nil
}

// validateGroupingLocked rejects a result that does not describe the
// stored image sets. All checks run before ApplyGrouping writes
// anything: an ordering that is not a permutation of the stored image
// numbers, group members that do not add up to the stored set, or keys
// and key tuples inconsistent with the stored metadata.
func (s *Store) validateGroupingLocked(res *grouping.Result) error {
	if len(res.Ordering) != len(s.sets) {
		return ErrInvalidRenumbering
	}
	seen := make(map[model.ImageNumber]struct{}, len(res.Ordering))
	for _, n := range res.Ordering {
		if _, ok := s.sets[n]; !ok {
			return ErrInvalidRenumbering
		}
		if _, dup := seen[n]; dup {
			return ErrInvalidRenumbering
		}
		seen[n] = struct{}{}
	}

	for _, key := range res.Keys {
		if !s.index.hasKey(key) {
			return &InconsistentGroupingError{Key: key}
		}
	}

	members := roaring.New()
	for _, g := range res.Groups() {
		members.Or(g.Members)
		if len(g.Key) != len(res.Keys) {
			return &InconsistentGroupingError{Group: g.Number}
		}
		for _, n := range g.ImageNumbers {
			is, ok := s.sets[n]
			if !ok {
				return ErrInvalidRenumbering
			}
			for i, key := range res.Keys {
				h, ok := is.metadata[key]
				if !ok || h.Value() != g.Key[i] {
					return &InconsistentGroupingError{Group: g.Number, Key: key}
				}
			}
		}
	}
	if !members.Equals(s.numbersLocked()) {
		return ErrInvalidRenumbering
	}
	return nil
}

// GroupingTags returns the metadata keys of the applied grouping.
// ok is false until ApplyGrouping succeeds.
func (s *Store) GroupingTags() ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tags == nil {
		return nil, false
	}
	return append([]string(nil), s.tags...), true
}

// CheckGroupingTags verifies that a consumer's grouping keys match the
// tags stored when the grouping was applied. A mismatch is a fatal
// configuration problem.
func (s *Store) CheckGroupingTags(keys []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.tags == nil {
		return ErrNotGrouped
	}
	if len(keys) != len(s.tags) {
		return &TagMismatchError{Stored: append([]string(nil), s.tags...), Requested: keys}
	}
	for i, k := range keys {
		if k != s.tags[i] {
			return &TagMismatchError{Stored: append([]string(nil), s.tags...), Requested: keys}
		}
	}
	return nil
}
