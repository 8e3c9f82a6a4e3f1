package grouping

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/imageset/model"
)

// Group is one partition of the input: all records sharing a single
// group key, in original arrival order.
type Group struct {
	// Number is the dense, 1-based group number, assigned in
	// lexicographic order of the key tuples.
	Number int
	// Key is the tuple of metadata values shared by all members.
	Key model.GroupKey
	// ImageNumbers lists the members in arrival order; the i-th entry
	// has group index i+1.
	ImageNumbers []model.ImageNumber
	// Members is the member set as a bitmap, for cheap intersection
	// with other image-number sets.
	Members *roaring.Bitmap
}

// Count returns the number of members in the group.
func (g *Group) Count() int {
	return len(g.ImageNumbers)
}

// Result is the outcome of a Partition call.
//
// It is immutable once returned. Applying it to a backing store (group
// number/index measurements and physical reordering) is the caller's
// responsibility.
type Result struct {
	// Keys is the ordered list of grouping metadata keys used.
	Keys []string
	// Ordering is the canonical sequence of image numbers: a
	// permutation of the input, group-major, index-minor.
	Ordering []model.ImageNumber

	groups      []Group
	groupNumber map[model.ImageNumber]int
	groupIndex  map[model.ImageNumber]int
}

// Groups returns the groups ordered by group number.
func (r *Result) Groups() []Group {
	return r.groups
}

// GroupCount returns the number of distinct groups.
func (r *Result) GroupCount() int {
	return len(r.groups)
}

// GroupNumber returns the 1-based group number of the given image set.
func (r *Result) GroupNumber(n model.ImageNumber) (int, bool) {
	num, ok := r.groupNumber[n]
	return num, ok
}

// GroupIndex returns the 1-based index of the given image set within
// its group.
func (r *Result) GroupIndex(n model.ImageNumber) (int, bool) {
	idx, ok := r.groupIndex[n]
	return idx, ok
}

// Renumbering maps each original image number to its new, 1-based
// canonical image number (its position in Ordering). Downstream
// processing requires image sets ordered by increasing group number,
// then increasing group index; a store applies this mapping to lay
// records out canonically.
//
// A general map is used rather than a dense array so image numbers
// need not be small or contiguous.
func (r *Result) Renumbering() map[model.ImageNumber]model.ImageNumber {
	out := make(map[model.ImageNumber]model.ImageNumber, len(r.Ordering))
	for i, n := range r.Ordering {
		out[n] = model.ImageNumber(i + 1)
	}
	return out
}

// Renumbered returns the result expressed in canonical image numbers,
// as if Partition had been called after applying Renumbering. Group
// numbers, group indexes, and keys are unchanged; only the image
// numbers are rewritten. Use this when a store has been reordered and
// the result should keep referring to it.
func (r *Result) Renumbered() *Result {
	renum := r.Renumbering()

	out := &Result{
		Keys:        append([]string(nil), r.Keys...),
		Ordering:    make([]model.ImageNumber, len(r.Ordering)),
		groups:      make([]Group, len(r.groups)),
		groupNumber: make(map[model.ImageNumber]int, len(r.groupNumber)),
		groupIndex:  make(map[model.ImageNumber]int, len(r.groupIndex)),
	}
	for i := range r.Ordering {
		out.Ordering[i] = model.ImageNumber(i + 1)
	}
	for i, g := range r.groups {
		ng := Group{
			Number:       g.Number,
			Key:          g.Key.Clone(),
			ImageNumbers: make([]model.ImageNumber, len(g.ImageNumbers)),
			Members:      roaring.New(),
		}
		for j, n := range g.ImageNumbers {
			nn := renum[n]
			ng.ImageNumbers[j] = nn
			ng.Members.Add(uint32(nn))
		}
		out.groups[i] = ng
	}
	for n, num := range r.groupNumber {
		out.groupNumber[renum[n]] = num
	}
	for n, idx := range r.groupIndex {
		out.groupIndex[renum[n]] = idx
	}
	return out
}

// IsIdentity reports whether the canonical ordering equals the
// original arrival order. Re-partitioning already-reordered records
// with the same keys always yields the identity.
func (r *Result) IsIdentity(records []model.Record) bool {
	if len(records) != len(r.Ordering) {
		return false
	}
	for i, rec := range records {
		if r.Ordering[i] != rec.ImageNumber {
			return false
		}
	}
	return true
}

// Partition splits records into groups by the tuple of values of the
// given metadata keys.
//
// Records must be non-empty with unique, non-zero image numbers, and
// every grouping key must be present in every record's metadata;
// otherwise Partition fails before any assignment is made (no partial
// results). With no grouping keys there is exactly one group
// containing all records in original order.
//
// Duplicate entries in groupKeys produce redundant, not erroneous,
// grouping.
func Partition(records []model.Record, groupKeys []string) (*Result, error) {
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}

	seen := make(map[model.ImageNumber]struct{}, len(records))
	for i, rec := range records {
		if rec.ImageNumber == 0 {
			return nil, &InvalidImageNumberError{Position: i}
		}
		if _, dup := seen[rec.ImageNumber]; dup {
			return nil, &DuplicateImageNumberError{ImageNumber: rec.ImageNumber}
		}
		seen[rec.ImageNumber] = struct{}{}
	}

	// Validate the whole batch before assigning anything.
	keyOf := make([]model.GroupKey, len(records))
	for i, rec := range records {
		key := make(model.GroupKey, len(groupKeys))
		for j, name := range groupKeys {
			val, ok := rec.Metadata[name]
			if !ok {
				return nil, &MissingKeyError{Key: name, ImageNumber: rec.ImageNumber}
			}
			key[j] = val
		}
		keyOf[i] = key
	}

	// Collect members per distinct key tuple, preserving arrival order
	// within each group.
	byKey := make(map[string]*Group)
	var distinct []*Group
	for i, rec := range records {
		enc := keyOf[i].Key()
		g, ok := byKey[enc]
		if !ok {
			g = &Group{
				Key:     keyOf[i].Clone(),
				Members: roaring.New(),
			}
			byKey[enc] = g
			distinct = append(distinct, g)
		}
		g.ImageNumbers = append(g.ImageNumbers, rec.ImageNumber)
		g.Members.Add(uint32(rec.ImageNumber))
	}

	// Lexicographic order of the key tuples defines the group numbers.
	// Tie-break is impossible: duplicates collapsed to one group above.
	sort.Slice(distinct, func(i, j int) bool {
		return distinct[i].Key.Compare(distinct[j].Key) < 0
	})

	res := &Result{
		Keys:        append([]string(nil), groupKeys...),
		Ordering:    make([]model.ImageNumber, 0, len(records)),
		groups:      make([]Group, len(distinct)),
		groupNumber: make(map[model.ImageNumber]int, len(records)),
		groupIndex:  make(map[model.ImageNumber]int, len(records)),
	}
	for i, g := range distinct {
		g.Number = i + 1
		for idx, n := range g.ImageNumbers {
			res.groupNumber[n] = g.Number
			res.groupIndex[n] = idx + 1
			res.Ordering = append(res.Ordering, n)
		}
		res.groups[i] = *g
	}

	return res, nil
}
