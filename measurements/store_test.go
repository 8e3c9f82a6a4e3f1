package measurements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/imageset/grouping"
	"github.com/hupe1980/imageset/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s := NewStore()
	fixtures := []map[string]string{
		{"Plate": "P-12345", "Well": "A01"},
		{"Plate": "2-ABCDF", "Well": "A01"},
		{"Plate": "P-12345", "Well": "B01"},
		{"Plate": "2-ABCDF", "Well": "B01"},
	}
	for i, md := range fixtures {
		require.NoError(t, s.AddImageSet(model.ImageNumber(i+1), md))
	}
	return s
}

func TestStoreBasics(t *testing.T) {
	s := newTestStore(t)

	t.Run("Count", func(t *testing.T) {
		assert.Equal(t, 4, s.Count())
	})

	t.Run("DuplicateAdd", func(t *testing.T) {
		err := s.AddImageSet(1, nil)
		var dup *DuplicateImageSetError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, model.ImageNumber(1), dup.ImageNumber)
	})

	t.Run("Metadata", func(t *testing.T) {
		v, err := s.Metadata(1, "Plate")
		require.NoError(t, err)
		assert.Equal(t, "P-12345", v)

		_, err = s.Metadata(1, "Site")
		var fnf *FeatureNotFoundError
		require.ErrorAs(t, err, &fnf)

		_, err = s.Metadata(99, "Plate")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("MetadataKeys", func(t *testing.T) {
		assert.Equal(t, []string{"Plate", "Well"}, s.MetadataKeys())
	})

	t.Run("SetMetadataReindexes", func(t *testing.T) {
		require.NoError(t, s.SetMetadata(1, "Site", "s1"))
		assert.Equal(t, []uint32{1}, s.ImagesWith("Site", "s1").ToArray())

		require.NoError(t, s.SetMetadata(1, "Site", "s2"))
		assert.True(t, s.ImagesWith("Site", "s1").IsEmpty())
		assert.Equal(t, []uint32{1}, s.ImagesWith("Site", "s2").ToArray())
	})

	t.Run("Measurements", func(t *testing.T) {
		require.NoError(t, s.SetMeasurement(2, "Intensity_MaxIntensity_DNA", 0.75))
		v, err := s.Measurement(2, "Intensity_MaxIntensity_DNA")
		require.NoError(t, err)
		assert.Equal(t, 0.75, v)

		_, err = s.Measurement(2, "Missing")
		var fnf *FeatureNotFoundError
		require.ErrorAs(t, err, &fnf)
	})

	t.Run("ImagesWith", func(t *testing.T) {
		assert.Equal(t, []uint32{1, 3}, s.ImagesWith("Plate", "P-12345").ToArray())
		assert.True(t, s.ImagesWith("Plate", "nope").IsEmpty())
	})

	t.Run("Records", func(t *testing.T) {
		records := s.Records()
		require.Len(t, records, 4)
		assert.Equal(t, model.ImageNumber(1), records[0].ImageNumber)
		assert.Equal(t, 0, records[0].Position)
		assert.Equal(t, "P-12345", records[0].Metadata["Plate"])
	})

	t.Run("NotGrouped", func(t *testing.T) {
		_, err := s.GroupNumber(1)
		require.ErrorIs(t, err, ErrNotGrouped)
		_, ok := s.GroupingTags()
		assert.False(t, ok)
		require.ErrorIs(t, s.CheckGroupingTags([]string{"Plate"}), ErrNotGrouped)

		_, err = s.Measurement(1, FeatureGroupNumber)
		require.ErrorIs(t, err, ErrNotGrouped)
		_, err = s.Metadata(1, FeatureGroupingTags)
		require.ErrorIs(t, err, ErrNotGrouped)
	})
}

func TestStoreApplyGrouping(t *testing.T) {
	s := newTestStore(t)

	res, err := grouping.Partition(s.Records(), []string{"Plate"})
	require.NoError(t, err)
	require.NoError(t, s.ApplyGrouping(res))

	// Plate 2-ABCDF sorts first: original image sets 2 and 4 become 1
	// and 2; P-12345 members 1 and 3 become 3 and 4.
	wantPlates := []string{"2-ABCDF", "2-ABCDF", "P-12345", "P-12345"}
	wantNumbers := []int{1, 1, 2, 2}
	wantIndexes := []int{1, 2, 1, 2}
	for i := 0; i < 4; i++ {
		n := model.ImageNumber(i + 1)

		plate, err := s.Metadata(n, "Plate")
		require.NoError(t, err)
		assert.Equal(t, wantPlates[i], plate)

		num, err := s.GroupNumber(n)
		require.NoError(t, err)
		assert.Equal(t, wantNumbers[i], num)

		idx, err := s.GroupIndex(n)
		require.NoError(t, err)
		assert.Equal(t, wantIndexes[i], idx)
	}

	t.Run("TagsStored", func(t *testing.T) {
		tags, ok := s.GroupingTags()
		require.True(t, ok)
		assert.Equal(t, []string{"Plate"}, tags)

		require.NoError(t, s.CheckGroupingTags([]string{"Plate"}))

		err := s.CheckGroupingTags([]string{"Well"})
		var tm *TagMismatchError
		require.ErrorAs(t, err, &tm)
		assert.Equal(t, []string{"Plate"}, tm.Stored)
	})

	t.Run("FeatureNames", func(t *testing.T) {
		num, err := s.Measurement(3, FeatureGroupNumber)
		require.NoError(t, err)
		assert.Equal(t, 2.0, num)
		idx, err := s.Measurement(3, FeatureGroupIndex)
		require.NoError(t, err)
		assert.Equal(t, 1.0, idx)

		plate, err := s.Metadata(1, MetadataFeature("Plate"))
		require.NoError(t, err)
		assert.Equal(t, "2-ABCDF", plate)

		tags, err := s.Metadata(1, FeatureGroupingTags)
		require.NoError(t, err)
		assert.Equal(t, "Plate", tags)
	})

	t.Run("IndexRebuilt", func(t *testing.T) {
		assert.Equal(t, []uint32{1, 2}, s.ImagesWith("Plate", "2-ABCDF").ToArray())
		assert.Equal(t, []uint32{3, 4}, s.ImagesWith("Plate", "P-12345").ToArray())
	})

	t.Run("Idempotent", func(t *testing.T) {
		res2, err := grouping.Partition(s.Records(), []string{"Plate"})
		require.NoError(t, err)
		assert.True(t, res2.IsIdentity(s.Records()))
	})
}

func TestStoreApplyGroupingTampered(t *testing.T) {
	assertUntouched := func(t *testing.T, s *Store) {
		t.Helper()
		_, err := s.GroupNumber(1)
		require.ErrorIs(t, err, ErrNotGrouped)
		_, ok := s.GroupingTags()
		assert.False(t, ok)
		assert.Equal(t, []model.ImageNumber{1, 2, 3, 4}, s.ImageNumbers())
	}

	t.Run("DuplicateOrdering", func(t *testing.T) {
		s := newTestStore(t)
		res, err := grouping.Partition(s.Records(), []string{"Plate"})
		require.NoError(t, err)

		res.Ordering = []model.ImageNumber{1, 1, 2, 3}
		require.ErrorIs(t, s.ApplyGrouping(res), ErrInvalidRenumbering)
		assertUntouched(t, s)
	})

	t.Run("MutatedKeys", func(t *testing.T) {
		s := newTestStore(t)
		res, err := grouping.Partition(s.Records(), []string{"Plate"})
		require.NoError(t, err)

		// The key tuples still hold plate names; they cannot belong to
		// a grouping by well.
		res.Keys = []string{"Well"}
		var inc *InconsistentGroupingError
		require.ErrorAs(t, s.ApplyGrouping(res), &inc)
		assertUntouched(t, s)
	})

	t.Run("UnknownKey", func(t *testing.T) {
		s := newTestStore(t)
		res, err := grouping.Partition(s.Records(), []string{"Plate"})
		require.NoError(t, err)

		res.Keys = []string{"Site"}
		var inc *InconsistentGroupingError
		require.ErrorAs(t, s.ApplyGrouping(res), &inc)
		assert.Equal(t, "Site", inc.Key)
		assertUntouched(t, s)
	})
}

func TestStoreApplyGroupingMismatch(t *testing.T) {
	s := newTestStore(t)

	other := NewStore()
	require.NoError(t, other.AddImageSet(1, map[string]string{"Plate": "X"}))
	res, err := grouping.Partition(other.Records(), []string{"Plate"})
	require.NoError(t, err)

	// Result covers a different record set; nothing may change.
	require.ErrorIs(t, s.ApplyGrouping(res), ErrInvalidRenumbering)
	_, err = s.GroupNumber(1)
	require.ErrorIs(t, err, ErrNotGrouped)
}

func TestStoreReorder(t *testing.T) {
	s := newTestStore(t)

	t.Run("InvalidRenumberings", func(t *testing.T) {
		cases := map[string]map[model.ImageNumber]model.ImageNumber{
			"incomplete":   {1: 1, 2: 2, 3: 3},
			"unknown old":  {1: 1, 2: 2, 3: 3, 9: 4},
			"out of range": {1: 1, 2: 2, 3: 3, 4: 5},
			"zero target":  {1: 0, 2: 2, 3: 3, 4: 4},
			"duplicate":    {1: 1, 2: 1, 3: 3, 4: 4},
		}
		for name, renum := range cases {
			t.Run(name, func(t *testing.T) {
				require.ErrorIs(t, s.Reorder(renum), ErrInvalidRenumbering)
			})
		}
		// Store untouched.
		v, err := s.Metadata(1, "Plate")
		require.NoError(t, err)
		assert.Equal(t, "P-12345", v)
	})

	t.Run("Reverse", func(t *testing.T) {
		renum := map[model.ImageNumber]model.ImageNumber{1: 4, 2: 3, 3: 2, 4: 1}
		require.NoError(t, s.Reorder(renum))

		v, err := s.Metadata(4, "Plate")
		require.NoError(t, err)
		assert.Equal(t, "P-12345", v)
		assert.Equal(t, []model.ImageNumber{1, 2, 3, 4}, s.ImageNumbers())
	})
}
