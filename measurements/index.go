package measurements

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/imageset/model"
)

// invertedIndex maps metadata key -> value -> set of image numbers.
// It answers membership queries without scanning the primary map and
// is rebuilt wholesale after a reordering (image numbers change).
type invertedIndex struct {
	postings map[string]map[string]*roaring.Bitmap
}

func newInvertedIndex() *invertedIndex {
	return &invertedIndex{
		postings: make(map[string]map[string]*roaring.Bitmap),
	}
}

func (idx *invertedIndex) add(key, value string, n model.ImageNumber) {
	byValue, ok := idx.postings[key]
	if !ok {
		byValue = make(map[string]*roaring.Bitmap)
		idx.postings[key] = byValue
	}
	bm, ok := byValue[value]
	if !ok {
		bm = roaring.New()
		byValue[value] = bm
	}
	bm.Add(uint32(n))
}

func (idx *invertedIndex) remove(key, value string, n model.ImageNumber) {
	byValue, ok := idx.postings[key]
	if !ok {
		return
	}
	bm, ok := byValue[value]
	if !ok {
		return
	}
	bm.Remove(uint32(n))
	if bm.IsEmpty() {
		delete(byValue, value)
		if len(byValue) == 0 {
			delete(idx.postings, key)
		}
	}
}

// lookup returns the posting bitmap for key=value, or nil if empty.
// The returned bitmap is shared; callers must clone before mutating.
func (idx *invertedIndex) lookup(key, value string) *roaring.Bitmap {
	byValue, ok := idx.postings[key]
	if !ok {
		return nil
	}
	return byValue[value]
}

func (idx *invertedIndex) hasKey(key string) bool {
	_, ok := idx.postings[key]
	return ok
}

func (idx *invertedIndex) clear() {
	idx.postings = make(map[string]map[string]*roaring.Bitmap)
}
