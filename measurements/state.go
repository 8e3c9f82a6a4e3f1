package measurements

import (
	"unique"

	"github.com/hupe1980/imageset/grouping"
	"github.com/hupe1980/imageset/model"
)

// ImageSetState is the serializable form of one image set.
type ImageSetState struct {
	ImageNumber model.ImageNumber  `json:"image_number"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
	Values      map[string]float64 `json:"values,omitempty"`
	GroupNumber int                `json:"group_number,omitempty"`
	GroupIndex  int                `json:"group_index,omitempty"`
}

// State is the serializable form of a whole store, in arrival order.
//
// Grouped distinguishes "grouped on zero keys" (Tags empty, Grouped
// true) from "never grouped" (Grouped false).
type State struct {
	ImageSets []ImageSetState `json:"image_sets"`
	Tags      []string        `json:"tags,omitempty"`
	Grouped   bool            `json:"grouped,omitempty"`
}

// Export returns a deep-copied serializable snapshot of the store.
func (s *Store) Export() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		ImageSets: make([]ImageSetState, len(s.order)),
	}
	for i, n := range s.order {
		is := s.sets[n]
		iss := ImageSetState{
			ImageNumber: n,
			GroupNumber: is.groupNumber,
			GroupIndex:  is.groupIndex,
		}
		if len(is.metadata) > 0 {
			iss.Metadata = make(map[string]string, len(is.metadata))
			for k, h := range is.metadata {
				iss.Metadata[k] = h.Value()
			}
		}
		if len(is.values) > 0 {
			iss.Values = make(map[string]float64, len(is.values))
			for k, v := range is.values {
				iss.Values[k] = v
			}
		}
		st.ImageSets[i] = iss
	}
	if s.tags != nil {
		st.Grouped = true
		st.Tags = append([]string(nil), s.tags...)
	}
	return st
}

// NewStoreFromState rebuilds a store from an exported state. Image
// numbers must be unique and non-zero, as on AddImageSet.
func NewStoreFromState(st State) (*Store, error) {
	s := NewStore()
	for i, iss := range st.ImageSets {
		if iss.ImageNumber == 0 {
			return nil, &grouping.InvalidImageNumberError{Position: i}
		}
		if _, ok := s.sets[iss.ImageNumber]; ok {
			return nil, &DuplicateImageSetError{ImageNumber: iss.ImageNumber}
		}

		is := newImageSet()
		for k, v := range iss.Metadata {
			is.metadata[k] = unique.Make(v)
			s.index.add(k, v, iss.ImageNumber)
		}
		for k, v := range iss.Values {
			is.values[k] = v
		}
		is.groupNumber = iss.GroupNumber
		is.groupIndex = iss.GroupIndex

		s.sets[iss.ImageNumber] = is
		s.order = append(s.order, iss.ImageNumber)
	}
	if st.Grouped {
		s.tags = append([]string{}, st.Tags...)
	}
	return s, nil
}
