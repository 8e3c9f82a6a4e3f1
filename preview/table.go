package preview

import (
	"strconv"

	"github.com/hupe1980/imageset/grouping"
	"github.com/hupe1980/imageset/measurements"
)

// Table is rendered table data: column headers plus string rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Channel describes one image channel of the experiment. Object
// (segmentation) channels use the objects location features.
type Channel struct {
	Name    string
	Objects bool
}

// features returns the path and file feature names for the channel.
func (c Channel) features() (pathFeature, fileFeature string) {
	if c.Objects {
		return measurements.ObjectsPathNamePrefix + c.Name, measurements.ObjectsFileNamePrefix + c.Name
	}
	return measurements.PathNamePrefix + c.Name, measurements.FileNamePrefix + c.Name
}

// GroupingTable builds the grouping list: one row per group with its
// key values and the number of member image sets.
func GroupingTable(res *grouping.Result) *Table {
	t := &Table{}
	for _, key := range res.Keys {
		t.Columns = append(t.Columns, "Group: "+key)
	}
	t.Columns = append(t.Columns, "Count")

	for _, g := range res.Groups() {
		row := make([]string, 0, len(g.Key)+1)
		row = append(row, g.Key...)
		row = append(row, strconv.Itoa(g.Count()))
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ImageSetTable builds the image-set list: every image set in
// canonical order with its group number, group index, grouping key
// values, and per-channel locations.
//
// The result must have been computed from the store's current records;
// a missing location feature fails the whole table rather than
// rendering a partial row.
func ImageSetTable(res *grouping.Result, store *measurements.Store, channels []Channel) (*Table, error) {
	t := &Table{
		Columns: []string{"Group number", "Group index"},
	}
	for _, key := range res.Keys {
		t.Columns = append(t.Columns, "Group: "+key)
	}
	for _, ch := range channels {
		t.Columns = append(t.Columns, "Path: "+ch.Name, "File: "+ch.Name)
	}

	for _, n := range res.Ordering {
		num, _ := res.GroupNumber(n)
		idx, _ := res.GroupIndex(n)
		row := []string{strconv.Itoa(num), strconv.Itoa(idx)}

		for _, key := range res.Keys {
			val, err := store.Metadata(n, measurements.MetadataFeature(key))
			if err != nil {
				return nil, err
			}
			row = append(row, val)
		}
		for _, ch := range channels {
			pathFeature, fileFeature := ch.features()
			for _, feature := range []string{pathFeature, fileFeature} {
				val, err := store.Metadata(n, feature)
				if err != nil {
					return nil, err
				}
				row = append(row, val)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
