// Package measurements provides the per-experiment store of image-set
// metadata and measurements.
//
// The store is the collaborator on both sides of the group
// partitioner: it serves the read capability (metadata lookup per
// image set) and the write capability (group number, group index, and
// the canonical reordering). All mutation is guarded by a single
// RWMutex; applying a grouping result is all-or-nothing.
//
// Metadata values are interned via the unique package: experiments
// repeat the same plate/well/site values across thousands of image
// sets, and interning keeps one copy of each.
//
// An inverted index (metadata key -> value -> bitmap of image numbers)
// is maintained alongside the primary map to answer membership queries
// without scanning.
package measurements
