// Package grouping partitions image-set records into named groups by
// metadata.
//
// Given an ordered sequence of records, each carrying a mapping of
// metadata keys to string values, Partition splits them into groups by
// the tuple of selected metadata values. Groups are numbered densely
// from 1 in the lexicographic order of their key tuples; records
// within a group are indexed from 1 in original arrival order. The
// result also carries a canonical reordering of all records, laid out
// group-by-group, index-ascending within group.
//
// Partition is a pure function of its input snapshot: it holds no
// shared state, performs no I/O, and is safe to invoke repeatedly
// (e.g. once per interactive configuration change). Applying the
// result to a backing store is the caller's responsibility; see the
// measurements package.
package grouping
