// Package preview builds table data for interactive grouping preview
// panels.
//
// Two tables are produced while the user edits a grouping
// configuration: the grouping list (one row per group with its key
// values and member count, a sanity check against the expected
// experiment layout) and the image-set list (every image set in
// canonical group-major order with its per-channel file locations).
//
// The package produces column headers and string rows only; rendering
// is the host's concern.
package preview
