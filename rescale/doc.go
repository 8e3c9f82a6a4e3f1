// Package rescale plans intensity-rescaling operations for image sets.
//
// Eight interchangeable methods are supported, from a full-range
// stretch to dividing by a previously recorded measurement. The
// package resolves each configuration into a concrete Plan (an input
// range and output range, or a scale factor) which the host's image
// library applies to pixel data; the pixel arithmetic itself does not
// live here.
//
// Where a method needs the minimum or maximum across all images in a
// group, AggregateExtrema computes it as an explicit value passed into
// planning, not hidden process-wide state. Aggregation can be
// concurrency-limited and rate-limited: scanning a whole group at run
// start can otherwise hammer a shared network file system.
package rescale
