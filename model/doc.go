// Package model defines core types used throughout imageset.
//
// # Identity Types
//
//   - ImageNumber: 1-based, stable identifier of an image set (uint32)
//
// # Data Types
//
//   - Record: one image set with its metadata mapping and arrival position
//   - GroupKey: the ordered tuple of metadata values that determines
//     group membership
//
// Records are produced by an upstream collection stage; grouping only
// reads their metadata and arrival order.
package model
