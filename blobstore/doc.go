// Package blobstore abstracts the storage backing experiment
// snapshots.
//
// A snapshot of a grouped experiment is written once and read many
// times, possibly from another machine (cluster workers restoring the
// canonical image-set ordering before a run). Backends cover local
// development (memory, filesystem) and shared storage (S3, MinIO); a
// caching decorator adds block-level read caching in front of remote
// backends.
package blobstore
