// Package s3 implements blobstore.BlobStore on Amazon S3.
//
// Snapshots of grouped experiments are immutable, so the store writes
// each blob once (streamed through a multipart uploader) and serves
// reads with ranged GETs. For coordinated writers, DDBCommitStore
// layers DynamoDB conditional writes over S3 to commit the CURRENT
// snapshot pointer atomically, which S3 alone cannot do.
package s3
