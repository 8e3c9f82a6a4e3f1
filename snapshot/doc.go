// Package snapshot persists a grouped experiment to a blob store.
//
// A snapshot is a single self-describing blob:
//
//	[magic uint32][version uint32][compression uint8][codecLen uint8]
//	[codec name][uncompressedSize uint32][storedSize uint32]
//	[payload][crc32 uint32]
//
// All integers are little-endian. The CRC32 (IEEE) trailer covers
// everything before it. The payload is the measurements state encoded
// with the named codec, optionally compressed with zstd or LZ4.
// Readers resolve the codec from the header, so snapshots written with
// one default codec stay readable after the default changes.
package snapshot
