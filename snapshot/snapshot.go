package snapshot

import (
	"context"
	"fmt"
	"hash/crc32"

	"github.com/hupe1980/imageset/blobstore"
	"github.com/hupe1980/imageset/codec"
	"github.com/hupe1980/imageset/measurements"
)

const (
	fixedHeaderSize = 10 // magic + version + compression + codec name length
	blockHeaderSize = 8  // uncompressed size + stored size
	trailerSize     = 4  // crc32
)

// Options configure Save.
type Options struct {
	// Codec encodes the payload. Defaults to codec.Default.
	Codec codec.Codec
	// Compression selects the payload compression.
	Compression Compression
}

// Option modifies Options.
type Option func(*Options)

// WithCodec sets the payload codec.
func WithCodec(c codec.Codec) Option {
	return func(o *Options) {
		o.Codec = c
	}
}

// WithCompression sets the payload compression.
func WithCompression(c Compression) Option {
	return func(o *Options) {
		o.Compression = c
	}
}

// Save encodes the state and writes it to the blob store under name.
func Save(ctx context.Context, store blobstore.BlobStore, name string, state measurements.State, optFns ...Option) error {
	opts := Options{
		Codec:       codec.Default,
		Compression: CompressionNone,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	codecName := opts.Codec.Name()
	if len(codecName) > 255 {
		return fmt.Errorf("codec name too long: %q", codecName)
	}

	payload, err := opts.Codec.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode snapshot payload: %w", err)
	}

	stored, storedSize, err := compress(payload, opts.Compression)
	if err != nil {
		return err
	}

	buf := make([]byte, 0, fixedHeaderSize+len(codecName)+blockHeaderSize+len(stored)+trailerSize)
	var scratch [4]byte

	putUint32(scratch[:], MagicNumber)
	buf = append(buf, scratch[:]...)
	putUint32(scratch[:], Version)
	buf = append(buf, scratch[:]...)
	buf = append(buf, byte(opts.Compression), byte(len(codecName)))
	buf = append(buf, codecName...)

	putUint32(scratch[:], uint32(len(payload)))
	buf = append(buf, scratch[:]...)
	putUint32(scratch[:], storedSize)
	buf = append(buf, scratch[:]...)
	buf = append(buf, stored...)

	putUint32(scratch[:], crc32.ChecksumIEEE(buf))
	buf = append(buf, scratch[:]...)

	if err := store.Put(ctx, name, buf); err != nil {
		return fmt.Errorf("write snapshot %q: %w", name, err)
	}
	return nil
}

// Load reads and decodes the snapshot stored under name.
func Load(ctx context.Context, store blobstore.BlobStore, name string) (measurements.State, error) {
	var state measurements.State

	buf, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return state, fmt.Errorf("read snapshot %q: %w", name, err)
	}

	if len(buf) < fixedHeaderSize+blockHeaderSize+trailerSize {
		return state, ErrTruncated
	}

	body, trailer := buf[:len(buf)-trailerSize], buf[len(buf)-trailerSize:]
	if crc32.ChecksumIEEE(body) != getUint32(trailer) {
		return state, ErrChecksumMismatch
	}

	if magic := getUint32(body[0:]); magic != MagicNumber {
		return state, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, magic)
	}
	if version := getUint32(body[4:]); version != Version {
		return state, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, version)
	}
	compression := Compression(body[8])
	codecLen := int(body[9])

	if len(body) < fixedHeaderSize+codecLen+blockHeaderSize {
		return state, ErrTruncated
	}
	codecName := string(body[fixedHeaderSize : fixedHeaderSize+codecLen])

	c, ok := codec.ByName(codecName)
	if !ok {
		return state, fmt.Errorf("%w: %q", ErrUnknownCodec, codecName)
	}

	block := body[fixedHeaderSize+codecLen:]
	uncompressedSize := getUint32(block[0:])
	storedSize := getUint32(block[4:])
	stored := block[blockHeaderSize:]

	want := uncompressedSize
	if storedSize != 0 {
		want = storedSize
	}
	if uint32(len(stored)) != want {
		return state, ErrTruncated
	}

	payload, err := decompress(stored, uncompressedSize, storedSize, compression)
	if err != nil {
		return state, err
	}

	if err := c.Unmarshal(payload, &state); err != nil {
		return state, fmt.Errorf("decode snapshot payload: %w", err)
	}
	return state, nil
}
