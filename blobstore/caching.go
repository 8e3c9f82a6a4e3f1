package blobstore

import (
	"context"
	"io"

	"github.com/hupe1980/imageset/internal/cache"
)

// CachingStore wraps a BlobStore and adds block-level read caching.
// It is useful in front of remote backends (S3, MinIO) when snapshot
// headers and sections are re-read across runs.
type CachingStore struct {
	inner     BlobStore
	cache     cache.BlockCache
	blockSize int64
}

// NewCachingStore creates a new CachingStore.
// blockSize defaults to 64KB if <= 0.
func NewCachingStore(inner BlobStore, blockCache cache.BlockCache, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = 64 * 1024
	}
	return &CachingStore{
		inner:     inner,
		cache:     blockCache,
		blockSize: blockSize,
	}
}

// Open opens a blob whose reads go through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

// Create passes through; snapshots are immutable so writes are not
// cached.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

// Put invalidates cached blocks for the blob and writes through.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete invalidates cached blocks for the blob and deletes through.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List passes through.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	s.cache.Invalidate(func(key cache.Key) bool {
		return key.Name == name
	})
}

// cachingBlob serves reads block-by-block from the cache, falling back
// to the inner blob on misses.
type cachingBlob struct {
	inner     Blob
	cache     cache.BlockCache
	name      string
	blockSize int64
}

func (b *cachingBlob) Close() error {
	return b.inner.Close()
}

func (b *cachingBlob) Size() int64 {
	return b.inner.Size()
}

func (b *cachingBlob) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	size := b.inner.Size()
	if off < 0 || off >= size {
		return 0, io.EOF
	}

	total := 0
	for total < len(p) && off < size {
		blockStart := (off / b.blockSize) * b.blockSize
		block, err := b.block(blockStart)
		if err != nil {
			return total, err
		}

		n := copy(p[total:], block[off-blockStart:])
		if n == 0 {
			break
		}
		total += n
		off += int64(n)
	}

	if total < len(p) {
		return total, io.EOF
	}
	return total, nil
}

func (b *cachingBlob) block(start int64) ([]byte, error) {
	key := cache.Key{Name: b.name, Offset: start}
	if block, ok := b.cache.Get(key); ok {
		return block, nil
	}

	length := b.blockSize
	if start+length > b.inner.Size() {
		length = b.inner.Size() - start
	}
	block := make([]byte, length)
	if _, err := io.ReadFull(io.NewSectionReader(b.inner, start, length), block); err != nil {
		return nil, err
	}
	b.cache.Set(key, block)
	return block, nil
}
