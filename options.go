package imageset

import (
	"log/slog"

	"github.com/hupe1980/imageset/blobstore"
	"github.com/hupe1980/imageset/codec"
	"github.com/hupe1980/imageset/snapshot"
)

type options struct {
	codec            codec.Codec
	compression      snapshot.Compression
	snapshotStore    blobstore.BlobStore
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Experiment constructor behavior.
//
// Today options primarily exist to avoid exploding the API surface
// (e.g. codec-specific constructor variants).
type Option func(*options)

// WithCodec configures the codec used for snapshot payloads.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression configures the snapshot payload compression.
func WithCompression(c snapshot.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithSnapshotStore configures the blob store used by Snapshot and
// Restore. Any blobstore.BlobStore works: memory, local filesystem,
// S3, MinIO, or a caching decorator over one of those.
//
// Example with a local store:
//
//	store := blobstore.NewLocalStore("./data")
//	exp := imageset.New(imageset.WithSnapshotStore(store))
func WithSnapshotStore(store blobstore.BlobStore) Option {
	return func(o *options) {
		o.snapshotStore = store
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &imageset.BasicMetricsCollector{}
//	exp := imageset.New(imageset.WithMetricsCollector(metrics))
//	// ... use exp ...
//	stats := metrics.GetStats()
//	fmt.Printf("Runs: %d, Avg latency: %dns\n", stats.PrepareCount, stats.PrepareAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := imageset.NewJSONLogger(slog.LevelInfo)
//	exp := imageset.New(imageset.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		compression:      snapshot.CompressionNone,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
