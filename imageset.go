// Package imageset provides grouping and bookkeeping for image-based
// experiments.
//
// An Experiment collects image sets (numbered records with metadata
// and per-image measurements), partitions them into groups by tuples
// of metadata values, and lays them out in the canonical group-major
// order downstream processing expects:
//
//   - Dense, 1-based group numbers assigned in lexicographic order of
//     the key tuples
//   - 1-based group indexes in arrival order within each group
//   - Atomic application: a failed run leaves the experiment untouched
//
// # Quick Start
//
//	ctx := context.Background()
//	exp := imageset.New()
//
//	_ = exp.AddImageSet(ctx, 1, map[string]string{"Plate": "P1", "Well": "A01"})
//	_ = exp.AddImageSet(ctx, 2, map[string]string{"Plate": "P2", "Well": "A01"})
//	_ = exp.AddImageSet(ctx, 3, map[string]string{"Plate": "P1", "Well": "A02"})
//
//	res, err := exp.PrepareRun(ctx, []string{"Plate"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, g := range res.Groups() {
//	    fmt.Println(g.Number, g.Key, g.ImageNumbers)
//	}
//
// Experiments can be persisted to any blob store (local filesystem,
// S3, MinIO) and restored later:
//
//	store := blobstore.NewLocalStore("./data")
//	exp := imageset.New(imageset.WithSnapshotStore(store))
//	// ...
//	_ = exp.Snapshot(ctx, "run-42.snap")
//
// Rescaling policies that need per-group intensity extrema aggregate
// them through AggregateGroupExtrema, which fans out over the group's
// members with bounded concurrency.
package imageset

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/imageset/grouping"
	"github.com/hupe1980/imageset/measurements"
	"github.com/hupe1980/imageset/model"
	"github.com/hupe1980/imageset/preview"
	"github.com/hupe1980/imageset/rescale"
	"github.com/hupe1980/imageset/snapshot"
)

// Experiment is the facade over one experiment's image sets, grouping
// state, and persistence. It is safe for concurrent use.
type Experiment struct {
	store   *measurements.Store
	opts    options
	logger  *Logger
	metrics MetricsCollector

	mu sync.RWMutex
	// result is the applied grouping in canonical image numbers.
	// nil until PrepareRun succeeds.
	result *grouping.Result
}

// New creates an empty experiment.
func New(optFns ...Option) *Experiment {
	opts := applyOptions(optFns)
	return &Experiment{
		store:   measurements.NewStore(),
		opts:    opts,
		logger:  opts.logger,
		metrics: opts.metricsCollector,
	}
}

// NewFromSnapshot loads an experiment previously saved with Snapshot.
// The snapshot store must be configured via WithSnapshotStore.
func NewFromSnapshot(ctx context.Context, name string, optFns ...Option) (*Experiment, error) {
	e := New(optFns...)
	if err := e.Restore(ctx, name); err != nil {
		return nil, err
	}
	return e, nil
}

// Measurements exposes the backing measurements store for direct
// feature access.
func (e *Experiment) Measurements() *measurements.Store {
	return e.store
}

// Count returns the number of registered image sets.
func (e *Experiment) Count() int {
	return e.store.Count()
}

// AddImageSet registers an image set with its metadata. Image numbers
// must be unique and non-zero; arrival order is the order of calls.
func (e *Experiment) AddImageSet(ctx context.Context, n uint32, metadata map[string]string) error {
	start := time.Now()
	err := translateError(e.store.AddImageSet(model.ImageNumber(n), metadata))

	e.metrics.RecordAddImageSet(time.Since(start), err)
	e.logger.LogAddImageSet(ctx, n, err)
	return err
}

// SetMeasurement records a numeric per-image measurement, such as an
// intensity statistic used by divide-by-measurement rescaling.
func (e *Experiment) SetMeasurement(n uint32, feature string, value float64) error {
	return translateError(e.store.SetMeasurement(model.ImageNumber(n), feature, value))
}

// Groupings partitions the current image sets without applying the
// result. Use this to preview a grouping configuration.
func (e *Experiment) Groupings(groupKeys []string) (*grouping.Result, error) {
	res, err := grouping.Partition(e.store.Records(), groupKeys)
	if err != nil {
		return nil, translateError(err)
	}
	return res, nil
}

// PrepareRun partitions the image sets by the given metadata keys and
// applies the result: group numbers, group indexes, the canonical
// group-major reordering, and the grouping tags. On any failure the
// experiment is left untouched.
//
// The returned result is expressed in the renumbered (canonical) image
// numbers, so it stays valid against the experiment afterwards.
func (e *Experiment) PrepareRun(ctx context.Context, groupKeys []string) (*grouping.Result, error) {
	start := time.Now()

	res, reordered, err := e.prepareRun(groupKeys)

	groups := 0
	if err == nil {
		groups = res.GroupCount()
	}
	e.metrics.RecordPrepareRun(groups, time.Since(start), err)
	e.logger.LogPrepareRun(ctx, groupKeys, groups, e.store.Count(), reordered, err)

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (e *Experiment) prepareRun(groupKeys []string) (*grouping.Result, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	records := e.store.Records()
	res, err := grouping.Partition(records, groupKeys)
	if err != nil {
		return nil, false, translateError(err)
	}
	if err := e.store.ApplyGrouping(res); err != nil {
		return nil, false, translateError(err)
	}

	canonical := res.Renumbered()
	e.result = canonical
	return canonical, !res.IsIdentity(records), nil
}

// Result returns the applied grouping, or ErrNotGrouped if PrepareRun
// has not succeeded yet.
func (e *Experiment) Result() (*grouping.Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.result == nil {
		return nil, ErrNotGrouped
	}
	return e.result, nil
}

// CheckGroupingTags verifies that a consumer's grouping keys match the
// applied grouping. A mismatch means the experiment was grouped under
// a different configuration and must be re-prepared.
func (e *Experiment) CheckGroupingTags(keys []string) error {
	return translateError(e.store.CheckGroupingTags(keys))
}

// GroupingTable returns the per-group preview table (key values and
// member counts) for the applied grouping.
func (e *Experiment) GroupingTable() (*preview.Table, error) {
	res, err := e.Result()
	if err != nil {
		return nil, err
	}
	return preview.GroupingTable(res), nil
}

// ImageSetTable returns the per-image preview table for the applied
// grouping: group number, group index, key values, and the per-channel
// path/file features.
func (e *Experiment) ImageSetTable(channels []preview.Channel) (*preview.Table, error) {
	res, err := e.Result()
	if err != nil {
		return nil, err
	}
	table, err := preview.ImageSetTable(res, e.store, channels)
	if err != nil {
		return nil, translateError(err)
	}
	return table, nil
}

// AggregateGroupExtrema computes the intensity extrema over all
// members of the given group, for rescaling policies that stretch or
// divide by group-wide minima and maxima. provider supplies per-image
// stats; aggregation fans out with bounded concurrency.
func (e *Experiment) AggregateGroupExtrema(ctx context.Context, groupNumber int, provider rescale.StatsProvider, optFns ...rescale.AggregateOption) (rescale.GroupExtrema, error) {
	res, err := e.Result()
	if err != nil {
		return rescale.GroupExtrema{}, err
	}

	groups := res.Groups()
	if groupNumber < 1 || groupNumber > len(groups) {
		e.logger.LogAggregate(ctx, groupNumber, 0, ErrNotFound)
		return rescale.GroupExtrema{}, ErrNotFound
	}
	members := groups[groupNumber-1].ImageNumbers

	extrema, err := rescale.AggregateExtrema(ctx, provider, members, optFns...)
	e.logger.LogAggregate(ctx, groupNumber, len(members), err)
	if err != nil {
		return rescale.GroupExtrema{}, err
	}
	return extrema, nil
}

// MeasurementLookup adapts the experiment's measurements of one image
// set to the rescale divisor-measurement lookup (rescale.Deps).
func (e *Experiment) MeasurementLookup(n uint32) func(feature string) (float64, error) {
	return func(feature string) (float64, error) {
		v, err := e.store.Measurement(model.ImageNumber(n), feature)
		if err != nil {
			return 0, translateError(err)
		}
		return v, nil
	}
}

// Snapshot saves the experiment to the configured blob store under
// name, using the configured codec and compression.
func (e *Experiment) Snapshot(ctx context.Context, name string) error {
	start := time.Now()
	err := e.snapshotTo(ctx, name)

	e.metrics.RecordSnapshot(time.Since(start), err)
	e.logger.LogSnapshot(ctx, name, err)
	return err
}

func (e *Experiment) snapshotTo(ctx context.Context, name string) error {
	if e.opts.snapshotStore == nil {
		return ErrNoSnapshotStore
	}
	return snapshot.Save(ctx, e.opts.snapshotStore, name, e.store.Export(),
		snapshot.WithCodec(e.opts.codec),
		snapshot.WithCompression(e.opts.compression),
	)
}

// Restore replaces the experiment's contents with a previously saved
// snapshot. A grouping applied before the save is restored as applied:
// group numbers, indexes, ordering, and tags survive the round trip.
func (e *Experiment) Restore(ctx context.Context, name string) error {
	start := time.Now()
	err := e.restoreFrom(ctx, name)

	e.metrics.RecordRestore(time.Since(start), err)
	e.logger.LogRestore(ctx, name, e.store.Count(), err)
	return err
}

func (e *Experiment) restoreFrom(ctx context.Context, name string) error {
	if e.opts.snapshotStore == nil {
		return ErrNoSnapshotStore
	}

	state, err := snapshot.Load(ctx, e.opts.snapshotStore, name)
	if err != nil {
		return err
	}
	store, err := measurements.NewStoreFromState(state)
	if err != nil {
		return err
	}

	// The snapshot stores the applied (canonical) layout, so
	// re-partitioning by the saved tags reproduces the result without
	// moving anything. Resolve it before swapping stores: a snapshot
	// whose tags do not match its metadata must leave the experiment
	// untouched.
	var result *grouping.Result
	if state.Grouped {
		res, err := grouping.Partition(store.Records(), state.Tags)
		if err != nil {
			return translateError(err)
		}
		result = res
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.store = store
	e.result = result
	return nil
}
