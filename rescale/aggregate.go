package rescale

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/imageset/model"
)

// ErrEmptyGroup is returned when extrema are requested for an empty
// member list.
var ErrEmptyGroup = errors.New("cannot aggregate extrema over an empty group")

// StatsProvider computes the intensity extrema of one image set's
// channel. Implementations typically open the image file, so calls may
// be slow and should honor the context.
type StatsProvider interface {
	Stats(ctx context.Context, n model.ImageNumber) (Stats, error)
}

// StatsProviderFunc adapts a function to the StatsProvider interface.
type StatsProviderFunc func(ctx context.Context, n model.ImageNumber) (Stats, error)

// Stats calls f.
func (f StatsProviderFunc) Stats(ctx context.Context, n model.ImageNumber) (Stats, error) {
	return f(ctx, n)
}

// GroupExtrema is the minimum and maximum intensity across all images
// in one group. It is computed once per group at run preparation and
// passed explicitly into planning.
type GroupExtrema struct {
	Min float64
	Max float64
}

type aggregateOptions struct {
	concurrency int
	limiter     *rate.Limiter
}

// AggregateOption configures AggregateExtrema.
type AggregateOption func(*aggregateOptions)

// WithConcurrency bounds the number of images probed in parallel.
// Defaults to 4.
func WithConcurrency(n int) AggregateOption {
	return func(o *aggregateOptions) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithRateLimiter throttles probes, e.g. to protect a shared network
// file system from a synchronized whole-group scan.
func WithRateLimiter(l *rate.Limiter) AggregateOption {
	return func(o *aggregateOptions) {
		o.limiter = l
	}
}

// AggregateExtrema computes the group-wide intensity extrema over the
// given members. Any single failure aborts the whole aggregation.
func AggregateExtrema(ctx context.Context, provider StatsProvider, members []model.ImageNumber, optFns ...AggregateOption) (GroupExtrema, error) {
	if len(members) == 0 {
		return GroupExtrema{}, ErrEmptyGroup
	}

	opts := aggregateOptions{concurrency: 4}
	for _, fn := range optFns {
		fn(&opts)
	}

	var (
		mu    sync.Mutex
		first = true
		ext   GroupExtrema
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)

	for _, n := range members {
		g.Go(func() error {
			if opts.limiter != nil {
				if err := opts.limiter.Wait(ctx); err != nil {
					return err
				}
			}

			stats, err := provider.Stats(ctx, n)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			if first {
				ext = GroupExtrema{Min: stats.Min, Max: stats.Max}
				first = false
				return nil
			}
			if stats.Min < ext.Min {
				ext.Min = stats.Min
			}
			if stats.Max > ext.Max {
				ext.Max = stats.Max
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return GroupExtrema{}, err
	}
	return ext, nil
}
