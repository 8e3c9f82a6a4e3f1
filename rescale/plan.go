package rescale

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroDivisor is returned when a divide method resolves to a
	// zero divisor.
	ErrZeroDivisor = errors.New("cannot divide pixel intensity by 0")

	// ErrMissingExtrema is returned when a method needs group extrema
	// but none were supplied.
	ErrMissingExtrema = errors.New("group extrema required but not supplied")

	// ErrMissingReference is returned when MethodScaleByImageMaximum
	// is planned without reference image stats.
	ErrMissingReference = errors.New("reference image stats required but not supplied")

	// ErrInvalidConfig wraps configuration validation failures.
	ErrInvalidConfig = errors.New("invalid rescale configuration")
)

// Stats holds the intensity extrema of one image, computed by the host
// over the unmasked region.
type Stats struct {
	Min float64
	Max float64
}

// Config is the static configuration of one rescaling step. It
// enumerates every recognized option explicitly; there is no dynamic
// settings introspection.
type Config struct {
	Method Method

	// MinPolicy/MaxPolicy derive the manual input range ends.
	MinPolicy RangePolicy
	MaxPolicy RangePolicy
	// SourceMin/SourceMax are used by PolicyCustom.
	SourceMin float64
	SourceMax float64

	// DestMin/DestMax are the output range for MethodManualIORange.
	DestMin float64
	DestMax float64

	// DivisorValue is the fixed divisor for MethodDivideByValue.
	DivisorValue float64
	// DivisorFeature names the per-image measurement used by
	// MethodDivideByMeasurement.
	DivisorFeature string

	// ReferenceImage names the channel whose maximum is matched by
	// MethodScaleByImageMaximum.
	ReferenceImage string
}

// Validate checks the configuration before any run starts. Validation
// failures are surfaced to the user immediately and never retried.
func (c Config) Validate() error {
	switch c.Method {
	case MethodStretch, MethodDivideByImageMinimum, MethodDivideByImageMaximum:
		return nil
	case MethodManualInputRange, MethodManualIORange:
		if err := c.validatePolicies(); err != nil {
			return err
		}
		if c.Method == MethodManualIORange && c.DestMin >= c.DestMax {
			return fmt.Errorf("%w: output range [%v, %v] is empty", ErrInvalidConfig, c.DestMin, c.DestMax)
		}
		return nil
	case MethodDivideByValue:
		if c.DivisorValue <= 0 {
			return fmt.Errorf("%w: divisor value must be positive, got %v", ErrInvalidConfig, c.DivisorValue)
		}
		return nil
	case MethodDivideByMeasurement:
		if c.DivisorFeature == "" {
			return fmt.Errorf("%w: divisor measurement not selected", ErrInvalidConfig)
		}
		return nil
	case MethodScaleByImageMaximum:
		if c.ReferenceImage == "" {
			return fmt.Errorf("%w: reference image not selected", ErrInvalidConfig)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown method %d", ErrInvalidConfig, c.Method)
	}
}

func (c Config) validatePolicies() error {
	for _, p := range []RangePolicy{c.MinPolicy, c.MaxPolicy} {
		switch p {
		case PolicyCustom, PolicyEachImage, PolicyAllImages:
		default:
			return fmt.Errorf("%w: unknown range policy %d", ErrInvalidConfig, p)
		}
	}
	if c.MinPolicy == PolicyCustom && c.MaxPolicy == PolicyCustom && c.SourceMin >= c.SourceMax {
		return fmt.Errorf("%w: input range [%v, %v] is empty", ErrInvalidConfig, c.SourceMin, c.SourceMax)
	}
	return nil
}

// NeedsGroupExtrema reports whether planning requires the group-wide
// extrema (the step scans the whole group while preparing the run).
func (c Config) NeedsGroupExtrema() bool {
	if c.Method != MethodManualInputRange && c.Method != MethodManualIORange {
		return false
	}
	return c.MinPolicy == PolicyAllImages || c.MaxPolicy == PolicyAllImages
}

// Kind classifies the resolved plan.
type Kind int

const (
	// KindRescale maps InRange linearly onto OutRange.
	KindRescale Kind = iota + 1
	// KindDivide divides every pixel by Factor.
	KindDivide
	// KindMultiply multiplies every pixel by Factor.
	KindMultiply
	// KindIdentity leaves the image unchanged.
	KindIdentity
)

// Plan is a fully resolved rescaling operation, ready for the host's
// image library to apply.
type Plan struct {
	Kind Kind

	// InRange/OutRange apply to KindRescale.
	InRange  [2]float64
	OutRange [2]float64

	// Factor applies to KindDivide and KindMultiply.
	Factor float64
}

// Deps carries the collaborator values planning may need.
type Deps struct {
	// Extrema is the group-wide aggregate; required when
	// Config.NeedsGroupExtrema reports true.
	Extrema *GroupExtrema
	// Measurement looks up a per-image measurement for
	// MethodDivideByMeasurement.
	Measurement func(feature string) (float64, error)
	// ReferenceStats are the extrema of the reference image for
	// MethodScaleByImageMaximum.
	ReferenceStats *Stats
}

// Plan resolves the configuration against one image's stats.
func (c Config) Plan(stats Stats, deps Deps) (Plan, error) {
	switch c.Method {
	case MethodStretch:
		return Plan{
			Kind:     KindRescale,
			InRange:  [2]float64{stats.Min, stats.Max},
			OutRange: [2]float64{0, 1},
		}, nil

	case MethodManualInputRange, MethodManualIORange:
		lo, hi, err := c.sourceRange(stats, deps.Extrema)
		if err != nil {
			return Plan{}, err
		}
		out := [2]float64{0, 1}
		if c.Method == MethodManualIORange {
			out = [2]float64{c.DestMin, c.DestMax}
		}
		return Plan{
			Kind:     KindRescale,
			InRange:  [2]float64{lo, hi},
			OutRange: out,
		}, nil

	case MethodDivideByImageMinimum:
		return dividePlan(stats.Min)

	case MethodDivideByImageMaximum:
		return dividePlan(stats.Max)

	case MethodDivideByValue:
		return dividePlan(c.DivisorValue)

	case MethodDivideByMeasurement:
		if deps.Measurement == nil {
			return Plan{}, fmt.Errorf("%w: no measurement lookup", ErrInvalidConfig)
		}
		v, err := deps.Measurement(c.DivisorFeature)
		if err != nil {
			return Plan{}, err
		}
		return dividePlan(v)

	case MethodScaleByImageMaximum:
		if deps.ReferenceStats == nil {
			return Plan{}, ErrMissingReference
		}
		// A blank image cannot be matched to the reference; leave it
		// unchanged.
		if stats.Max == 0 {
			return Plan{Kind: KindIdentity}, nil
		}
		return Plan{
			Kind:   KindMultiply,
			Factor: deps.ReferenceStats.Max / stats.Max,
		}, nil

	default:
		return Plan{}, fmt.Errorf("%w: unknown method %d", ErrInvalidConfig, c.Method)
	}
}

func dividePlan(divisor float64) (Plan, error) {
	if divisor == 0 {
		return Plan{}, ErrZeroDivisor
	}
	return Plan{Kind: KindDivide, Factor: divisor}, nil
}

// sourceRange resolves the manual input range, accounting for
// automatically derived ends.
func (c Config) sourceRange(stats Stats, extrema *GroupExtrema) (lo, hi float64, err error) {
	switch c.MinPolicy {
	case PolicyAllImages:
		if extrema == nil {
			return 0, 0, ErrMissingExtrema
		}
		lo = extrema.Min
	case PolicyEachImage:
		lo = stats.Min
	default:
		lo = c.SourceMin
	}

	switch c.MaxPolicy {
	case PolicyAllImages:
		if extrema == nil {
			return 0, 0, ErrMissingExtrema
		}
		hi = extrema.Max
	case PolicyEachImage:
		hi = stats.Max
	default:
		hi = c.SourceMax
	}

	return lo, hi, nil
}
