package rescale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"stretch", Config{Method: MethodStretch}, false},
		{"divide by minimum", Config{Method: MethodDivideByImageMinimum}, false},
		{
			"manual input range custom",
			Config{Method: MethodManualInputRange, MinPolicy: PolicyCustom, MaxPolicy: PolicyCustom, SourceMin: 0, SourceMax: 0.0625},
			false,
		},
		{
			"manual input range empty",
			Config{Method: MethodManualInputRange, MinPolicy: PolicyCustom, MaxPolicy: PolicyCustom, SourceMin: 1, SourceMax: 1},
			true,
		},
		{
			"manual input range bad policy",
			Config{Method: MethodManualInputRange, MinPolicy: 0, MaxPolicy: PolicyCustom},
			true,
		},
		{
			"manual io range empty output",
			Config{Method: MethodManualIORange, MinPolicy: PolicyEachImage, MaxPolicy: PolicyEachImage, DestMin: 0.5, DestMax: 0.5},
			true,
		},
		{
			"manual io range",
			Config{Method: MethodManualIORange, MinPolicy: PolicyEachImage, MaxPolicy: PolicyEachImage, DestMin: 0, DestMax: 0.5},
			false,
		},
		{"divide by zero value", Config{Method: MethodDivideByValue, DivisorValue: 0}, true},
		{"divide by value", Config{Method: MethodDivideByValue, DivisorValue: 2}, false},
		{"divide by measurement unselected", Config{Method: MethodDivideByMeasurement}, true},
		{"divide by measurement", Config{Method: MethodDivideByMeasurement, DivisorFeature: "Math_Divisor"}, false},
		{"scale by maximum unselected", Config{Method: MethodScaleByImageMaximum}, true},
		{"scale by maximum", Config{Method: MethodScaleByImageMaximum, ReferenceImage: "DNA"}, false},
		{"unknown method", Config{Method: 99}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestNeedsGroupExtrema(t *testing.T) {
	assert.False(t, Config{Method: MethodStretch}.NeedsGroupExtrema())
	assert.False(t, Config{
		Method: MethodManualInputRange, MinPolicy: PolicyEachImage, MaxPolicy: PolicyCustom,
	}.NeedsGroupExtrema())
	assert.True(t, Config{
		Method: MethodManualInputRange, MinPolicy: PolicyAllImages, MaxPolicy: PolicyCustom,
	}.NeedsGroupExtrema())
	assert.True(t, Config{
		Method: MethodManualIORange, MinPolicy: PolicyCustom, MaxPolicy: PolicyAllImages,
	}.NeedsGroupExtrema())
}

func TestPlan(t *testing.T) {
	stats := Stats{Min: 0.1, Max: 0.8}

	t.Run("Stretch", func(t *testing.T) {
		p, err := Config{Method: MethodStretch}.Plan(stats, Deps{})
		require.NoError(t, err)
		assert.Equal(t, KindRescale, p.Kind)
		assert.Equal(t, [2]float64{0.1, 0.8}, p.InRange)
		assert.Equal(t, [2]float64{0, 1}, p.OutRange)
	})

	t.Run("ManualInputRangeCustom", func(t *testing.T) {
		cfg := Config{
			Method:    MethodManualInputRange,
			MinPolicy: PolicyCustom, MaxPolicy: PolicyCustom,
			SourceMin: 0, SourceMax: 0.0625,
		}
		p, err := cfg.Plan(stats, Deps{})
		require.NoError(t, err)
		assert.Equal(t, [2]float64{0, 0.0625}, p.InRange)
		assert.Equal(t, [2]float64{0, 1}, p.OutRange)
	})

	t.Run("ManualInputRangeEachImage", func(t *testing.T) {
		cfg := Config{
			Method:    MethodManualInputRange,
			MinPolicy: PolicyEachImage, MaxPolicy: PolicyEachImage,
		}
		p, err := cfg.Plan(stats, Deps{})
		require.NoError(t, err)
		assert.Equal(t, [2]float64{0.1, 0.8}, p.InRange)
	})

	t.Run("ManualIORangeAllImages", func(t *testing.T) {
		cfg := Config{
			Method:    MethodManualIORange,
			MinPolicy: PolicyAllImages, MaxPolicy: PolicyAllImages,
			DestMin: 0.25, DestMax: 0.75,
		}

		_, err := cfg.Plan(stats, Deps{})
		require.ErrorIs(t, err, ErrMissingExtrema)

		p, err := cfg.Plan(stats, Deps{Extrema: &GroupExtrema{Min: 0.05, Max: 0.9}})
		require.NoError(t, err)
		assert.Equal(t, [2]float64{0.05, 0.9}, p.InRange)
		assert.Equal(t, [2]float64{0.25, 0.75}, p.OutRange)
	})

	t.Run("MixedPolicies", func(t *testing.T) {
		cfg := Config{
			Method:    MethodManualInputRange,
			MinPolicy: PolicyCustom, MaxPolicy: PolicyAllImages,
			SourceMin: 0.02,
		}
		p, err := cfg.Plan(stats, Deps{Extrema: &GroupExtrema{Min: 0.05, Max: 0.9}})
		require.NoError(t, err)
		assert.Equal(t, [2]float64{0.02, 0.9}, p.InRange)
	})

	t.Run("DivideByImageMinimum", func(t *testing.T) {
		p, err := Config{Method: MethodDivideByImageMinimum}.Plan(stats, Deps{})
		require.NoError(t, err)
		assert.Equal(t, KindDivide, p.Kind)
		assert.Equal(t, 0.1, p.Factor)

		_, err = Config{Method: MethodDivideByImageMinimum}.Plan(Stats{Min: 0, Max: 1}, Deps{})
		require.ErrorIs(t, err, ErrZeroDivisor)
	})

	t.Run("DivideByImageMaximum", func(t *testing.T) {
		p, err := Config{Method: MethodDivideByImageMaximum}.Plan(stats, Deps{})
		require.NoError(t, err)
		assert.Equal(t, KindDivide, p.Kind)
		assert.Equal(t, 0.8, p.Factor)
	})

	t.Run("DivideByValue", func(t *testing.T) {
		p, err := Config{Method: MethodDivideByValue, DivisorValue: 2}.Plan(stats, Deps{})
		require.NoError(t, err)
		assert.Equal(t, KindDivide, p.Kind)
		assert.Equal(t, 2.0, p.Factor)
	})

	t.Run("DivideByMeasurement", func(t *testing.T) {
		cfg := Config{Method: MethodDivideByMeasurement, DivisorFeature: "Math_Divisor"}
		deps := Deps{Measurement: func(feature string) (float64, error) {
			assert.Equal(t, "Math_Divisor", feature)
			return 4, nil
		}}

		p, err := cfg.Plan(stats, deps)
		require.NoError(t, err)
		assert.Equal(t, KindDivide, p.Kind)
		assert.Equal(t, 4.0, p.Factor)

		deps.Measurement = func(string) (float64, error) { return 0, nil }
		_, err = cfg.Plan(stats, deps)
		require.ErrorIs(t, err, ErrZeroDivisor)
	})

	t.Run("ScaleByImageMaximum", func(t *testing.T) {
		cfg := Config{Method: MethodScaleByImageMaximum, ReferenceImage: "DNA"}

		_, err := cfg.Plan(stats, Deps{})
		require.ErrorIs(t, err, ErrMissingReference)

		p, err := cfg.Plan(stats, Deps{ReferenceStats: &Stats{Min: 0, Max: 0.4}})
		require.NoError(t, err)
		assert.Equal(t, KindMultiply, p.Kind)
		assert.InDelta(t, 0.5, p.Factor, 1e-12)
	})

	t.Run("ScaleByImageMaximumBlankInput", func(t *testing.T) {
		cfg := Config{Method: MethodScaleByImageMaximum, ReferenceImage: "DNA"}
		p, err := cfg.Plan(Stats{Min: 0, Max: 0}, Deps{ReferenceStats: &Stats{Max: 0.4}})
		require.NoError(t, err)
		assert.Equal(t, KindIdentity, p.Kind)
	})
}
