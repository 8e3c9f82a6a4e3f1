package rescale

// Method selects the rescaling formula.
type Method int

const (
	// MethodStretch rescales each image so its own minimum maps to 0
	// and its maximum to 1.
	MethodStretch Method = iota + 1
	// MethodManualInputRange rescales a configured or derived input
	// range to [0, 1].
	MethodManualInputRange
	// MethodManualIORange rescales a configured or derived input range
	// to a custom output range.
	MethodManualIORange
	// MethodDivideByImageMinimum divides every pixel by the image's
	// minimum, so all intensities are >= 1 (illumination functions).
	MethodDivideByImageMinimum
	// MethodDivideByImageMaximum divides every pixel by the image's
	// maximum, so all intensities are <= 1.
	MethodDivideByImageMaximum
	// MethodDivideByValue divides every pixel by a fixed value.
	MethodDivideByValue
	// MethodDivideByMeasurement divides every pixel by a previously
	// recorded per-image measurement.
	MethodDivideByMeasurement
	// MethodScaleByImageMaximum scales the image so its maximum equals
	// the maximum of a reference image.
	MethodScaleByImageMaximum
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodStretch:
		return "Stretch"
	case MethodManualInputRange:
		return "ManualInputRange"
	case MethodManualIORange:
		return "ManualIORange"
	case MethodDivideByImageMinimum:
		return "DivideByImageMinimum"
	case MethodDivideByImageMaximum:
		return "DivideByImageMaximum"
	case MethodDivideByValue:
		return "DivideByValue"
	case MethodDivideByMeasurement:
		return "DivideByMeasurement"
	case MethodScaleByImageMaximum:
		return "ScaleByImageMaximum"
	default:
		return "Unknown"
	}
}

// RangePolicy controls how one end of a manual input range is derived.
type RangePolicy int

const (
	// PolicyCustom uses the configured value.
	PolicyCustom RangePolicy = iota + 1
	// PolicyEachImage uses the extremum of the image being rescaled.
	PolicyEachImage
	// PolicyAllImages uses the extremum across all images in the
	// group (or the whole experiment when grouping is off).
	PolicyAllImages
)

// String returns the policy name.
func (p RangePolicy) String() string {
	switch p {
	case PolicyCustom:
		return "Custom"
	case PolicyEachImage:
		return "EachImage"
	case PolicyAllImages:
		return "AllImages"
	default:
		return "Unknown"
	}
}
