package timeseries

import "math"

// SanitizeValue cleans a measurement value: missing and non-finite values
// become nil, negative concentrations are clamped to zero (sensor noise floor).
func SanitizeValue(v *float64) *float64 {
	if v == nil {
		return nil
	}
	if math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	val := *v
	if val <= 0 {
		val = 0
	}
	return &val
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
