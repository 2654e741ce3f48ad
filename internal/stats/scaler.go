package stats

import "fmt"

// Scaler standardizes values to zero mean and unit variance using statistics
// captured from a reference sample. The same fitted scaler must be reused for
// every later transform so that held-out data is expressed on the reference
// scale rather than its own.
type Scaler struct {
	Mean float64 `json:"mean"`
	SD   float64 `json:"sd"`
}

// FitScaler captures mean and sample standard deviation from the reference
// values. It fails when the sample is too small or has no spread, since a
// zero-variance column cannot be standardized.
func FitScaler(values []float64) (Scaler, error) {
	if len(values) < 2 {
		return Scaler{}, fmt.Errorf("scaler needs at least 2 values, got %d", len(values))
	}
	sd := StdDev(values)
	if sd == 0 {
		return Scaler{}, fmt.Errorf("scaler fit on constant values (mean=%g)", Mean(values))
	}
	return Scaler{Mean: Mean(values), SD: sd}, nil
}

// Transform maps a raw value onto the standardized scale.
func (s Scaler) Transform(v float64) float64 {
	return (v - s.Mean) / s.SD
}

// TransformAll standardizes a slice, returning a new slice.
func (s Scaler) TransformAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = s.Transform(v)
	}
	return out
}

// Invert maps a standardized value back to the raw scale.
func (s Scaler) Invert(z float64) float64 {
	return z*s.SD + s.Mean
}

// InvertAll back-transforms a slice, returning a new slice.
func (s Scaler) InvertAll(zs []float64) []float64 {
	out := make([]float64, len(zs))
	for i, z := range zs {
		out[i] = s.Invert(z)
	}
	return out
}
