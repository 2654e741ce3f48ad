package stats

import (
	"math"
	"testing"
)

func TestMeanAndStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	if got := Mean(values); math.Abs(got-5.0) > 1e-12 {
		t.Errorf("Mean = %v, want 5", got)
	}

	// Sample standard deviation with n-1 divisor: sqrt(32/7).
	want := math.Sqrt(32.0 / 7.0)
	if got := StdDev(values); math.Abs(got-want) > 1e-12 {
		t.Errorf("StdDev = %v, want %v", got, want)
	}
}

func TestMeanEmpty(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Errorf("Mean(nil) = %v, want 0", got)
	}
	if got := StdDev([]float64{3}); got != 0 {
		t.Errorf("StdDev of single value = %v, want 0", got)
	}
}

func TestRMSE(t *testing.T) {
	pred := []float64{1, 2, 3}
	truth := []float64{1, 2, 5}

	// Errors are 0, 0, -2 so RMSE = sqrt(4/3).
	want := math.Sqrt(4.0 / 3.0)
	if got := RMSE(pred, truth); math.Abs(got-want) > 1e-12 {
		t.Errorf("RMSE = %v, want %v", got, want)
	}
}

func TestRMSEMismatchedLengths(t *testing.T) {
	if got := RMSE([]float64{1}, []float64{1, 2}); !math.IsNaN(got) {
		t.Errorf("RMSE with mismatched lengths = %v, want NaN", got)
	}
	if got := RMSE(nil, nil); !math.IsNaN(got) {
		t.Errorf("RMSE on empty input = %v, want NaN", got)
	}
}

func TestPercentileIntervalSingleValue(t *testing.T) {
	iv := PercentileInterval([]float64{1.5}, 2.5, 97.5)

	if iv.Mean != 1.5 || iv.Lo != 1.5 || iv.Hi != 1.5 {
		t.Errorf("degenerate interval = %+v, want all bounds 1.5", iv)
	}
	if iv.N != 1 {
		t.Errorf("N = %d, want 1", iv.N)
	}
}

func TestPercentileIntervalBounds(t *testing.T) {
	values := make([]float64, 1000)
	for i := range values {
		values[i] = float64(i + 1)
	}

	iv := PercentileInterval(values, 2.5, 97.5)

	if iv.Lo >= iv.Hi {
		t.Fatalf("lo %v not below hi %v", iv.Lo, iv.Hi)
	}
	if iv.Lo < 1 || iv.Lo > 50 {
		t.Errorf("lo = %v, want near the 2.5th percentile of 1..1000", iv.Lo)
	}
	if iv.Hi < 950 || iv.Hi > 1000 {
		t.Errorf("hi = %v, want near the 97.5th percentile of 1..1000", iv.Hi)
	}
	if math.Abs(iv.Mean-500.5) > 1e-9 {
		t.Errorf("mean = %v, want 500.5", iv.Mean)
	}
}

func TestPercentileIntervalEmpty(t *testing.T) {
	iv := PercentileInterval(nil, 2.5, 97.5)
	if iv != (Interval{}) {
		t.Errorf("empty input interval = %+v, want zero value", iv)
	}
}

func TestPercentileIntervalOrderIndependent(t *testing.T) {
	a := []float64{5, 1, 4, 2, 3, 9, 7, 8, 6, 10}
	b := []float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}

	iva := PercentileInterval(a, 2.5, 97.5)
	ivb := PercentileInterval(b, 2.5, 97.5)

	if iva != ivb {
		t.Errorf("interval depends on input order: %+v vs %+v", iva, ivb)
	}
}

func TestAllFinite(t *testing.T) {
	if !AllFinite([]float64{0, -1, 2.5}) {
		t.Error("finite values reported as non-finite")
	}
	if AllFinite([]float64{1, math.NaN()}) {
		t.Error("NaN not detected")
	}
	if AllFinite([]float64{math.Inf(1)}) {
		t.Error("+Inf not detected")
	}
}
