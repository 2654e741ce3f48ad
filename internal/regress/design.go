package regress

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// olsFit solves the least-squares system x*beta = y and returns the
// coefficient vector. A poorly conditioned but solvable system is accepted
// (gonum reports it via mat.Condition with a valid result); a genuinely
// singular system becomes a FitError.
func olsFit(model string, x *mat.Dense, y []float64) ([]float64, error) {
	rows, cols := x.Dims()
	if rows != len(y) {
		return nil, &FitError{Model: model, Reason: fmt.Sprintf("design has %d rows, response has %d", rows, len(y))}
	}
	if rows < cols {
		return nil, &FitError{Model: model, Reason: fmt.Sprintf("underdetermined design: %d rows for %d columns", rows, cols)}
	}

	rhs := mat.NewDense(rows, 1, append([]float64(nil), y...))

	var beta mat.Dense
	if err := beta.Solve(x, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, &FitError{Model: model, Reason: "singular design matrix", Err: err}
		}
	}

	coefs := make([]float64, cols)
	for j := range coefs {
		v := beta.At(j, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &FitError{Model: model, Reason: "non-finite coefficient from least squares"}
		}
		coefs[j] = v
	}
	return coefs, nil
}

// applyCoefs multiplies a design matrix by a coefficient vector row-wise.
func applyCoefs(x *mat.Dense, coefs []float64) []float64 {
	rows, cols := x.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		sum := 0.0
		for j := 0; j < cols; j++ {
			sum += x.At(i, j) * coefs[j]
		}
		out[i] = sum
	}
	return out
}
