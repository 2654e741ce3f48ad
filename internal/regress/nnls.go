package regress

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const nnlsTol = 1e-10

// NNLS solves min ||a*w - y||² subject to w >= 0 with the Lawson-Hanson
// active-set method. An all-zero solution is valid: it means no column helps
// explain y under the non-negativity constraint.
func NNLS(a *mat.Dense, y []float64) ([]float64, error) {
	rows, cols := a.Dims()
	if rows != len(y) {
		return nil, fmt.Errorf("nnls: matrix has %d rows, response has %d", rows, len(y))
	}
	if cols == 0 {
		return nil, fmt.Errorf("nnls: matrix has no columns")
	}

	w := make([]float64, cols)
	passive := make([]bool, cols)
	resid := append([]float64(nil), y...)

	// Outer loop moves one violated coordinate at a time into the passive
	// set; the inner loop repairs any negative passive coordinates by
	// backtracking along the line to the unconstrained solution.
	for iter := 0; iter < 3*cols+10; iter++ {
		grad := gradient(a, resid)

		best, bestVal := -1, nnlsTol
		for j := 0; j < cols; j++ {
			if !passive[j] && grad[j] > bestVal {
				best, bestVal = j, grad[j]
			}
		}
		if best < 0 {
			break // KKT conditions hold
		}
		passive[best] = true

		for {
			z, err := passiveLeastSquares(a, y, passive)
			if err != nil {
				return nil, err
			}

			alpha, feasible := 1.0, true
			for j := 0; j < cols; j++ {
				if passive[j] && z[j] <= 0 {
					feasible = false
					if step := w[j] / (w[j] - z[j]); step < alpha {
						alpha = step
					}
				}
			}
			if feasible {
				copy(w, z)
				break
			}

			for j := 0; j < cols; j++ {
				if passive[j] {
					w[j] += alpha * (z[j] - w[j])
					if w[j] <= nnlsTol {
						w[j] = 0
						passive[j] = false
					}
				}
			}
		}

		for i := 0; i < rows; i++ {
			sum := 0.0
			for j := 0; j < cols; j++ {
				sum += a.At(i, j) * w[j]
			}
			resid[i] = y[i] - sum
		}
	}

	return w, nil
}

// gradient computes aᵀ * resid.
func gradient(a *mat.Dense, resid []float64) []float64 {
	rows, cols := a.Dims()
	g := make([]float64, cols)
	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += a.At(i, j) * resid[i]
		}
		g[j] = sum
	}
	return g
}

// passiveLeastSquares solves the unconstrained least-squares problem on the
// passive columns only and scatters the solution back to full length with
// zeros elsewhere.
func passiveLeastSquares(a *mat.Dense, y []float64, passive []bool) ([]float64, error) {
	rows, cols := a.Dims()

	active := make([]int, 0, cols)
	for j, in := range passive {
		if in {
			active = append(active, j)
		}
	}
	z := make([]float64, cols)
	if len(active) == 0 {
		return z, nil
	}

	sub := mat.NewDense(rows, len(active), nil)
	for i := 0; i < rows; i++ {
		for k, j := range active {
			sub.Set(i, k, a.At(i, j))
		}
	}

	coefs, err := olsFit("nnls", sub, y)
	if err != nil {
		return nil, fmt.Errorf("nnls: passive-set solve: %w", err)
	}
	for k, j := range active {
		z[j] = coefs[k]
	}
	return z, nil
}
