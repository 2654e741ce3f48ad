package ensemble

import (
	"fmt"
	"math/rand"
)

// KFold partitions row indices 0..n-1 into k cross-validation folds using a
// seeded shuffle. Every row lands in exactly one held-out fold. Partitions
// that would leave a fold with fewer than two rows are rejected rather than
// silently producing a degenerate fit downstream.
func KFold(n, k int, rng *rand.Rand) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("kfold: need at least 2 folds, got %d", k)
	}
	if n < 2*k {
		return nil, fmt.Errorf("kfold: %d rows cannot fill %d folds with 2+ rows each", n, k)
	}

	folds := make([][]int, k)
	for i, row := range rng.Perm(n) {
		folds[i%k] = append(folds[i%k], row)
	}
	return folds, nil
}

// complement returns all indices in 0..n-1 not present in fold, preserving
// ascending order.
func complement(n int, fold []int) []int {
	in := make(map[int]bool, len(fold))
	for _, row := range fold {
		in[row] = true
	}
	out := make([]int, 0, n-len(fold))
	for row := 0; row < n; row++ {
		if !in[row] {
			out = append(out, row)
		}
	}
	return out
}
