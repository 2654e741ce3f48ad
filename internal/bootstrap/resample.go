// Package bootstrap drives repeated replicate fits over resampled datasets
// and merges the results into uncertainty bands.
package bootstrap

import (
	"math/rand"

	"github.com/swimlab/agecurve/internal/dataset"
)

// Resample draws a size-preserving sample with replacement from points.
// Rows are value copies, so replicates can never mutate the source data or
// each other.
func Resample(points []dataset.Point, rng *rand.Rand) []dataset.Point {
	sample := make([]dataset.Point, len(points))
	for i := range sample {
		sample[i] = points[rng.Intn(len(points))]
	}
	return sample
}
