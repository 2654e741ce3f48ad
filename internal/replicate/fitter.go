package replicate

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/swimlab/agecurve/internal/dataset"
	"github.com/swimlab/agecurve/internal/ensemble"
	"github.com/swimlab/agecurve/internal/regress"
	"github.com/swimlab/agecurve/internal/stats"
)

// Params collects the knobs of a single replicate fit.
type Params struct {
	// TrainFraction of rows assigned to the training split.
	TrainFraction float64
	// Folds for cross-validation inside the stacking step.
	Folds int
	// AgeMin and AgeMax bound the integer prediction grid, inclusive.
	AgeMin int
	AgeMax int
}

// Fitter runs the full modeling sequence for one dataset draw: split,
// standardize on the training split, stack the members under
// cross-validation, score on the held-out split, and predict across the
// reporting grid. A Fitter holds only immutable configuration, so one
// instance serves concurrent replicates.
type Fitter struct {
	members []regress.Model
	params  Params
}

// NewFitter validates the parameters and builds a fitter over the member
// models.
func NewFitter(members []regress.Model, params Params) (*Fitter, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("fitter: no member models")
	}
	if params.TrainFraction <= 0 || params.TrainFraction >= 1 {
		return nil, fmt.Errorf("fitter: train fraction must be in (0,1), got %g", params.TrainFraction)
	}
	if params.Folds < 2 {
		return nil, fmt.Errorf("fitter: need at least 2 folds, got %d", params.Folds)
	}
	if params.AgeMin >= params.AgeMax {
		return nil, fmt.Errorf("fitter: grid ages %d..%d are empty", params.AgeMin, params.AgeMax)
	}
	return &Fitter{members: members, params: params}, nil
}

// Run executes one replicate over the given points. Everything stochastic,
// from the split and fold assignment to neural weight draws, flows from the
// given generator; callers that resample first should pass the same
// generator so the whole replicate is one reproducible stream. A nil rng is
// replaced by a fresh generator seeded with seed. The fitting steps are
// synchronous, so cancellation is observed between them, not within.
func (f *Fitter) Run(ctx context.Context, points []dataset.Point, index int, seed int64, rng *rand.Rand) (*Result, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(seed))
	}

	trainIdx, testIdx, err := f.split(len(points), rng)
	if err != nil {
		return nil, err
	}

	ageScaler, ratioScaler, err := fitScalers(points, trainIdx)
	if err != nil {
		return nil, err
	}

	trainFrame := buildFrame(points, trainIdx, ageScaler, ratioScaler)
	testFrame := buildFrame(points, testIdx, ageScaler, ratioScaler)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	stack, cv, err := ensemble.FitStack(f.members, trainFrame, f.params.Folds, rng)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	testPred, err := stack.PredictAll(testFrame)
	if err != nil {
		return nil, err
	}
	rmse := make(map[string]float64, len(testPred))
	for variant, pred := range testPred {
		rmse[variant] = stats.RMSE(pred, testFrame.ZRatio)
	}

	grid, err := f.predictGrid(stack, ageScaler, ratioScaler)
	if err != nil {
		return nil, err
	}

	return &Result{
		Index:   index,
		Seed:    seed,
		RMSE:    rmse,
		CVRMSE:  cv.RMSE,
		Weights: stack.Weights(),
		Grid:    grid,
	}, nil
}

// split draws a seeded permutation and carves off the training fraction.
func (f *Fitter) split(n int, rng *rand.Rand) (train, test []int, err error) {
	nTrain := int(f.params.TrainFraction * float64(n))
	if nTrain < 1 || nTrain >= n {
		return nil, nil, fmt.Errorf("fitter: %d rows leave no data on one side of a %.0f/%.0f split",
			n, f.params.TrainFraction*100, (1-f.params.TrainFraction)*100)
	}
	perm := rng.Perm(n)
	return perm[:nTrain], perm[nTrain:], nil
}

// fitScalers captures age and ratio statistics from the training rows only;
// the same scalers standardize the test split and the grid.
func fitScalers(points []dataset.Point, trainIdx []int) (age, ratio stats.Scaler, err error) {
	ages := make([]float64, len(trainIdx))
	ratios := make([]float64, len(trainIdx))
	for i, row := range trainIdx {
		ages[i] = float64(points[row].Age)
		ratios[i] = points[row].Ratio
	}

	age, err = stats.FitScaler(ages)
	if err != nil {
		return age, ratio, fmt.Errorf("fitter: age scaler: %w", err)
	}
	ratio, err = stats.FitScaler(ratios)
	if err != nil {
		return age, ratio, fmt.Errorf("fitter: ratio scaler: %w", err)
	}
	return age, ratio, nil
}

func buildFrame(points []dataset.Point, idx []int, age, ratio stats.Scaler) regress.Frame {
	frame := regress.Frame{
		ZAge:   make([]float64, len(idx)),
		Female: make([]float64, len(idx)),
		ZRatio: make([]float64, len(idx)),
	}
	for i, row := range idx {
		frame.ZAge[i] = age.Transform(float64(points[row].Age))
		frame.Female[i] = points[row].Female
		frame.ZRatio[i] = ratio.Transform(points[row].Ratio)
	}
	return frame
}

// predictGrid evaluates every variant across the integer age grid for both
// sexes and back-transforms onto the ratio scale with the replicate's own
// scalers.
func (f *Fitter) predictGrid(stack *ensemble.Stack, age, ratio stats.Scaler) ([]GridPoint, error) {
	ages := make([]int, 0, f.params.AgeMax-f.params.AgeMin+1)
	for a := f.params.AgeMin; a <= f.params.AgeMax; a++ {
		ages = append(ages, a)
	}

	frame := regress.Frame{}
	for _, sex := range dataset.Sexes {
		female := 0.0
		if sex == dataset.Female {
			female = 1.0
		}
		for _, a := range ages {
			frame.ZAge = append(frame.ZAge, age.Transform(float64(a)))
			frame.Female = append(frame.Female, female)
		}
	}

	pred, err := stack.PredictAll(frame)
	if err != nil {
		return nil, err
	}

	variants := append(stack.Names(), ensemble.VariantStack, ensemble.VariantAverage)
	grid := make([]GridPoint, 0, len(variants)*frame.Len())
	for _, variant := range variants {
		row := 0
		for _, sex := range dataset.Sexes {
			for _, a := range ages {
				grid = append(grid, GridPoint{
					Age:   a,
					Sex:   sex,
					Model: variant,
					Ratio: ratio.Invert(pred[variant][row]),
				})
				row++
			}
		}
	}
	return grid, nil
}
