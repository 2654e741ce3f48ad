package replicate

import "github.com/swimlab/agecurve/internal/dataset"

// GridPoint is one prediction on the reporting grid, back-transformed to the
// ratio scale.
type GridPoint struct {
	Age   int         `json:"age"`
	Sex   dataset.Sex `json:"sex"`
	Model string      `json:"model"`
	Ratio float64     `json:"ratio"`
}

// Result is the complete output of one replicate: held-out error per model
// variant, cross-validation error per member, blend weights, and the
// prediction grid. A Result is created and consumed within one bootstrap
// iteration and shares no state with other replicates.
type Result struct {
	Index int   `json:"index"`
	Seed  int64 `json:"seed"`

	// RMSE holds test-set error on the standardized response, keyed by
	// member name plus the stack and average variants.
	RMSE map[string]float64 `json:"rmse"`

	// CVRMSE holds each member's out-of-fold error from the stacking step.
	CVRMSE map[string]float64 `json:"cv_rmse"`

	// Weights holds the non-negative blend coefficients per member.
	Weights map[string]float64 `json:"weights"`

	Grid []GridPoint `json:"grid"`
}
