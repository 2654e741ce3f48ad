package ensemble

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/swimlab/agecurve/internal/regress"
	"github.com/swimlab/agecurve/internal/stats"
)

// Variant names for the two derived predictors reported next to the members.
const (
	VariantStack   = "stack"
	VariantAverage = "avg"
)

// Stack blends member models refitted on the full training frame with
// non-negative weights learned from their out-of-fold predictions.
type Stack struct {
	names   []string
	members []regress.Fitted
	weights []float64
}

// CVReport carries per-member cross-validation diagnostics.
type CVReport struct {
	// RMSE maps member name to out-of-fold root-mean-squared error on the
	// standardized response.
	RMSE map[string]float64
}

// FitStack learns a stacked ensemble: run k-fold cross-validation to collect
// each member's out-of-fold predictions, fit non-negative blend weights on
// them, then refit every member on the full training frame so the final
// stack predicts with fully trained members.
func FitStack(models []regress.Model, train regress.Frame, folds int, rng *rand.Rand) (*Stack, *CVReport, error) {
	if len(models) == 0 {
		return nil, nil, fmt.Errorf("stack: no member models")
	}
	names := make([]string, len(models))
	seen := make(map[string]bool, len(models))
	for i, m := range models {
		name := m.Name()
		if name == VariantStack || name == VariantAverage {
			return nil, nil, fmt.Errorf("stack: member name %q is reserved", name)
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("stack: duplicate member name %q", name)
		}
		seen[name] = true
		names[i] = name
	}

	n := train.Len()
	partition, err := KFold(n, folds, rng)
	if err != nil {
		return nil, nil, err
	}

	oof := mat.NewDense(n, len(models), nil)
	for f, held := range partition {
		sub := train.Subset(complement(n, held))
		heldFrame := train.Subset(held)

		for j, m := range models {
			fitted, err := m.Fit(sub, rng)
			if err != nil {
				return nil, nil, fmt.Errorf("fold %d: %w", f, err)
			}
			pred, err := fitted.Predict(heldFrame)
			if err != nil {
				return nil, nil, fmt.Errorf("fold %d: %w", f, err)
			}
			for i, row := range held {
				oof.Set(row, j, pred[i])
			}
		}
	}

	report := &CVReport{RMSE: make(map[string]float64, len(models))}
	for j, name := range names {
		col := mat.Col(nil, j, oof)
		if !stats.AllFinite(col) {
			return nil, nil, &regress.FitError{Model: name, Reason: "non-finite out-of-fold predictions"}
		}
		report.RMSE[name] = stats.RMSE(col, train.ZRatio)
	}

	weights, err := regress.NNLS(oof, train.ZRatio)
	if err != nil {
		return nil, nil, fmt.Errorf("stack: blend weights: %w", err)
	}

	members := make([]regress.Fitted, len(models))
	for j, m := range models {
		fitted, err := m.Fit(train, rng)
		if err != nil {
			return nil, nil, fmt.Errorf("refit %s: %w", names[j], err)
		}
		members[j] = fitted
	}

	return &Stack{names: names, members: members, weights: weights}, report, nil
}

// Names returns the member names in fit order.
func (s *Stack) Names() []string {
	return append([]string(nil), s.names...)
}

// Weights returns the blend weight for each member by name. Weights are
// non-negative; a zero weight means the member contributed nothing to the
// blend.
func (s *Stack) Weights() map[string]float64 {
	out := make(map[string]float64, len(s.names))
	for j, name := range s.names {
		out[name] = s.weights[j]
	}
	return out
}

// PredictAll evaluates every member, the weighted stack, and the unweighted
// average on the frame. Keys are the member names plus VariantStack and
// VariantAverage.
func (s *Stack) PredictAll(frame regress.Frame) (map[string][]float64, error) {
	n := frame.Len()
	out := make(map[string][]float64, len(s.names)+2)

	stacked := make([]float64, n)
	average := make([]float64, n)
	for j, m := range s.members {
		pred, err := m.Predict(frame)
		if err != nil {
			return nil, fmt.Errorf("member %s: %w", s.names[j], err)
		}
		if !stats.AllFinite(pred) {
			return nil, &regress.FitError{Model: s.names[j], Reason: "non-finite predictions"}
		}
		out[s.names[j]] = pred
		for i, v := range pred {
			stacked[i] += s.weights[j] * v
			average[i] += v / float64(len(s.members))
		}
	}
	out[VariantStack] = stacked
	out[VariantAverage] = average
	return out, nil
}
