package regress

import (
	"fmt"
	"math/rand"
)

// Kind names a regression family.
type Kind string

const (
	KindNeuralNet  Kind = "nnet"
	KindPolynomial Kind = "poly"
	KindSpline     Kind = "spline"
)

// Frame is the standardized design frame shared by every model family:
// z-scored age, the female indicator, and (for training frames) the z-scored
// ratio response. All slices are parallel; ZRatio may be empty on frames used
// only for prediction.
type Frame struct {
	ZAge   []float64
	Female []float64
	ZRatio []float64
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.ZAge) }

// Interact returns the age-by-sex interaction for row i. With a 0/1 female
// indicator this is zAge on female rows and 0 on male rows.
func (f Frame) Interact(i int) float64 { return f.ZAge[i] * f.Female[i] }

// Subset returns a new frame holding the given rows, in the given order.
func (f Frame) Subset(idx []int) Frame {
	sub := Frame{
		ZAge:   make([]float64, len(idx)),
		Female: make([]float64, len(idx)),
	}
	if len(f.ZRatio) > 0 {
		sub.ZRatio = make([]float64, len(idx))
	}
	for i, row := range idx {
		sub.ZAge[i] = f.ZAge[row]
		sub.Female[i] = f.Female[row]
		if len(f.ZRatio) > 0 {
			sub.ZRatio[i] = f.ZRatio[row]
		}
	}
	return sub
}

// Model is a fittable regression family configured with hyperparameters.
// Implementations are stateless: Fit returns a frozen Fitted and leaves the
// model itself untouched, so one Model can serve many replicates.
type Model interface {
	// Name returns the configured identifier, used in reports and weights.
	Name() string

	// Kind returns the family.
	Kind() Kind

	// Fit trains on the frame, which must carry a response. Families with
	// stochastic initialization draw from rng; deterministic families
	// ignore it.
	Fit(frame Frame, rng *rand.Rand) (Fitted, error)
}

// Fitted predicts on new frames using parameters frozen at fit time.
type Fitted interface {
	Predict(frame Frame) ([]float64, error)
}

// FitError reports a candidate model that could not be fitted for the
// current data: a degenerate design, a singular system, or a diverged
// optimization. Callers decide whether to skip the replicate or abort.
type FitError struct {
	Model  string
	Reason string
	Err    error
}

func (e *FitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model %s: fit failed: %s: %v", e.Model, e.Reason, e.Err)
	}
	return fmt.Sprintf("model %s: fit failed: %s", e.Model, e.Reason)
}

func (e *FitError) Unwrap() error { return e.Err }

// needResponse verifies that a training frame carries a response column of
// the right length.
func needResponse(model string, frame Frame) error {
	if frame.Len() == 0 {
		return &FitError{Model: model, Reason: "empty training frame"}
	}
	if len(frame.ZRatio) != frame.Len() {
		return &FitError{Model: model, Reason: fmt.Sprintf("response has %d rows, design has %d", len(frame.ZRatio), frame.Len())}
	}
	return nil
}
