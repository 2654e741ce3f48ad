package regress

import (
	"fmt"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SplineArgs configures a natural-spline regression member.
type SplineArgs struct {
	// Name identifies this member in reports and blend weights.
	Name string
	// DF is the degrees of freedom, i.e. the number of basis columns for the
	// age term. DF+1 knots are placed at quantiles of the training ages.
	DF int `mapstructure:"df"`
}

// spline fits zRatio on a natural cubic spline basis of the standardized
// age, a female indicator, and the female-by-basis interaction, by ordinary
// least squares. Natural splines are linear beyond the boundary knots, which
// keeps grid predictions past the oldest training age from blowing up.
type spline struct {
	name string
	df   int
}

// NewSpline creates a natural-spline member. DF defaults to 4.
func NewSpline(args SplineArgs) (*spline, error) {
	df := args.DF
	if df == 0 {
		df = 4
	}
	if df < 1 || df > 16 {
		return nil, fmt.Errorf("spline df must be in [1,16], got %d", df)
	}
	name := args.Name
	if name == "" {
		name = string(KindSpline)
	}
	return &spline{name: name, df: df}, nil
}

func (s *spline) Name() string { return s.name }
func (s *spline) Kind() Kind   { return KindSpline }

func (s *spline) Fit(frame Frame, _ *rand.Rand) (Fitted, error) {
	if err := needResponse(s.name, frame); err != nil {
		return nil, err
	}
	basis, err := newNaturalBasis(frame.ZAge, s.df)
	if err != nil {
		return nil, &FitError{Model: s.name, Reason: err.Error()}
	}
	coefs, err := olsFit(s.name, s.design(basis, frame), frame.ZRatio)
	if err != nil {
		return nil, err
	}
	return &splineFit{model: s, basis: basis, coefs: coefs}, nil
}

// design builds columns {1, N_1..N_df, Female, Female*N_1..Female*N_df}
// where N_j are the natural-spline basis functions of zAge.
func (s *spline) design(basis *naturalBasis, frame Frame) *mat.Dense {
	n := frame.Len()
	dim := basis.dim()
	x := mat.NewDense(n, 2+2*dim, nil)
	for i := 0; i < n; i++ {
		b := basis.eval(frame.ZAge[i])
		x.Set(i, 0, 1)
		for j, v := range b {
			x.Set(i, 1+j, v)
		}
		x.Set(i, 1+dim, frame.Female[i])
		for j, v := range b {
			x.Set(i, 2+dim+j, frame.Female[i]*v)
		}
	}
	return x
}

type splineFit struct {
	model *spline
	basis *naturalBasis
	coefs []float64
}

func (f *splineFit) Predict(frame Frame) ([]float64, error) {
	// Knots stay frozen at their training positions.
	return applyCoefs(f.model.design(f.basis, frame), f.coefs), nil
}

// naturalBasis evaluates the natural cubic spline basis from the standard
// truncated-power construction: a linear term plus df-1 differences of
// scaled truncated cubes, constrained to be linear beyond the boundary
// knots.
type naturalBasis struct {
	knots []float64 // strictly increasing, boundary knots first and last
}

// newNaturalBasis places df+1 knots over the sample: boundary knots at the
// min and max, interior knots at evenly spaced quantiles. Coincident knots
// mean the sample has too few distinct values for the requested df.
func newNaturalBasis(sample []float64, df int) (*naturalBasis, error) {
	if len(sample) < df+1 {
		return nil, fmt.Errorf("spline: %d values cannot support df=%d", len(sample), df)
	}

	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	knots := make([]float64, 0, df+1)
	knots = append(knots, sorted[0])
	for i := 1; i < df; i++ {
		q := float64(i) / float64(df)
		knots = append(knots, stat.Quantile(q, stat.Empirical, sorted, nil))
	}
	knots = append(knots, sorted[len(sorted)-1])

	for i := 1; i < len(knots); i++ {
		if knots[i] <= knots[i-1] {
			return nil, fmt.Errorf("spline: coincident knots at %g (too few distinct values for df=%d)", knots[i], df)
		}
	}
	return &naturalBasis{knots: knots}, nil
}

// dim returns the number of basis columns.
func (b *naturalBasis) dim() int { return len(b.knots) - 1 }

// eval returns the basis values at x.
func (b *naturalBasis) eval(x float64) []float64 {
	k := len(b.knots)
	out := make([]float64, b.dim())
	out[0] = x
	if k == 2 {
		return out
	}
	dLast := b.d(k-2, x)
	for j := 1; j <= k-2; j++ {
		out[j] = b.d(j-1, x) - dLast
	}
	return out
}

// d computes the scaled truncated-cube difference anchored at knot k and the
// final knot.
func (b *naturalBasis) d(k int, x float64) float64 {
	last := len(b.knots) - 1
	return (cubePlus(x-b.knots[k]) - cubePlus(x-b.knots[last])) / (b.knots[last] - b.knots[k])
}

func cubePlus(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return v * v * v
}
