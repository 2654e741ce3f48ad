package regress

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// PolynomialArgs configures a polynomial regression member.
type PolynomialArgs struct {
	// Name identifies this member in reports and blend weights.
	Name string
	// Degree of the polynomial basis on zAge and on the age-sex interaction.
	Degree int `mapstructure:"degree"`
}

// polynomial fits zRatio on a raw polynomial basis of the standardized age,
// a female indicator, and the same basis on the age-sex interaction, by
// ordinary least squares.
type polynomial struct {
	name   string
	degree int
}

// NewPolynomial creates a polynomial member. Degree defaults to 3.
func NewPolynomial(args PolynomialArgs) (*polynomial, error) {
	degree := args.Degree
	if degree == 0 {
		degree = 3
	}
	if degree < 1 || degree > 8 {
		return nil, fmt.Errorf("polynomial degree must be in [1,8], got %d", degree)
	}
	name := args.Name
	if name == "" {
		name = string(KindPolynomial)
	}
	return &polynomial{name: name, degree: degree}, nil
}

func (p *polynomial) Name() string { return p.name }
func (p *polynomial) Kind() Kind   { return KindPolynomial }

func (p *polynomial) Fit(frame Frame, _ *rand.Rand) (Fitted, error) {
	if err := needResponse(p.name, frame); err != nil {
		return nil, err
	}
	coefs, err := olsFit(p.name, p.design(frame), frame.ZRatio)
	if err != nil {
		return nil, err
	}
	return &polynomialFit{model: p, coefs: coefs}, nil
}

// design builds columns {1, zAge^1..d, Female, (zAge*Female)^1..d}.
func (p *polynomial) design(frame Frame) *mat.Dense {
	n := frame.Len()
	x := mat.NewDense(n, 2+2*p.degree, nil)
	for i := 0; i < n; i++ {
		x.Set(i, 0, 1)
		pow := 1.0
		for j := 1; j <= p.degree; j++ {
			pow *= frame.ZAge[i]
			x.Set(i, j, pow)
		}
		x.Set(i, p.degree+1, frame.Female[i])
		pow = 1.0
		zf := frame.Interact(i)
		for j := 1; j <= p.degree; j++ {
			pow *= zf
			x.Set(i, p.degree+1+j, pow)
		}
	}
	return x
}

type polynomialFit struct {
	model *polynomial
	coefs []float64
}

func (f *polynomialFit) Predict(frame Frame) ([]float64, error) {
	return applyCoefs(f.model.design(frame), f.coefs), nil
}
