package regress

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Create builds a model member from its configured kind, identifier and
// parameter map. Unknown parameters are rejected so a typo in a pipeline
// file fails loudly instead of silently using a default.
func Create(kind Kind, identifier string, params map[string]any) (Model, error) {
	if params == nil {
		params = map[string]any{}
	}
	decode := func(out any) error {
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      out,
			ErrorUnused: true,
		})
		if err != nil {
			return err
		}
		if err := dec.Decode(params); err != nil {
			return fmt.Errorf("model %s: %w", identifier, err)
		}
		return nil
	}

	switch kind {
	case KindNeuralNet:
		var v struct {
			HiddenUnits  int     `mapstructure:"hidden_units"`
			Epochs       int     `mapstructure:"epochs"`
			LearningRate float64 `mapstructure:"learning_rate"`
		}
		if err := decode(&v); err != nil {
			return nil, err
		}
		return NewNeuralNet(NeuralNetArgs{
			Name:         identifier,
			HiddenUnits:  v.HiddenUnits,
			Epochs:       v.Epochs,
			LearningRate: v.LearningRate,
		})
	case KindPolynomial:
		var v struct {
			Degree int `mapstructure:"degree"`
		}
		if err := decode(&v); err != nil {
			return nil, err
		}
		return NewPolynomial(PolynomialArgs{Name: identifier, Degree: v.Degree})
	case KindSpline:
		var v struct {
			DF int `mapstructure:"df"`
		}
		if err := decode(&v); err != nil {
			return nil, err
		}
		return NewSpline(SplineArgs{Name: identifier, DF: v.DF})
	default:
		return nil, fmt.Errorf("'%s' is not a valid model kind", kind)
	}
}
