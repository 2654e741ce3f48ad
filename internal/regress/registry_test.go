package regress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	tests := []struct {
		name       string
		kind       Kind
		identifier string
		params     map[string]any
		wantKind   Kind
		wantErr    string
	}{
		{
			name:       "neural net with params",
			kind:       KindNeuralNet,
			identifier: "nn-wide",
			params:     map[string]any{"hidden_units": 12, "epochs": 50, "learning_rate": 0.1},
			wantKind:   KindNeuralNet,
		},
		{
			name:       "polynomial with degree",
			kind:       KindPolynomial,
			identifier: "cubic",
			params:     map[string]any{"degree": 3},
			wantKind:   KindPolynomial,
		},
		{
			name:       "spline with df",
			kind:       KindSpline,
			identifier: "ns4",
			params:     map[string]any{"df": 4},
			wantKind:   KindSpline,
		},
		{
			name:       "nil params use defaults",
			kind:       KindPolynomial,
			identifier: "poly",
			wantKind:   KindPolynomial,
		},
		{
			name:       "unknown kind",
			kind:       Kind("forest"),
			identifier: "rf",
			wantErr:    "not a valid model kind",
		},
		{
			name:       "unknown parameter rejected",
			kind:       KindSpline,
			identifier: "ns",
			params:     map[string]any{"dof": 4},
			wantErr:    "invalid keys",
		},
		{
			name:       "out of range parameter",
			kind:       KindPolynomial,
			identifier: "poly",
			params:     map[string]any{"degree": 99},
			wantErr:    "degree must be in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Create(tt.kind, tt.identifier, tt.params)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.identifier, m.Name())
			assert.Equal(t, tt.wantKind, m.Kind())
		})
	}
}

func TestFrameSubset(t *testing.T) {
	f := Frame{
		ZAge:   []float64{1, 2, 3, 4},
		Female: []float64{0, 1, 0, 1},
		ZRatio: []float64{10, 20, 30, 40},
	}

	sub := f.Subset([]int{3, 1})
	assert.Equal(t, []float64{4, 2}, sub.ZAge)
	assert.Equal(t, []float64{1, 1}, sub.Female)
	assert.Equal(t, []float64{40, 20}, sub.ZRatio)

	// Prediction-only frames subset without a response.
	noResp := Frame{ZAge: []float64{1, 2}, Female: []float64{0, 1}}
	assert.Empty(t, noResp.Subset([]int{0}).ZRatio)
}

func TestFrameInteract(t *testing.T) {
	f := Frame{ZAge: []float64{1.5, -2}, Female: []float64{0, 1}}

	assert.Equal(t, 0.0, f.Interact(0))
	assert.Equal(t, -2.0, f.Interact(1))
}
