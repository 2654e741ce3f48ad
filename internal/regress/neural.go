package regress

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/openfluke/loom/nn"
)

// NeuralNetArgs configures a neural-network regression member.
type NeuralNetArgs struct {
	// Name identifies this member in reports and blend weights.
	Name string
	// HiddenUnits is the width of the single hidden layer.
	HiddenUnits int `mapstructure:"hidden_units"`
	// Epochs is the number of training passes over the replicate's data.
	Epochs int `mapstructure:"epochs"`
	// LearningRate for stochastic gradient descent.
	LearningRate float64 `mapstructure:"learning_rate"`
}

// The standardized response is squashed into the unit interval to match the
// sigmoid output layer. Clamping at ±responseSpan standard deviations keeps
// extreme bootstrap draws inside the representable range.
const (
	responseSpan = 4.0
	weightScale  = float32(0.5)
)

// neuralNet fits a single-hidden-layer network on {zAge, Female, zAge*Female}
// with a tanh hidden layer and a sigmoid output unit. Initial weights are
// drawn from the replicate's generator before training, so the fit depends
// only on the seed and the data.
type neuralNet struct {
	name   string
	hidden int
	epochs int
	lr     float64
}

// NewNeuralNet creates a neural member. Hidden units default to 8, epochs to
// 100 and the learning rate to 0.05.
func NewNeuralNet(args NeuralNetArgs) (*neuralNet, error) {
	hidden := args.HiddenUnits
	if hidden == 0 {
		hidden = 8
	}
	if hidden < 1 || hidden > 128 {
		return nil, fmt.Errorf("hidden_units must be in [1,128], got %d", hidden)
	}

	epochs := args.Epochs
	if epochs == 0 {
		epochs = 100
	}
	if epochs < 1 || epochs > 10000 {
		return nil, fmt.Errorf("epochs must be in [1,10000], got %d", epochs)
	}

	lr := args.LearningRate
	if lr == 0 {
		lr = 0.05
	}
	if lr < 0 || lr > 1 {
		return nil, fmt.Errorf("learning_rate must be in (0,1], got %g", lr)
	}

	name := args.Name
	if name == "" {
		name = string(KindNeuralNet)
	}
	return &neuralNet{name: name, hidden: hidden, epochs: epochs, lr: lr}, nil
}

func (m *neuralNet) Name() string { return m.name }
func (m *neuralNet) Kind() Kind   { return KindNeuralNet }

func (m *neuralNet) Fit(frame Frame, rng *rand.Rand) (Fitted, error) {
	if err := needResponse(m.name, frame); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, &FitError{Model: m.name, Reason: "stochastic member requires a seeded generator"}
	}

	net := nn.NewNetwork(3, 1, 1, 2)
	net.BatchSize = 1

	hidden := nn.InitDenseLayer(3, m.hidden, nn.ActivationTanh)
	drawWeights(rng, hidden.Kernel, weightScale)
	drawWeights(rng, hidden.Bias, weightScale)
	net.SetLayer(0, 0, 0, hidden)

	output := nn.InitDenseLayer(m.hidden, 1, nn.ActivationSigmoid)
	drawWeights(rng, output.Kernel, weightScale)
	drawWeights(rng, output.Bias, weightScale)
	net.SetLayer(0, 0, 1, output)

	batches := make([]nn.TrainingBatch, frame.Len())
	for i := range batches {
		batches[i] = nn.TrainingBatch{
			Input:  inputRow(frame, i),
			Target: []float32{float32(squash(frame.ZRatio[i]))},
		}
	}
	net.Train(batches, &nn.TrainingConfig{
		Epochs:       m.epochs,
		LearningRate: float32(m.lr),
		LossType:     "mse",
	})

	fit := &neuralFit{model: m, net: net}
	check, err := fit.Predict(frame)
	if err != nil {
		return nil, &FitError{Model: m.name, Reason: "forward pass failed after training", Err: err}
	}
	for _, v := range check {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &FitError{Model: m.name, Reason: "training diverged to non-finite predictions"}
		}
	}
	return fit, nil
}

type neuralFit struct {
	model *neuralNet
	net   *nn.Network
}

func (f *neuralFit) Predict(frame Frame) ([]float64, error) {
	out := make([]float64, frame.Len())
	for i := range out {
		raw, _ := f.net.ForwardCPU(inputRow(frame, i))
		if len(raw) == 0 {
			return nil, fmt.Errorf("model %s: empty forward output", f.model.name)
		}
		out[i] = unsquash(float64(raw[0]))
	}
	return out, nil
}

func inputRow(frame Frame, i int) []float32 {
	return []float32{float32(frame.ZAge[i]), float32(frame.Female[i]), float32(frame.Interact(i))}
}

// squash maps a standardized response into (0,1) for the sigmoid output.
func squash(z float64) float64 {
	if z > responseSpan {
		z = responseSpan
	}
	if z < -responseSpan {
		z = -responseSpan
	}
	return (z + responseSpan) / (2 * responseSpan)
}

// unsquash maps a sigmoid output back to the standardized scale.
func unsquash(p float64) float64 {
	return p*2*responseSpan - responseSpan
}

func drawWeights(rng *rand.Rand, w []float32, scale float32) {
	for i := range w {
		w[i] = (rng.Float32()*2 - 1) * scale
	}
}
