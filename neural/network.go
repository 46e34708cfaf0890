// Package neural implements a single-hidden-layer feed-forward network with
// sigmoid activations, trained by online backpropagation.
package neural

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
)

// ErrInvalidDimension is returned when an input or target vector does not match
// the network geometry.
var ErrInvalidDimension = errors.New("neural: invalid dimension")

// InitRange bounds the uniform weight initialization to (-InitRange, InitRange).
const InitRange = 0.05

// Network is a fully connected input→hidden→output network.
type Network struct {
	InputSize    int         `json:"input_size"`
	HiddenSize   int         `json:"hidden_size"`
	OutputSize   int         `json:"output_size"`
	LearningRate float64     `json:"learning_rate"`
	Weights1     [][]float64 `json:"weights1"` // [hidden][input]
	Weights2     [][]float64 `json:"weights2"` // [output][hidden]
	Bias1        []float64   `json:"bias1"`    // [hidden]
	Bias2        []float64   `json:"bias2"`    // [output]
}

// New allocates a network and initializes every weight and bias independently
// from rng. A nil rng draws from a randomly seeded source.
func New(inputSize, hiddenSize, outputSize int, learningRate float64, rng *rand.Rand) *Network {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Network{
		InputSize:    inputSize,
		HiddenSize:   hiddenSize,
		OutputSize:   outputSize,
		LearningRate: learningRate,
		Weights1:     randomMatrix(rng, hiddenSize, inputSize),
		Weights2:     randomMatrix(rng, outputSize, hiddenSize),
		Bias1:        randomVector(rng, hiddenSize),
		Bias2:        randomVector(rng, outputSize),
	}
}

// NewSeeded is New with a deterministic PCG source.
func NewSeeded(inputSize, hiddenSize, outputSize int, learningRate float64, seed uint64) *Network {
	return New(inputSize, hiddenSize, outputSize, learningRate, rand.New(rand.NewPCG(seed, seed)))
}

func randomMatrix(rng *rand.Rand, rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = randomVector(rng, cols)
	}
	return m
}

func randomVector(rng *rand.Rand, size int) []float64 {
	v := make([]float64, size)
	for i := range v {
		v[i] = (rng.Float64() - 0.5) * 2 * InitRange
	}
	return v
}

// Sigmoid is the logistic function 1/(1+e^-x).
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Forward returns the hidden and output activations for input.
func (n *Network) Forward(input []float64) ([]float64, []float64, error) {
	if len(input) != n.InputSize {
		return nil, nil, fmt.Errorf("%w: input length %d, want %d", ErrInvalidDimension, len(input), n.InputSize)
	}
	hidden, output := n.forward(input)
	return hidden, output, nil
}

func (n *Network) forward(input []float64) ([]float64, []float64) {
	hidden := make([]float64, n.HiddenSize)
	for j, row := range n.Weights1 {
		sum := n.Bias1[j]
		for k, w := range row {
			sum += w * input[k]
		}
		hidden[j] = Sigmoid(sum)
	}

	output := make([]float64, n.OutputSize)
	for i, row := range n.Weights2 {
		sum := n.Bias2[i]
		for j, w := range row {
			sum += w * hidden[j]
		}
		output[i] = Sigmoid(sum)
	}
	return hidden, output
}

// Predict returns the output activations for input.
func (n *Network) Predict(input []float64) ([]float64, error) {
	_, output, err := n.Forward(input)
	return output, err
}

// Backpropagate runs one online gradient step towards target. Nothing is
// updated when a dimension check fails.
func (n *Network) Backpropagate(input, target []float64) error {
	if err := n.checkExample(input, target); err != nil {
		return err
	}
	n.step(input, target)
	return nil
}

// step applies one update and returns the squared error before the update.
// Every delta comes from the same forward pass; weights are only written once
// all deltas are known.
func (n *Network) step(input, target []float64) float64 {
	hidden, output := n.forward(input)

	loss := 0.0
	outputDelta := make([]float64, n.OutputSize)
	for i, o := range output {
		e := target[i] - o
		loss += e * e
		outputDelta[i] = e * o * (1 - o)
	}

	hiddenDelta := make([]float64, n.HiddenSize)
	for j, h := range hidden {
		e := 0.0
		for i := range n.OutputSize {
			e += n.Weights2[i][j] * outputDelta[i]
		}
		hiddenDelta[j] = e * h * (1 - h)
	}

	lr := n.LearningRate
	for i, row := range n.Weights2 {
		for j := range row {
			row[j] += lr * outputDelta[i] * hidden[j]
		}
		n.Bias2[i] += lr * outputDelta[i]
	}
	for j, row := range n.Weights1 {
		for k := range row {
			row[k] += lr * hiddenDelta[j] * input[k]
		}
		n.Bias1[j] += lr * hiddenDelta[j]
	}
	return loss
}

// Train runs epochs of per-example backpropagation over inputs in order.
// All examples are validated before the first update. ctx is checked between
// epochs; on cancellation the network is left partially trained and ctx.Err()
// is returned, so callers must discard it.
func (n *Network) Train(ctx context.Context, inputs, targets [][]float64, epochs int) error {
	if len(inputs) != len(targets) {
		return fmt.Errorf("%w: %d inputs, %d targets", ErrInvalidDimension, len(inputs), len(targets))
	}
	for i := range inputs {
		if err := n.checkExample(inputs[i], targets[i]); err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
	}

	for epoch := range epochs {
		if err := ctx.Err(); err != nil {
			return err
		}
		loss := 0.0
		for i := range inputs {
			loss += n.step(inputs[i], targets[i])
		}
		if epoch%10 == 0 || epoch == epochs-1 {
			slog.Debug("Epoch completed", "epoch", epoch+1, "epochs", epochs, "loss", loss/float64(max(len(inputs), 1)))
		}
	}
	return nil
}

func (n *Network) checkExample(input, target []float64) error {
	if len(input) != n.InputSize {
		return fmt.Errorf("%w: input length %d, want %d", ErrInvalidDimension, len(input), n.InputSize)
	}
	if len(target) != n.OutputSize {
		return fmt.Errorf("%w: target length %d, want %d", ErrInvalidDimension, len(target), n.OutputSize)
	}
	return nil
}

// Shape returns the layer sizes.
func (n *Network) Shape() (input, hidden, output int) {
	return n.InputSize, n.HiddenSize, n.OutputSize
}

// Validate reports whether the weight and bias slices match the declared layer
// sizes. Networks decoded from JSON should be validated before use.
func (n *Network) Validate() error {
	if len(n.Weights1) != n.HiddenSize || len(n.Bias1) != n.HiddenSize {
		return fmt.Errorf("%w: hidden layer has %d rows, %d biases, want %d", ErrInvalidDimension, len(n.Weights1), len(n.Bias1), n.HiddenSize)
	}
	if len(n.Weights2) != n.OutputSize || len(n.Bias2) != n.OutputSize {
		return fmt.Errorf("%w: output layer has %d rows, %d biases, want %d", ErrInvalidDimension, len(n.Weights2), len(n.Bias2), n.OutputSize)
	}
	for _, row := range n.Weights1 {
		if len(row) != n.InputSize {
			return fmt.Errorf("%w: hidden row length %d, want %d", ErrInvalidDimension, len(row), n.InputSize)
		}
	}
	for _, row := range n.Weights2 {
		if len(row) != n.HiddenSize {
			return fmt.Errorf("%w: output row length %d, want %d", ErrInvalidDimension, len(row), n.HiddenSize)
		}
	}
	return nil
}

// clone returns a deep copy of the network.
func (n *Network) clone() *Network {
	c := *n
	c.Weights1 = cloneMatrix(n.Weights1)
	c.Weights2 = cloneMatrix(n.Weights2)
	c.Bias1 = append([]float64(nil), n.Bias1...)
	c.Bias2 = append([]float64(nil), n.Bias2...)
	return &c
}

func cloneMatrix(m [][]float64) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
