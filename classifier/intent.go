// Package classifier maps free-text customer messages to intents with a
// bag-of-words vectorizer feeding a sigmoid feed-forward network.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"

	"github.com/amethystkombucha/chatbot/internal/vectorizer"
	"github.com/amethystkombucha/chatbot/neural"
)

// Fallback result returned while no model is trained.
const (
	FallbackIntent     = "general"
	FallbackConfidence = 0.5
)

var (
	// ErrEmptyCorpus is returned when Train receives no examples.
	ErrEmptyCorpus = errors.New("classifier: empty training corpus")
	// ErrEmptyVocabulary is returned when no example contains a usable token.
	ErrEmptyVocabulary = errors.New("classifier: corpus has no tokens of length 3 or more")
	// ErrNotTrained is returned when saving a classifier that was never trained.
	ErrNotTrained = errors.New("classifier: not trained")
	// ErrInvalidConfig is returned when the epochs or learning rate cannot
	// train a model.
	ErrInvalidConfig = errors.New("classifier: epochs and learning rate must be positive")
)

// Label is the expected output of a training example.
type Label struct {
	Intent     string  `json:"intent" validate:"required"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// TrainingExample is a labelled utterance. Confidence is used verbatim as the
// target activation of the intent's output unit.
type TrainingExample struct {
	Input  string `json:"input" validate:"required"`
	Output Label  `json:"output"`
}

// Result is a classification outcome.
type Result struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// TrainConfig holds training configuration.
type TrainConfig struct {
	Epochs       int
	LearningRate float64
	// Seed makes weight initialization reproducible. Zero draws a random seed.
	Seed uint64
}

// Validate reports ErrInvalidConfig unless Epochs and LearningRate are
// positive.
func (c TrainConfig) Validate() error {
	if c.Epochs <= 0 || !(c.LearningRate > 0) {
		return fmt.Errorf("%w: epochs %d, learning rate %v", ErrInvalidConfig, c.Epochs, c.LearningRate)
	}
	return nil
}

// DefaultTrainConfig returns the default training config.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:       100,
		LearningRate: 0.1,
	}
}

// model is one immutable trained state. It is replaced as a whole, never
// mutated after Train publishes it.
type model struct {
	intents []string
	vec     *vectorizer.BagOfWords
	net     *neural.Network
}

// IntentClassifier is safe for concurrent use. Classify may run while Train
// builds a new model; it sees either the previous model or the new one.
type IntentClassifier struct {
	mu sync.RWMutex
	m  *model
}

// New returns an untrained classifier.
func New() *IntentClassifier {
	return &IntentClassifier{}
}

// Train fits a fresh vocabulary and network on examples. Intents are indexed
// in first-seen order. On any error, including cancellation, the previously
// trained model stays in place. A config with no epochs or a non-positive
// learning rate is rejected with ErrInvalidConfig.
func (c *IntentClassifier) Train(ctx context.Context, examples []TrainingExample, config TrainConfig) error {
	if len(examples) == 0 {
		return ErrEmptyCorpus
	}
	if err := config.Validate(); err != nil {
		return err
	}

	intents := lo.Uniq(lo.Map(examples, func(e TrainingExample, _ int) string { return e.Output.Intent }))
	intentIndex := make(map[string]int, len(intents))
	for i, intent := range intents {
		intentIndex[intent] = i
	}

	texts := lo.Map(examples, func(e TrainingExample, _ int) string { return e.Input })
	vec := vectorizer.New()
	inputs, err := vec.FitTransform(texts)
	if err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if vec.VocabSize() == 0 {
		return ErrEmptyVocabulary
	}

	targets := make([][]float64, len(examples))
	for i, e := range examples {
		targets[i] = make([]float64, len(intents))
		targets[i][intentIndex[e.Output.Intent]] = e.Output.Confidence
	}

	hidden := vec.VocabSize() / 2
	var net *neural.Network
	if config.Seed != 0 {
		net = neural.NewSeeded(vec.VocabSize(), hidden, len(intents), config.LearningRate, config.Seed)
	} else {
		net = neural.New(vec.VocabSize(), hidden, len(intents), config.LearningRate, nil)
	}

	slog.Debug("Training intent classifier",
		"examples", len(examples), "intents", len(intents),
		"vocab", vec.VocabSize(), "hidden", hidden, "epochs", config.Epochs)
	if err := net.Train(ctx, inputs, targets, config.Epochs); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}

	c.mu.Lock()
	c.m = &model{intents: intents, vec: vec, net: net}
	c.mu.Unlock()
	return nil
}

func (c *IntentClassifier) current() *model {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m
}

// Classify returns the most activated intent for text. Ties go to the intent
// seen first during training. An untrained classifier returns the fallback
// result {general, 0.5}.
func (c *IntentClassifier) Classify(text string) Result {
	return c.current().classify(text)
}

func (m *model) classify(text string) Result {
	if m == nil {
		return Result{Intent: FallbackIntent, Confidence: FallbackConfidence}
	}

	output, err := m.net.Predict(m.vec.Transform(text))
	if err != nil || len(output) == 0 {
		slog.Warn("Classification failed, using fallback", "error", err)
		return Result{Intent: FallbackIntent, Confidence: FallbackConfidence}
	}

	best := 0
	for i, v := range output {
		if v > output[best] {
			best = i
		}
	}
	return Result{Intent: m.intents[best], Confidence: min(output[best], 1)}
}

// ClassifyProba returns the output activation of every intent. It returns nil
// when the classifier is untrained.
func (c *IntentClassifier) ClassifyProba(text string) map[string]float64 {
	m := c.current()
	if m == nil {
		return nil
	}
	output, err := m.net.Predict(m.vec.Transform(text))
	if err != nil {
		return nil
	}
	proba := make(map[string]float64, len(output))
	for i, v := range output {
		proba[m.intents[i]] = v
	}
	return proba
}

// Accuracy returns the fraction of examples whose predicted intent matches the
// label. It is 0 for an untrained classifier or an empty set.
func (c *IntentClassifier) Accuracy(examples []TrainingExample) float64 {
	m := c.current()
	if m == nil || len(examples) == 0 {
		return 0
	}
	correct := lo.CountBy(examples, func(e TrainingExample) bool {
		return m.classify(e.Input).Intent == e.Output.Intent
	})
	return float64(correct) / float64(len(examples))
}

// Trained reports whether a model is available.
func (c *IntentClassifier) Trained() bool {
	return c.current() != nil
}

// Intents returns the intent labels in output-unit order.
func (c *IntentClassifier) Intents() []string {
	m := c.current()
	if m == nil {
		return nil
	}
	return append([]string(nil), m.intents...)
}

// VocabSize returns the size of the trained vocabulary.
func (c *IntentClassifier) VocabSize() int {
	m := c.current()
	if m == nil {
		return 0
	}
	return m.vec.VocabSize()
}
