package chatbot

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/catalog"
	"github.com/amethystkombucha/chatbot/internal/corpus"
)

// TrainConfig holds configuration for training.
type TrainConfig struct {
	classifier.TrainConfig
}

// DefaultTrainConfig returns 100 epochs at learning rate 0.1.
func DefaultTrainConfig() *TrainConfig {
	return &TrainConfig{TrainConfig: classifier.DefaultTrainConfig()}
}

// EvalConfig holds configuration for evaluation.
type EvalConfig struct {
	Folds int
	TrainConfig
}

// EvalResult holds cross-validation evaluation results.
type EvalResult struct {
	Accuracy float64
	Correct  int
	Total    int
	// Confusion counts predictions per true intent: Confusion[true][predicted].
	Confusion map[string]map[string]int
	Intents   []string
	// PerIntent is the recall of each true intent.
	PerIntent map[string]float64
}

// DefaultCorpus returns the bundled training examples.
func DefaultCorpus() []classifier.TrainingExample {
	return corpus.Default(catalog.Default())
}

// Train trains a bot on examples. A nil or empty slice trains on the bundled
// corpus; a nil config uses DefaultTrainConfig.
func Train(ctx context.Context, examples []classifier.TrainingExample, config *TrainConfig) (*Bot, error) {
	if config == nil {
		config = DefaultTrainConfig()
	}
	if len(examples) == 0 {
		examples = DefaultCorpus()
	}
	if err := corpus.Validate(examples); err != nil {
		return nil, fmt.Errorf("chatbot: %w", err)
	}

	clf := classifier.New()
	if err := clf.Train(ctx, examples, config.TrainConfig); err != nil {
		return nil, fmt.Errorf("chatbot: %w", err)
	}
	return &Bot{clf: clf, catalog: catalog.Default()}, nil
}

// Evaluate runs stratified k-fold cross-validation on examples. A nil or
// empty slice evaluates the bundled corpus. Zero Epochs or LearningRate in
// config fall back to DefaultTrainConfig one field at a time.
func Evaluate(ctx context.Context, examples []classifier.TrainingExample, config *EvalConfig) (*EvalResult, error) {
	nFolds := 5
	if config != nil && config.Folds > 0 {
		nFolds = config.Folds
	}
	trainConfig := config.trainConfig()
	if len(examples) == 0 {
		examples = DefaultCorpus()
	}
	if err := corpus.Validate(examples); err != nil {
		return nil, fmt.Errorf("chatbot: %w", err)
	}
	if nFolds < 2 {
		return nil, fmt.Errorf("chatbot: need at least 2 folds, got %d", nFolds)
	}
	if err := trainConfig.Validate(); err != nil {
		return nil, fmt.Errorf("chatbot: %w", err)
	}

	labels := lo.Map(examples, func(e classifier.TrainingExample, _ int) string { return e.Output.Intent })
	result := &EvalResult{
		Confusion: make(map[string]map[string]int),
		Intents:   lo.Uniq(labels),
		PerIntent: make(map[string]float64),
	}
	for _, intent := range result.Intents {
		result.Confusion[intent] = make(map[string]int)
	}

	for _, testIdx := range stratifiedKFold(labels, nFolds) {
		testSet := makeTestSet(len(examples), testIdx)
		trainExamples := filterByIndex(examples, testSet, false)

		clf := classifier.New()
		if err := clf.Train(ctx, trainExamples, trainConfig); err != nil {
			return nil, fmt.Errorf("chatbot: %w", err)
		}

		for _, idx := range testIdx {
			pred := clf.Classify(examples[idx].Input).Intent
			if pred == labels[idx] {
				result.Correct++
			}
			result.Confusion[labels[idx]][pred]++
			result.Total++
		}
	}

	if result.Total > 0 {
		result.Accuracy = float64(result.Correct) / float64(result.Total)
	}
	for _, intent := range result.Intents {
		total := 0
		for _, n := range result.Confusion[intent] {
			total += n
		}
		if total > 0 {
			result.PerIntent[intent] = float64(result.Confusion[intent][intent]) / float64(total)
		}
	}
	return result, nil
}

// trainConfig fills unset fields from DefaultTrainConfig one at a time.
// Explicit invalid values are kept so that Validate reports them.
func (c *EvalConfig) trainConfig() classifier.TrainConfig {
	tc := classifier.DefaultTrainConfig()
	if c == nil {
		return tc
	}
	if c.Epochs != 0 {
		tc.Epochs = c.Epochs
	}
	if c.LearningRate != 0 {
		tc.LearningRate = c.LearningRate
	}
	tc.Seed = c.Seed
	return tc
}

// stratifiedKFold deals the examples of each label round-robin over the
// folds, so every fold sees every label in proportion. Empty folds are
// dropped.
func stratifiedKFold(labels []string, nFolds int) [][]int {
	if nFolds > len(labels) {
		nFolds = len(labels)
	}

	// Continue each label where the previous one stopped so small labels do
	// not all land in the first fold.
	next := 0
	labelFold := make(map[string]int)
	folds := make([][]int, nFolds)
	for i, label := range labels {
		fold, ok := labelFold[label]
		if !ok {
			fold = next
		}
		folds[fold] = append(folds[fold], i)
		labelFold[label] = (fold + 1) % nFolds
		next = (fold + 1) % nFolds
	}

	return lo.Filter(folds, func(f []int, _ int) bool { return len(f) > 0 })
}

func makeTestSet(n int, testIdx []int) []bool {
	set := make([]bool, n)
	for _, i := range testIdx {
		set[i] = true
	}
	return set
}

func filterByIndex(examples []classifier.TrainingExample, testSet []bool, isTest bool) []classifier.TrainingExample {
	var out []classifier.TrainingExample
	for i := range examples {
		if testSet[i] == isTest {
			out = append(out, examples[i])
		}
	}
	return out
}
