package chatbot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/chat"
)

func ex(input, intent string) classifier.TrainingExample {
	return classifier.TrainingExample{Input: input, Output: classifier.Label{Intent: intent, Confidence: 0.9}}
}

var smallCorpus = []classifier.TrainingExample{
	ex("halo selamat pagi", "greeting"),
	ex("halo apa kabar", "greeting"),
	ex("berapa harga botol", "price"),
	ex("harga kombucha berapa", "price"),
	ex("manfaat untuk kesehatan", "benefits"),
	ex("manfaat probiotik", "benefits"),
}

func fastConfig() *TrainConfig {
	return &TrainConfig{TrainConfig: classifier.TrainConfig{Epochs: 300, LearningRate: 0.5, Seed: 3}}
}

func TestTrainDefaultCorpus(t *testing.T) {
	examples := DefaultCorpus()
	for _, seed := range []uint64{1, 2, 3} {
		cfg := DefaultTrainConfig()
		cfg.Seed = seed
		b, err := Train(context.Background(), nil, cfg)
		if err != nil {
			t.Fatal(err)
		}
		if acc := b.Accuracy(examples); acc <= 0.6 {
			t.Errorf("seed %d: training accuracy = %.3f, want > 0.6", seed, acc)
		}
		if acc := b.Accuracy(nil); acc != 0 {
			t.Errorf("seed %d: Accuracy(nil) = %v, want 0", seed, acc)
		}
		want := []string{"product", "faq", "benefits", "greeting", "general"}
		if got := b.Intents(); !reflect.DeepEqual(got, want) {
			t.Errorf("Intents = %v, want %v", got, want)
		}
	}
}

func TestTrainRejectsInvalidConfig(t *testing.T) {
	for _, cfg := range []*TrainConfig{
		{TrainConfig: classifier.TrainConfig{Epochs: 0, LearningRate: 0.1}},
		{TrainConfig: classifier.TrainConfig{Epochs: 100, LearningRate: -1}},
	} {
		if _, err := Train(context.Background(), smallCorpus, cfg); !errors.Is(err, classifier.ErrInvalidConfig) {
			t.Errorf("Train(%+v) = %v, want ErrInvalidConfig", cfg.TrainConfig, err)
		}
	}
}

func TestTrainRejectsInvalidExamples(t *testing.T) {
	examples := append([]classifier.TrainingExample{}, smallCorpus...)
	examples = append(examples, ex("   ", "greeting"))
	if _, err := Train(context.Background(), examples, fastConfig()); err == nil {
		t.Error("expected error for blank input")
	}
}

func TestClassifyAndAnswer(t *testing.T) {
	b, err := Train(context.Background(), smallCorpus, fastConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got := b.Classify("halo").Intent; got != "greeting" {
		t.Errorf("Classify(halo) = %q, want greeting", got)
	}
	if p := b.ClassifyProba("manfaat"); len(p) != 3 {
		t.Errorf("ClassifyProba returned %d intents, want 3", len(p))
	}

	greet := b.Answer(classifier.Result{Intent: "greeting", Confidence: 0.9}, "halo")
	if !strings.HasPrefix(greet, "Halo!") {
		t.Errorf("greeting answer = %q", greet)
	}
	low := b.Answer(classifier.Result{Intent: "greeting", Confidence: 0.3}, "halo")
	if low != chat.FallbackReply {
		t.Errorf("low confidence answer = %q, want fallback", low)
	}
}

func TestSaveLoad(t *testing.T) {
	b, err := Train(context.Background(), smallCorpus, fastConfig())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := b.Save(path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, text := range []string{"halo", "berapa harga", "manfaat probiotik", "tidak dikenal"} {
		if got, want := loaded.Classify(text), b.Classify(text); got != want {
			t.Errorf("Classify(%q) after load = %+v, want %+v", text, got, want)
		}
	}
}

func TestNewFindsModelInParent(t *testing.T) {
	b, err := Train(context.Background(), smallCorpus, fastConfig())
	if err != nil {
		t.Fatal(err)
	}
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := b.Save(filepath.Join(root, "model.json")); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(sub)

	found, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if found.VocabSize() != b.VocabSize() {
		t.Errorf("VocabSize = %d, want %d", found.VocabSize(), b.VocabSize())
	}
}

func TestNewWithoutModel(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(root)
	if _, err := New(); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("New = %v, want ErrModelNotFound", err)
	}

	if err := os.WriteFile(filepath.Join(root, "model.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := New()
	if err == nil || errors.Is(err, ErrModelNotFound) {
		t.Errorf("New with corrupt model = %v, want decode error", err)
	}
}

func TestStratifiedKFold(t *testing.T) {
	got := stratifiedKFold([]string{"a", "a", "a", "b", "b", "c"}, 3)
	want := [][]int{{0, 3}, {1, 4}, {2, 5}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("stratifiedKFold = %v, want %v", got, want)
	}

	got = stratifiedKFold([]string{"a", "b"}, 5)
	want = [][]int{{0}, {1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("stratifiedKFold with more folds than examples = %v, want %v", got, want)
	}
}

func TestEvaluate(t *testing.T) {
	result, err := Evaluate(context.Background(), smallCorpus, &EvalConfig{Folds: 2, TrainConfig: *fastConfig()})
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != len(smallCorpus) {
		t.Errorf("Total = %d, want %d", result.Total, len(smallCorpus))
	}
	if result.Accuracy != float64(result.Correct)/float64(result.Total) {
		t.Errorf("Accuracy = %v, Correct = %d", result.Accuracy, result.Correct)
	}
	if want := []string{"greeting", "price", "benefits"}; !reflect.DeepEqual(result.Intents, want) {
		t.Errorf("Intents = %v, want %v", result.Intents, want)
	}
	for _, intent := range result.Intents {
		total := 0
		for _, n := range result.Confusion[intent] {
			total += n
		}
		if total != 2 {
			t.Errorf("confusion row %s sums to %d, want 2", intent, total)
		}
		if r := result.PerIntent[intent]; r < 0 || r > 1 {
			t.Errorf("PerIntent[%s] = %v", intent, r)
		}
	}
}

func TestEvaluateDefaultCorpus(t *testing.T) {
	result, err := Evaluate(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Total != len(DefaultCorpus()) {
		t.Errorf("Total = %d, want %d", result.Total, len(DefaultCorpus()))
	}
	if result.Accuracy < 0 || result.Accuracy > 1 {
		t.Errorf("Accuracy = %v", result.Accuracy)
	}
}

func TestEvaluateRejectsSingleFold(t *testing.T) {
	if _, err := Evaluate(context.Background(), smallCorpus, &EvalConfig{Folds: 1}); err == nil {
		t.Error("expected error for a single fold")
	}
}

func TestEvalConfigFillsUnsetFields(t *testing.T) {
	var nilConfig *EvalConfig
	if got := nilConfig.trainConfig(); got != classifier.DefaultTrainConfig() {
		t.Errorf("nil config = %+v, want defaults", got)
	}

	epochsOnly := &EvalConfig{TrainConfig: TrainConfig{TrainConfig: classifier.TrainConfig{Epochs: 300}}}
	if got := epochsOnly.trainConfig(); got.Epochs != 300 || got.LearningRate != 0.1 {
		t.Errorf("epochs only = %+v, want 300 epochs at 0.1", got)
	}

	rateOnly := &EvalConfig{TrainConfig: TrainConfig{TrainConfig: classifier.TrainConfig{LearningRate: 0.5, Seed: 9}}}
	if got := rateOnly.trainConfig(); got.Epochs != 100 || got.LearningRate != 0.5 || got.Seed != 9 {
		t.Errorf("rate only = %+v, want 100 epochs at 0.5 seed 9", got)
	}
}

func TestEvaluateRejectsInvalidLearningRate(t *testing.T) {
	cfg := &EvalConfig{Folds: 2, TrainConfig: TrainConfig{TrainConfig: classifier.TrainConfig{LearningRate: -1}}}
	if _, err := Evaluate(context.Background(), smallCorpus, cfg); !errors.Is(err, classifier.ErrInvalidConfig) {
		t.Errorf("Evaluate = %v, want ErrInvalidConfig", err)
	}
}
