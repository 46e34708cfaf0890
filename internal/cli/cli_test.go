package cli

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/corpus"
)

func run(t *testing.T, args ...string) {
	t.Helper()
	c := New("test")
	c.rootCmd.SetArgs(append([]string{"-s"}, args...))
	if err := c.Run(); err != nil {
		t.Fatalf("chatbot %s: %v", strings.Join(args, " "), err)
	}
}

func TestTrainRejectsUntrainableFlags(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	for _, args := range [][]string{
		{"train", modelPath, "--epochs", "0"},
		{"train", modelPath, "--learning-rate", "-1"},
		{"evaluate", "--learning-rate", "0"},
	} {
		c := New("test")
		c.rootCmd.SetArgs(append([]string{"-s"}, args...))
		c.rootCmd.SetErr(io.Discard)
		if err := c.Run(); !errors.Is(err, classifier.ErrInvalidConfig) {
			t.Errorf("chatbot %s = %v, want ErrInvalidConfig", strings.Join(args, " "), err)
		}
	}
	if _, err := os.Stat(modelPath); !os.IsNotExist(err) {
		t.Errorf("model written despite invalid config: %v", err)
	}
}

func TestTrainWritesModel(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "corpus.json")
	examples := []classifier.TrainingExample{
		{Input: "halo selamat pagi", Output: classifier.Label{Intent: "greeting", Confidence: 0.9}},
		{Input: "berapa harga botol", Output: classifier.Label{Intent: "price", Confidence: 0.9}},
	}
	if err := corpus.Save(corpusPath, examples); err != nil {
		t.Fatal(err)
	}

	modelPath := filepath.Join(dir, "model.json")
	run(t, "train", modelPath, "--corpus", corpusPath, "--epochs", "50", "--seed", "7", "--holdout", "1")

	clf, err := classifier.LoadModel(modelPath)
	if err != nil {
		t.Fatal(err)
	}
	if got := clf.Intents(); len(got) != 2 || got[0] != "greeting" || got[1] != "price" {
		t.Errorf("Intents = %v", got)
	}
}

func TestCorpusExport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "corpus.json")
	run(t, "corpus", "export", out)

	examples, err := corpus.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(examples) == 0 {
		t.Fatal("exported corpus is empty")
	}

	custom := filepath.Join(dir, "custom.json")
	if err := corpus.Save(custom, examples[:1]); err != nil {
		t.Fatal(err)
	}
	withCustom := filepath.Join(dir, "export.json")
	run(t, "corpus", "export", withCustom, "--custom", custom)

	data, err := os.ReadFile(withCustom)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"customData"`)) {
		t.Errorf("export without customData: %s", data[:min(len(data), 200)])
	}
	all, err := corpus.Load(withCustom)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != len(examples)+1 {
		t.Errorf("export has %d examples, want %d", len(all), len(examples)+1)
	}
}

func TestReadLines(t *testing.T) {
	lines, err := readLines(strings.NewReader("halo\n\n  berapa harga  \n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 || lines[0] != "halo" || lines[1] != "berapa harga" {
		t.Errorf("readLines = %q", lines)
	}
}

func TestPrintConfusionMatrix(t *testing.T) {
	confusion := map[string]map[string]int{
		"greeting": {"greeting": 3, "general": 1},
		"faq":      {"faq": 5},
	}
	var buf bytes.Buffer
	printConfusionMatrix(&buf, confusion, []string{"greeting", "faq"})
	out := buf.String()
	for _, want := range []string{"Confusion matrix", "greeting", "faq", "general", "75.0", "100.0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLoadBotFallsBackOnlyWhenModelMissing(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(root)

	bot, err := loadBot("")
	if err != nil {
		t.Fatalf("loadBot without model: %v", err)
	}
	if len(bot.Intents()) == 0 {
		t.Error("fallback bot is untrained")
	}

	if err := os.WriteFile(filepath.Join(root, "model.json"), []byte(`{"intents":`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadBot(""); err == nil {
		t.Error("corrupt model.json was silently replaced by retraining")
	}
}

func TestReportModel(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(root)

	var buf bytes.Buffer
	reportModel(&buf, "v1.2.0")
	if !strings.Contains(buf.String(), "No model.json found") {
		t.Errorf("report without model = %q", buf.String())
	}

	if err := os.WriteFile(filepath.Join(root, "model.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	reportModel(&buf, "v1.2.0")
	if out := buf.String(); !strings.Contains(out, "model.json") || !strings.Contains(out, "v1.2.0") {
		t.Errorf("report with model = %q", out)
	}
}
