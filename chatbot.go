// Package chatbot answers Amethyst Kombucha customer messages.
//
// It wraps a bag-of-words intent classifier trained on a small corpus that
// is augmented from the product catalog.
//
//	b, _ := chatbot.Train(ctx, nil, nil)
//	r := b.Classify("berapa harga kombucha original?")
//	fmt.Println(r.Intent, r.Confidence)
//	fmt.Println(b.Answer(r, "berapa harga kombucha original?"))
package chatbot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/catalog"
	"github.com/amethystkombucha/chatbot/internal/chat"
)

// DefaultMinConfidence is the confidence below which Answer returns the
// generic fallback reply.
const DefaultMinConfidence = 0.6

// ErrModelNotFound is returned by New when no model.json is found.
var ErrModelNotFound = errors.New("chatbot: model.json not found")

// Bot couples a trained intent classifier with the product catalog it
// answers from.
type Bot struct {
	clf     *classifier.IntentClassifier
	catalog *catalog.Catalog
}

// New loads the bot from "model.json", searching the current directory
// and parent directories up to the module root (where go.mod lives).
func New() (*Bot, error) {
	path, err := FindModel()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// FindModel returns the path of the model.json that New would load, or
// ErrModelNotFound.
func FindModel() (string, error) {
	const name = "model.json"
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("chatbot: %w", err)
	}
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		// Stop at module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", ErrModelNotFound
}

// Load reads a trained model file. Replies use the bundled catalog.
func Load(path string) (*Bot, error) {
	clf, err := classifier.LoadModel(path)
	if err != nil {
		return nil, fmt.Errorf("chatbot: %w", err)
	}
	return &Bot{clf: clf, catalog: catalog.Default()}, nil
}

// Save writes the trained model to path.
func (b *Bot) Save(path string) error {
	if err := b.clf.SaveModel(path); err != nil {
		return fmt.Errorf("chatbot: %w", err)
	}
	return nil
}

// Classify returns the most likely intent of text.
func (b *Bot) Classify(text string) classifier.Result {
	return b.clf.Classify(text)
}

// ClassifyProba returns the network output for every known intent.
func (b *Bot) ClassifyProba(text string) map[string]float64 {
	return b.clf.ClassifyProba(text)
}

// Accuracy is the fraction of examples whose intent is predicted correctly.
func (b *Bot) Accuracy(examples []classifier.TrainingExample) float64 {
	return b.clf.Accuracy(examples)
}

// Intents lists the known intents in training order.
func (b *Bot) Intents() []string {
	return b.clf.Intents()
}

// VocabSize is the number of distinct words the model knows.
func (b *Bot) VocabSize() int {
	return b.clf.VocabSize()
}

// Answer writes the local reply for a classified message: a catalog-aware
// answer when one applies, the intent template otherwise, and the generic
// fallback below DefaultMinConfidence.
func (b *Bot) Answer(r classifier.Result, message string) string {
	if r.Confidence < DefaultMinConfidence {
		return chat.FallbackReply
	}
	if text, ok := chat.CatalogReply(b.catalog, message, r.Intent); ok {
		return text
	}
	return chat.TemplateReply(b.catalog, r.Intent)
}
