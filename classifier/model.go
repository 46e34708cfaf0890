package classifier

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/amethystkombucha/chatbot/internal/vectorizer"
	"github.com/amethystkombucha/chatbot/neural"
)

// savedModel is the on-disk form of a trained classifier.
type savedModel struct {
	Intents    []string        `json:"intents"`
	Vocabulary []string        `json:"vocabulary"`
	Network    *neural.Network `json:"network"`
}

// MarshalModel serializes the trained model to JSON bytes.
func (c *IntentClassifier) MarshalModel() ([]byte, error) {
	m := c.current()
	if m == nil {
		return nil, ErrNotTrained
	}
	return json.Marshal(savedModel{
		Intents:    m.intents,
		Vocabulary: m.vec.Vocabulary(),
		Network:    m.net,
	})
}

// SaveModel writes the trained model to path.
func (c *IntentClassifier) SaveModel(path string) error {
	data, err := c.MarshalModel()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// UnmarshalModel replaces the current model with one decoded from data. The
// layer sizes must agree with the vocabulary and intent list.
func (c *IntentClassifier) UnmarshalModel(data []byte) error {
	var saved savedModel
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}
	if saved.Network == nil {
		return fmt.Errorf("classifier: model has no network")
	}
	if err := saved.Network.Validate(); err != nil {
		return fmt.Errorf("classifier: %w", err)
	}

	vec := vectorizer.FromVocabulary(saved.Vocabulary)
	in, _, out := saved.Network.Shape()
	if in != vec.VocabSize() || out != len(saved.Intents) || out == 0 {
		return fmt.Errorf("classifier: %w: network %dx%d, vocabulary %d, intents %d",
			neural.ErrInvalidDimension, in, out, vec.VocabSize(), len(saved.Intents))
	}

	c.mu.Lock()
	c.m = &model{intents: saved.Intents, vec: vec, net: saved.Network}
	c.mu.Unlock()
	return nil
}

// LoadModel reads a classifier saved with SaveModel.
func LoadModel(path string) (*IntentClassifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := New()
	if err := c.UnmarshalModel(data); err != nil {
		return nil, err
	}
	return c, nil
}
