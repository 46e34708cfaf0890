// Package llm answers customer messages with a hosted Gemini model, grounded
// in the product catalog.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var (
	// ErrUnavailable is returned when no API key is configured.
	ErrUnavailable = errors.New("llm: gemini api key not configured")
	// ErrNoCandidates is returned when the model produced no text.
	ErrNoCandidates = errors.New("llm: no response candidates")
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds the Gemini model settings.
type Config struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the default model settings without an API key.
func DefaultConfig() Config {
	return Config{
		Model:       "gemini-2.5-flash",
		Temperature: 0.7,
		MaxTokens:   500,
	}
}

// Gemini is a Generator backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

// NewGemini creates a client for cfg. It fails with ErrUnavailable when
// cfg.APIKey is empty.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultConfig().Model
	}
	return &Gemini{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(cfg.Temperature)),
			MaxOutputTokens: int32(cfg.MaxTokens),
		},
	}, nil
}

// Generate sends prompt as a single user turn and concatenates the text parts
// of the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	content := genai.NewContentFromText(prompt, genai.RoleUser)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{content}, g.config)
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoCandidates
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	if b.Len() == 0 {
		return "", ErrNoCandidates
	}
	return b.String(), nil
}
