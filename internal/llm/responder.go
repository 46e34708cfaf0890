package llm

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/catalog"
)

// RecommendationFallback is returned when no recommendation could be generated.
const RecommendationFallback = "Maaf, saya tidak dapat memberikan rekomendasi saat ini. Silakan hubungi customer service kami."

// MaxConfidence caps the heuristic confidence of a generated reply.
const MaxConfidence = 0.95

// Intents the model may answer in ClassifyIntent.
var Intents = []string{"product", "faq", "benefits", "greeting", "general"}

var benefitKeywords = []string{"probiotik", "antioksidan", "sistem imun", "pencernaan", "vitamin"}

// Response is a generated reply with its heuristic confidence.
type Response struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Responder answers customer messages through a Generator.
type Responder struct {
	gen Generator
	cat *catalog.Catalog
}

// NewResponder returns a Responder grounded in cat.
func NewResponder(gen Generator, cat *catalog.Catalog) *Responder {
	return &Responder{gen: gen, cat: cat}
}

// Reply generates an answer to message using the knowledge-base prompt for
// intent.
func (r *Responder) Reply(ctx context.Context, message, intent string) (Response, error) {
	text, err := r.gen.Generate(ctx, BuildPrompt(r.cat, message, intent))
	if err != nil {
		return Response{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Response{}, ErrNoCandidates
	}
	return Response{Text: text, Confidence: Confidence(r.cat, text)}, nil
}

// ClassifyIntent asks the model for the intent of message. Any failure yields
// the classifier fallback result.
func (r *Responder) ClassifyIntent(ctx context.Context, message string) classifier.Result {
	text, err := r.gen.Generate(ctx, IntentPrompt(message))
	if err != nil {
		slog.Warn("Intent classification failed", "error", err)
		return fallbackResult()
	}
	res, err := ParseIntent(text)
	if err != nil {
		slog.Warn("Cannot parse intent reply", "reply", text, "error", err)
		return fallbackResult()
	}
	return res
}

// Recommend suggests products for the given preferences.
func (r *Responder) Recommend(ctx context.Context, preferences []string) string {
	resp, err := r.Reply(ctx, RecommendationPrompt(r.cat, preferences), "product")
	if err != nil {
		slog.Warn("Recommendation failed", "error", err)
		return RecommendationFallback
	}
	return resp.Text
}

func fallbackResult() classifier.Result {
	return classifier.Result{Intent: classifier.FallbackIntent, Confidence: classifier.FallbackConfidence}
}

// ParseIntent reads an "intent|confidence" reply, tolerating markdown fences
// and trailing text. A missing, unreadable or zero confidence counts as 0.5;
// the value is clamped to [0, 1].
func ParseIntent(reply string) (classifier.Result, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)

	line, _, _ := strings.Cut(reply, "\n")
	name, conf, _ := strings.Cut(line, "|")
	intent := strings.ToLower(strings.Trim(strings.TrimSpace(name), "[]"))
	if !slices.Contains(Intents, intent) {
		return classifier.Result{}, fmt.Errorf("llm: unknown intent %q", intent)
	}

	confidence := classifier.FallbackConfidence
	fields := strings.Fields(strings.Trim(strings.TrimSpace(conf), "[]"))
	if len(fields) > 0 {
		if v, err := strconv.ParseFloat(fields[0], 64); err == nil && v != 0 && !math.IsNaN(v) {
			confidence = v
		}
	}
	return classifier.Result{Intent: intent, Confidence: min(max(confidence, 0), 1)}, nil
}

// Confidence scores a generated reply by how much catalog knowledge it uses:
// 0.5 base, +0.2 for a product name, +0.15 for a benefit keyword, +0.1 for a
// length strictly between 50 and 300 characters, +0.05 for sentence
// punctuation, capped at MaxConfidence.
func Confidence(cat *catalog.Catalog, reply string) float64 {
	lower := strings.ToLower(reply)
	score := 0.5

	for _, p := range cat.Products {
		if strings.Contains(lower, strings.ToLower(p.Name)) {
			score += 0.2
			break
		}
	}

	keywords := append(slices.Clone(benefitKeywords), lowerTitles(cat)...)
	if containsAny(lower, keywords...) {
		score += 0.15
	}

	if n := utf8.RuneCountInString(reply); n > 50 && n < 300 {
		score += 0.1
	}
	if strings.ContainsAny(reply, "?.") {
		score += 0.05
	}
	return min(score, MaxConfidence)
}

func lowerTitles(cat *catalog.Catalog) []string {
	out := make([]string, len(cat.Benefits))
	for i, b := range cat.Benefits {
		out[i] = strings.ToLower(b.Title)
	}
	return out
}
