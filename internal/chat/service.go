// Package chat routes customer messages between the local intent classifier
// and the hosted language model.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/catalog"
	"github.com/amethystkombucha/chatbot/internal/eventlog"
	"github.com/amethystkombucha/chatbot/internal/llm"
	"github.com/amethystkombucha/chatbot/internal/textutil"
)

// Provider names which engine produced a reply.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGemini Provider = "gemini"
	ProviderHybrid Provider = "hybrid"
)

// MaxMessageLength bounds a customer message, in characters.
const MaxMessageLength = 1000

// ErrInvalidRequest wraps request validation failures.
var ErrInvalidRequest = errors.New("chat: invalid request")

// Classifier labels a message with an intent.
type Classifier interface {
	Classify(text string) classifier.Result
}

// Responder writes an answer with the hosted model.
type Responder interface {
	Reply(ctx context.Context, message, intent string) (llm.Response, error)
}

// EventSink records answered messages.
type EventSink interface {
	Append(e eventlog.Event) (eventlog.Event, error)
}

// Request is one customer message.
type Request struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message" validate:"required,max=1000"`
}

// Reply is the answer sent back to the chat widget.
type Reply struct {
	Answer     string    `json:"answer"`
	Confidence float64   `json:"confidence"`
	Intent     string    `json:"intent"`
	Timestamp  time.Time `json:"timestamp"`
	SessionID  string    `json:"sessionId"`
	Provider   Provider  `json:"aiProvider"`
}

// Config controls routing.
type Config struct {
	// Provider is local, gemini or hybrid.
	Provider Provider
	// MinConfidence is the classifier confidence below which the local
	// answer is the generic fallback.
	MinConfidence float64
	CacheSize     int
	CacheTTL      time.Duration
}

// DefaultConfig returns hybrid routing with a 0.6 confidence threshold.
func DefaultConfig() Config {
	return Config{
		Provider:      ProviderHybrid,
		MinConfidence: 0.6,
		CacheSize:     256,
		CacheTTL:      time.Hour,
	}
}

// Deps are the collaborators of a Service. Responder and Events are optional.
type Deps struct {
	Classifier Classifier
	Responder  Responder
	Catalog    *catalog.Catalog
	Events     EventSink
	Logger     *slog.Logger
}

// Service answers chat requests.
type Service struct {
	deps     Deps
	cfg      Config
	cache    *expirable.LRU[string, llm.Response]
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds a Service. It fails on an unknown provider or a missing
// classifier or catalog.
func NewService(deps Deps, cfg Config) (*Service, error) {
	switch cfg.Provider {
	case ProviderLocal, ProviderGemini, ProviderHybrid:
	default:
		return nil, fmt.Errorf("chat: unknown provider %q", cfg.Provider)
	}
	if deps.Classifier == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("chat: classifier and catalog are required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	return &Service{
		deps:     deps,
		cfg:      cfg,
		cache:    expirable.NewLRU[string, llm.Response](cfg.CacheSize, nil, cfg.CacheTTL),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// Handle answers req. The only error is ErrInvalidRequest; every other
// failure degrades to a local answer.
func (s *Service) Handle(ctx context.Context, req Request) (Reply, error) {
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validate.Struct(req); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if strings.TrimSpace(req.SessionID) == "" {
		req.SessionID = "session_" + uuid.NewString()
	}

	result := s.deps.Classifier.Classify(req.Message)
	reply := Reply{
		Intent:     result.Intent,
		Confidence: result.Confidence,
		SessionID:  req.SessionID,
		Provider:   ProviderLocal,
	}

	switch s.cfg.Provider {
	case ProviderLocal:
		reply.Answer = s.localAnswer(req.Message, result)
	case ProviderGemini:
		s.answer(ctx, &reply, req.Message, result, ProviderGemini)
	case ProviderHybrid:
		if text, ok := CatalogReply(s.deps.Catalog, req.Message, result.Intent); ok && result.Confidence >= s.cfg.MinConfidence {
			reply.Answer = text
		} else {
			s.answer(ctx, &reply, req.Message, result, ProviderHybrid)
		}
	}

	reply.Timestamp = s.now()
	s.record(req.Message, reply)
	return reply, nil
}

// answer tries the hosted model and falls back to the local answer.
func (s *Service) answer(ctx context.Context, reply *Reply, message string, result classifier.Result, provider Provider) {
	resp, err := s.hosted(ctx, message, result.Intent)
	if err != nil {
		s.deps.Logger.Warn("Hosted reply failed, answering locally", "error", err, "intent", result.Intent)
		reply.Answer = s.localAnswer(message, result)
		return
	}
	reply.Answer = resp.Text
	reply.Confidence = resp.Confidence
	reply.Provider = provider
}

func (s *Service) hosted(ctx context.Context, message, intent string) (llm.Response, error) {
	if s.deps.Responder == nil {
		return llm.Response{}, llm.ErrUnavailable
	}
	key := intent + "|" + textutil.Normalize(message)
	if resp, ok := s.cache.Get(key); ok {
		return resp, nil
	}
	resp, err := s.deps.Responder.Reply(ctx, message, intent)
	if err != nil {
		return llm.Response{}, err
	}
	s.cache.Add(key, resp)
	return resp, nil
}

func (s *Service) localAnswer(message string, result classifier.Result) string {
	if result.Confidence < s.cfg.MinConfidence {
		return FallbackReply
	}
	if text, ok := CatalogReply(s.deps.Catalog, message, result.Intent); ok {
		return text
	}
	return TemplateReply(s.deps.Catalog, result.Intent)
}

func (s *Service) record(message string, reply Reply) {
	if s.deps.Events == nil {
		return
	}
	_, err := s.deps.Events.Append(eventlog.Event{
		SessionID:     reply.SessionID,
		At:            reply.Timestamp,
		Intent:        reply.Intent,
		Confidence:    reply.Confidence,
		Provider:      string(reply.Provider),
		MessageLength: utf8.RuneCountInString(message),
	})
	if err != nil {
		s.deps.Logger.Warn("Cannot record chat event", "session", reply.SessionID, "error", err)
	}
}
