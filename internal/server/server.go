// Package server exposes the chatbot over HTTP for the storefront chat widget.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/chat"
	"github.com/amethystkombucha/chatbot/internal/eventlog"
)

// ErrorMessage is shown to customers when a request cannot be answered.
const ErrorMessage = "Maaf, terjadi kesalahan. Silakan coba lagi."

const (
	// ReplyTimeout bounds the handling of one chat message.
	ReplyTimeout    = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// ChatHandler answers chat requests.
type ChatHandler interface {
	Handle(ctx context.Context, req chat.Request) (chat.Reply, error)
}

// Classifier labels text and reports whether a model is loaded.
type Classifier interface {
	Classify(text string) classifier.Result
	Trained() bool
}

// EventSource serves chat analytics.
type EventSource interface {
	Stats() (eventlog.Stats, error)
	Session(sessionID string) ([]eventlog.Event, error)
}

// HostedModel classifies and recommends with the hosted language model.
type HostedModel interface {
	ClassifyIntent(ctx context.Context, message string) classifier.Result
	Recommend(ctx context.Context, preferences []string) string
}

// Config is the dependency bag passed to New. Events and Hosted are optional.
type Config struct {
	Mode       string
	Chat       ChatHandler
	Classifier Classifier
	Events     EventSource
	Hosted     HostedModel
	Logger     *slog.Logger
}

// Server holds the HTTP routes.
type Server struct {
	gin        *gin.Engine
	chat       ChatHandler
	classifier Classifier
	events     EventSource
	hosted     HostedModel
	log        *slog.Logger
}

// New builds a Server with all routes registered.
func New(cfg Config) (*Server, error) {
	if cfg.Chat == nil || cfg.Classifier == nil {
		return nil, errors.New("server: chat handler and classifier are required")
	}
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	srv := &Server{
		gin:        gin.New(),
		chat:       cfg.Chat,
		classifier: cfg.Classifier,
		events:     cfg.Events,
		hosted:     cfg.Hosted,
		log:        cfg.Logger,
	}
	srv.gin.Use(gin.Recovery(), srv.requestLogger())
	srv.mapHandlers()
	return srv, nil
}

func (srv *Server) mapHandlers() {
	srv.gin.GET("/health", srv.healthCheck)
	srv.gin.GET("/ready", srv.readyCheck)

	api := srv.gin.Group("/api")
	api.POST("/chatbot", srv.handleChat)
	api.POST("/classify", srv.handleClassify)
	api.POST("/recommend", srv.handleRecommend)
	api.GET("/stats", srv.handleStats)
	api.GET("/sessions/:id", srv.handleSession)
}

// Handler returns the HTTP handler.
func (srv *Server) Handler() http.Handler {
	return srv.gin
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (srv *Server) Run(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.gin,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		srv.log.Info("HTTP server listening", "addr", addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	srv.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := hs.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (srv *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		srv.log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}
