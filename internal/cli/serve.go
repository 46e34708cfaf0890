package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/catalog"
	"github.com/amethystkombucha/chatbot/internal/chat"
	"github.com/amethystkombucha/chatbot/internal/config"
	"github.com/amethystkombucha/chatbot/internal/corpus"
	"github.com/amethystkombucha/chatbot/internal/eventlog"
	"github.com/amethystkombucha/chatbot/internal/llm"
	"github.com/amethystkombucha/chatbot/internal/server"
)

func (c *CLI) newServeCommand() *cobra.Command {
	var configPath string
	var modelPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API",
		Example: `  chatbot serve
  chatbot serve --config chatbot.yaml
  CHATBOT_CHAT_PROVIDER=local chatbot serve --model model.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, modelPath)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to config file (default: ./chatbot.yaml if present)")
	cmd.Flags().StringVar(&modelPath, "model", "", "Serve a trained model file instead of training at startup")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, modelPath string) error {
	cat, err := loadCatalog(ctx, cfg.Catalog)
	if err != nil {
		return err
	}

	clf, err := startClassifier(ctx, cfg, cat, modelPath)
	if err != nil {
		return err
	}

	events, err := eventlog.Open(cfg.EventLog.Path, cfg.EventLog.InMemory, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if err := events.Close(); err != nil {
			slog.Error("Cannot close event log", "error", err)
		}
	}()

	var responder *llm.Responder
	gen, err := llm.NewGemini(ctx, cfg.Gemini)
	switch {
	case errors.Is(err, llm.ErrUnavailable):
		slog.Warn("Gemini API key not set, answering locally only")
	case err != nil:
		return err
	default:
		responder = llm.NewResponder(gen, cat)
		slog.Info("Gemini responder enabled", "model", cfg.Gemini.Model)
	}

	deps := chat.Deps{Classifier: clf, Catalog: cat, Events: events}
	if responder != nil {
		deps.Responder = responder
	}
	svc, err := chat.NewService(deps, cfg.Chat)
	if err != nil {
		return err
	}

	srvCfg := server.Config{
		Mode:       cfg.HTTP.Mode,
		Chat:       svc,
		Classifier: clf,
		Events:     events,
	}
	if responder != nil {
		srvCfg.Hosted = responder
	}
	srv, err := server.New(srvCfg)
	if err != nil {
		return err
	}
	return srv.Run(ctx, cfg.HTTP.Addr)
}

func loadCatalog(ctx context.Context, cfg config.CatalogConfig) (*catalog.Catalog, error) {
	if cfg.URL == "" {
		return catalog.Default(), nil
	}
	slog.Info("Loading catalog from storefront", "url", cfg.URL, "render", cfg.Render)
	cat, err := catalog.Fetch(ctx, cfg.URL, cfg.Render)
	if err != nil {
		return nil, err
	}
	slog.Info("Catalog loaded", "products", len(cat.Products))
	return cat, nil
}

// startClassifier loads modelPath when given. Otherwise it trains on the
// configured corpus in the background; until training finishes the server
// answers with the fallback intent and /ready reports training.
func startClassifier(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, modelPath string) (*classifier.IntentClassifier, error) {
	if modelPath != "" {
		clf, err := classifier.LoadModel(modelPath)
		if err != nil {
			return nil, err
		}
		slog.Info("Model loaded", "path", modelPath, "intents", clf.Intents())
		return clf, nil
	}

	examples := corpus.Default(cat)
	if cfg.Training.Corpus != "" {
		var err error
		if examples, err = corpus.Load(cfg.Training.Corpus); err != nil {
			return nil, err
		}
	}
	clf := classifier.New()
	trainInBackground(ctx, clf, examples, cfg.Training.TrainConfig)
	return clf, nil
}
