package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/amethystkombucha/chatbot"
	"github.com/amethystkombucha/chatbot/classifier"
	"github.com/amethystkombucha/chatbot/internal/corpus"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var corpusPath string
	var holdout int
	config := chatbot.DefaultTrainConfig()

	cmd := &cobra.Command{
		Use:   "train <modelfile>",
		Short: "Train the intent classifier and save the model",
		Args:  cobra.ExactArgs(1),
		Example: `  chatbot train model.json
  chatbot train model.json --corpus custom.json --epochs 200 --seed 42
  chatbot train model.json --holdout 5 -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			modelPath := args[0]
			if err := config.Validate(); err != nil {
				return err
			}
			examples, err := loadCorpus(corpusPath)
			if err != nil {
				return err
			}

			slog.Info("Training classifier", "examples", len(examples), "epochs", config.Epochs, "output", modelPath)
			start := time.Now()
			bot, err := chatbot.Train(cmd.Context(), examples, config)
			if err != nil {
				return err
			}
			slog.Debug("Training completed", "duration", time.Since(start))
			slog.Info("Model trained",
				"intents", bot.Intents(),
				"vocab", bot.VocabSize(),
				"accuracy", bot.Accuracy(examples))
			if holdout > 0 {
				slog.Info("Holdout accuracy", "examples", holdout, "accuracy", bot.Accuracy(corpus.Holdout(examples, holdout)))
			}

			if err := bot.Save(modelPath); err != nil {
				return err
			}
			slog.Info("Model saved", "path", modelPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "Path to a JSON training corpus (default: bundled corpus)")
	cmd.Flags().IntVar(&config.Epochs, "epochs", config.Epochs, "Number of training epochs")
	cmd.Flags().Float64Var(&config.LearningRate, "learning-rate", config.LearningRate, "Learning rate")
	cmd.Flags().Uint64Var(&config.Seed, "seed", 0, "Random seed for weight initialization (0: random)")
	cmd.Flags().IntVar(&holdout, "holdout", 5, "Report accuracy on the last n examples")
	return cmd
}

// loadCorpus reads a corpus file, or returns the bundled corpus when path
// is empty.
func loadCorpus(path string) ([]classifier.TrainingExample, error) {
	if path == "" {
		return chatbot.DefaultCorpus(), nil
	}
	slog.Debug("Loading corpus", "path", path)
	return corpus.Load(path)
}

func trainInBackground(ctx context.Context, clf *classifier.IntentClassifier, examples []classifier.TrainingExample, config classifier.TrainConfig) {
	go func() {
		start := time.Now()
		if err := clf.Train(ctx, examples, config); err != nil {
			slog.Error("Training failed, answering with the fallback intent", "error", err)
			return
		}
		slog.Info("Classifier ready",
			"intents", clf.Intents(),
			"vocab", clf.VocabSize(),
			"accuracy", clf.Accuracy(examples),
			"duration", time.Since(start))
	}()
}
