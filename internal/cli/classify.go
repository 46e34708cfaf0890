package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amethystkombucha/chatbot"
)

type classifyOutput struct {
	Text       string             `json:"text"`
	Intent     string             `json:"intent"`
	Confidence float64            `json:"confidence"`
	Proba      map[string]float64 `json:"proba,omitempty"`
	Answer     string             `json:"answer,omitempty"`
}

func (c *CLI) newClassifyCommand() *cobra.Command {
	var modelPath string
	var proba bool
	var answer bool

	cmd := &cobra.Command{
		Use:   "classify [text...]",
		Short: "Classify messages given as arguments or one per line on stdin",
		Example: `  # Classify one message
  chatbot classify "berapa harga kombucha original?"

  # Classify messages from a file, one per line
  cat messages.txt | chatbot classify

  # Show scores for every intent and the local reply
  chatbot classify "halo" --proba --answer

  # Use custom model file
  chatbot classify "halo" --model custom.json -s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var texts []string
			if len(args) == 0 {
				if isStdinTerminal() {
					return cmd.Help()
				}
				var err error
				texts, err = readLines(os.Stdin)
				if err != nil {
					return err
				}
			} else {
				texts = []string{strings.Join(args, " ")}
			}

			start := time.Now()
			bot, err := loadBot(modelPath)
			if err != nil {
				return err
			}
			slog.Debug("Model loaded", "duration", time.Since(start))

			results := make([]classifyOutput, len(texts))
			for i, text := range texts {
				r := bot.Classify(text)
				results[i] = classifyOutput{Text: text, Intent: r.Intent, Confidence: r.Confidence}
				if proba {
					results[i].Proba = bot.ClassifyProba(text)
				}
				if answer {
					results[i].Answer = bot.Answer(r, text)
				}
			}

			output, _ := json.MarshalIndent(results, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "", "Path to model file (default: model.json found upwards, else train on the bundled corpus)")
	cmd.Flags().BoolVar(&proba, "proba", false, "Show scores for every intent")
	cmd.Flags().BoolVar(&answer, "answer", false, "Include the local reply")
	return cmd
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return lines, nil
}

func loadBot(modelPath string) (*chatbot.Bot, error) {
	if modelPath != "" {
		slog.Debug("Loading custom model", "path", modelPath)
		return chatbot.Load(modelPath)
	}

	bot, err := chatbot.New()
	if !errors.Is(err, chatbot.ErrModelNotFound) {
		return bot, err
	}

	slog.Info("Model not found, training on the bundled corpus")
	return chatbot.Train(context.Background(), nil, nil)
}
