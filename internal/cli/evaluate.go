package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/amethystkombucha/chatbot"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var corpusPath string
	var cvFolds int
	config := chatbot.DefaultTrainConfig()

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate classifier accuracy via stratified cross-validation",
		Example: `  chatbot evaluate --cv 5
  chatbot evaluate --corpus custom.json --cv 10 --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			examples, err := loadCorpus(corpusPath)
			if err != nil {
				return err
			}

			slog.Info("Evaluating", "folds", cvFolds, "examples", len(examples))
			start := time.Now()
			result, err := chatbot.Evaluate(cmd.Context(), examples, &chatbot.EvalConfig{
				Folds:       cvFolds,
				TrainConfig: *config,
			})
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			fmt.Printf("Intent accuracy: %.1f%% (%d/%d)\n", result.Accuracy*100, result.Correct, result.Total)
			printConfusionMatrix(os.Stdout, result.Confusion, result.Intents)
			return nil
		},
	}

	cmd.Flags().StringVar(&corpusPath, "corpus", "", "Path to a JSON training corpus (default: bundled corpus)")
	cmd.Flags().IntVar(&cvFolds, "cv", 5, "Number of cross-validation folds")
	cmd.Flags().IntVar(&config.Epochs, "epochs", config.Epochs, "Number of training epochs per fold")
	cmd.Flags().Float64Var(&config.LearningRate, "learning-rate", config.LearningRate, "Learning rate")
	cmd.Flags().Uint64Var(&config.Seed, "seed", 0, "Random seed for weight initialization (0: random)")
	return cmd
}

// printConfusionMatrix renders rows of true intents against predicted
// columns, with per-row total and recall. Rows are ordered by support.
func printConfusionMatrix(w io.Writer, confusion map[string]map[string]int, intents []string) {
	if len(confusion) == 0 {
		return
	}

	classes := make([]string, len(intents))
	copy(classes, intents)
	// Predictions outside the known intents, e.g. the fallback, get a column.
	for _, row := range confusion {
		for pred := range row {
			if !slices.Contains(classes, pred) {
				classes = append(classes, pred)
			}
		}
	}

	support := func(cls string) int {
		total := 0
		for _, v := range confusion[cls] {
			total += v
		}
		return total
	}
	rows := make([]string, len(intents))
	copy(rows, intents)
	sort.SliceStable(rows, func(i, j int) bool { return support(rows[i]) > support(rows[j]) })

	fmt.Fprintf(w, "\nConfusion matrix (rows=true, cols=predicted):\n")
	table := tablewriter.NewWriter(w)
	table.SetHeader(append(append([]string{""}, classes...), "total", "acc%"))
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)

	for _, trueClass := range rows {
		line := []string{trueClass}
		for _, predClass := range classes {
			count := confusion[trueClass][predClass]
			if count == 0 {
				line = append(line, ".")
			} else {
				line = append(line, strconv.Itoa(count))
			}
		}
		total := support(trueClass)
		acc := 0.0
		if total > 0 {
			acc = float64(confusion[trueClass][trueClass]) / float64(total) * 100
		}
		line = append(line, strconv.Itoa(total), fmt.Sprintf("%.1f", acc))
		table.Append(line)
	}
	table.Render()
}
