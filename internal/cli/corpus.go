package cli

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/amethystkombucha/chatbot"
	"github.com/amethystkombucha/chatbot/internal/corpus"
)

func (c *CLI) newCorpusCommand() *cobra.Command {
	corpusCmd := &cobra.Command{
		Use:   "corpus",
		Short: "Export and inspect the training corpus",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	var customPath string
	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the bundled corpus as JSON",
		Args:  cobra.ExactArgs(1),
		Example: `  chatbot corpus export corpus.json
  chatbot corpus export training-data.json --custom custom.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			original := chatbot.DefaultCorpus()
			if customPath == "" {
				if err := corpus.Save(args[0], original); err != nil {
					return err
				}
				slog.Info("Corpus exported", "path", args[0], "examples", len(original))
				return nil
			}

			custom, err := corpus.Load(customPath)
			if err != nil {
				return err
			}
			if err := corpus.SaveExport(args[0], original, custom); err != nil {
				return err
			}
			slog.Info("Corpus exported", "path", args[0], "original", len(original), "custom", len(custom))
			return nil
		},
	}
	exportCmd.Flags().StringVar(&customPath, "custom", "", "Custom examples to append, written as originalData/customData")

	var statsPath string
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the number of examples per intent",
		Example: `  chatbot corpus stats
  chatbot corpus stats --corpus custom.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			examples, err := loadCorpus(statsPath)
			if err != nil {
				return err
			}
			printDistribution(corpus.Distribution(examples), len(examples))
			return nil
		},
	}
	statsCmd.Flags().StringVar(&statsPath, "corpus", "", "Path to a JSON training corpus (default: bundled corpus)")

	corpusCmd.AddCommand(exportCmd, statsCmd)
	return corpusCmd
}

func printDistribution(dist map[string]int, total int) {
	intents := make([]string, 0, len(dist))
	for intent := range dist {
		intents = append(intents, intent)
	}
	sort.Slice(intents, func(i, j int) bool {
		if dist[intents[i]] != dist[intents[j]] {
			return dist[intents[i]] > dist[intents[j]]
		}
		return intents[i] < intents[j]
	})

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Intent", "Examples", "Share"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, intent := range intents {
		table.Append([]string{
			intent,
			strconv.Itoa(dist[intent]),
			fmt.Sprintf("%.1f%%", float64(dist[intent])/float64(total)*100),
		})
	}
	table.SetFooter([]string{"total", strconv.Itoa(total), ""})
	table.Render()
}
