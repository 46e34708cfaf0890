package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"github.com/amethystkombucha/chatbot"
)

const repositorySlug = "amethystkombucha/chatbot"

func (c *CLI) newUpCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Self-update to the latest release",
		Example: `  chatbot up
  chatbot up --check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.selfUpdate(cmd.Context(), check)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Only report whether a newer release exists")
	return cmd
}

func (c *CLI) selfUpdate(ctx context.Context, check bool) error {
	current := c.version
	if current == "dev" {
		current = "0.0.0"
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(repositorySlug))
	if err != nil {
		return fmt.Errorf("detect latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", repositorySlug)
	}
	if latest.LessOrEqual(current) {
		fmt.Printf("chatbot %s is the latest release\n", c.version)
		return nil
	}
	if check {
		fmt.Printf("chatbot %s is available (running %s)\n", latest.Version(), c.version)
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return err
	}
	slog.Info("Updating chatbot", "from", c.version, "to", latest.Version(), "binary", exe)
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update: %w", err)
	}
	fmt.Printf("Updated chatbot to %s\n", latest.Version())

	reportModel(os.Stdout, latest.Version())
	return nil
}

// reportModel points at the model file the updated binary will pick up.
// Models are plain JSON and survive updates, but a release that changes the
// bundled corpus needs a retrain to pick it up.
func reportModel(w io.Writer, version string) {
	path, err := chatbot.FindModel()
	switch {
	case errors.Is(err, chatbot.ErrModelNotFound):
		fmt.Fprintln(w, "No model.json found; classify and serve train on the bundled corpus.")
	case err != nil:
		slog.Warn("Cannot look up model file", "error", err)
	default:
		fmt.Fprintf(w, "Model in use: %s\nRun `chatbot train %s` to retrain it on the %s corpus.\n", path, path, version)
	}
}
