package main

import (
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/UllasZ/teams-taiga-integration/internal/repl"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive console",
	Long: `Start an interactive console. Each line is classified and filed like a
chat message. Use /ratio a | b to compare two titles and /quit to leave.

Combine with --dry-run to experiment without touching Taiga.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		classifier, backendName, err := openClassifier(ctx)
		if err != nil {
			return err
		}

		history := ""
		if home, err := os.UserHomeDir(); err == nil {
			history = filepath.Join(home, ".teams-taiga_history")
		}

		r, err := repl.New(&repl.Config{
			Classifier:  classifier,
			HistoryFile: history,
			BackendName: backendName,
		})
		if err != nil {
			return err
		}
		return r.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
