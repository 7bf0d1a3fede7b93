package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/UllasZ/teams-taiga-integration/internal/teams"
	"github.com/UllasZ/teams-taiga-integration/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook server",
	Long: `Serve the HTTP endpoints chat integrations post to:

  POST /teams/webhook      {"text": "...", "token": "..."}
  POST /taiga/create-task  {"title": "...", "description": "..."}
  POST /teams/mock         {"team_name": "...", "taiga_task_id": 42}
  GET  /teams/mock/{id}
  GET  /healthz

When TEAMS_SECRET is set, webhook posts must carry it as "token".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		classifier, backendName, err := openClassifier(ctx)
		if err != nil {
			return err
		}

		addr, _ := cmd.Flags().GetString("addr")
		wc := webhook.DefaultConfig()
		wc.Addr = cfg.Server.ListenAddr
		if addr != "" {
			wc.Addr = addr
		}
		wc.Secret = cfg.Server.TeamsSecret
		wc.Logger = logger.Named("webhook")
		if wc.Secret == "" {
			logger.Warn("TEAMS_SECRET not set; webhook accepts unauthenticated posts")
		}

		srv, err := webhook.NewServer(wc, classifier, teams.NewStore())
		if err != nil {
			return err
		}
		if err := srv.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Listening on %s (backend: %s)\n", green("✓"), srv.Addr(), backendName)

		<-ctx.Done()
		logger.Info("shutting down", zap.Error(context.Cause(ctx)))
		return srv.Stop()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides LISTEN_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
