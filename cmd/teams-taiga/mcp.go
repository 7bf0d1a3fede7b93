package main

import (
	"github.com/spf13/cobra"

	"github.com/UllasZ/teams-taiga-integration/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the pipeline as MCP tools over stdio",
	Long: `Run an MCP server on stdin/stdout exposing:

  classify_message   classify a message and file it if new
  similarity_ratio   score two titles with the duplicate ratio

Logs go to stderr (and --log-file) so they never corrupt the protocol stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		classifier, _, err := openClassifier(cmd.Context())
		if err != nil {
			return err
		}
		s, err := mcpserver.New(classifier, version, logger.Named("mcp"))
		if err != nil {
			return err
		}
		return mcpserver.ServeStdio(s)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
