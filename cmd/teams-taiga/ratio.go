package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/UllasZ/teams-taiga-integration/internal/similarity"
)

var ratioCmd = &cobra.Command{
	Use:   "ratio <a> <b>",
	Short: "Print the similarity ratio of two titles",
	Long: `Print the case-insensitive similarity ratio used for duplicate detection,
and whether it clears the configured story and sub-task thresholds.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score := similarity.Ratio(args[0], args[1])
		fmt.Printf("%.4f\n", score)

		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		verdict := func(threshold float64) string {
			if score > threshold {
				return green("duplicate")
			}
			return gray("distinct")
		}
		fmt.Printf("  story    > %.2f: %s\n", cfg.Dedup.StoryThreshold, verdict(cfg.Dedup.StoryThreshold))
		fmt.Printf("  sub-task > %.2f: %s\n", cfg.Dedup.SubItemThreshold, verdict(cfg.Dedup.SubItemThreshold))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ratioCmd)
}
