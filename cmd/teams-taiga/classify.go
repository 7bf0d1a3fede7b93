package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Classify one message and file it if new",
	Long: `Run a single message through the pipeline, exactly as the webhook would.

Examples:
  teams-taiga classify "Login page times out on Safari"
  teams-taiga --dry-run classify --json "Add OAuth support"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		classifier, _, err := openClassifier(cmd.Context())
		if err != nil {
			return err
		}

		out := classifier.Classify(cmd.Context(), strings.Join(args, " "))

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
		} else {
			printOutcome(out)
		}

		if out.Kind == types.OutcomeInternalError {
			return errExitCode(2)
		}
		return nil
	},
}

func printOutcome(out types.ClassificationOutcome) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	switch {
	case out.Kind.Created():
		fmt.Printf("%s %s\n", green("✓"), out.Message)
	case out.Kind == types.OutcomeInternalError:
		fmt.Printf("%s %s\n", red("✗"), out.Message)
	default:
		fmt.Printf("%s %s\n", yellow("•"), out.Message)
	}

	if out.Story != nil {
		fmt.Printf("  story #%d (ref %d): %s\n", out.Story.ID, out.Story.Ref, out.Story.Title)
	}
	if out.SubItem != nil {
		fmt.Printf("  sub-task #%d under story #%d: %s\n", out.SubItem.ID, out.ParentStoryID, out.SubItem.Title)
	}
	if out.MatchedTitle != "" && out.SubItem == nil {
		fmt.Printf("  matched: %s\n", out.MatchedTitle)
	}
	if out.Error != "" {
		fmt.Printf("  %s\n", red(out.Error))
	}
	fmt.Printf("  %s\n", gray(fmt.Sprintf("request %s in %s", out.RequestID, out.Elapsed.Round(time.Millisecond))))
}

func init() {
	classifyCmd.Flags().Bool("json", false, "Print the outcome as JSON")
	rootCmd.AddCommand(classifyCmd)
}
