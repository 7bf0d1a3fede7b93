package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/UllasZ/teams-taiga-integration/internal/ai"
	"github.com/UllasZ/teams-taiga-integration/internal/priorities"
	"github.com/UllasZ/teams-taiga-integration/internal/taiga"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and connectivity",
	Long: `Run checks that diagnose common setup problems.

This command checks for:
- Required Taiga settings
- Taiga login and project lookup
- Project statuses and priorities
- Text generation backend reachability
- Webhook secret

Exit codes:
  0 - All checks passed
  1 - One or more checks failed (but not critical)
  2 - Critical failures that prevent the bridge from running`,
	RunE: func(cmd *cobra.Command, args []string) error {
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		fmt.Printf("Running teams-taiga health checks...\n\n")

		var failures, warnings, critical []string

		// Check 1: settings
		fmt.Printf("%s Taiga settings\n", cyan("→"))
		if err := cfg.RequireTaiga(); err != nil {
			critical = append(critical, err.Error())
			fmt.Printf("  %s %v\n", red("✗"), err)
		} else {
			fmt.Printf("  %s %s project %q as %s\n", green("✓"), cfg.Taiga.APIURL, cfg.Taiga.ProjectSlug, cfg.Taiga.Username)
		}

		// Check 2: login and project
		if len(critical) == 0 {
			fmt.Printf("%s Taiga connectivity\n", cyan("→"))
			tc := cfg.TaigaClientConfig()
			tc.Logger = logger.Named("taiga")
			client, err := taiga.NewClient(tc)
			if err != nil {
				critical = append(critical, err.Error())
				fmt.Printf("  %s %v\n", red("✗"), err)
			} else if projectID, err := client.GetProjectID(ctx); err != nil {
				critical = append(critical, fmt.Sprintf("project lookup: %v", err))
				fmt.Printf("  %s Project lookup failed: %v\n", red("✗"), err)
			} else {
				fmt.Printf("  %s Logged in (%d token fetches); project id %d\n", green("✓"), client.Tokens().Logins(), projectID)

				// Check 3: reference data
				fmt.Printf("%s Project reference data\n", cyan("→"))
				if statuses, err := client.ListStoryStatuses(ctx, projectID); err != nil || len(statuses) == 0 {
					critical = append(critical, "no user story statuses")
					fmt.Printf("  %s No user story statuses (%v)\n", red("✗"), err)
				} else {
					fmt.Printf("  %s %d user story statuses; new stories start in %q\n", green("✓"), len(statuses), statuses[0].Name)
				}
				if statuses, err := client.ListTaskStatuses(ctx, projectID); err != nil || len(statuses) == 0 {
					critical = append(critical, "no task statuses")
					fmt.Printf("  %s No task statuses (%v)\n", red("✗"), err)
				} else {
					fmt.Printf("  %s %d task statuses\n", green("✓"), len(statuses))
				}
				if prios, err := client.ListPriorities(ctx, projectID); err != nil || len(prios) == 0 {
					warnings = append(warnings, "no priorities; items will be created without one")
					fmt.Printf("  %s No priorities\n", yellow("⚠"))
				} else {
					fmt.Printf("  %s %d priorities: %s\n", green("✓"), len(prios),
						strings.Join(priorities.Names(priorities.Sorted(prios)), ", "))
				}
			}
		}

		// Check 4: generator
		fmt.Printf("%s Text generation (%s)\n", cyan("→"), cfg.Provider().Provider)
		if cfg.AI.Provider == ai.ProviderNone {
			warnings = append(warnings, "text generation disabled; only similarity ratio is used")
			fmt.Printf("  %s Disabled\n", yellow("⚠"))
		} else if gen, err := openGenerator(ctx); err != nil {
			failures = append(failures, err.Error())
			fmt.Printf("  %s %v\n", red("✗"), err)
		} else if reply, err := gen.GenerateText(ai.WithOperation(ctx, "doctor"), "Reply with the single word OK."); err != nil {
			failures = append(failures, fmt.Sprintf("generator unreachable: %v", err))
			fmt.Printf("  %s Unreachable: %v\n", red("✗"), err)
		} else {
			fmt.Printf("  %s Replied %q\n", green("✓"), truncate(reply, 40))
		}

		// Check 5: webhook secret
		fmt.Printf("%s Webhook secret\n", cyan("→"))
		if cfg.Server.TeamsSecret == "" {
			warnings = append(warnings, "TEAMS_SECRET not set")
			fmt.Printf("  %s TEAMS_SECRET not set\n", yellow("⚠"))
		} else {
			fmt.Printf("  %s Set\n", green("✓"))
		}

		fmt.Println()
		for _, w := range warnings {
			fmt.Printf("%s %s\n", yellow("⚠"), w)
		}
		for _, f := range append(critical, failures...) {
			fmt.Printf("%s %s\n", red("✗"), f)
		}
		switch {
		case len(critical) > 0:
			fmt.Printf("\n%s Critical failures prevent the bridge from running\n", red("✗"))
			return errExitCode(2)
		case len(failures) > 0:
			fmt.Printf("\n%s Some checks failed\n", yellow("⚠"))
			return errExitCode(1)
		}
		fmt.Printf("%s All checks passed\n", green("✓"))
		return nil
	},
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
