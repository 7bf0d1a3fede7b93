// Package repl is an interactive console that classifies each line it reads.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/UllasZ/teams-taiga-integration/internal/similarity"
	"github.com/UllasZ/teams-taiga-integration/internal/types"
)

// errQuit ends the loop without an error.
var errQuit = errors.New("quit")

// Classifier is the pipeline surface the console needs.
type Classifier interface {
	Classify(ctx context.Context, message string) types.ClassificationOutcome
}

// REPL represents the interactive shell
type REPL struct {
	classifier  Classifier
	out         io.Writer
	historyFile string
	backendName string
	commands    map[string]CommandHandler
}

// CommandHandler handles a specific slash command
type CommandHandler func(ctx context.Context, args string) error

// Config holds REPL configuration
type Config struct {
	Classifier Classifier

	// Out receives all output. Default: os.Stdout.
	Out io.Writer

	// HistoryFile persists readline history when set.
	HistoryFile string

	// BackendName is shown in the banner, e.g. "taiga" or "memory".
	BackendName string
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg == nil || cfg.Classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}

	r := &REPL{
		classifier:  cfg.Classifier,
		out:         out,
		historyFile: cfg.HistoryFile,
		backendName: cfg.BackendName,
		commands:    make(map[string]CommandHandler),
	}
	r.registerCommands()
	return r, nil
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	cyan := color.New(color.FgCyan).SprintFunc()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            cyan("teams> "),
		HistoryFile:       r.historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "/quit",
		HistorySearchFold: true,
		Stdout:            r.out,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	r.printWelcome()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		if err := r.processInput(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(r.out, "%s %v\n", red("Error:"), err)
		}
	}
}

// processInput handles one line: a slash command or a message to classify.
func (r *REPL) processInput(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if strings.HasPrefix(line, "/") {
		name, args, _ := strings.Cut(line, " ")
		handler, ok := r.commands[name]
		if !ok {
			return fmt.Errorf("unknown command %s (try /help)", name)
		}
		return handler(ctx, strings.TrimSpace(args))
	}

	r.printOutcome(r.classifier.Classify(ctx, line))
	return nil
}

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.commands["/help"] = r.cmdHelp
	r.commands["/?"] = r.cmdHelp
	r.commands["/ratio"] = r.cmdRatio
	r.commands["/quit"] = r.cmdExit
	r.commands["/exit"] = r.cmdExit
}

func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n", cyan("Teams → Taiga console"))
	if r.backendName != "" {
		fmt.Fprintf(r.out, "Backend: %s\n", r.backendName)
	}
	fmt.Fprintln(r.out, "Type a message to classify it, /help for commands, /quit to exit")
	fmt.Fprintln(r.out)
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(context.Context, string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"<message>", "Classify a message and file it if new"},
		{"/ratio a | b", "Show the similarity ratio of two titles"},
		{"/help, /?", "Show this help message"},
		{"/quit, /exit", "Exit the console"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(r.out, "  %-14s %s\n", green(cmd.name), cmd.desc)
	}
	fmt.Fprintln(r.out)
	return nil
}

// cmdRatio prints similarity.Ratio for "a | b".
func (r *REPL) cmdRatio(_ context.Context, args string) error {
	a, b, ok := strings.Cut(args, "|")
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if !ok || a == "" || b == "" {
		return fmt.Errorf("usage: /ratio first title | second title")
	}
	fmt.Fprintf(r.out, "%.4f\n", similarity.Ratio(a, b))
	return nil
}

// cmdExit exits the REPL
func (r *REPL) cmdExit(context.Context, string) error {
	fmt.Fprintln(r.out, "Goodbye!")
	return errQuit
}

func (r *REPL) printOutcome(out types.ClassificationOutcome) {
	var paint func(a ...interface{}) string
	switch {
	case out.Kind.Created():
		paint = color.New(color.FgGreen).SprintFunc()
	case out.Kind == types.OutcomeInternalError:
		paint = color.New(color.FgRed).SprintFunc()
	default:
		paint = color.New(color.FgYellow).SprintFunc()
	}

	fmt.Fprintf(r.out, "%s %s\n", paint("["+string(out.Kind)+"]"), out.Message)
	switch {
	case out.Story != nil:
		fmt.Fprintf(r.out, "  story #%d %q\n", out.Story.ID, out.Story.Title)
	case out.SubItem != nil:
		fmt.Fprintf(r.out, "  sub-task #%d %q under story #%d\n", out.SubItem.ID, out.SubItem.Title, out.ParentStoryID)
	case out.MatchedTitle != "":
		fmt.Fprintf(r.out, "  matches %q\n", out.MatchedTitle)
	}
	if out.Error != "" {
		fmt.Fprintf(r.out, "  %s\n", out.Error)
	}
}
