// Package console is the interactive operator surface: a colored REPL
// that drives one dispatch session in-process, from loading the
// network through adjudicating conflicts.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"railwatch/internal/analysis"
	"railwatch/internal/config"
	"railwatch/internal/logging"
	"railwatch/internal/session"
	"railwatch/pkg/types"
)

// Command is one line the operator ran, kept for the history listing.
type Command struct {
	Input     string
	Timestamp time.Time
}

// Console wraps a session with a read-eval-print loop.
type Console struct {
	cfg      *config.Config
	sess     *session.Session
	analyzer *analysis.Analyzer
	logger   logging.Logger

	input   io.Reader
	output  io.Writer
	history []Command

	promptColor *color.Color
	okColor     *color.Color
	errorColor  *color.Color
	infoColor   *color.Color
}

// New creates a console bound to stdin/stdout.
func New(cfg *config.Config, sess *session.Session, analyzer *analysis.Analyzer, logger logging.Logger) *Console {
	return &Console{
		cfg:         cfg,
		sess:        sess,
		analyzer:    analyzer,
		logger:      logger,
		input:       os.Stdin,
		output:      os.Stdout,
		promptColor: color.New(color.FgCyan, color.Bold),
		okColor:     color.New(color.FgGreen),
		errorColor:  color.New(color.FgRed),
		infoColor:   color.New(color.FgYellow),
	}
}

// Run reads commands until exit, EOF, or context cancellation.
func (c *Console) Run(ctx context.Context) error {
	c.printWelcome()

	scanner := bufio.NewScanner(c.input)
	for {
		select {
		case <-ctx.Done():
			c.printInfo("Shutting down...")
			return nil
		default:
		}

		c.showPrompt()
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			c.printInfo("Goodbye.")
			return nil
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		c.history = append(c.history, Command{Input: input, Timestamp: time.Now()})

		output, err := c.Execute(ctx, input)
		if err == io.EOF {
			c.printInfo("Goodbye.")
			return nil
		}
		if err != nil {
			c.printError("Error: " + err.Error())
			continue
		}
		if output != "" {
			fmt.Fprintln(c.output, output)
		}
	}
}

// Execute dispatches a single command line and returns its output.
// io.EOF means the operator asked to leave.
func (c *Console) Execute(ctx context.Context, input string) (string, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "", nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "help", "?":
		c.printHelp()
		return "", nil

	case "exit", "quit", "q":
		return "", io.EOF

	case "load":
		return c.cmdLoad()

	case "generate", "gen":
		return c.cmdGenerate(args)

	case "add":
		return c.cmdAdd(args)

	case "detect":
		return c.cmdDetect(ctx)

	case "conflicts":
		return c.cmdConflicts()

	case "register":
		return c.cmdTransition(args, "register")

	case "confirm":
		return c.cmdTransition(args, "confirm")

	case "proceed":
		return c.cmdProceed()

	case "analyze":
		return c.cmdAnalyze(ctx, args)

	case "recs", "recommendations":
		return c.cmdRecommendations()

	case "accept":
		return c.cmdAccept(args)

	case "status":
		return c.cmdStatus()

	case "export":
		return c.cmdExport()

	case "history", "hist":
		return c.cmdHistory()

	default:
		return "", fmt.Errorf("unknown command: %s (try help)", command)
	}
}

func (c *Console) printWelcome() {
	banner := `
╔══════════════════════════════════════════════════════════════╗
║                railwatch - operator console                  ║
║                                                              ║
║   Schedule simulation, conflict detection and adjudication   ║
╚══════════════════════════════════════════════════════════════╝
`
	c.infoColor.Fprintln(c.output, banner)
	c.printInfo("Type help for available commands")
}

func (c *Console) printHelp() {
	help := `
Network and schedule:
  load                       Load stations and sections from the configured CSVs
  generate [n] [start-iso]   Simulate n trains over the loaded network
  add <id> <code> <code...>  Book an itinerary over a station chain
                             (options: start=<iso> priority=<High|Medium|Low>)

Conflicts:
  detect                     Sweep the schedule for block conflicts
  conflicts                  List the tracked conflicts
  register <n|id>            Acknowledge a detected conflict
  confirm <n|id>             Lock in a registered conflict
  proceed                    Check whether every conflict is registered

Recommendations:
  analyze <file>             Run a what-if scenario from a JSON file
  recs                       List active recommendations
  accept <n|id>              Accept a recommendation

Console:
  status                     Session summary
  export                     Write station, section and schedule CSVs
  history                    Commands run this session
  help                       Show this help
  exit                       Leave the console
`
	fmt.Fprint(c.output, help)
}

func (c *Console) showPrompt() {
	c.promptColor.Fprint(c.output, "railwatch> ")
}

func (c *Console) printError(message string) {
	c.errorColor.Fprintln(c.output, message)
}

func (c *Console) printInfo(message string) {
	c.infoColor.Fprintln(c.output, message)
}

// severityColor maps a conflict severity onto a terminal color.
func severityColor(s types.ConflictSeverity) *color.Color {
	switch s {
	case types.SeverityHigh:
		return color.New(color.FgRed, color.Bold)
	case types.SeverityMedium:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

// stateColor maps a lifecycle state onto a terminal color.
func stateColor(s types.LifecycleState) *color.Color {
	switch s {
	case types.StateConfirmed:
		return color.New(color.FgGreen, color.Bold)
	case types.StateRegistered:
		return color.New(color.FgCyan)
	default:
		return color.New(color.FgYellow)
	}
}

// formatConflict renders one conflict as a numbered two-line entry;
// the index feeds register/confirm by position.
func formatConflict(i int, cf types.Conflict) string {
	window := fmt.Sprintf("%s-%s",
		time.UnixMilli(cf.OverlapStart).UTC().Format("15:04:05"),
		time.UnixMilli(cf.OverlapEnd).UTC().Format("15:04:05"))

	return fmt.Sprintf("%2d. %s %s  %s vs %s  %s (%d min)  %s\n      id: %s",
		i+1,
		severityColor(cf.Severity).Sprintf("%-6s", cf.Severity),
		cf.BlockKey,
		cf.TrainA,
		cf.TrainB,
		window,
		cf.OverlapMinutes,
		stateColor(cf.State).Sprint(string(cf.State)),
		cf.ID,
	)
}

// formatRecommendation renders one recommendation as a numbered entry.
func formatRecommendation(i int, rec types.Recommendation) string {
	conf := color.New(color.FgYellow)
	if rec.Confidence >= 80 {
		conf = color.New(color.FgGreen)
	}
	return fmt.Sprintf("%2d. [%s] %s\n      impact: %s\n      id: %s",
		i+1,
		conf.Sprintf("%d%%", rec.Confidence),
		rec.Description,
		rec.Impact,
		rec.ID,
	)
}
