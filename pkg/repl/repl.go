// Package repl implements the interactive calculator shell.
package repl

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tapelabs/deskcalc/pkg/calc"
	"github.com/tapelabs/deskcalc/pkg/config"
	"github.com/tapelabs/deskcalc/pkg/history"
	"github.com/tapelabs/deskcalc/pkg/render"
	"github.com/tapelabs/deskcalc/pkg/types"
	"github.com/tapelabs/deskcalc/pkg/worksheet"
)

const prompt = "calc> "

// session holds the mutable state of one interactive run.
type session struct {
	hist   *history.History
	format string
	out    io.Writer
	errw   io.Writer
}

// Run starts the read-eval-print loop and blocks until the user exits with
// .quit, .exit, or EOF. Expression history is persisted to cfg.HistoryFile
// so arrow-key recall survives restarts.
func Run(cfg *config.Config, hist *history.History, out, errw io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    newCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	s := &session{hist: hist, format: cfg.Format, out: out, errw: errw}

	_, _ = fmt.Fprintln(out, "deskcalc interactive calculator")
	_, _ = fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := s.handleDotCommand(line); quit {
				break
			}
			continue
		}

		s.evaluate(line)
	}

	return nil
}

// evaluate runs one expression, records it, and prints the outcome.
func (s *session) evaluate(line string) {
	v, err := calc.Evaluate(line)
	entry := s.hist.Record(line, v, err)
	if err != nil {
		_, _ = fmt.Fprintf(s.errw, "error: %s\n", types.AsCalcError(err).Message)
		return
	}
	_, _ = fmt.Fprintf(s.out, "= %s\n", entry.Result)
}

// handleDotCommand dispatches a .command line. It returns true when the
// session should end.
func (s *session) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".history":
		n := 0
		if len(parts) > 1 {
			v, err := strconv.Atoi(parts[1])
			if err != nil || v < 1 {
				_, _ = fmt.Fprintln(s.errw, "Usage: .history [n]")
				return false
			}
			n = v
		}
		entries := s.hist.List()
		if n > 0 && len(entries) > n {
			entries = entries[:n]
		}
		if err := render.History(s.out, entries, s.format); err != nil {
			_, _ = fmt.Fprintf(s.errw, "Error: %v\n", err)
		}

	case ".format":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(s.out, "format: %s\n", s.format)
			return false
		}
		if !render.KnownFormat(parts[1]) {
			_, _ = fmt.Fprintf(s.errw, "Unknown format %q (table, json, csv, plain)\n", parts[1])
			return false
		}
		s.format = parts[1]

	case ".load":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(s.errw, "Usage: .load <worksheet.yaml>")
			return false
		}
		ws, err := worksheet.Load(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(s.errw, "Error: %v\n", err)
			return false
		}
		rep := worksheet.Run(ws, s.hist)
		if err := render.Report(s.out, rep, s.format); err != nil {
			_, _ = fmt.Fprintf(s.errw, "Error: %v\n", err)
		}

	case ".reset":
		n := s.hist.Clear()
		_, _ = fmt.Fprintf(s.out, "cleared %d history entries\n", n)

	case ".clear":
		fmt.Print("\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errw, "Unknown command: %s (type .help for commands)\n", command)
	}

	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help             Show this help message
  .history [n]      Show the last n evaluations (all when omitted)
  .format <name>    Switch output format: table, json, csv, plain
  .load <file>      Run a worksheet file
  .reset            Clear the evaluation history
  .clear            Clear the screen
  .quit / .exit     Exit the calculator

Tips:
  - Supported operators: + - * / %  with ( ) grouping
  - A leading - makes a literal negative: -5+3, 3*-2
  - Use arrow keys to recall earlier expressions
`
	_, _ = fmt.Fprintln(w, help)
}

// newCompleter creates a readline completer for the dot-commands.
func newCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".history"),
		readline.PcItem(".format",
			readline.PcItem("table"),
			readline.PcItem("json"),
			readline.PcItem("csv"),
			readline.PcItem("plain"),
		),
		readline.PcItem(".load"),
		readline.PcItem(".reset"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
