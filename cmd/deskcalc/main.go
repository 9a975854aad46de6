// Package main is the entry point for the deskcalc CLI.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tapelabs/deskcalc/pkg/api"
	"github.com/tapelabs/deskcalc/pkg/calc"
	"github.com/tapelabs/deskcalc/pkg/config"
	"github.com/tapelabs/deskcalc/pkg/history"
	"github.com/tapelabs/deskcalc/pkg/render"
	"github.com/tapelabs/deskcalc/pkg/repl"
	"github.com/tapelabs/deskcalc/pkg/types"
	"github.com/tapelabs/deskcalc/pkg/worksheet"
	"github.com/tapelabs/deskcalc/web"
	"golang.org/x/term"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "deskcalc",
	Short: "Interactive desk calculator",
	Long: `deskcalc evaluates arithmetic expressions with +, -, *, / and %.

Run without arguments for an interactive session, pipe expressions on
stdin for batch evaluation, or start an HTTP API with "deskcalc serve".`,
	RunE:         runRoot,
	SilenceUsage: true,
}

var evalCmd = &cobra.Command{
	Use:   "eval EXPRESSION [EXPRESSION...]",
	Short: "Evaluate expressions and print the results",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEval,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and web UI",
	RunE:  runServe,
}

var worksheetCmd = &cobra.Command{
	Use:   "worksheet",
	Short: "Work with worksheet files",
}

var worksheetRunCmd = &cobra.Command{
	Use:   "run FILE [FILE...]",
	Short: "Run worksheet files and report their checks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWorksheetRun,
}

func init() {
	rootCmd.Version = version + " (commit=" + commit + ", built=" + date + ")"
	rootCmd.SetVersionTemplate("deskcalc version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default deskcalc.yaml, env DESKCALC_*)")
	rootCmd.PersistentFlags().String("format", "", "Output format: table, json, csv or plain (default table)")
	rootCmd.PersistentFlags().Int("history-limit", 0, "Max history entries to keep, 0 for unlimited (default 500)")
	rootCmd.PersistentFlags().String("history-file", "", "Readline history file (default ~/.deskcalc_history)")
	rootCmd.PersistentFlags().String("worksheets-dir", "", "Directory of worksheet YAML files loaded by serve")

	serveCmd.Flags().String("host", "", "Bind address (default 127.0.0.1)")
	serveCmd.Flags().Int("port", 0, "HTTP server port (default 8484)")

	worksheetCmd.AddCommand(worksheetRunCmd)
	rootCmd.AddCommand(evalCmd, serveCmd, worksheetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cfgFile, cmd.Flags())
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	hist := history.New(cfg.HistoryLimit)

	if term.IsTerminal(int(os.Stdin.Fd())) {
		return repl.Run(cfg, hist, os.Stdout, os.Stderr)
	}
	return evalStdin(hist, os.Stdin, os.Stdout, os.Stderr)
}

// evalStdin evaluates one expression per line. Failed lines report to
// stderr and do not abort the stream.
func evalStdin(hist *history.History, in io.Reader, out, errw io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := calc.Evaluate(line)
		entry := hist.Record(line, v, err)
		if err != nil {
			fmt.Fprintf(errw, "error: %s\n", types.AsCalcError(err).Message)
			continue
		}
		fmt.Fprintln(out, entry.Result)
	}
	return scanner.Err()
}

func runEval(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	hist := history.New(cfg.HistoryLimit)

	failed := 0
	for _, arg := range args {
		v, evalErr := calc.Evaluate(arg)
		entry := hist.Record(arg, v, evalErr)
		if evalErr != nil {
			failed++
		}
		if err := render.Result(os.Stdout, entry, cfg.Format); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", failed, len(args))
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	hist := history.New(cfg.HistoryLimit)
	server := api.New(hist)

	// Load worksheets from directory if specified
	if cfg.WorksheetsDir != "" {
		if err := server.LoadDir(cfg.WorksheetsDir); err != nil {
			log.Printf("Warning: failed to load worksheets directory: %v", err)
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		ui := web.New(hist, server.Worksheets())
		ui.Register(server.App())
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down deskcalc...")
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("deskcalc listening on %s", cfg.Addr())
	if cfg.WorksheetsDir != "" {
		log.Printf("Worksheets directory: %s", cfg.WorksheetsDir)
	}
	return server.Listen(cfg.Addr())
}

func runWorksheetRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	hist := history.New(cfg.HistoryLimit)

	failed := 0
	for _, path := range args {
		ws, err := worksheet.Load(path)
		if err != nil {
			return err
		}
		rep := worksheet.Run(ws, hist)
		if err := render.Report(os.Stdout, rep, cfg.Format); err != nil {
			return err
		}
		failed += rep.Failed
	}
	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
