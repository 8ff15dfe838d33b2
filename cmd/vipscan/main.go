// Package main is the entry point for vipscan, the WordPress VIP
// compatibility scanner.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ancients-collective/vipscan/internal/config"
	"github.com/ancients-collective/vipscan/internal/hostinfo"
	"github.com/ancients-collective/vipscan/internal/logging"
	"github.com/ancients-collective/vipscan/internal/output"
)

// version is set at build time via -ldflags. The default is a dev fallback
// for plain `go install` or `go run` usage.
var version = "0.3.0"

// Exit codes.
const (
	exitCompatible   = 0 // every target compatible
	exitIncompatible = 1 // at least one incompatible target
	exitErrorsOnly   = 2 // no incompatibilities, but targets could not be scanned
	exitRuntime      = 3 // store write, config, or I/O failure
)

// annotationNoConfig marks commands that run without loading configuration.
const annotationNoConfig = "vipscan/no-config"

// exitError carries an exit code out of a command. A nil err exits silently.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// app holds CLI state shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configFile string
	noColor    bool
	outputFile string
	quiet      bool

	cfg *config.Config
	log *zap.SugaredLogger
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI with args and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if a.log != nil {
		_ = a.log.Sync()
	}
	return a.exitCodeFor(err)
}

func (a *app) exitCodeFor(err error) int {
	if err == nil {
		return exitCompatible
	}
	code := exitRuntime
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.code
		err = ee.err
	}
	if err != nil && !a.quiet {
		fmt.Fprintf(a.stderr, "  ✗ %v\n", err)
	}
	return code
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "vipscan",
		Short: "WordPress VIP compatibility scanner",
		Long: `vipscan checks WordPress plugins, themes, and mu-plugins for code the
WordPress VIP platform does not allow: shell execution, filesystem writes
outside uploads, and similar call sites.

Results for incompatible targets are recorded per category under
<content-dir>/uploads/wvc-logs. A later clean scan removes the record.

Exit codes:
  0  every target compatible
  1  at least one incompatible target
  2  no incompatibilities, but some targets could not be scanned
  3  runtime failure (config, store write, I/O)`,
		Example: `  vipscan scan wp-content/plugins/akismet
  vipscan scan -d /srv/wp-content --format json plugins/* themes/*
  vipscan audit -d /srv/wp-content --database 'wp:secret@tcp(db:3306)/wordpress'
  vipscan report plugins
  vipscan serve --listen 127.0.0.1:8089
  vipscan watch -d /srv/wp-content
  vipscan -q scan plugins/foo && echo compatible`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default: ./vipscan.yaml, ~/vipscan.yaml, or $XDG_CONFIG_HOME/vipscan/vipscan.yaml)")
	pf.StringP("content-dir", "d", ".", "WordPress wp-content directory")
	pf.String("log-dir", "", "report store directory (default: <content-dir>/uploads/wvc-logs)")
	pf.IntP("concurrency", "j", 0, "parallel checks (default: logical CPUs)")
	pf.StringP("mode", "m", "line", "scan granularity: line or file")
	pf.StringP("exceptions", "e", "", "YAML exception table layered over the built-in one")
	pf.String("phpcs", "", "phpcs binary for the lint advisory pass")
	pf.Bool("lint", false, "run the phpcs advisory pass")
	pf.String("database", "", "MySQL DSN for the audit database check")
	pf.String("listen", "127.0.0.1:8089", "address for serve")
	pf.StringP("format", "f", "text", "output format: text, json, jsonl")
	pf.StringP("show", "s", "findings", "text output filter: findings or all")
	pf.BoolP("verbose", "v", false, "info-level logging")
	pf.Bool("debug", false, "debug logging")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	pf.StringVarP(&a.outputFile, "output", "o", "", "write output to file (default: stdout)")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress output, exit code only")

	root.AddCommand(
		newScanCmd(a),
		newAuditCmd(a),
		newReportCmd(a),
		newServeCmd(a),
		newWatchCmd(a),
		newValidateCmd(a),
		newSampleConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration and builds the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[annotationNoConfig] == "true" {
		return nil
	}

	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = hostinfo.CPUs(cmd.Context(), nil)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Debug, cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	a.cfg = cfg
	a.log = log

	if a.noColor || cfg.Format != "text" || a.outputFile != "" || output.IsDumbTerm() {
		color.NoColor = true
	}
	log.Debugw("configuration loaded",
		"content_dir", cfg.ContentDir,
		"mode", cfg.Mode,
		"concurrency", cfg.Concurrency,
		"format", cfg.Format)
	return nil
}

// write renders through the configured formatter to stdout or --output.
func (a *app) write(render func(output.Formatter, io.Writer) error) error {
	if a.quiet {
		return nil
	}

	termWidth := 0
	if f, ok := a.stdout.(*os.File); ok && a.outputFile == "" && a.cfg.Format == "text" {
		if fd := int(f.Fd()); term.IsTerminal(fd) {
			if tw, _, err := term.GetSize(fd); err == nil && tw > 0 {
				termWidth = tw
			}
		}
	}

	formatter, err := output.New(a.cfg.Format, &output.TextFormatter{
		Show:  a.cfg.Show,
		Width: termWidth,
		Dumb:  output.IsDumbTerm(),
	})
	if err != nil {
		return err
	}

	w := a.stdout
	if a.outputFile != "" {
		if err := validateOutputPath(a.outputFile); err != nil {
			return fmt.Errorf("unsafe output path: %w", err)
		}
		f, err := os.Create(a.outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := render(formatter, w); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if a.outputFile != "" {
		fmt.Fprintf(a.stderr, "  ✓ Written to %s\n", a.outputFile)
	}
	return nil
}

// exitCode maps counts to an exit code: incompatibilities win over errors.
func exitCode(incompatible, errCount int) int {
	if incompatible > 0 {
		return exitIncompatible
	}
	if errCount > 0 {
		return exitErrorsOnly
	}
	return exitCompatible
}

// exitWith returns nil for a zero code so that cobra sees success.
func exitWith(code int) error {
	if code == exitCompatible {
		return nil
	}
	return &exitError{code: code}
}

// unsafeOutputPrefixes are path prefixes where writing output files is rejected.
// Prevents accidental overwrite of system files when running as root.
var unsafeOutputPrefixes = []string{"/etc/", "/proc/", "/sys/", "/dev/", "/boot/", "/sbin/", "/bin/", "/usr/"}

// validateOutputPath checks that the output file path is safe to write to.
func validateOutputPath(path string) error {
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) {
		for _, prefix := range unsafeOutputPrefixes {
			if strings.HasPrefix(cleaned, prefix) {
				return fmt.Errorf("refusing to write to system path %q", cleaned)
			}
		}
	}
	return nil
}
