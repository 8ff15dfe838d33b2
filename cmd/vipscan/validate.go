package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ancients-collective/vipscan/internal/config"
	"github.com/ancients-collective/vipscan/internal/loader"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file|dir>",
		Short: "Validate exception tables without scanning",
		Long: `Validate parses exception table YAML (a file, or every .yaml/.yml file
in a directory) and reports schema errors. Exits 2 when any file is invalid.`,
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(_ *cobra.Command, args []string) error {
			return a.runValidate(args[0])
		},
	}
}

// runValidate validates exception tables without scanning anything.
func (a *app) runValidate(path string) error {
	ldr := loader.New()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access %q: %w", path, err)
	}

	if info.IsDir() {
		table, errs := ldr.LoadDirectory(path)
		if len(errs) > 0 {
			if !a.quiet {
				for _, e := range errs {
					fmt.Fprintf(a.stderr, "  ✗ %v\n", e)
				}
			}
			return &exitError{
				code: exitErrorsOnly,
				err:  fmt.Errorf("validation failed: %d error(s)", len(errs)),
			}
		}
		if !a.quiet {
			fmt.Fprintf(a.stdout, "  ✓ All tables in %s are valid (%d exceptions)\n", path, table.Len())
		}
		return nil
	}

	if err := ldr.ValidateOnly(path); err != nil {
		return &exitError{code: exitErrorsOnly, err: err}
	}
	if !a.quiet {
		fmt.Fprintf(a.stdout, "  ✓ %s is valid\n", path)
	}
	return nil
}

func newSampleConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "sample-config",
		Short:       "Print a sample vipscan.yaml",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoConfig: "true"},
		RunE: func(_ *cobra.Command, _ []string) error {
			if a.outputFile == "" {
				fmt.Fprint(a.stdout, config.GenerateSampleConfig())
				return nil
			}
			if err := validateOutputPath(a.outputFile); err != nil {
				return fmt.Errorf("unsafe output path: %w", err)
			}
			if _, err := os.Stat(a.outputFile); err == nil {
				return fmt.Errorf("%s already exists", a.outputFile)
			} else if !errors.Is(err, os.ErrNotExist) {
				return err
			}
			if err := os.WriteFile(a.outputFile, []byte(config.GenerateSampleConfig()), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", a.outputFile, err)
			}
			if !a.quiet {
				fmt.Fprintf(a.stderr, "  ✓ Written to %s\n", a.outputFile)
			}
			return nil
		},
	}
}
