package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ancients-collective/vipscan/internal/output"
	"github.com/ancients-collective/vipscan/internal/types"
)

func newReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "report <category> [identity]",
		Short: "Show recorded incompatibilities",
		Long: `Report prints what the report store holds for a category (plugins,
themes, mu-plugins, general) or a single identity within it.

Only incompatible targets are recorded, so an empty result means no
incompatibility is on record. Exits 1 when any report is shown.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(_ *cobra.Command, args []string) error {
			identity := ""
			if len(args) == 2 {
				identity = args[1]
			}
			return a.runReport(args[0], identity)
		},
	}
}

func (a *app) runReport(rawCategory, identity string) error {
	category, err := types.ParseCategory(rawCategory)
	if err != nil {
		a.printSuggestions(rawCategory, categoryNames())
		return err
	}

	c, err := a.components()
	if err != nil {
		return err
	}

	var reports []types.Report
	if identity != "" {
		report, ok, err := c.store.Get(category, identity)
		if err != nil {
			return err
		}
		if ok {
			reports = append(reports, report)
		} else if !a.quiet {
			fmt.Fprintf(a.stderr, "  No report on record for %s %q\n", category, identity)
			if ids, err := c.store.Identities(category); err == nil {
				a.printSuggestions(identity, ids)
			}
		}
	} else {
		all, err := c.store.Reports(category)
		if err != nil {
			return err
		}
		for _, r := range all {
			reports = append(reports, r)
		}
		sort.Slice(reports, func(i, j int) bool { return reports[i].Identity < reports[j].Identity })
	}

	if err := a.write(func(f output.Formatter, w io.Writer) error {
		return f.WriteReports(w, reports)
	}); err != nil {
		return err
	}
	if len(reports) > 0 {
		return exitWith(exitIncompatible)
	}
	return nil
}

// categoryNames lists every spelling ParseCategory accepts.
func categoryNames() []string {
	var names []string
	for _, c := range types.Categories {
		names = append(names, string(c))
		if p := c.Partition(); p != string(c) {
			names = append(names, p)
		}
	}
	return names
}

func (a *app) printSuggestions(input string, candidates []string) {
	if a.quiet {
		return
	}
	suggestions := suggest(input, candidates)
	if len(suggestions) == 0 {
		return
	}
	fmt.Fprintf(a.stderr, "\n  Did you mean:\n")
	for _, s := range suggestions {
		fmt.Fprintf(a.stderr, "    • %s\n", s)
	}
	fmt.Fprintln(a.stderr)
}
