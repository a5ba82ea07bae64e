// Package main implements the lumen CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lumen/internal/diag"
	"lumen/internal/driver"
	"lumen/internal/observ"
	"lumen/internal/program"
	"lumen/internal/report"
	"lumen/internal/trace"
	"lumen/internal/ui"
)

const noManifestMessage = "no lumen.toml found here or in any parent directory; pass a manifest path or run `lumen init`"

var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] [manifest]",
	Short: "Compute the live world of a Lumen program",
	Long: `Analyze loads the world snapshots named by lumen.toml, links them into a
closed world and runs the liveness fixpoint from the program roots. Without
a manifest argument the nearest lumen.toml up the directory tree is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("format", "text", "output format (text|json)")
	analyzeCmd.Flags().String("filter", "", "only show classes and statics matching this query")
	analyzeCmd.Flags().String("strategy", "", "override the manifest analysis strategy (typed|any)")
	analyzeCmd.Flags().Bool("no-cache", false, "bypass the on-disk result cache")
	analyzeCmd.Flags().Bool("verify", false, "check liveness invariants after the fixpoint")
	analyzeCmd.Flags().Int("jobs", 0, "max parallel snapshot reads (0=auto)")
	analyzeCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	analyzeCmd.Flags().String("ui", "off", "interactive report explorer (auto|on|off)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	filter, err := cmd.Flags().GetString("filter")
	if err != nil {
		return fmt.Errorf("failed to get filter flag: %w", err)
	}
	strategy, err := cmd.Flags().GetString("strategy")
	if err != nil {
		return fmt.Errorf("failed to get strategy flag: %w", err)
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	verify, err := cmd.Flags().GetBool("verify")
	if err != nil {
		return fmt.Errorf("failed to get verify flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))
	color.NoColor = !useColor

	manifestPath, err := resolveManifestArg(args)
	if err != nil {
		return err
	}

	cleanupTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanupTrace()
	defer dumpTraceOnPanic(cmd)

	cleanupProf, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer cleanupProf()

	var timer *observ.Timer
	if showTimings {
		timer = observ.NewTimer()
	}

	ctx := cmd.Context()
	tracer := trace.FromContext(ctx)
	bag := diag.NewBag(maxDiagnostics)

	prog, err := driver.LoadProgram(ctx, manifestPath, bag, driver.LoadOptions{
		MaxDiagnostics: maxDiagnostics,
		Jobs:           jobs,
		Tracer:         tracer,
		Timer:          timer,
	})
	if err != nil {
		flushDiagnostics(bag, withNotes, quiet)
		return silentExit(cmd)
	}

	res, err := driver.Analyze(ctx, prog, driver.AnalyzeOptions{
		Strategy: strategy,
		Cache:    openAnalysisCache(prog, noCache, quiet),
		Verify:   verify,
		Tracer:   tracer,
		Timer:    timer,
	})
	if err != nil {
		flushDiagnostics(bag, withNotes, quiet)
		return err
	}

	if timer != nil {
		driver.AppendTimings(bag, prog.Manifest.Name, timer.Report())
	}
	flushDiagnostics(bag, withNotes, quiet)

	if res.FromCache && !quiet {
		fmt.Fprintln(os.Stderr, "analysis served from cache")
	}

	rep := res.Report
	if filter != "" {
		rep = report.Filter(rep, filter)
	}

	if format == "text" && shouldUseTUI(uiModeValue) {
		return ui.RunExplorer(rep)
	}

	switch format {
	case "json":
		if err := report.WriteJSON(os.Stdout, rep); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	case "text":
		width := 80
		if w, _, sizeErr := term.GetSize(int(os.Stdout.Fd())); sizeErr == nil && w > 0 {
			width = w
		}
		fmt.Fprint(os.Stdout, report.RenderText(rep, report.TextOptions{Width: width, Plain: !useColor}))
	}
	return nil
}

// resolveManifestArg returns the manifest named on the command line, or the
// nearest lumen.toml up the directory tree.
func resolveManifestArg(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	path, found, err := program.FindManifest(".")
	if err != nil {
		return "", err
	}
	if !found {
		return "", errors.New(noManifestMessage)
	}
	return path, nil
}

// openAnalysisCache opens the result cache unless the manifest or the flag
// disables it. A cache that fails to open degrades to no caching.
func openAnalysisCache(prog *driver.Program, noCache, quiet bool) *driver.Cache {
	if noCache || !prog.Manifest.Analysis.Cache {
		return nil
	}
	cache, err := driver.OpenCache("lumen")
	if err != nil {
		if !quiet {
			fmt.Fprintf(os.Stderr, "warning: result cache disabled: %v\n", err)
		}
		return nil
	}
	return cache
}

// flushDiagnostics prints accumulated diagnostics to stderr. Quiet keeps
// errors, warnings and explicitly requested timings.
func flushDiagnostics(bag *diag.Bag, withNotes, quiet bool) {
	items := bag.Items()
	if quiet {
		kept := make([]diag.Diagnostic, 0, len(items))
		for _, d := range items {
			if d.Severity == diag.SevInfo && d.Code != diag.ObsTimings {
				continue
			}
			kept = append(kept, d)
		}
		items = kept
	}
	output := diag.FormatDiagnostics(items, withNotes)
	if output != "" {
		fmt.Fprintln(os.Stderr, output)
	}
}

// silentExit suppresses cobra's usage and error output when diagnostics
// already explain the failure, while still exiting non-zero.
func silentExit(cmd *cobra.Command) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return fmt.Errorf("")
}
