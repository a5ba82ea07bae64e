package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lumen/internal/diag"
	"lumen/internal/driver"
	"lumen/internal/enqueuer"
	"lumen/internal/trace"
)

var explainCmd = &cobra.Command{
	Use:   "explain [flags] <member> [manifest]",
	Short: "Explain why a member or class is live",
	Long: `Explain reruns the analysis and prints the retention chain that keeps an
entity alive: each line names a use and the work that caused it, ending at
a program root. Members are spelled module:Class.member, Class.member, or
a bare name for statics and top-level declarations.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().String("strategy", "", "override the manifest analysis strategy (typed|any)")
	explainCmd.Flags().Bool("class", false, "explain a class instead of a member")
}

func runExplain(cmd *cobra.Command, args []string) error {
	spelling := args[0]

	strategy, err := cmd.Flags().GetString("strategy")
	if err != nil {
		return fmt.Errorf("failed to get strategy flag: %w", err)
	}
	asClass, err := cmd.Flags().GetBool("class")
	if err != nil {
		return fmt.Errorf("failed to get class flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	manifestPath, err := resolveManifestArg(args[1:])
	if err != nil {
		return err
	}

	cleanupTrace, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanupTrace()
	defer dumpTraceOnPanic(cmd)

	ctx := cmd.Context()
	tracer := trace.FromContext(ctx)
	bag := diag.NewBag(maxDiagnostics)

	prog, err := driver.LoadProgram(ctx, manifestPath, bag, driver.LoadOptions{
		MaxDiagnostics: maxDiagnostics,
		Tracer:         tracer,
	})
	if err != nil {
		flushDiagnostics(bag, false, false)
		return silentExit(cmd)
	}

	// No cache here: retention chains only exist on a fresh run.
	res, err := driver.Analyze(ctx, prog, driver.AnalyzeOptions{
		Strategy: strategy,
		Tracer:   tracer,
	})
	if err != nil {
		return err
	}
	flushDiagnostics(bag, false, false)

	var steps []enqueuer.Step
	if asClass {
		cls, ok := prog.LookupClass(spelling)
		if !ok {
			return fmt.Errorf("unknown class %q (try module:Class)", spelling)
		}
		steps = res.Enqueuer.ExplainClass(cls)
	} else {
		id, ok := prog.LookupMember(spelling)
		if !ok {
			return fmt.Errorf("unknown member %q (try module:Class.member)", spelling)
		}
		steps = res.Enqueuer.ExplainMember(id)
	}

	if len(steps) == 0 {
		fmt.Fprintf(os.Stdout, "%s is not live\n", spelling)
		return nil
	}
	world := prog.Link.World
	for i, step := range steps {
		if i == 0 {
			fmt.Fprintln(os.Stdout, step.Display(world))
			continue
		}
		fmt.Fprintf(os.Stdout, "  %s\n", step.Display(world))
	}
	return nil
}
