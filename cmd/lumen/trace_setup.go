package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lumen/internal/trace"
)

// ringDump remembers where the active ring buffer should land once the run
// finishes. Only set for pure ring mode with a concrete output path; in
// stream and both modes the stream backend already writes to the path.
type ringDump struct {
	ring   *trace.RingTracer
	path   string
	format trace.Format
}

var activeRingDump *ringDump

// setupTracing inspects trace-related flags and initializes the tracer.
// It returns a cleanup function and an error if initialization fails.
func setupTracing(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	traceOutput, err := root.PersistentFlags().GetString("trace")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := root.PersistentFlags().GetString("trace-level")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	modeStr, err := root.PersistentFlags().GetString("trace-mode")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-mode flag: %w", err)
	}
	ringSize, err := root.PersistentFlags().GetInt("trace-ring-size")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	heartbeatInterval, err := root.PersistentFlags().GetDuration("trace-heartbeat")
	if err != nil {
		return nil, fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}

	// Level off with no output path means tracing stays disabled.
	if level == trace.LevelOff && traceOutput == "" {
		ctx := trace.WithTracer(cmd.Context(), trace.Nop)
		cmd.SetContext(ctx)
		return func() {}, nil
	}

	// An output path alone implies phase-level tracing.
	if level == trace.LevelOff {
		level = trace.LevelPhase
	}

	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}

	cfg := trace.Config{
		Level:      level,
		Mode:       mode,
		OutputPath: traceOutput,
		RingSize:   ringSize,
		Heartbeat:  heartbeatInterval,
	}
	tracer, err := trace.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	ctx := trace.WithTracer(cmd.Context(), tracer)
	cmd.SetContext(ctx)
	cmd.Root().SetContext(ctx)

	activeRingDump = nil
	if mode == trace.ModeRing && traceOutput != "" && traceOutput != "-" {
		if ring := trace.RingOf(tracer); ring != nil {
			activeRingDump = &ringDump{
				ring:   ring,
				path:   traceOutput,
				format: trace.DetectFormat(traceOutput),
			}
		}
	}

	var heartbeat *trace.Heartbeat
	if heartbeatInterval > 0 {
		heartbeat = trace.StartHeartbeat(tracer, heartbeatInterval)
	}

	cleanup := func() {
		if heartbeat != nil {
			heartbeat.Stop()
		}
		if dump := activeRingDump; dump != nil {
			activeRingDump = nil
			if err := writeRingDump(dump); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: ring dump error: %v\n", err)
			}
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}
	return cleanup, nil
}

func writeRingDump(dump *ringDump) error {
	f, err := os.Create(dump.path)
	if err != nil {
		return err
	}
	if err := dump.ring.Dump(f, dump.format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// dumpTraceOnPanic spills the ring buffer to stderr and flushes the active
// tracer before re-panicking, so the events leading up to the crash survive.
func dumpTraceOnPanic(cmd *cobra.Command) {
	if r := recover(); r != nil {
		if tracer := trace.FromContext(cmd.Context()); tracer != trace.Nop {
			if ring := trace.RingOf(tracer); ring != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "trace: last events before panic:")
				_ = ring.Dump(cmd.ErrOrStderr(), trace.FormatText)
			}
			_ = tracer.Flush()
		}
		panic(r)
	}
}
