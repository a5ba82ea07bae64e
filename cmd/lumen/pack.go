package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lumen/internal/worldfile"
)

var packCmd = &cobra.Command{
	Use:   "pack [flags] <desc.toml>",
	Short: "Pack a TOML world description into a snapshot",
	Long: `Pack compiles a TOML world description into the binary snapshot format the
analyzer consumes. Frontends emit snapshots directly; pack exists for
fixtures, examples and hand-written worlds.`,
	Args: cobra.ExactArgs(1),
	RunE: runPack,
}

func init() {
	packCmd.Flags().StringP("output", "o", "", "output path (default: description name with .lmw)")
	packCmd.Flags().Bool("digest", false, "print the snapshot content digest")
}

func runPack(cmd *cobra.Command, args []string) error {
	descPath := args[0]

	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	printDigest, err := cmd.Flags().GetBool("digest")
	if err != nil {
		return fmt.Errorf("failed to get digest flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	data, err := os.ReadFile(descPath)
	if err != nil {
		return fmt.Errorf("failed to read description: %w", err)
	}
	snap, err := worldfile.DecodeTOMLDesc(data)
	if err != nil {
		return fmt.Errorf("%s: %w", descPath, err)
	}

	if output == "" {
		output = snapshotNameFromPath(descPath)
	}
	if err := worldfile.WriteFile(output, snap); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	if printDigest {
		digest, err := worldfile.ContentDigest(snap)
		if err != nil {
			return fmt.Errorf("failed to digest snapshot: %w", err)
		}
		fmt.Fprintln(os.Stdout, digest)
	}
	if !quiet {
		fmt.Fprintf(os.Stdout, "packed %s (module %s)\n", output, snap.Module)
	}
	return nil
}

func snapshotNameFromPath(descPath string) string {
	base := strings.TrimSuffix(descPath, filepath.Ext(descPath))
	return base + ".lmw"
}
