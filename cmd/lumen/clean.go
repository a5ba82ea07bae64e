package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lumen/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the on-disk analysis cache",
	Long:  "Remove cached analysis results under $XDG_CACHE_HOME/lumen (or ~/.cache/lumen).",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func runClean(_ *cobra.Command, _ []string) error {
	cache, err := driver.OpenCache("lumen")
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintln(os.Stdout, "analysis cache cleared")
	return nil
}
