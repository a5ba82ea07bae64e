package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new lumen program",
	Long: `Initialize a lumen program by creating a manifest (lumen.toml) and a sample
world description (main.toml). If [path|name] is omitted, initializes the
current directory. If a non-existing name is provided, a directory will be
created.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	var target string
	if len(args) == 0 || args[0] == "." {
		wd, err := os.Getwd()
		if err != nil {
			return err
		}
		target = wd
	} else {
		arg := args[0]
		if !filepath.IsAbs(arg) {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			target = filepath.Join(wd, arg)
		} else {
			target = arg
		}
	}

	if st, err := os.Stat(target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err = os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
		} else {
			return err
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "lumen-program"
	}

	manifestPath := filepath.Join(target, "lumen.toml")
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("program already initialized: %s exists", manifestPath)
	}
	if err := os.WriteFile(manifestPath, []byte(defaultManifest(name)), 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	descPath := filepath.Join(target, "main.toml")
	createdDesc := false
	if _, err := os.Stat(descPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(descPath, []byte(defaultDescription()), 0o600); err != nil {
			return fmt.Errorf("failed to write main.toml: %w", err)
		}
		createdDesc = true
	}

	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, relErr := filepath.Rel(wd, target); relErr == nil {
			rel = r
		}
	}
	fmt.Fprintf(os.Stdout, "initialized %s\n", rel)
	fmt.Fprintf(os.Stdout, "  created lumen.toml\n")
	if createdDesc {
		fmt.Fprintf(os.Stdout, "  created main.toml\n")
	}
	fmt.Fprintf(os.Stdout, "next: lumen pack main.toml && lumen analyze\n")
	return nil
}

func defaultManifest(name string) string {
	return fmt.Sprintf(`name = %q
snapshots = ["main.lmw"]

[analysis]
strategy = "typed"
`, name)
}

// defaultDescription is a minimal world: a main root that constructs a
// Greeter and invokes greet on it.
func defaultDescription() string {
	return `module = "main"
roots = ["main"]

[[classes]]
name = "Greeter"

[[classes.members]]
name = "greet"

[[classes.members]]
name = "of"
kind = "constructor"

[[toplevel]]
name = "main"

[[impacts]]
of = "main"

[[impacts.static]]
kind = "constructor-invoke"
target = "Greeter.of"

[[impacts.dynamic]]
invoke = "greet"
receiver = "Greeter"

[[impacts]]
of = "Greeter.of"
instantiates = ["Greeter"]
`
}
