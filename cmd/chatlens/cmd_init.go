package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chatlens/chatlens/internal/config"
	"github.com/chatlens/chatlens/internal/rubric"
)

var initForce bool

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write starter config and rubric files",
		Args:  cobra.MaximumNArgs(1),
		RunE:  initCommandE,
	}

	cmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing files")

	return cmd
}

func initCommandE(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	files := []struct {
		name string
		doc  any
	}{
		{"chatlens.yaml", config.Default()},
		{"rubric.yaml", rubric.Default()},
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if !initForce {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}

		data, err := yaml.Marshal(f.doc)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", f.name, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	}

	return nil
}
