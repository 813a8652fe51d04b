package cli

import (
	"fmt"
	"path/filepath"

	"github.com/brandonbloom/scripts/internal/config"
	"github.com/brandonbloom/scripts/internal/project"
	"github.com/spf13/cobra"
)

func newInitCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create scripts.toml at the package root",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}
}

func runInit(cmd *cobra.Command, opts *rootOptions) error {
	root := opts.wd
	if opts.project != nil {
		root = opts.project.Root
	}
	_, created, err := project.EnsureConfig(root)
	if err != nil {
		return err
	}
	path := filepath.Join(root, config.FileName)
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized %s\n", path)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scripts already initialized at %s\n", path)
	return nil
}
