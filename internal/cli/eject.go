package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/brandonbloom/scripts/internal/configobj"
	"github.com/spf13/cobra"
)

// ErrEjectTargetExists is returned when eject would overwrite a project file.
var ErrEjectTargetExists = errors.New("eject target already exists (use --force to overwrite)")

func newEjectCommand(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "eject <script> [flags for the script]",
		Short: "Write a script's resolved config into the project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEject(cmd, opts, args[0], args[1:], force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing config file")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func runEject(cmd *cobra.Command, opts *rootOptions, name string, args []string, force bool) error {
	tool, _, err := opts.resolve(cmd, name, args)
	if err != nil {
		return err
	}
	s, err := generateConfig(cmd, opts, name, args)
	if err != nil {
		return err
	}
	target := filepath.Join(s.OriginDir, tool.EjectName)
	if !force && fileExists(target) {
		return fmt.Errorf("%w: %s", ErrEjectTargetExists, target)
	}
	if err := configobj.Write(target, s.Config); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ejected %s config to %s\n", name, target)
	return nil
}
