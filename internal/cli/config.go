package cli

import (
	"fmt"
	"os"

	"github.com/akedrou/textdiff"
	"github.com/brandonbloom/scripts/internal/configobj"
	"github.com/brandonbloom/scripts/internal/pipeline"
	"github.com/brandonbloom/scripts/internal/scripts"
	"github.com/spf13/cobra"
)

const lastConfigStep = "writeConfigObjectToPath"

func newConfigCommand(opts *rootOptions) *cobra.Command {
	var diff bool
	cmd := &cobra.Command{
		Use:   "config <script> [flags for the script]",
		Short: "Print the config a script would run with",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(cmd, opts, args[0], args[1:], diff)
		},
	}
	cmd.Flags().BoolVar(&diff, "diff", false, "show changes from the source config instead")
	cmd.Flags().SetInterspersed(false)
	return cmd
}

// generateConfig runs a script's pipeline up to writing the generated config.
func generateConfig(cmd *cobra.Command, opts *rootOptions, name string, args []string) (scripts.State, error) {
	tool, inv, err := opts.resolve(cmd, name, args)
	if err != nil {
		return scripts.State{}, err
	}
	steps := pipeline.Until(tool.Executors(inv), lastConfigStep)
	return pipeline.Apply(steps, opts.middleware()...)(cmd.Context())
}

func runConfig(cmd *cobra.Command, opts *rootOptions, name string, args []string, diff bool) error {
	s, err := generateConfig(cmd, opts, name, args)
	if err != nil {
		return err
	}
	generated, err := os.ReadFile(s.TempConfigFilePath)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !diff {
		_, err = out.Write(generated)
		return err
	}

	source, err := configobj.Load(s.ConfigPath)
	if err != nil {
		return err
	}
	before, err := configobj.Encode(s.TempConfigFilePath, source)
	if err != nil {
		return err
	}
	unified := textdiff.Unified(s.ConfigPath, s.TempConfigFilePath, string(before), string(generated))
	if unified == "" {
		_, err = fmt.Fprintln(out, "no changes")
		return err
	}
	_, err = fmt.Fprint(out, unified)
	return err
}
