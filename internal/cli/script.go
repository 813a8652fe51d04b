package cli

import (
	"github.com/brandonbloom/scripts/internal/scripts"
	"github.com/spf13/cobra"
)

// Tool flags are passed through untouched, so script commands parse nothing
// themselves.
func newScriptCommand(opts *rootOptions, tool scripts.Tool) *cobra.Command {
	return &cobra.Command{
		Use:                tool.Name + " [flags for " + tool.Name + "]",
		Short:              tool.Short,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, opts, tool.Name, args)
		},
	}
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:                "run <script> [flags for the script]",
		Short:              "Run a built-in script or a scripts.toml alias",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || args[0] == "" {
				return &scripts.UsageError{Msg: "run requires a script name; see `scripts list`"}
			}
			return runScript(cmd, opts, args[0], args[1:])
		},
	}
}

func runScript(cmd *cobra.Command, opts *rootOptions, name string, args []string) error {
	tool, inv, err := opts.resolve(cmd, name, args)
	if err != nil {
		return err
	}
	_, err = tool.Run(cmd.Context(), inv, opts.middleware()...)
	return err
}
