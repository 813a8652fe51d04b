package cli

import (
	"fmt"

	"github.com/brandonbloom/scripts/internal/pipeline"
	"github.com/brandonbloom/scripts/internal/scripts"
	"github.com/brandonbloom/scripts/internal/version"
	"github.com/spf13/cobra"
)

// Execute runs the CLI. Failures are logged once here; callers only need the
// exit code.
func Execute() error {
	opts := newRootOptions()
	err := newRootCommand(opts).Execute()
	if err != nil {
		opts.logger().Error(err.Error())
	}
	_ = opts.logger().Sync()
	return err
}

// ExitCode maps a command error onto the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:              "scripts",
		Short:            "Run jest, tsc, tslint, prettier, and depcheck with shared configs",
		Version:          version.String(),
		SilenceUsage:     true,
		SilenceErrors:    true,
		TraverseChildren: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "log every pipeline step (also SCRIPTS_DEBUG=1)")
	cmd.PersistentFlags().StringVar(&opts.traceState, "trace-state", "", "report state changes per step: off, shallow, or deep")
	cmd.PersistentFlags().Lookup("trace-state").NoOptDefVal = string(pipeline.DiffDeep)

	for _, tool := range scripts.All() {
		cmd.AddCommand(newScriptCommand(opts, tool))
	}
	cmd.AddCommand(
		newRunCommand(opts),
		newListCommand(opts),
		newConfigCommand(opts),
		newEjectCommand(opts),
		newInitCommand(opts),
		newDoctorCommand(opts),
		newVersionCommand(),
	)

	return cmd
}

func validateTraceState(mode pipeline.DiffMode) error {
	switch mode {
	case "", pipeline.DiffOff, pipeline.DiffShallow, pipeline.DiffDeep:
		return nil
	}
	return &scripts.UsageError{Msg: fmt.Sprintf("--trace-state must be off, shallow, or deep (got %q)", mode)}
}
