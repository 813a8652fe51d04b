package cli

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/brandonbloom/scripts/internal/scripts"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	passColor = color.New(color.FgGreen).SprintFunc()
	warnColor = color.New(color.FgYellow).SprintFunc()
	failColor = color.New(color.FgRed).SprintFunc()
)

func newDoctorCommand(opts *rootOptions) *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the project setup and wrapped tool installs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, opts, verbose)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show passing checks too")
	return cmd
}

type doctorCheck struct {
	Name string
	// Optional checks are reported but never fail doctor.
	Optional bool
	Fn       func() error
}

func doctorChecks(cmd *cobra.Command, opts *rootOptions) []doctorCheck {
	checks := []doctorCheck{
		{Name: "project root", Fn: func() error {
			if opts.project == nil && opts.projectErr == nil {
				return errors.New("no scripts.toml or package.json above the working directory")
			}
			return nil
		}},
		{Name: "scripts.toml valid", Fn: func() error { return opts.projectErr }},
		{Name: "node installed", Optional: true, Fn: requireOnPath("node")},
	}
	for _, tool := range scripts.All() {
		checks = append(checks, doctorCheck{
			Name:     tool.Name + " installed",
			Optional: true,
			Fn: func() error {
				_, inv, err := opts.resolve(cmd, tool.Name, nil)
				if err != nil {
					return err
				}
				_, err = scripts.FindBinary(inv, tool)
				return err
			},
		})
	}
	return checks
}

func runDoctor(cmd *cobra.Command, opts *rootOptions, verbose bool) error {
	failures := 0
	for _, check := range doctorChecks(cmd, opts) {
		err := check.Fn()
		switch {
		case err == nil:
			if verbose {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", passColor("✓"), check.Name)
			}
		case check.Optional:
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", warnColor("!"), check.Name, err)
		default:
			failures++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", failColor("✗"), check.Name, err)
		}
	}
	if failures > 0 {
		return fmt.Errorf("%d doctor checks failed", failures)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "healthy!")
	return nil
}

func requireOnPath(binary string) func() error {
	return func() error {
		if _, err := exec.LookPath(binary); err != nil {
			return fmt.Errorf("%s not found on PATH", binary)
		}
		return nil
	}
}
