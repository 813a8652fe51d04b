// Argument parsing for the `scriptscmdtest` harness.
//
// Supported flags:
//   - `--skip-init` (no scripts.toml)
//   - `--no-tools` (leave node_modules empty)
//   - `--show-config` (toolstub prints the config file it was given)
//   - `--dir <dir>` (cd under the temp package before running)
//   - `--keep` (preserve the temp package for debugging)
//   - `-h/--help`
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

type options struct {
	skipInit   bool
	noTools    bool
	showConfig bool
	dir        string
	keep       bool
	help       bool
}

func parseArgs(args []string) (options, []string, error) {
	var opts options

	fs := flag.NewFlagSet("scriptscmdtest", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&opts.skipInit, "skip-init", false, "")
	fs.BoolVar(&opts.noTools, "no-tools", false, "")
	fs.BoolVar(&opts.showConfig, "show-config", false, "")
	fs.StringVar(&opts.dir, "dir", "", "")
	fs.BoolVar(&opts.keep, "keep", false, "")

	fs.BoolVar(&opts.help, "help", false, "")
	fs.BoolVar(&opts.help, "h", false, "")

	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}
	if opts.help {
		return opts, nil, nil
	}

	if opts.dir != "" {
		if filepath.IsAbs(opts.dir) {
			return options{}, nil, errors.New("dir must be a relative path")
		}
		clean := filepath.Clean(opts.dir)
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return options{}, nil, fmt.Errorf("dir must not escape the package root: %q", opts.dir)
		}
	}

	cmd := fs.Args()
	if len(cmd) == 0 {
		return options{}, nil, errors.New("missing command")
	}

	return opts, cmd, nil
}
