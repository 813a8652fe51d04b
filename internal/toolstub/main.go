// toolstub is a hermetic stand-in for jest, tsc, tslint, prettier, and
// depcheck used by transcript tests.
//
// It identifies which tool it is impersonating from its node_modules path and
// prints its arguments with the package root rewritten to `$ROOT`. depcheck
// instead prints a JSON report, read from the file named by
// `TOOLSTUB_DEPCHECK` when set, and nothing else.
//
// Environment:
//   - `TOOLSTUB_ROOT` (package root to rewrite)
//   - `TOOLSTUB_SHOW_CONFIG=1` (also print the config file argument)
//   - `TOOLSTUB_EXIT` (exit status, default 0)
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const emptyDepcheckReport = `{"dependencies":[],"devDependencies":[],"missing":{},"using":{}}`

func main() {
	os.Exit(run(os.Args, os.Getenv))
}

func run(argv []string, getenv func(string) string) int {
	t, ok := identify(argv[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "toolstub: cannot tell which tool %s is\n", argv[0])
		return 1
	}
	args := argv[1:]
	root := getenv("TOOLSTUB_ROOT")

	if t.Name == "depcheck" {
		report := emptyDepcheckReport
		if path := getenv("TOOLSTUB_DEPCHECK"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			report = strings.TrimSpace(string(data))
		}
		fmt.Println(report)
		return exitCode(getenv("TOOLSTUB_EXIT"))
	}

	fmt.Println(redact(strings.Join(append([]string{t.Name}, args...), " "), root))
	if getenv("TOOLSTUB_SHOW_CONFIG") == "1" {
		if path, ok := flagValue(args, t.ConfigFlag); ok {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			fmt.Print(redact(string(data), root))
		}
	}
	return exitCode(getenv("TOOLSTUB_EXIT"))
}

func redact(s, root string) string {
	if root == "" {
		return s
	}
	return strings.ReplaceAll(s, root, "$ROOT")
}

func flagValue(args []string, flag string) (string, bool) {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func exitCode(raw string) int {
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return n
}
