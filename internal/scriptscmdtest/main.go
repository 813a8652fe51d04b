// scriptscmdtest is a small internal harness for transcript tests.
//
// It provisions a disposable JavaScript package under
// `/tmp/scripts-transcripts/project-<id>`, installs `toolstub` in place of every
// wrapped tool under node_modules, then runs an arbitrary command inside the
// package and returns the command's exit code.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	tool, err := newToolFromExecutable()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(tool.runCLI(context.Background(), os.Args[1:]))
}
