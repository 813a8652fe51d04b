package main

import (
	"os"

	"github.com/brandonbloom/scripts/internal/cli"
)

func main() {
	os.Exit(cli.ExitCode(cli.Execute()))
}
