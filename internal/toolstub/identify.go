package main

import (
	"path/filepath"
	"strings"

	"github.com/brandonbloom/scripts/internal/scripts"
)

// identify matches the stub's path against each tool's node_modules location.
func identify(path string) (scripts.Tool, bool) {
	slashed := filepath.ToSlash(path)
	for _, t := range scripts.All() {
		if strings.HasSuffix(slashed, "/node_modules/"+t.BinRel) {
			return t, true
		}
	}
	return scripts.Tool{}, false
}
