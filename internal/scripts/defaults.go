package scripts

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/brandonbloom/scripts/internal/configobj"
)

//go:embed defaults
var defaultFiles embed.FS

// DefaultFile returns the bundled copy of a tool's support file.
func DefaultFile(tool, name string) ([]byte, error) {
	data, err := defaultFiles.ReadFile(path.Join("defaults", tool, name))
	if err != nil {
		return nil, fmt.Errorf("no bundled %s for %s: %w", name, tool, err)
	}
	return data, nil
}

// materialize writes the bundled support file into dir unless a file with
// that name is already there, so local edits survive. It returns the path.
func materialize(tool, dir, name string) (string, error) {
	target := filepath.Join(dir, name)
	if _, err := os.Stat(target); err == nil {
		return target, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	data, err := DefaultFile(tool, name)
	if err != nil {
		return "", err
	}
	if err := configobj.WriteRaw(target, data); err != nil {
		return "", err
	}
	return target, nil
}
