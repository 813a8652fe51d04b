package project

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/brandonbloom/scripts/internal/config"
)

// ManifestName marks a JavaScript package root.
const ManifestName = "package.json"

// ErrNotFound indicates that no project root could be discovered.
var ErrNotFound = errors.New("no scripts.toml or package.json found in this directory or its parents")

// Project encapsulates the caller's package root discovered on disk.
type Project struct {
	Root       string
	ConfigPath string
	Config     config.Config
}

// Discover walks upward from start until it finds scripts.toml or package.json.
func Discover(start string) (*Project, error) {
	root, err := locateRoot(start)
	if err != nil {
		return nil, err
	}
	return Load(root)
}

// Load constructs a Project from a known root directory.
func Load(root string) (*Project, error) {
	cfgPath := filepath.Join(root, config.FileName)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	return &Project{
		Root:       root,
		ConfigPath: cfgPath,
		Config:     cfg,
	}, nil
}

func locateRoot(start string) (string, error) {
	cur, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		if isFile(filepath.Join(cur, config.FileName)) || isFile(filepath.Join(cur, ManifestName)) {
			return cur, nil
		}
		next := filepath.Dir(cur)
		if next == cur {
			break
		}
		cur = next
	}
	return "", ErrNotFound
}

// RootFromInvocation guesses the package root from the path the runner was
// invoked through: an installed copy lives at <root>/node_modules/..., so the
// path is truncated at its first node_modules segment.
func RootFromInvocation(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(abs), "/")
	for i, part := range parts {
		if part != "node_modules" {
			continue
		}
		root := strings.Join(parts[:i], "/")
		if root == "" {
			root = "/"
		}
		return filepath.FromSlash(root), true
	}
	return "", false
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return fi.Mode().IsRegular()
}

// EnsureConfig ensures a baseline scripts.toml exists, writing when missing.
// It reports whether the file was created.
func EnsureConfig(root string) (config.Config, bool, error) {
	path := filepath.Join(root, config.FileName)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		cfg := config.Default()
		if err := config.Save(path, cfg); err != nil {
			return config.Config{}, false, err
		}
		return cfg, true, nil
	}
	cfg, err := config.Load(path)
	return cfg, false, err
}
