package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// FileName is the project configuration file looked up in the origin directory.
const FileName = "scripts.toml"

// Config captures the user editable settings stored in scripts.toml.
type Config struct {
	EnvFiles []string              `toml:"env_files"`
	Bin      map[string]string     `toml:"bin"`
	Alias    map[string]AliasBlock `toml:"alias"`
	Log      LogBlock              `toml:"log"`
}

// AliasBlock names a built-in script to run under another name, optionally
// with a different default config file.
type AliasBlock struct {
	Script string `toml:"script"`
	Config string `toml:"config"`
}

// LogBlock governs how much the pipeline reports.
type LogBlock struct {
	Level     string `toml:"level"`
	StateDiff string `toml:"state_diff"`
}

func (l *LogBlock) applyDefaults() {
	if l == nil {
		return
	}
	if l.Level == "" {
		l.Level = "info"
	} else {
		l.Level = strings.ToLower(l.Level)
	}
	if l.StateDiff == "" {
		l.StateDiff = "shallow"
	} else {
		l.StateDiff = strings.ToLower(l.StateDiff)
	}
}

func (l LogBlock) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}
	switch l.StateDiff {
	case "off", "shallow", "deep":
		return nil
	default:
		return ErrInvalidStateDiff
	}
}

var (
	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config.log.level must be debug, info, warn, or error")
	// ErrInvalidStateDiff indicates the state diff mode is not recognized.
	ErrInvalidStateDiff = errors.New("config.log.state_diff must be off, shallow, or deep")
	// ErrAliasMissingScript indicates an alias without a target script.
	ErrAliasMissingScript = errors.New("config.alias entries must set script")
	// ErrEmptyEnvFile indicates a blank entry in env_files.
	ErrEmptyEnvFile = errors.New("config.env_files entries must not be empty")
)

// Default returns a baseline configuration for a project.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	c.Log.applyDefaults()
}

// Validate ensures the configuration can guide the runner's behavior.
func (c Config) Validate() error {
	for _, f := range c.EnvFiles {
		if strings.TrimSpace(f) == "" {
			return ErrEmptyEnvFile
		}
	}
	for name, alias := range c.Alias {
		if alias.Script == "" {
			return fmt.Errorf("alias %q: %w", name, ErrAliasMissingScript)
		}
	}
	return c.Log.Validate()
}

// AliasNames lists the configured aliases in sorted order.
func (c Config) AliasNames() []string {
	names := make([]string, 0, len(c.Alias))
	for name := range c.Alias {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads configuration from disk. Missing files return a default config.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Save writes configuration to disk, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
