package configobj

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Encode serializes value for the file at path. JSON targets are indented
// with two spaces, YAML and TOML targets use their encoders, and any other
// target takes value verbatim as a string or bytes.
func Encode(path string, value any) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(value); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case ".yaml", ".yml":
		return yaml.Marshal(value)
	case ".toml":
		return toml.Marshal(value)
	}
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	}
	return nil, fmt.Errorf("%w: cannot write %T to %s", ErrUnsupportedExtension, value, path)
}

// Write encodes value and atomically replaces the file at path, creating
// parent directories as needed.
func Write(path string, value any) error {
	data, err := Encode(path, value)
	if err != nil {
		return err
	}
	return WriteRaw(path, data)
}

// WriteRaw atomically replaces the file at path with data.
func WriteRaw(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
