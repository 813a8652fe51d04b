package configobj

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/tailscale/hujson"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnsupportedExtension indicates a config file in a format we cannot read or write.
	ErrUnsupportedExtension = errors.New("config file extension type not supported")
	// ErrNotAnObject indicates the config file's top-level value is not a mapping.
	ErrNotAnObject = errors.New("config must be an object at the top level")
)

// ModuleSymbol is the package-level variable a Go config module must define.
const ModuleSymbol = "Config"

// Format identifies how a config file is encoded.
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatTOML   Format = "toml"
	FormatModule Format = "go"
)

// FormatOf maps a file extension onto a Format.
func FormatOf(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".go":
		return FormatModule, nil
	}
	return "", fmt.Errorf("%w: %q (%s)", ErrUnsupportedExtension, ext, path)
}

// Load reads the config object stored at path. JSON may contain // and /* */
// comments and trailing commas. Go files are evaluated and must define a
// package-level Config variable.
func Load(path string) (Object, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	obj, err := Decode(format, data, path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return obj, nil
}

// Decode parses data in the given format. name is used only for Go modules,
// to report evaluation errors.
func Decode(format Format, data []byte, name string) (Object, error) {
	var raw any
	switch format {
	case FormatJSON:
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(std, &raw); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case FormatTOML:
		var m map[string]any
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		raw = m
	case FormatModule:
		v, err := evalModule(name, data)
		if err != nil {
			return nil, err
		}
		raw = v
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, format)
	}
	m, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, ErrNotAnObject
	}
	return Object(m), nil
}

func evalModule(name string, src []byte) (any, error) {
	file, err := parser.ParseFile(token.NewFileSet(), name, src, parser.PackageClauseOnly)
	if err != nil {
		return nil, err
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib: %w", err)
	}
	if _, err := i.Eval(string(src)); err != nil {
		return nil, fmt.Errorf("evaluate module: %w", err)
	}
	sym := file.Name.Name + "." + ModuleSymbol
	v, err := i.Eval(sym)
	if err != nil {
		return nil, fmt.Errorf("module must define %s: %w", sym, err)
	}
	if !v.IsValid() {
		return nil, fmt.Errorf("module must define %s", sym)
	}

	// Round-trip through JSON so interpreter-defined types become plain maps.
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v.Interface()); err != nil {
		return nil, fmt.Errorf("encode %s: %w", sym, err)
	}
	var out any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		return nil, err
	}
	return out, nil
}
