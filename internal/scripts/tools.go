package scripts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/brandonbloom/scripts/internal/config"
	"github.com/brandonbloom/scripts/internal/configobj"
	"github.com/brandonbloom/scripts/internal/pipeline"
)

// Tool describes how one wrapped CLI is configured and invoked.
type Tool struct {
	Name  string
	Short string

	// DefaultConfig is the bundled config file name inside the script directory.
	DefaultConfig string
	// ConfigOptions are the synonymous flags naming a user config file.
	ConfigOptions []string
	// PathFields are dotted config paths holding paths relative to the origin directory.
	PathFields   []string
	ShouldModify configobj.ShouldModify
	Updater      FieldsUpdater
	// GeneratedConfig is written into the script directory.
	GeneratedConfig string
	// EjectName is the file `scripts eject` writes into the origin directory.
	EjectName string

	// BinRel locates the binary under node_modules; Command is its name on PATH.
	BinRel     string
	Command    string
	ConfigFlag string
	// Extra returns arguments appended after the config flag.
	Extra func(inv *Invocation, s State) ([]string, error)
	// OwnsPositionals means Extra places positional arguments itself.
	OwnsPositionals bool

	// Prepare runs right after the config object is loaded.
	Prepare func(inv *Invocation) []Executor
	// Finish replaces the default executeCommand step.
	Finish func(inv *Invocation) []Executor
}

// Executors lists the tool's pipeline.
func (t Tool) Executors(inv *Invocation) []Executor {
	removed := append(append([]string(nil), t.ConfigOptions...), OriginDirOption)
	steps := []Executor{
		Initialize(),
		SetScriptDir(inv, t.Name),
		SetArgsObject(inv),
		SetOriginDir(inv),
		SetSpecifiedOriginDir(inv),
		LoadEnvFiles(inv),
		SetDefaultConfigPath(t.Name, t.DefaultConfig),
		SetUserConfigPath(inv, t.ConfigOptions...),
		CalcConfigPath(inv),
		GetConfigObject(),
	}
	if t.Prepare != nil {
		steps = append(steps, t.Prepare(inv)...)
	}
	steps = append(steps,
		RemoveOptionsFromArgsObj(removed...),
		SetArgsArr(),
	)
	if len(t.PathFields) > 0 {
		steps = append(steps, ModifyRelativePathsInConfigObject(t.ShouldModify, t.PathFields))
	}
	if t.Updater != nil {
		steps = append(steps, AddFieldsToConfigObject(t.Updater))
	}
	steps = append(steps,
		WriteConfigObjectToPath(t.GeneratedConfig),
		SetBinPath(inv, t),
		GenerateCommand(inv, t),
	)
	if t.Finish != nil {
		return append(steps, t.Finish(inv)...)
	}
	return append(steps, ExecuteCommand(inv))
}

// Run builds the tool's pipeline and runs it with the given middleware.
func (t Tool) Run(ctx context.Context, inv *Invocation, middleware ...pipeline.Middleware[State]) (State, error) {
	return pipeline.Apply(t.Executors(inv), middleware...)(ctx)
}

func (t Tool) commandArgs(inv *Invocation, s State) ([]string, error) {
	args := append([]string(nil), s.ArgsArr...)
	if !t.OwnsPositionals {
		args = append(args, s.Args.Positional...)
	}
	args = append(args, t.ConfigFlag, s.TempConfigFilePath)
	if t.Extra != nil {
		extra, err := t.Extra(inv, s)
		if err != nil {
			return nil, err
		}
		args = append(args, extra...)
	}
	return args, nil
}

// Jest runs jest with a generated config whose rootDir is the origin directory.
var Jest = Tool{
	Name:          "jest",
	Short:         "Run jest tests",
	DefaultConfig: "config.json",
	ConfigOptions: []string{"config", "c"},
	PathFields: []string{
		"cacheDirectory",
		"coverageDirectory",
		"moduleDirectories",
		"modulePaths",
		"prettierPath",
		"rootDir",
		"setupFiles",
		"setupFilesAfterEnv",
		"snapshotResolver",
		"snapshotSerializers",
	},
	ShouldModify: configobj.ExceptContaining("<rootDir>"),
	Updater: func(cfg configobj.Object, originDir string) map[string]any {
		return map[string]any{"rootDir": originDir}
	},
	GeneratedConfig: "generatedConfig.json",
	EjectName:       "jest.config.json",
	BinRel:          ".bin/jest",
	Command:         "jest",
	ConfigFlag:      "--config",
}

// Tsc runs the TypeScript compiler against a generated tsconfig.
var Tsc = Tool{
	Name:          "tsc",
	Short:         "Type-check and compile with tsc",
	DefaultConfig: "config.json",
	ConfigOptions: []string{"project", "p"},
	PathFields: []string{
		"compilerOptions.outFile",
		"compilerOptions.outDir",
		"compilerOptions.baseUrl",
		"compilerOptions.declarationDir",
		"compilerOptions.rootDir",
		"compilerOptions.rootDirs",
		"compilerOptions.mapRoot",
		"compilerOptions.sourceRoot",
		"compilerOptions.typeRoots",
		"exclude",
		"include",
		"files",
	},
	Updater:         tscFields,
	GeneratedConfig: "tsconfigGenerated.json",
	EjectName:       "tsconfig.json",
	BinRel:          "typescript/bin/tsc",
	Command:         "tsc",
	ConfigFlag:      "--project",
}

// tscFields points an unset include list and compilerOptions.rootDir at the
// origin directory, since the generated tsconfig lives elsewhere.
func tscFields(cfg configobj.Object, originDir string) map[string]any {
	fields := map[string]any{}
	if v, ok := cfg.Get("include"); !ok || isEmpty(v) {
		if _, hasFiles := cfg.Get("files"); !hasFiles {
			fields["include"] = []any{originDir}
		}
	}
	if v, ok := cfg.Get("compilerOptions.rootDir"); !ok || isEmpty(v) {
		fields["compilerOptions.rootDir"] = originDir
	}
	return fields
}

func isEmpty(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	}
	return false
}

// Lint runs tslint with a generated config against the origin's tsconfig.
var Lint = Tool{
	Name:            "lint",
	Short:           "Lint TypeScript sources with tslint",
	DefaultConfig:   "config.json",
	ConfigOptions:   []string{"config", "c"},
	PathFields:      []string{"rulesDirectory", "linterOptions.exclude"},
	GeneratedConfig: "tslintGenerated.json",
	EjectName:       "tslint.json",
	BinRel:          "tslint/bin/tslint",
	Command:         "tslint",
	ConfigFlag:      "--config",
	Extra: func(inv *Invocation, s State) ([]string, error) {
		if s.Args.Has("project") || s.Args.Has("p") {
			return nil, nil
		}
		return []string{"--project", filepath.Join(s.OriginDir, "tsconfig.json")}, nil
	},
}

// Prettier checks formatting of the origin's sources.
var Prettier = Tool{
	Name:            "prettier",
	Short:           "Check formatting with prettier",
	DefaultConfig:   "config.json",
	ConfigOptions:   []string{"config", "c"},
	GeneratedConfig: "prettierGenerated.json",
	EjectName:       ".prettierrc.json",
	BinRel:          "prettier/bin-prettier.js",
	Command:         "prettier",
	ConfigFlag:      "--config",
	OwnsPositionals: true,
	Extra: func(inv *Invocation, s State) ([]string, error) {
		targets := s.Args.Positional
		if len(targets) == 0 {
			targets = []string{filepath.Join(s.OriginDir, "src", "**", "*")}
		}
		ignore, err := materialize("prettier", s.ScriptDir, "prettierignore")
		if err != nil {
			return nil, err
		}
		args := []string{"--check"}
		args = append(args, targets...)
		return append(args, "--ignore-path", ignore), nil
	},
}

// Depcheck reports dependencies the origin package declares but never uses.
var Depcheck = Tool{
	Name:            "depcheck",
	Short:           "Find unused dependencies with depcheck",
	DefaultConfig:   "config.json",
	ConfigOptions:   []string{"config", "c"},
	GeneratedConfig: "depcheckGenerated.json",
	EjectName:       "depcheck.json",
	BinRel:          ".bin/depcheck",
	Command:         "depcheck",
	ConfigFlag:      "--config",
	OwnsPositionals: true,
	Extra: func(inv *Invocation, s State) ([]string, error) {
		return []string{"--json", s.OriginDir}, nil
	},
	Prepare: func(inv *Invocation) []Executor {
		return []Executor{MergeOriginConfig(DepcheckProjectConfig)}
	},
	Finish: func(inv *Invocation) []Executor {
		return []Executor{CaptureCommand(inv), ReportDepcheck(inv)}
	},
}

var builtins = []Tool{Jest, Tsc, Lint, Prettier, Depcheck}

// All lists the built-in tools in display order.
func All() []Tool {
	return append([]Tool(nil), builtins...)
}

// Lookup finds a built-in tool by name.
func Lookup(name string) (Tool, bool) {
	for _, t := range builtins {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Resolve maps a script name onto a tool, consulting the project's aliases
// when the name is not built in. The returned config path is the alias's,
// if any.
func Resolve(name string, cfg config.Config) (Tool, string, error) {
	if t, ok := Lookup(name); ok {
		return t, "", nil
	}
	alias, ok := cfg.Alias[name]
	if !ok {
		return Tool{}, "", fmt.Errorf("%w %q (available: %v)", ErrUnknownScript, name, Names(cfg))
	}
	t, ok := Lookup(alias.Script)
	if !ok {
		return Tool{}, "", fmt.Errorf("alias %q: %w %q", name, ErrUnknownScript, alias.Script)
	}
	return t, alias.Config, nil
}

// Names lists built-in tool names followed by the project's aliases.
func Names(cfg config.Config) []string {
	names := make([]string, 0, len(builtins)+len(cfg.Alias))
	for _, t := range builtins {
		names = append(names, t.Name)
	}
	return append(names, cfg.AliasNames()...)
}
