package scripts

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/brandonbloom/scripts/internal/argsobj"
	"github.com/brandonbloom/scripts/internal/configobj"
	"github.com/brandonbloom/scripts/internal/gitutil"
	"github.com/brandonbloom/scripts/internal/pipeline"
	"github.com/brandonbloom/scripts/internal/project"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// OriginDirOption names the flag that pins the origin directory explicitly.
const OriginDirOption = "origin-dir"

// Initialize makes crashes print every goroutine's stack. It does not touch
// the state.
func Initialize() Executor {
	return pipeline.New("initializeScript", func(ctx context.Context, s State) (State, error) {
		debug.SetTraceback("all")
		return s, nil
	})
}

// SetScriptDir points the state at the tool's directory under the install home.
func SetScriptDir(inv *Invocation, tool string) Executor {
	return pipeline.New("setScriptDir", func(ctx context.Context, s State) (State, error) {
		s.ScriptDir = filepath.Join(inv.HomeDir, tool)
		return s, nil
	})
}

// SetArgsObject parses the raw arguments.
func SetArgsObject(inv *Invocation) Executor {
	return pipeline.New("setArgsObject", func(ctx context.Context, s State) (State, error) {
		obj := argsobj.Parse(inv.Args)
		obj.Script = inv.Script
		s.Args = obj
		return s, nil
	})
}

// SetOriginDir locates the caller's package root: the discovered project,
// else the enclosing git work tree, else the install path's node_modules
// ancestor, else the working directory.
func SetOriginDir(inv *Invocation) Executor {
	return pipeline.New("setOriginDir", func(ctx context.Context, s State) (State, error) {
		s.OriginDir = resolveOriginDir(inv)
		return s, nil
	})
}

func resolveOriginDir(inv *Invocation) string {
	if inv.Project != nil && inv.Project.Root != "" {
		return inv.Project.Root
	}
	if inv.WorkDir != "" && gitutil.Available() {
		top, err := gitutil.TopLevel(inv.WorkDir)
		if err == nil {
			return top
		}
		inv.logger().Debug("no git work tree", zap.String("dir", inv.WorkDir), zap.Error(err))
	}
	if root, ok := project.RootFromInvocation(inv.Argv0); ok {
		return root
	}
	return inv.WorkDir
}

// SetSpecifiedOriginDir lets --origin-dir override the detected origin
// directory. Relative values resolve against the working directory. The
// project settings used by later steps (env_files, bin) are reloaded from the
// new origin's scripts.toml, or reset to defaults when it has none.
func SetSpecifiedOriginDir(inv *Invocation) Executor {
	return pipeline.New("setSpecifiedOriginDir", func(ctx context.Context, s State) (State, error) {
		v, ok := s.Args.Get(OriginDirOption)
		if !ok {
			return s, nil
		}
		dir, ok := v.(string)
		if !ok || dir == "" {
			return s, usageErrorf("--%s requires a directory", OriginDirOption)
		}
		s.OriginDir = configobj.Absolutize(inv.WorkDir, dir, nil)
		if inv.Project == nil || inv.Project.Root != s.OriginDir {
			p, err := project.Load(s.OriginDir)
			if err != nil {
				return s, err
			}
			inv.logger().Debug("using origin project settings", zap.String("path", p.ConfigPath))
			inv.Project = p
		}
		return s, nil
	})
}

// RemoveOptionsFromArgsObj drops options the wrapped tool must not see.
func RemoveOptionsFromArgsObj(names ...string) Executor {
	return pipeline.New("removeOptionsFromArgsObj", func(ctx context.Context, s State) (State, error) {
		s.Args = s.Args.Without(names...)
		return s, nil
	})
}

// LoadEnvFiles reads the project's env_files, relative to the origin
// directory, into the child environment. Missing files are skipped and later
// files override earlier ones.
func LoadEnvFiles(inv *Invocation) Executor {
	return pipeline.New("loadEnvFiles", func(ctx context.Context, s State) (State, error) {
		files := inv.projectConfig().EnvFiles
		if len(files) == 0 {
			return s, nil
		}
		env := make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			env[k] = v
		}
		for _, f := range files {
			p := configobj.Absolutize(s.OriginDir, f, nil)
			values, err := godotenv.Read(p)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					inv.logger().Debug("env file missing", zap.String("path", p))
					continue
				}
				return s, err
			}
			for k, v := range values {
				env[k] = v
			}
		}
		s.Env = env
		return s, nil
	})
}

// SetDefaultConfigPath resolves name inside the script directory, writing
// the bundled default there first when it is missing.
func SetDefaultConfigPath(tool, name string) Executor {
	return pipeline.New("setDefaultConfigPath", func(ctx context.Context, s State) (State, error) {
		p, err := materialize(tool, s.ScriptDir, name)
		if err != nil {
			return s, err
		}
		s.DefaultConfigPath = p
		return s, nil
	})
}

// SetUserConfigPath records the config path the caller passed under any of
// the synonymous option names. Passing more than one synonym is a usage
// error. Without one, an alias's config path applies.
func SetUserConfigPath(inv *Invocation, names ...string) Executor {
	return pipeline.New("setUserConfigPath", func(ctx context.Context, s State) (State, error) {
		given := s.Args.Present(names...)
		switch len(given) {
		case 0:
			s.UserConfigPath = inv.AliasConfig
			return s, nil
		case 1:
		default:
			return s, usageErrorf("can't specify multiple config options: %s. They mean the same thing. Pick one!", strings.Join(names, ", "))
		}
		v, _ := s.Args.Get(given[0])
		p, ok := v.(string)
		if !ok || p == "" {
			return s, usageErrorf("option %q requires a path", given[0])
		}
		s.UserConfigPath = p
		return s, nil
	})
}

// CalcConfigPath picks the user's config when it exists, relative to the
// origin directory, and the default otherwise.
func CalcConfigPath(inv *Invocation) Executor {
	return pipeline.New("calcConfigPath", func(ctx context.Context, s State) (State, error) {
		s.ConfigPath = s.DefaultConfigPath
		if s.UserConfigPath == "" {
			return s, nil
		}
		p := configobj.Absolutize(s.OriginDir, s.UserConfigPath, nil)
		if _, err := os.Stat(p); err != nil {
			inv.logger().Warn("config not found, using default",
				zap.String("path", p),
				zap.String("default", s.DefaultConfigPath))
			return s, nil
		}
		s.ConfigPath = p
		return s, nil
	})
}

// GetConfigObject loads the config file at ConfigPath.
func GetConfigObject() Executor {
	return pipeline.New("getConfigObject", func(ctx context.Context, s State) (State, error) {
		obj, err := configobj.Load(s.ConfigPath)
		if err != nil {
			if errors.Is(err, configobj.ErrUnsupportedExtension) {
				return s, &UsageError{Msg: err.Error()}
			}
			return s, err
		}
		s.Config = obj
		return s, nil
	})
}

// SetArgsArr flattens the args object into argument tokens.
func SetArgsArr() Executor {
	return pipeline.New("setArgsArr", func(ctx context.Context, s State) (State, error) {
		s.ArgsArr = s.Args.Array()
		return s, nil
	})
}

// ModifyRelativePathsInConfigObject makes the listed path fields absolute
// with respect to the origin directory.
func ModifyRelativePathsInConfigObject(shouldModify configobj.ShouldModify, fields []string) Executor {
	return pipeline.New("modifyRelativePathsInConfigObject", func(ctx context.Context, s State) (State, error) {
		cfg := s.Config.Clone()
		configobj.RewritePaths(cfg, s.OriginDir, fields, shouldModify)
		s.Config = cfg
		return s, nil
	})
}

// FieldsUpdater computes dotted-path assignments for a config object.
type FieldsUpdater func(cfg configobj.Object, originDir string) map[string]any

// AddFieldsToConfigObject applies the updater's assignments.
func AddFieldsToConfigObject(update FieldsUpdater) Executor {
	return pipeline.New("addFieldsToConfigObject", func(ctx context.Context, s State) (State, error) {
		cfg := s.Config.Clone()
		if cfg == nil {
			cfg = configobj.Object{}
		}
		configobj.ApplyFields(cfg, update(cfg, s.OriginDir))
		s.Config = cfg
		return s, nil
	})
}

// WriteConfigObjectToPath writes the config object to target, resolved
// against the script directory when relative. The config object is always a
// map, so target must be a JSON, YAML, or TOML file; raw support files are
// written by materialize instead.
func WriteConfigObjectToPath(target string) Executor {
	return pipeline.New("writeConfigObjectToPath", func(ctx context.Context, s State) (State, error) {
		p := target
		if !filepath.IsAbs(p) {
			p = filepath.Join(s.ScriptDir, p)
		}
		if err := configobj.Write(p, map[string]any(s.Config)); err != nil {
			return s, err
		}
		s.TempConfigFilePath = p
		return s, nil
	})
}
