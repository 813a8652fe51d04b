package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/brandonbloom/scripts/internal/config"
	"github.com/brandonbloom/scripts/internal/logging"
	"github.com/brandonbloom/scripts/internal/pipeline"
	"github.com/brandonbloom/scripts/internal/project"
	"github.com/brandonbloom/scripts/internal/scripts"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvHome overrides where default and generated configs are kept.
const EnvHome = "SCRIPTS_HOME"

type rootOptions struct {
	debug      bool
	traceState string

	level zap.AtomicLevel
	log   *zap.Logger

	wd         string
	project    *project.Project
	projectErr error
}

func newRootOptions() *rootOptions {
	return &rootOptions{level: zap.NewAtomicLevelAt(zapcore.InfoLevel)}
}

func (o *rootOptions) logger() *zap.Logger {
	if o.log == nil {
		o.log = logging.Stderr(o.level)
	}
	return o.log
}

// setup discovers the project and configures logging before any command runs.
// A broken scripts.toml is remembered rather than returned so doctor can
// report it.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	o.log = logging.New(cmd.ErrOrStderr(), o.level)
	if err := validateTraceState(pipeline.DiffMode(o.traceState)); err != nil {
		return err
	}

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	o.wd = wd
	proj, err := project.Discover(wd)
	switch {
	case err == nil:
		o.project = proj
	case errors.Is(err, project.ErrNotFound):
	default:
		o.projectErr = err
	}

	levelName := o.projectConfig().Log.Level
	tracing := o.traceState != "" && pipeline.DiffMode(o.traceState) != pipeline.DiffOff
	if o.debug || tracing || logging.DebugFromEnv(os.LookupEnv) {
		levelName = "debug"
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return err
	}
	o.level.SetLevel(level)
	return nil
}

func (o *rootOptions) projectConfig() config.Config {
	if o.project == nil {
		return config.Default()
	}
	return o.project.Config
}

func (o *rootOptions) diffMode() pipeline.DiffMode {
	if o.traceState != "" {
		return pipeline.DiffMode(o.traceState)
	}
	return pipeline.DiffMode(o.projectConfig().Log.StateDiff)
}

func (o *rootOptions) middleware() []pipeline.Middleware[scripts.State] {
	log := o.logger()
	return []pipeline.Middleware[scripts.State]{
		pipeline.LogStateChange[scripts.State](log, o.diffMode()),
		pipeline.TraceEntryExit[scripts.State](log),
	}
}

// resolve maps a script name onto a tool and the invocation that runs it.
func (o *rootOptions) resolve(cmd *cobra.Command, name string, args []string) (scripts.Tool, *scripts.Invocation, error) {
	if o.projectErr != nil {
		return scripts.Tool{}, nil, o.projectErr
	}
	tool, aliasConfig, err := scripts.Resolve(name, o.projectConfig())
	if err != nil {
		return scripts.Tool{}, nil, &scripts.UsageError{Msg: err.Error()}
	}
	home, err := homeDir()
	if err != nil {
		return scripts.Tool{}, nil, err
	}
	inv := &scripts.Invocation{
		Script:      name,
		Args:        args,
		Argv0:       invocationPath(),
		WorkDir:     o.wd,
		HomeDir:     home,
		Project:     o.project,
		AliasConfig: aliasConfig,
		Stdin:       cmd.InOrStdin(),
		Stdout:      cmd.OutOrStdout(),
		Stderr:      cmd.ErrOrStderr(),
		Log:         o.logger().With(zap.String("script", name)),
	}
	return tool, inv, nil
}

func homeDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return filepath.Abs(dir)
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cache, "scripts"), nil
}

// invocationPath prefers the path the binary was started through, which
// keeps node_modules/.bin symlinks intact, and falls back to the resolved
// executable.
func invocationPath() string {
	if len(os.Args) > 0 && strings.ContainsRune(os.Args[0], filepath.Separator) {
		return os.Args[0]
	}
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return exe
}
