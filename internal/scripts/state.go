// Package scripts defines the per-tool pipelines that turn a command line into
// a generated config file and a child process running the wrapped tool.
package scripts

import (
	"io"
	"os"
	"sort"

	"github.com/brandonbloom/scripts/internal/argsobj"
	"github.com/brandonbloom/scripts/internal/config"
	"github.com/brandonbloom/scripts/internal/configobj"
	"github.com/brandonbloom/scripts/internal/pipeline"
	"github.com/brandonbloom/scripts/internal/project"
	"go.uber.org/zap"
)

// State accumulates what the executors learn about a run. The state tag is the
// name reported when logging state changes.
type State struct {
	ScriptDir          string            `state:"scriptDir"`
	OriginDir          string            `state:"originDir"`
	Args               argsobj.Object    `state:"argsObj"`
	Env                map[string]string `state:"env"`
	DefaultConfigPath  string            `state:"defaultConfigPath"`
	UserConfigPath     string            `state:"userSpecifiedConfigPath"`
	ConfigPath         string            `state:"configPath"`
	Config             configobj.Object  `state:"configObj"`
	ArgsArr            []string          `state:"argsArr"`
	TempConfigFilePath string            `state:"tempConfigFilePath"`
	BinPath            string            `state:"binPath"`
	Command            string            `state:"command"`
	CommandStatus      *CommandStatus    `state:"commandStatus"`
	Output             []byte            `state:"output"`
}

// CommandStatus records how the wrapped tool exited.
type CommandStatus struct {
	Message string
	Code    int
}

// Executor is a pipeline step over State.
type Executor = pipeline.Executor[State]

// Invocation carries everything a run reads from outside its State: the
// command line, the directories involved, and where output goes.
type Invocation struct {
	// Script is the name the runner was asked for, possibly an alias.
	Script string
	// Args are the raw arguments following the script name.
	Args []string
	// Argv0 is the path the runner was invoked through.
	Argv0   string
	WorkDir string
	// HomeDir holds materialized default configs and generated configs,
	// one subdirectory per tool.
	HomeDir string
	// Project is nil when no project root was discovered.
	Project *project.Project
	// AliasConfig is the config path an alias supplies when the caller
	// passes none.
	AliasConfig string

	Environ []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Log     *zap.Logger
}

func (inv *Invocation) projectConfig() config.Config {
	if inv.Project == nil {
		return config.Default()
	}
	return inv.Project.Config
}

func (inv *Invocation) logger() *zap.Logger {
	if inv.Log == nil {
		return zap.NewNop()
	}
	return inv.Log
}

func (inv *Invocation) stdin() io.Reader {
	if inv.Stdin == nil {
		return os.Stdin
	}
	return inv.Stdin
}

func (inv *Invocation) stdout() io.Writer {
	if inv.Stdout == nil {
		return os.Stdout
	}
	return inv.Stdout
}

func (inv *Invocation) stderr() io.Writer {
	if inv.Stderr == nil {
		return os.Stderr
	}
	return inv.Stderr
}

func (inv *Invocation) environ() []string {
	if inv.Environ == nil {
		return os.Environ()
	}
	return inv.Environ
}

// childEnviron appends extra variables, in sorted order, after the inherited
// environment so they take precedence.
func childEnviron(base []string, extra map[string]string) []string {
	out := append([]string(nil), base...)
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+extra[k])
	}
	return out
}

func lookupEnv(environ []string, name string) string {
	for i := len(environ) - 1; i >= 0; i-- {
		k, v, ok := cutEnv(environ[i])
		if ok && k == name {
			return v
		}
	}
	return ""
}

func cutEnv(kv string) (string, string, bool) {
	for i := 1; i < len(kv); i++ {
		if kv[i] == '=' {
			return kv[:i], kv[i+1:], true
		}
	}
	return "", "", false
}
