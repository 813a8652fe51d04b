package scripts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/brandonbloom/scripts/internal/pipeline"
	"go.uber.org/zap"
	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"
)

// SetBinPath locates the wrapped tool: a [bin] override from scripts.toml,
// then node_modules in the origin directory, then node_modules in the
// install home, then PATH.
func SetBinPath(inv *Invocation, t Tool) Executor {
	return pipeline.New("setBinPath", func(ctx context.Context, s State) (State, error) {
		p, err := findBinary(inv, t, s.OriginDir)
		if err != nil {
			return s, err
		}
		s.BinPath = p
		return s, nil
	})
}

// FindBinary locates t's binary relative to the invocation's origin directory.
func FindBinary(inv *Invocation, t Tool) (string, error) {
	return findBinary(inv, t, resolveOriginDir(inv))
}

func findBinary(inv *Invocation, t Tool, originDir string) (string, error) {
	if override, ok := inv.projectConfig().Bin[t.Name]; ok && override != "" {
		if !strings.ContainsRune(override, '/') && !strings.ContainsRune(override, filepath.Separator) {
			p, err := exec.LookPath(override)
			if err != nil {
				return "", fmt.Errorf("%w: bin.%s = %s: %v", ErrBinaryNotFound, t.Name, override, err)
			}
			return p, nil
		}
		p := override
		if !filepath.IsAbs(p) {
			p = filepath.Join(originDir, p)
		}
		if !isFile(p) {
			return "", fmt.Errorf("%w: bin.%s = %s", ErrBinaryNotFound, t.Name, p)
		}
		return p, nil
	}

	var tried []string
	for _, dir := range []string{originDir, inv.HomeDir} {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, "node_modules", filepath.FromSlash(t.BinRel))
		if isFile(p) {
			return p, nil
		}
		tried = append(tried, p)
	}
	if p, err := exec.LookPath(t.Command); err == nil {
		return p, nil
	}
	tried = append(tried, "$PATH/"+t.Command)
	return "", fmt.Errorf("%w: %s (tried %s)", ErrBinaryNotFound, t.Name, strings.Join(tried, ", "))
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// GenerateCommand renders the binary and the tool's arguments as one
// shell-quoted command line.
func GenerateCommand(inv *Invocation, t Tool) Executor {
	return pipeline.New("generateCommand", func(ctx context.Context, s State) (State, error) {
		args, err := t.commandArgs(inv, s)
		if err != nil {
			return s, err
		}
		command, err := quoteCommand(append([]string{s.BinPath}, args...))
		if err != nil {
			return s, err
		}
		s.Command = command
		return s, nil
	})
}

func quoteCommand(argv []string) (string, error) {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quote %q: %w", arg, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}

func splitCommand(command string, environ []string) ([]string, error) {
	argv, err := shell.Fields(command, func(name string) string {
		return lookupEnv(environ, name)
	})
	if err != nil {
		return nil, err
	}
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	return argv, nil
}

// ExecuteCommand runs Command with inherited stdio and records its status.
// A failing or killed child ends the run with a CommandError.
func ExecuteCommand(inv *Invocation) Executor {
	return pipeline.New("executeCommand", func(ctx context.Context, s State) (State, error) {
		cmd, err := prepareCommand(ctx, inv, s)
		if err != nil {
			return s, err
		}
		cmd.Stdout = inv.stdout()
		inv.logger().Debug("running command", zap.String("command", s.Command))
		if err := cmd.Run(); err != nil {
			cerr := commandFailure(inv, s.Command, err)
			s.CommandStatus = &CommandStatus{Message: cerr.Error(), Code: 1}
			return s, cerr
		}
		s.CommandStatus = &CommandStatus{Message: "Success", Code: 0}
		return s, nil
	})
}

// CaptureCommand runs Command collecting its stdout into Output. A non-zero
// exit is recorded rather than returned, since tools like depcheck report
// findings through their exit status; a signal still ends the run.
func CaptureCommand(inv *Invocation) Executor {
	return pipeline.New("captureCommand", func(ctx context.Context, s State) (State, error) {
		cmd, err := prepareCommand(ctx, inv, s)
		if err != nil {
			return s, err
		}
		var stdout bytes.Buffer
		cmd.Stdout = &stdout
		inv.logger().Debug("capturing command", zap.String("command", s.Command))
		runErr := cmd.Run()
		s.Output = stdout.Bytes()
		if runErr == nil {
			s.CommandStatus = &CommandStatus{Message: "Success", Code: 0}
			return s, nil
		}
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) && terminatingSignal(exitErr) == "" {
			s.CommandStatus = &CommandStatus{Message: exitErr.Error(), Code: exitErr.ExitCode()}
			return s, nil
		}
		cerr := commandFailure(inv, s.Command, runErr)
		s.CommandStatus = &CommandStatus{Message: cerr.Error(), Code: 1}
		return s, cerr
	})
}

func prepareCommand(ctx context.Context, inv *Invocation, s State) (*exec.Cmd, error) {
	environ := childEnviron(inv.environ(), s.Env)
	argv, err := splitCommand(s.Command, environ)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", s.Command, err)
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = inv.WorkDir
	cmd.Env = environ
	cmd.Stdin = inv.stdin()
	cmd.Stderr = inv.stderr()
	return cmd, nil
}

const (
	killedMessage = `The run failed because the process exited too early.
This probably means the system ran out of memory or someone called
"kill -9" on the process.`

	terminatedMessage = `The run failed because the process exited too early.
Someone might have called "kill" or "killall", or the system could
be shutting down.`
)

func commandFailure(inv *Invocation, command string, err error) *CommandError {
	cerr := &CommandError{Command: command, Err: err}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return cerr
	}
	cerr.Code = exitErr.ExitCode()
	cerr.Signal = terminatingSignal(exitErr)
	log := inv.logger()
	switch cerr.Signal {
	case "":
		return cerr
	case "SIGKILL":
		log.Error(killedMessage)
	case "SIGTERM":
		log.Error(terminatedMessage)
	}
	log.Error("script executed with an error", zap.String("signal", cerr.Signal))
	return cerr
}
