package scripts

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownScript indicates the requested script is neither built in nor an alias.
	ErrUnknownScript = errors.New("unknown script")
	// ErrBinaryNotFound indicates the wrapped tool could not be located.
	ErrBinaryNotFound = errors.New("tool binary not found")
	// ErrUnusedDependencies indicates depcheck found dependencies nothing uses.
	ErrUnusedDependencies = errors.New("found unused dependencies")
)

// UsageError reports a problem with how the runner was invoked.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return e.Msg
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// CommandError reports a wrapped tool that failed or was killed.
type CommandError struct {
	Command string
	Code    int
	Signal  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Signal != "" {
		return fmt.Sprintf("command terminated by %s: %s", e.Signal, e.Command)
	}
	if e.Code != 0 {
		return fmt.Sprintf("command exited with status %d: %s", e.Code, e.Command)
	}
	return fmt.Sprintf("command failed: %s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
