// Package pipeline folds an ordered list of named executors over a state value,
// dispatching each step through a chain of middleware.
package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
)

// Executor is a single named step that transforms the state threaded through a
// pipeline. The name is only used for observability.
type Executor[S any] struct {
	Name string
	Run  func(ctx context.Context, state S) (S, error)
}

// New pairs a step function with its display name.
func New[S any](name string, fn func(ctx context.Context, state S) (S, error)) Executor[S] {
	return Executor[S]{Name: name, Run: fn}
}

// Next applies one executor to a state.
type Next[S any] func(ctx context.Context, e Executor[S], state S) (S, error)

// Middleware decorates the dispatch of every executor. Middleware may observe
// the executor and the states flowing in and out, but must return exactly what
// next returns.
type Middleware[S any] func(next Next[S]) Next[S]

func evaluate[S any](ctx context.Context, e Executor[S], state S) (S, error) {
	return e.Run(ctx, state)
}

// Compose wraps base with middleware right-to-left, so the first middleware is
// the outermost.
func Compose[S any](base Next[S], middleware ...Middleware[S]) Next[S] {
	next := base
	for i := len(middleware) - 1; i >= 0; i-- {
		if middleware[i] == nil {
			continue
		}
		next = middleware[i](next)
	}
	return next
}

// Apply returns a callable that, starting from the zero state, runs every
// executor in order through the composed middleware and returns the final
// state. The first executor error stops the fold; the state returned alongside
// it is the last one produced successfully.
func Apply[S any](executors []Executor[S], middleware ...Middleware[S]) func(ctx context.Context) (S, error) {
	dispatch := Compose(evaluate[S], middleware...)
	return func(ctx context.Context) (S, error) {
		var state S
		for _, e := range executors {
			next, err := dispatchStep(ctx, dispatch, e, state)
			if err != nil {
				return state, &StepError{Step: e.Name, Err: err}
			}
			state = next
		}
		return state, nil
	}
}

func dispatchStep[S any](ctx context.Context, dispatch Next[S], e Executor[S], state S) (S, error) {
	defer func() {
		if r := recover(); r != nil {
			if sp, ok := r.(*StepPanic); ok {
				panic(sp)
			}
			panic(&StepPanic{Step: e.Name, Value: r, Stack: debug.Stack()})
		}
	}()
	return dispatch(ctx, e, state)
}

// Until returns the executors up to and including the first one named name.
// All executors are returned when none matches.
func Until[S any](executors []Executor[S], name string) []Executor[S] {
	for i, e := range executors {
		if e.Name == name {
			return executors[:i+1]
		}
	}
	return executors
}

// Names lists executor display names in order.
func Names[S any](executors []Executor[S]) []string {
	names := make([]string, len(executors))
	for i, e := range executors {
		names[i] = e.Name
	}
	return names
}

// StepError reports which executor halted the pipeline.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepPanic is re-raised when an executor panics so the crash names the step.
type StepPanic struct {
	Step  string
	Value any
	Stack []byte
}

func (p *StepPanic) Error() string {
	return fmt.Sprintf("panic in %s: %v\n\n%s", p.Step, p.Value, p.Stack)
}
