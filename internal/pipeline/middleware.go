package pipeline

import (
	"context"
	"reflect"
	"runtime/trace"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
)

// TraceEntryExit logs the executor name before and after each step and wraps
// the step in a runtime/trace region of the same name.
func TraceEntryExit[S any](log *zap.Logger) Middleware[S] {
	return func(next Next[S]) Next[S] {
		return func(ctx context.Context, e Executor[S], state S) (S, error) {
			log.Debug("enter", zap.String("executor", e.Name))
			start := time.Now()
			out, err := withTraceRegion(ctx, e.Name, func() (S, error) {
				return next(ctx, e, state)
			})
			log.Debug("exit",
				zap.String("executor", e.Name),
				zap.Duration("elapsed", time.Since(start)),
				zap.Error(err))
			return out, err
		}
	}
}

func withTraceRegion[T any](ctx context.Context, name string, fn func() (T, error)) (T, error) {
	var value T
	var err error
	trace.WithRegion(ctx, name, func() {
		value, err = fn()
	})
	return value, err
}

// DiffMode selects how much LogStateChange reports.
type DiffMode string

const (
	DiffOff     DiffMode = "off"
	DiffShallow DiffMode = "shallow"
	DiffDeep    DiffMode = "deep"
)

// LogStateChange logs which top-level state fields each executor added,
// removed, or changed. In deep mode it also logs a structural diff.
func LogStateChange[S any](log *zap.Logger, mode DiffMode) Middleware[S] {
	if mode == DiffOff || mode == "" {
		return nil
	}
	return func(next Next[S]) Next[S] {
		return func(ctx context.Context, e Executor[S], state S) (S, error) {
			before := state
			after, err := next(ctx, e, state)
			if err != nil {
				return after, err
			}
			diff := Changes(before, after)
			if diff.Empty() {
				log.Debug(e.Name, zap.String("state", "unchanged"))
				return after, err
			}
			fields := []zap.Field{
				zap.Strings("added", diff.Added),
				zap.Strings("removed", diff.Removed),
				zap.Strings("changed", diff.Changed),
			}
			if mode == DiffDeep {
				fields = append(fields, zap.String("diff", cmp.Diff(before, after, exportAll)))
			}
			log.Debug(e.Name, fields...)
			return after, err
		}
	}
}

// StateDiff names the top-level fields that differ between two states.
type StateDiff struct {
	Added   []string
	Removed []string
	Changed []string
}

func (d StateDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

var exportAll = cmp.Exporter(func(reflect.Type) bool { return true })

// Changes compares two states field by field. Fields are named by their
// `state` struct tag when present. A field going from zero to non-zero is
// added, the reverse is removed. Non-struct states are reported as a single
// field named "state".
func Changes[S any](before, after S) StateDiff {
	var diff StateDiff
	bv := reflect.ValueOf(&before).Elem()
	av := reflect.ValueOf(&after).Elem()
	if bv.Kind() != reflect.Struct {
		if !cmp.Equal(before, after, exportAll) {
			diff.Changed = append(diff.Changed, "state")
		}
		return diff
	}
	t := bv.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Tag.Get("state")
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		b, a := bv.Field(i), av.Field(i)
		switch {
		case b.IsZero() && a.IsZero():
		case b.IsZero():
			diff.Added = append(diff.Added, name)
		case a.IsZero():
			diff.Removed = append(diff.Removed, name)
		case !cmp.Equal(b.Interface(), a.Interface(), exportAll):
			diff.Changed = append(diff.Changed, name)
		}
	}
	return diff
}
