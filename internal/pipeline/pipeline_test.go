package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testState struct {
	Trail []string `state:"trail"`
	Name  string   `state:"name"`
	Count int
	Gone  string `state:"gone"`
}

func appendStep(name string) Executor[testState] {
	return New(name, func(_ context.Context, s testState) (testState, error) {
		s.Trail = append(append([]string(nil), s.Trail...), name)
		return s, nil
	})
}

func TestApplyRunsExecutorsInOrder(t *testing.T) {
	run := Apply([]Executor[testState]{appendStep("a"), appendStep("b"), appendStep("c")})
	got, err := run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, got.Trail); diff != "" {
		t.Fatalf("trail mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyStartsFromZeroStateEachCall(t *testing.T) {
	run := Apply([]Executor[testState]{appendStep("only")})
	for i := 0; i < 2; i++ {
		got, err := run(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if len(got.Trail) != 1 {
			t.Fatalf("run %d: trail = %v, want one entry", i, got.Trail)
		}
	}
}

func TestComposeFirstMiddlewareIsOutermost(t *testing.T) {
	var calls []string
	record := func(label string) Middleware[testState] {
		return func(next Next[testState]) Next[testState] {
			return func(ctx context.Context, e Executor[testState], s testState) (testState, error) {
				calls = append(calls, label+">"+e.Name)
				out, err := next(ctx, e, s)
				calls = append(calls, label+"<"+e.Name)
				return out, err
			}
		}
	}

	run := Apply([]Executor[testState]{appendStep("x")}, record("outer"), nil, record("inner"))
	if _, err := run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"outer>x", "inner>x", "inner<x", "outer<x"}
	if diff := cmp.Diff(want, calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyStopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	failing := New("fail", func(_ context.Context, s testState) (testState, error) {
		return s, boom
	})
	run := Apply([]Executor[testState]{appendStep("a"), failing, appendStep("never")})

	got, err := run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != "fail" {
		t.Fatalf("err = %#v, want StepError for fail", err)
	}
	if diff := cmp.Diff([]string{"a"}, got.Trail); diff != "" {
		t.Fatalf("trail mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyReraisesPanicsWithStepName(t *testing.T) {
	panicky := New("explode", func(_ context.Context, s testState) (testState, error) {
		panic("kaboom")
	})
	run := Apply([]Executor[testState]{panicky})

	defer func() {
		r := recover()
		sp, ok := r.(*StepPanic)
		if !ok {
			t.Fatalf("recovered %T, want *StepPanic", r)
		}
		if sp.Step != "explode" || sp.Value != "kaboom" {
			t.Fatalf("unexpected panic payload: %+v", sp)
		}
	}()
	_, _ = run(context.Background())
	t.Fatal("expected panic")
}

func TestUntil(t *testing.T) {
	steps := []Executor[testState]{appendStep("a"), appendStep("b"), appendStep("c")}
	if got := Names(Until(steps, "b")); !cmp.Equal(got, []string{"a", "b"}) {
		t.Fatalf("Until(b) = %v", got)
	}
	if got := Names(Until(steps, "missing")); len(got) != 3 {
		t.Fatalf("Until(missing) = %v, want all", got)
	}
}

func TestChanges(t *testing.T) {
	before := testState{Trail: []string{"a"}, Gone: "here", Count: 1}
	after := testState{Trail: []string{"a", "b"}, Name: "new", Count: 1}

	got := Changes(before, after)
	want := StateDiff{
		Added:   []string{"name"},
		Removed: []string{"gone"},
		Changed: []string{"trail"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Changes mismatch (-want +got):\n%s", diff)
	}
	if !Changes(before, before).Empty() {
		t.Fatal("identical states should produce an empty diff")
	}
}

func TestChangesNonStruct(t *testing.T) {
	if got := Changes(1, 2); !cmp.Equal(got.Changed, []string{"state"}) {
		t.Fatalf("Changes(1, 2) = %+v", got)
	}
}

func TestMiddlewareObservesWithoutChangingResults(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)

	steps := []Executor[testState]{
		appendStep("first"),
		New("rename", func(_ context.Context, s testState) (testState, error) {
			s.Name = "renamed"
			return s, nil
		}),
	}
	plain, err := Apply(steps)(context.Background())
	if err != nil {
		t.Fatalf("plain run: %v", err)
	}
	observed, err := Apply(steps, TraceEntryExit[testState](log), LogStateChange[testState](log, DiffDeep))(context.Background())
	if err != nil {
		t.Fatalf("observed run: %v", err)
	}
	if diff := cmp.Diff(plain, observed); diff != "" {
		t.Fatalf("middleware altered the result (-plain +observed):\n%s", diff)
	}

	var messages []string
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
	}
	want := []string{"enter", "first", "exit", "enter", "rename", "exit"}
	if diff := cmp.Diff(want, messages); diff != "" {
		t.Fatalf("log messages mismatch (-want +got):\n%s", diff)
	}

	renameEntries := logs.FilterMessage("rename").All()
	if len(renameEntries) != 1 {
		t.Fatalf("expected one state-change entry for rename, got %d", len(renameEntries))
	}
	fields := renameEntries[0].ContextMap()
	if added, _ := fields["added"].([]interface{}); len(added) != 1 || added[0] != "name" {
		t.Fatalf("added = %#v, want [name]", fields["added"])
	}
	if d, _ := fields["diff"].(string); !strings.Contains(d, "renamed") {
		t.Fatalf("deep diff should mention the new value, got %q", d)
	}
}

func TestLogStateChangeOffIsNil(t *testing.T) {
	if LogStateChange[testState](zap.NewNop(), DiffOff) != nil {
		t.Fatal("DiffOff should disable the middleware")
	}
}
