package scripts

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/brandonbloom/scripts/internal/config"
	"github.com/brandonbloom/scripts/internal/pipeline"
	"github.com/brandonbloom/scripts/internal/project"
)

type testEnv struct {
	inv    *Invocation
	origin string
	home   string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T, args ...string) *testEnv {
	t.Helper()
	origin := t.TempDir()
	home := t.TempDir()
	var stdout, stderr bytes.Buffer
	inv := &Invocation{
		Script:  "jest",
		Args:    args,
		WorkDir: origin,
		HomeDir: home,
		Project: &project.Project{
			Root:       origin,
			ConfigPath: filepath.Join(origin, config.FileName),
			Config:     config.Default(),
		},
		Environ: []string{"PATH=" + os.Getenv("PATH")},
		Stdin:   bytes.NewReader(nil),
		Stdout:  &stdout,
		Stderr:  &stderr,
	}
	return &testEnv{inv: inv, origin: origin, home: home, stdout: &stdout, stderr: &stderr}
}

func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

// installFakeTool writes an executable shell script standing in for a
// wrapped tool under <dir>/node_modules/<rel>.
func installFakeTool(t *testing.T, dir, rel, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are shell scripts")
	}
	p := filepath.Join(dir, "node_modules", filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return p
}

func runUntil(t *testing.T, tool Tool, inv *Invocation, step string) (State, error) {
	t.Helper()
	return pipeline.Apply(pipeline.Until(tool.Executors(inv), step))(context.Background())
}

func runStep(t *testing.T, e Executor, s State) State {
	t.Helper()
	out, err := e.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("%s: %v", e.Name, err)
	}
	return out
}
