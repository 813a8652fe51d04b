// Implementation of the `scriptscmdtest` harness.
//
// Key behaviors:
//   - Creates `/tmp/scripts-transcripts/project-<id>` holding package.json and src/.
//   - Runs `bin/scripts init` there unless --skip-init.
//   - Copies `bin/toolstub` to every wrapped tool's node_modules location.
//   - Points SCRIPTS_HOME inside the package so generated configs are isolated.
//   - Honors `SCRIPTS_CMDTEST_TIMEOUT` (default 10s) to cap setup + command runtime.
//   - Honors `SCRIPTS_CMDTEST_ID` to isolate temp packages for parallel tests.
package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/brandonbloom/scripts/internal/scripts"
)

type tool struct {
	repoRoot        string
	transcriptsRoot string
	stubBinary      string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

const defaultTimeout = 10 * time.Second

const packageJSON = `{
  "name": "demo",
  "version": "1.0.0",
  "dependencies": {"left-pad": "^1.3.0"},
  "devDependencies": {"typescript": "^5.0.0"}
}
`

func newToolFromExecutable() (*tool, error) {
	if root := os.Getenv("SCRIPTS_REPO_ROOT"); root != "" {
		return newTool(root), nil
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, err
	}
	return newTool(filepath.Join(filepath.Dir(exe), "..")), nil
}

func newTool(repoRoot string) *tool {
	repoRoot = filepath.Clean(repoRoot)
	return &tool{
		repoRoot:        repoRoot,
		transcriptsRoot: "/tmp/scripts-transcripts",
		stubBinary:      filepath.Join(repoRoot, "bin", "toolstub"),
		stdin:           os.Stdin,
		stdout:          os.Stdout,
		stderr:          os.Stderr,
	}
}

func (t *tool) runCLI(ctx context.Context, args []string) int {
	ctx, cancel, timeout := withTimeoutFromEnv(ctx, "SCRIPTS_CMDTEST_TIMEOUT", defaultTimeout)
	if cancel != nil {
		defer cancel()
	}

	opts, cmdArgs, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(t.stderr, err)
		t.printUsage()
		return 2
	}
	if opts.help {
		t.printUsage()
		return 0
	}

	exitCode, err := t.run(ctx, opts, cmdArgs, timeout)
	if err != nil {
		fmt.Fprintln(t.stderr, err)
		return 1
	}
	return exitCode
}

func (t *tool) printUsage() {
	fmt.Fprint(t.stderr, `Usage: scriptscmdtest [options] -- <command> [args...]

Sets up a disposable JavaScript package with stubbed tools, runs the given
command inside it, and cleans up afterward. Intended for transcript tests.

Options:
  --skip-init     Do not create scripts.toml.
  --no-tools      Do not install stub tools under node_modules.
  --show-config   Make stub tools print the config file they receive.
  --dir DIR       cd into DIR (relative to the temp package) before running.
  --keep          Preserve the temp package for debugging (prints its path).
`)
}

func (t *tool) run(ctx context.Context, opts options, cmdArgs []string, timeout time.Duration) (int, error) {
	if _, err := os.Stat(filepath.Join(t.repoRoot, "go.mod")); err != nil {
		return 1, fmt.Errorf("unable to locate scripts repo root: %w", err)
	}
	if err := os.MkdirAll(t.transcriptsRoot, 0o755); err != nil {
		return 1, err
	}

	pkg := filepath.Join(t.transcriptsRoot, projectDirName())
	if err := removeAllUnder(t.transcriptsRoot, pkg); err != nil {
		return 1, err
	}
	if err := seedPackage(pkg); err != nil {
		return 1, err
	}

	childEnv := deterministicEnv(os.Environ())
	childEnv = withEnv(childEnv, "SCRIPTS_HOME", filepath.Join(pkg, ".scripts-home"))
	childEnv = withEnv(childEnv, "TOOLSTUB_ROOT", pkg)
	childEnv = withEnv(childEnv, "PATH", filepath.Join(t.repoRoot, "bin")+string(os.PathListSeparator)+getEnv(childEnv, "PATH"))
	if opts.showConfig {
		childEnv = withEnv(childEnv, "TOOLSTUB_SHOW_CONFIG", "1")
	}

	if !opts.skipInit {
		if err := t.runQuiet(ctx, pkg, childEnv, filepath.Join(t.repoRoot, "bin", "scripts"), "init"); err != nil {
			return 1, err
		}
	}
	if !opts.noTools {
		if err := t.installToolStubs(pkg); err != nil {
			return 1, err
		}
	}

	workdir := pkg
	if opts.dir != "" {
		workdir = filepath.Join(pkg, opts.dir)
		if err := os.MkdirAll(workdir, 0o755); err != nil {
			return 1, err
		}
	}

	cmd := exec.CommandContext(ctx, cmdArgs[0], cmdArgs[1:]...)
	cmd.Dir = workdir
	cmd.Env = withEnv(childEnv, "PWD", workdir)
	cmd.Stdin = t.stdin
	cmd.Stdout = t.stdout
	cmd.Stderr = t.stderr

	runErr := cmd.Run()
	if runErr != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return 124, fmt.Errorf("scriptscmdtest: timed out after %s", timeout)
	}
	exitCode := exitStatus(runErr)

	if opts.keep {
		fmt.Fprintf(t.stderr, "temp package kept at %s\n", pkg)
	} else if cleanupErr := removeAllUnder(t.transcriptsRoot, pkg); cleanupErr != nil {
		return 1, cleanupErr
	}

	return exitCode, nil
}

func seedPackage(dir string) error {
	files := map[string]string{
		"package.json":      packageJSON,
		"src/index.ts":      "export const answer = 42;\n",
		"src/index.test.ts": "test(\"answer\", () => {});\n",
	}
	for name, contents := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
			return err
		}
	}
	return nil
}

// installToolStubs copies toolstub to each tool's node_modules path.
func (t *tool) installToolStubs(pkg string) error {
	stub, err := os.ReadFile(t.stubBinary)
	if err != nil {
		return err
	}
	for _, st := range scripts.All() {
		path := filepath.Join(pkg, "node_modules", filepath.FromSlash(st.BinRel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, stub, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func (t *tool) runQuiet(ctx context.Context, dir string, env []string, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = withEnv(env, "PWD", dir)

	cmd.Stdout = io.Discard
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			msg = ": " + msg
		}
		return fmt.Errorf("%s %s failed%s: %w", name, strings.Join(args, " "), msg, err)
	}
	return nil
}

func deterministicEnv(base []string) []string {
	env := envMap(base)
	for _, key := range []string{"SCRIPTS_DEBUG", "SCRIPTS_HOME", "TOOLSTUB_EXIT", "TOOLSTUB_DEPCHECK"} {
		delete(env, key)
	}
	env["NO_COLOR"] = "1"
	env["CLICOLOR"] = "0"
	env["CLICOLOR_FORCE"] = "0"
	env["GIT_CEILING_DIRECTORIES"] = "/tmp"
	return envSlice(env)
}

func removeAllUnder(root, target string) error {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return err
	}
	if rel == "." {
		return fmt.Errorf("refusing to remove root: %s", root)
	}
	if strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return fmt.Errorf("refusing to remove outside root: %s", target)
	}
	return os.RemoveAll(target)
}

func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 127
}

func withTimeoutFromEnv(ctx context.Context, key string, def time.Duration) (context.Context, context.CancelFunc, time.Duration) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		raw = def.String()
	}
	if raw == "0" || raw == "0s" {
		return ctx, nil, 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		d = def
	}
	next, cancel := context.WithTimeout(ctx, d)
	return next, cancel, d
}

func envMap(env []string) map[string]string {
	out := make(map[string]string, len(env))
	for _, entry := range env {
		key, value, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		out[key] = value
	}
	return out
}

func envSlice(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		out = append(out, k+"="+v)
	}
	return out
}

func withEnv(env []string, key, value string) []string {
	m := envMap(env)
	m[key] = value
	return envSlice(m)
}

func getEnv(env []string, key string) string {
	return envMap(env)[key]
}

func projectDirName() string {
	raw := strings.TrimSpace(os.Getenv("SCRIPTS_CMDTEST_ID"))
	if raw != "" {
		safe := make([]rune, 0, len(raw))
		for _, r := range raw {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
				safe = append(safe, r)
				continue
			}
			safe = append(safe, '_')
		}
		id := strings.Trim(string(safe), "._-")
		if id != "" {
			return "project-" + id
		}
	}

	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("project-%d", os.Getpid())
	}
	return "project-" + hex.EncodeToString(b[:])
}
