package main

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseArgs_SupportsFlagsAndCommandWithoutDashDash(t *testing.T) {
	opts, cmd, err := parseArgs([]string{
		"--skip-init",
		"--show-config",
		"--dir", "packages/app",
		"scripts", "jest", "--ci",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	want := options{skipInit: true, showConfig: true, dir: "packages/app"}
	if diff := cmp.Diff(want, opts, cmp.AllowUnexported(options{})); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"scripts", "jest", "--ci"}, cmd); diff != "" {
		t.Fatalf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestParseArgs_SupportsDashDashDelimiter(t *testing.T) {
	opts, cmd, err := parseArgs([]string{"--keep", "--no-tools", "--", "sh", "-c", "scripts doctor"})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !opts.keep || !opts.noTools {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if diff := cmp.Diff([]string{"sh", "-c", "scripts doctor"}, cmd); diff != "" {
		t.Fatalf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestParseArgs_RequiresCommand(t *testing.T) {
	if _, _, err := parseArgs([]string{"--keep"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseArgs_RejectsUnsafeDirs(t *testing.T) {
	for _, dir := range []string{"/abs", "../escape", ".."} {
		if _, _, err := parseArgs([]string{"--dir", dir, "true"}); err == nil {
			t.Fatalf("expected error for dir %q", dir)
		}
	}
}
