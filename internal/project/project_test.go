package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brandonbloom/scripts/internal/config"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDiscoverFindsNearestMarker(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, ManifestName))
	nested := filepath.Join(root, "src", "components")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	proj, err := Discover(nested)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if proj.Root != root {
		t.Fatalf("Root = %q, want %q", proj.Root, root)
	}
	if proj.ConfigPath != filepath.Join(root, config.FileName) {
		t.Fatalf("ConfigPath = %q", proj.ConfigPath)
	}
	if proj.Config.Log.Level != "info" {
		t.Fatalf("expected default config, got %+v", proj.Config)
	}
}

func TestDiscoverPrefersInnerPackage(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, ManifestName))
	inner := filepath.Join(root, "packages", "app")
	if err := os.MkdirAll(inner, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inner, config.FileName), []byte("env_files = [\".env\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	proj, err := Discover(inner)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if proj.Root != inner {
		t.Fatalf("Root = %q, want %q", proj.Root, inner)
	}
	if len(proj.Config.EnvFiles) != 1 {
		t.Fatalf("EnvFiles = %v", proj.Config.EnvFiles)
	}
}

func TestDiscoverSurfacesInvalidConfig(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, config.FileName), []byte("[log]\nlevel = \"loud\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Discover(root); !errors.Is(err, config.ErrInvalidLogLevel) {
		t.Fatalf("Discover err = %v, want ErrInvalidLogLevel", err)
	}
}

func TestRootFromInvocation(t *testing.T) {
	cases := []struct {
		path   string
		want   string
		wantOK bool
	}{
		{"/home/user/project/node_modules/.bin/scripts", "/home/user/project", true},
		{"/home/user/project/node_modules/a/node_modules/scripts/bin", "/home/user/project", true},
		{"/node_modules/.bin/scripts", "/", true},
		{"/usr/local/bin/scripts", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := RootFromInvocation(tc.path)
		if ok != tc.wantOK || got != filepath.FromSlash(tc.want) {
			t.Errorf("RootFromInvocation(%q) = %q, %v; want %q, %v", tc.path, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestEnsureConfig(t *testing.T) {
	root := t.TempDir()
	_, created, err := EnsureConfig(root)
	if err != nil {
		t.Fatalf("EnsureConfig: %v", err)
	}
	if !created {
		t.Fatal("expected scripts.toml to be created")
	}
	if _, created, err = EnsureConfig(root); err != nil || created {
		t.Fatalf("second EnsureConfig = created %v, err %v", created, err)
	}
}
