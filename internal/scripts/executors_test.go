package scripts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/brandonbloom/scripts/internal/argsobj"
	"github.com/brandonbloom/scripts/internal/config"
	"github.com/brandonbloom/scripts/internal/configobj"
	"github.com/google/go-cmp/cmp"
)

func TestSetUserConfigPath(t *testing.T) {
	cases := []struct {
		name    string
		args    []string
		alias   string
		want    string
		wantErr bool
	}{
		{name: "none", args: nil, want: ""},
		{name: "long", args: []string{"--config", "jest.json"}, want: "jest.json"},
		{name: "short", args: []string{"-c", "jest.json"}, want: "jest.json"},
		{name: "alias fallback", args: nil, alias: "alias.json", want: "alias.json"},
		{name: "explicit beats alias", args: []string{"-c", "mine.json"}, alias: "alias.json", want: "mine.json"},
		{name: "both synonyms", args: []string{"--config", "x", "-c", "y"}, wantErr: true},
		{name: "missing value", args: []string{"--config"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv := &Invocation{AliasConfig: tc.alias}
			s := State{Args: argsobj.Parse(tc.args)}
			got, err := SetUserConfigPath(inv, "config", "c").Run(context.Background(), s)
			if tc.wantErr {
				var usage *UsageError
				if !errors.As(err, &usage) {
					t.Fatalf("err = %v, want UsageError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SetUserConfigPath: %v", err)
			}
			if got.UserConfigPath != tc.want {
				t.Fatalf("UserConfigPath = %q, want %q", got.UserConfigPath, tc.want)
			}
		})
	}
}

func TestCalcConfigPath(t *testing.T) {
	env := newTestEnv(t)
	writeTestFile(t, filepath.Join(env.origin, "custom.json"), "{}")
	base := State{OriginDir: env.origin, DefaultConfigPath: "/defaults/config.json"}

	cases := []struct {
		name string
		user string
		want string
	}{
		{"no user path", "", "/defaults/config.json"},
		{"existing user path", "custom.json", filepath.Join(env.origin, "custom.json")},
		{"missing user path falls back", "missing.json", "/defaults/config.json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := base
			s.UserConfigPath = tc.user
			got := runStep(t, CalcConfigPath(env.inv), s)
			if got.ConfigPath != tc.want {
				t.Fatalf("ConfigPath = %q, want %q", got.ConfigPath, tc.want)
			}
		})
	}
}

func TestGetConfigObjectRejectsUnknownExtension(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.ini")
	writeTestFile(t, p, "a=b")
	_, err := GetConfigObject().Run(context.Background(), State{ConfigPath: p})
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("err = %v, want UsageError", err)
	}
}

func TestSetArgsArrSkipsReservedKeys(t *testing.T) {
	var args argsobj.Object
	args.Set("verbose", true)
	args.Set(argsobj.PositionalKey, []any{})
	args.Set(argsobj.ScriptKey, "script")
	got := runStep(t, SetArgsArr(), State{Args: args})
	if diff := cmp.Diff([]string{"--verbose", "true"}, got.ArgsArr); diff != "" {
		t.Fatalf("ArgsArr mismatch (-want +got):\n%s", diff)
	}
}

func TestRemoveOptionsIsIdempotent(t *testing.T) {
	s := State{Args: argsobj.Parse([]string{"--config", "x", "--watch"})}
	once := runStep(t, RemoveOptionsFromArgsObj("config", "c"), s)
	twice := runStep(t, RemoveOptionsFromArgsObj("config", "c"), once)
	if diff := cmp.Diff(once.Args.Keys(), twice.Args.Keys()); diff != "" {
		t.Fatalf("second removal changed keys:\n%s", diff)
	}
	if !s.Args.Has("config") {
		t.Fatal("removal mutated the input state")
	}
	if diff := cmp.Diff([]string{"watch"}, once.Args.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestModifyRelativePathsCopiesConfig(t *testing.T) {
	cfg := configobj.Object{"rootDir": "sub/dir", "roots": []any{"<rootDir>/src"}}
	s := State{OriginDir: "/home/user/project", Config: cfg}
	got := runStep(t, ModifyRelativePathsInConfigObject(configobj.ExceptContaining("<rootDir>"), []string{"rootDir", "roots"}), s)

	want := configobj.Object{"rootDir": "/home/user/project/sub/dir", "roots": []any{"<rootDir>/src"}}
	if diff := cmp.Diff(want, got.Config); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg["rootDir"] != "sub/dir" {
		t.Fatalf("input config mutated: %v", cfg)
	}
}

func TestAddFieldsToConfigObject(t *testing.T) {
	s := State{OriginDir: "/o", Config: configobj.Object{"rootDir": "x"}}
	got := runStep(t, AddFieldsToConfigObject(Jest.Updater), s)
	if got.Config["rootDir"] != "/o" {
		t.Fatalf("rootDir = %v", got.Config["rootDir"])
	}
	if s.Config["rootDir"] != "x" {
		t.Fatal("input config mutated")
	}
}

func TestSetSpecifiedOriginDir(t *testing.T) {
	inv := &Invocation{WorkDir: "/work"}
	cases := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{"absent keeps detected", nil, "/detected", false},
		{"absolute", []string{"--origin-dir", "/elsewhere"}, "/elsewhere", false},
		{"relative to work dir", []string{"--origin-dir=pkg"}, "/work/pkg", false},
		{"flag without value", []string{"--origin-dir"}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := State{OriginDir: "/detected", Args: argsobj.Parse(tc.args)}
			got, err := SetSpecifiedOriginDir(inv).Run(context.Background(), s)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got.OriginDir != filepath.FromSlash(tc.want) {
				t.Fatalf("OriginDir = %q, want %q", got.OriginDir, tc.want)
			}
		})
	}
}

func TestSpecifiedOriginDirUsesItsProjectSettings(t *testing.T) {
	env := newTestEnv(t)
	env.inv.Project.Config.EnvFiles = []string{".env"}
	writeTestFile(t, filepath.Join(env.origin, ".env"), "FROM=workdir\n")

	other := t.TempDir()
	writeTestFile(t, filepath.Join(other, config.FileName), "env_files = [\".env.other\"]\n")
	writeTestFile(t, filepath.Join(other, ".env.other"), "FROM=origin\n")

	s := State{OriginDir: env.origin, Args: argsobj.Parse([]string{"--origin-dir", other})}
	s = runStep(t, SetSpecifiedOriginDir(env.inv), s)
	s = runStep(t, LoadEnvFiles(env.inv), s)

	if s.OriginDir != other {
		t.Fatalf("OriginDir = %q, want %q", s.OriginDir, other)
	}
	if diff := cmp.Diff(map[string]string{"FROM": "origin"}, s.Env); diff != "" {
		t.Fatalf("env mismatch (-want +got):\n%s", diff)
	}
}

func TestSpecifiedOriginDirWithoutConfigUsesDefaults(t *testing.T) {
	env := newTestEnv(t)
	env.inv.Project.Config.Bin = map[string]string{"jest": "missing/jest"}

	other := t.TempDir()
	s := State{Args: argsobj.Parse([]string{"--origin-dir=" + other})}
	runStep(t, SetSpecifiedOriginDir(env.inv), s)

	if env.inv.Project.Root != other {
		t.Fatalf("Project.Root = %q, want %q", env.inv.Project.Root, other)
	}
	if len(env.inv.Project.Config.Bin) != 0 {
		t.Fatalf("bin overrides leaked from the working directory project: %v", env.inv.Project.Config.Bin)
	}
}

func TestSetOriginDirPrefersProject(t *testing.T) {
	env := newTestEnv(t)
	got := runStep(t, SetOriginDir(env.inv), State{})
	if got.OriginDir != env.origin {
		t.Fatalf("OriginDir = %q, want %q", got.OriginDir, env.origin)
	}
}

func TestLoadEnvFiles(t *testing.T) {
	env := newTestEnv(t)
	env.inv.Project.Config.EnvFiles = []string{".env", ".env.missing", ".env.local"}
	writeTestFile(t, filepath.Join(env.origin, ".env"), "NODE_ENV=test\nAPI_URL=http://a\n")
	writeTestFile(t, filepath.Join(env.origin, ".env.local"), "API_URL=http://b\n")

	got := runStep(t, LoadEnvFiles(env.inv), State{OriginDir: env.origin})
	want := map[string]string{"NODE_ENV": "test", "API_URL": "http://b"}
	if diff := cmp.Diff(want, got.Env); diff != "" {
		t.Fatalf("env mismatch (-want +got):\n%s", diff)
	}
}

func TestSetDefaultConfigPathMaterializesOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "jest")
	got := runStep(t, SetDefaultConfigPath("jest", "config.json"), State{ScriptDir: dir})
	want := filepath.Join(dir, "config.json")
	if got.DefaultConfigPath != want {
		t.Fatalf("DefaultConfigPath = %q, want %q", got.DefaultConfigPath, want)
	}
	if _, err := configobj.Load(want); err != nil {
		t.Fatalf("bundled default does not load: %v", err)
	}

	writeTestFile(t, want, `{"edited": true}`)
	runStep(t, SetDefaultConfigPath("jest", "config.json"), State{ScriptDir: dir})
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"edited": true}` {
		t.Fatalf("local edits overwritten: %s", data)
	}
}

func TestBundledDefaultsLoad(t *testing.T) {
	for _, tool := range All() {
		t.Run(tool.Name, func(t *testing.T) {
			data, err := DefaultFile(tool.Name, tool.DefaultConfig)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := configobj.Decode(configobj.FormatJSON, data, tool.DefaultConfig); err != nil {
				t.Fatalf("decode bundled default: %v", err)
			}
		})
	}
}

func TestWriteConfigObjectToPathResolvesAgainstScriptDir(t *testing.T) {
	dir := t.TempDir()
	cfg := configobj.Object{"rootDir": "/home/user/project", "verbose": true}
	got := runStep(t, WriteConfigObjectToPath("generatedConfig.json"), State{ScriptDir: dir, Config: cfg})
	want := filepath.Join(dir, "generatedConfig.json")
	if got.TempConfigFilePath != want {
		t.Fatalf("TempConfigFilePath = %q, want %q", got.TempConfigFilePath, want)
	}
	back, err := configobj.Load(want)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, back); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteConfigObjectToPathTargets(t *testing.T) {
	cfg := configobj.Object{"verbose": true}
	cases := []struct {
		target  string
		wantErr bool
	}{
		{"generated.json", false},
		{"generated.yaml", false},
		{"generated.toml", false},
		{"generatedignore", true},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			dir := t.TempDir()
			got, err := WriteConfigObjectToPath(tc.target).Run(context.Background(), State{ScriptDir: dir, Config: cfg})
			if !tc.wantErr {
				if err != nil {
					t.Fatal(err)
				}
				back, err := configobj.Load(got.TempConfigFilePath)
				if err != nil {
					t.Fatal(err)
				}
				if diff := cmp.Diff(cfg, back); diff != "" {
					t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
				}
				return
			}
			if !errors.Is(err, configobj.ErrUnsupportedExtension) {
				t.Fatalf("err = %v, want ErrUnsupportedExtension", err)
			}
			if got.TempConfigFilePath != "" {
				t.Fatalf("TempConfigFilePath set on failure: %q", got.TempConfigFilePath)
			}
			if _, err := os.Stat(filepath.Join(dir, tc.target)); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("target written despite error: %v", err)
			}
		})
	}
}
