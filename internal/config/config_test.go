package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestDefaultConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate(DefaultConfig) unexpected error: %v", err)
	}
	if !cfg.Audit.Enabled {
		t.Fatalf("audit should default to enabled")
	}
}

func TestValidate_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "loud"
	cfg.Audit.DBPath = "bad\x00path"

	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "config validation failed") {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "logging.level") || !strings.Contains(err.Error(), "audit.db_path") {
		t.Fatalf("expected every problem listed: %v", err)
	}
}

func TestLoad_Precedence_DefaultsUserProjectEnvFlags(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	project := t.TempDir()

	userPath := filepath.Join(home, DirName, "config.toml")
	if err := WriteValue(userPath, "logging.level", "warn"); err != nil {
		t.Fatalf("WriteValue user: %v", err)
	}
	projectPath := filepath.Join(project, DirName, "config.toml")
	if err := WriteValue(projectPath, "logging.level", "error"); err != nil {
		t.Fatalf("WriteValue project: %v", err)
	}

	cfg, err := Load(LoadOptions{ProjectDir: project})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Fatalf("project should override user, got %q", cfg.Logging.Level)
	}

	t.Setenv("SAFETY_NET_LOG_LEVEL", "info")
	cfg, err = Load(LoadOptions{ProjectDir: project})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Fatalf("env should override project, got %q", cfg.Logging.Level)
	}

	cfg, err = Load(LoadOptions{
		ProjectDir:    project,
		FlagOverrides: map[string]any{"logging.level": "debug"},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("flags should override env, got %q", cfg.Logging.Level)
	}
}

func TestLoad_EnvToggles(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SAFETY_NET_STRICT", "1")
	t.Setenv("SAFETY_NET_PARANOID_RM", "true")
	t.Setenv("SAFETY_NET_AUDIT", "false")

	cfg, err := Load(LoadOptions{ProjectDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.General.Strict || !cfg.General.ParanoidRm || cfg.General.ParanoidInterpreters {
		t.Fatalf("unexpected general settings: %+v", cfg.General)
	}
	if cfg.Audit.Enabled {
		t.Fatalf("audit should be disabled by env")
	}
}

func TestLoad_ParanoidEnablesBoth(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SAFETY_NET_PARANOID", "1")

	cfg, err := Load(LoadOptions{ProjectDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.General.ParanoidRm || !cfg.General.ParanoidInterpreters {
		t.Fatalf("paranoid should enable both toggles: %+v", cfg.General)
	}
}

func TestLoad_InvalidEnvValueErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SAFETY_NET_STRICT", "not-a-bool")
	if _, err := Load(LoadOptions{ProjectDir: t.TempDir()}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_InvalidLevelErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SAFETY_NET_LOG_LEVEL", "chatty")
	if _, err := Load(LoadOptions{ProjectDir: t.TempDir()}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoad_ProjectDirEmptyUsesCWD(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	project := t.TempDir()

	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(cwd)
	})
	if err := os.Chdir(project); err != nil {
		t.Fatalf("Chdir: %v", err)
	}

	projectPath := filepath.Join(project, DirName, "config.toml")
	if err := WriteValue(projectPath, "general.strict", true); err != nil {
		t.Fatalf("WriteValue project: %v", err)
	}

	cfg, err := Load(LoadOptions{ProjectDir: ""})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.General.Strict {
		t.Fatalf("expected strict from cwd project config")
	}
}

func TestLoad_ConfigPathOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	override := filepath.Join(t.TempDir(), "custom.toml")
	if err := WriteValue(override, "audit.db_path", "/var/lib/sn.db"); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	cfg, err := Load(LoadOptions{ProjectDir: t.TempDir(), ConfigPath: override})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := AuditDBPath(cfg); got != "/var/lib/sn.db" {
		t.Fatalf("AuditDBPath=%q", got)
	}
}

func TestMergeConfigFile(t *testing.T) {
	v := newTestViper()

	if err := mergeConfigFile(v, ""); err != nil {
		t.Fatalf("mergeConfigFile(empty): %v", err)
	}
	if err := mergeConfigFile(v, filepath.Join(t.TempDir(), "missing.toml")); err != nil {
		t.Fatalf("mergeConfigFile(missing): %v", err)
	}
	if err := mergeConfigFile(v, t.TempDir()); err == nil {
		t.Fatalf("expected error for directory path")
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("general = [\n"), 0644); err != nil {
		t.Fatalf("write invalid toml: %v", err)
	}
	if err := mergeConfigFile(v, path); err == nil {
		t.Fatalf("expected error for invalid toml")
	}
}

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestConfigPathsAndProjectConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	u, p := ConfigPaths("/proj", "")
	if u != filepath.Join(home, DirName, "config.toml") {
		t.Fatalf("unexpected user path: %q", u)
	}
	if p != filepath.Join("/proj", DirName, "config.toml") {
		t.Fatalf("unexpected project path: %q", p)
	}

	if got := projectConfigPath("", ""); got != ".safety-net/config.toml" {
		t.Fatalf("projectConfigPath(empty)=%q", got)
	}
	if got := projectConfigPath("/proj", "/override.toml"); got != "/override.toml" {
		t.Fatalf("projectConfigPath(override)=%q", got)
	}
}

func TestAuditDBPath_Default(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if got := AuditDBPath(DefaultConfig()); got != filepath.Join(home, DirName, "audit.db") {
		t.Fatalf("AuditDBPath=%q", got)
	}
}

func TestParseValue(t *testing.T) {
	v, err := ParseValue("general.strict", "true")
	if err != nil {
		t.Fatalf("ParseValue bool: %v", err)
	}
	if v.(bool) != true {
		t.Fatalf("unexpected value: %#v", v)
	}

	v, err = ParseValue("logging.level", "debug")
	if err != nil {
		t.Fatalf("ParseValue string: %v", err)
	}
	if v.(string) != "debug" {
		t.Fatalf("unexpected value: %#v", v)
	}

	if _, err := ParseValue("audit.enabled", "maybe"); err == nil {
		t.Fatalf("expected error for invalid bool")
	}
	if _, err := parseValueByKind("x", valueKind(123)); err == nil {
		t.Fatalf("expected error for unsupported value kind")
	}
	if _, err := ParseValue("nope.nope", "x"); err == nil {
		t.Fatalf("expected unsupported key error")
	}
}

func TestGetValue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audit.DBPath = "/x.db"

	cases := []struct {
		key  string
		want any
	}{
		{"general.strict", cfg.General.Strict},
		{"general.paranoid", cfg.General.Paranoid},
		{"general.paranoid_rm", cfg.General.ParanoidRm},
		{"general.paranoid_interpreters", cfg.General.ParanoidInterpreters},
		{"audit.enabled", true},
		{"audit.db_path", "/x.db"},
		{"logging.level", "info"},
		{"general", cfg.General},
		{"audit", cfg.Audit},
		{"logging", cfg.Logging},
	}
	for _, tc := range cases {
		got, ok := GetValue(cfg, tc.key)
		if !ok {
			t.Fatalf("GetValue(%q) not found", tc.key)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("GetValue(%q)=%#v want %#v", tc.key, got, tc.want)
		}
	}

	for _, key := range []string{"", "nope", "general.nope", "audit.nope"} {
		if _, ok := GetValue(cfg, key); ok {
			t.Fatalf("expected %q to be not found", key)
		}
	}

	for _, key := range Keys() {
		if _, ok := GetValue(cfg, key); !ok {
			t.Fatalf("Keys() lists %q but GetValue does not know it", key)
		}
	}
}

func TestWriteValue(t *testing.T) {
	if err := WriteValue("", "general.strict", true); err == nil {
		t.Fatalf("expected error for empty path")
	}

	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteValue(path, "general.strict", true); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	if err := WriteValue(path, "logging.level", "warn"); err != nil {
		t.Fatalf("WriteValue: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{"[general]", "strict = true", "[logging]", `level = "warn"`} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in toml: %q", want, text)
		}
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("general = \"oops\"\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := WriteValue(bad, "general.strict", true); err == nil {
		t.Fatalf("expected error when general is not a table")
	}
}

func TestWriteValue_DecodeExistingInvalidTOMLErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("general = [\n"), 0644); err != nil {
		t.Fatalf("write invalid toml: %v", err)
	}
	if err := WriteValue(path, "general.strict", true); err == nil {
		t.Fatalf("expected decode error")
	} else if !strings.Contains(err.Error(), "decode config") {
		t.Fatalf("unexpected error: %v", err)
	}
}
