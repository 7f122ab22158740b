// Package config loads safety-net settings and custom rule files.
//
// Settings precedence, lowest first: defaults, user config
// (~/.safety-net/config.toml), project config (<project>/.safety-net/config.toml),
// SAFETY_NET_* environment variables, then CLI flag overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// DirName is the per-user and per-project settings directory.
const DirName = ".safety-net"

// Config is the full settings tree.
type Config struct {
	General GeneralConfig `toml:"general" json:"general" mapstructure:"general"`
	Audit   AuditConfig   `toml:"audit" json:"audit" mapstructure:"audit"`
	Logging LoggingConfig `toml:"logging" json:"logging" mapstructure:"logging"`
}

// GeneralConfig holds the analyzer mode toggles.
type GeneralConfig struct {
	// Strict denies unparseable commands and malformed hook input.
	Strict bool `toml:"strict" json:"strict" mapstructure:"strict"`
	// Paranoid turns on both paranoid toggles below.
	Paranoid             bool `toml:"paranoid" json:"paranoid" mapstructure:"paranoid"`
	ParanoidRm           bool `toml:"paranoid_rm" json:"paranoid_rm" mapstructure:"paranoid_rm"`
	ParanoidInterpreters bool `toml:"paranoid_interpreters" json:"paranoid_interpreters" mapstructure:"paranoid_interpreters"`
}

// AuditConfig controls the decision audit store.
type AuditConfig struct {
	Enabled bool `toml:"enabled" json:"enabled" mapstructure:"enabled"`
	// DBPath overrides ~/.safety-net/audit.db.
	DBPath string `toml:"db_path" json:"db_path" mapstructure:"db_path"`
}

// LoggingConfig controls stderr logging.
type LoggingConfig struct {
	Level string `toml:"level" json:"level" mapstructure:"level"`
}

// LoadOptions selects which files and overrides Load uses.
type LoadOptions struct {
	// ProjectDir defaults to the current working directory.
	ProjectDir string
	// ConfigPath replaces the project config file when set.
	ConfigPath string
	// FlagOverrides are dotted keys set from CLI flags.
	FlagOverrides map[string]any
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{},
		Audit: AuditConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

var envBindings = map[string]string{
	"general.strict":                "SAFETY_NET_STRICT",
	"general.paranoid":              "SAFETY_NET_PARANOID",
	"general.paranoid_rm":           "SAFETY_NET_PARANOID_RM",
	"general.paranoid_interpreters": "SAFETY_NET_PARANOID_INTERPRETERS",
	"audit.enabled":                 "SAFETY_NET_AUDIT",
	"audit.db_path":                 "SAFETY_NET_AUDIT_DB",
	"logging.level":                 "SAFETY_NET_LOG_LEVEL",
}

// Load resolves the effective configuration.
func Load(opts LoadOptions) (Config, error) {
	projectDir := opts.ProjectDir
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolving project dir: %w", err)
		}
		projectDir = wd
	}

	v := viper.New()
	setDefaults(v)

	userPath, projectPath := ConfigPaths(projectDir, opts.ConfigPath)
	for _, path := range []string{userPath, projectPath} {
		if err := mergeConfigFile(v, path); err != nil {
			return Config{}, err
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	for key, value := range opts.FlagOverrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.General.Paranoid {
		cfg.General.ParanoidRm = true
		cfg.General.ParanoidInterpreters = true
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("general.strict", def.General.Strict)
	v.SetDefault("general.paranoid", def.General.Paranoid)
	v.SetDefault("general.paranoid_rm", def.General.ParanoidRm)
	v.SetDefault("general.paranoid_interpreters", def.General.ParanoidInterpreters)
	v.SetDefault("audit.enabled", def.Audit.Enabled)
	v.SetDefault("audit.db_path", def.Audit.DBPath)
	v.SetDefault("logging.level", def.Logging.Level)
}

// mergeConfigFile merges a TOML file into v. Empty or missing paths are
// skipped.
func mergeConfigFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	v.SetConfigType("toml")
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid setting in one error.
func Validate(cfg Config) error {
	var problems []string
	if _, err := log.ParseLevel(cfg.Logging.Level); err != nil {
		problems = append(problems, fmt.Sprintf("logging.level %q is not one of debug, info, warn, error, fatal", cfg.Logging.Level))
	}
	if strings.ContainsRune(cfg.Audit.DBPath, 0) {
		problems = append(problems, "audit.db_path contains a NUL byte")
	}
	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ConfigPaths returns the user and project config file paths. override
// replaces the project path.
func ConfigPaths(projectDir, override string) (userPath, projectPath string) {
	if home, err := os.UserHomeDir(); err == nil {
		userPath = filepath.Join(home, DirName, "config.toml")
	}
	return userPath, projectConfigPath(projectDir, override)
}

func projectConfigPath(projectDir, override string) string {
	if override != "" {
		return override
	}
	if projectDir == "" {
		return filepath.Join(DirName, "config.toml")
	}
	return filepath.Join(projectDir, DirName, "config.toml")
}

// AuditDBPath returns the configured audit database path or the default
// under the user's home directory.
func AuditDBPath(cfg Config) string {
	if cfg.Audit.DBPath != "" {
		return cfg.Audit.DBPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(DirName, "audit.db")
	}
	return filepath.Join(home, DirName, "audit.db")
}

type valueKind int

const (
	kindBool valueKind = iota
	kindString
)

var keyKinds = map[string]valueKind{
	"general.strict":                kindBool,
	"general.paranoid":              kindBool,
	"general.paranoid_rm":           kindBool,
	"general.paranoid_interpreters": kindBool,
	"audit.enabled":                 kindBool,
	"audit.db_path":                 kindString,
	"logging.level":                 kindString,
}

// Keys lists every settable key.
func Keys() []string {
	return []string{
		"general.strict",
		"general.paranoid",
		"general.paranoid_rm",
		"general.paranoid_interpreters",
		"audit.enabled",
		"audit.db_path",
		"logging.level",
	}
}

// ParseValue converts a CLI string to the type stored under key.
func ParseValue(key, raw string) (any, error) {
	kind, ok := keyKinds[key]
	if !ok {
		return nil, fmt.Errorf("unsupported config key %q", key)
	}
	return parseValueByKind(raw, kind)
}

func parseValueByKind(raw string, kind valueKind) (any, error) {
	switch kind {
	case kindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid boolean %q: %w", raw, err)
		}
		return b, nil
	case kindString:
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported value kind %d", kind)
	}
}

// GetValue looks up a dotted key or section name.
func GetValue(cfg Config, key string) (any, bool) {
	switch key {
	case "general":
		return cfg.General, true
	case "general.strict":
		return cfg.General.Strict, true
	case "general.paranoid":
		return cfg.General.Paranoid, true
	case "general.paranoid_rm":
		return cfg.General.ParanoidRm, true
	case "general.paranoid_interpreters":
		return cfg.General.ParanoidInterpreters, true
	case "audit":
		return cfg.Audit, true
	case "audit.enabled":
		return cfg.Audit.Enabled, true
	case "audit.db_path":
		return cfg.Audit.DBPath, true
	case "logging":
		return cfg.Logging, true
	case "logging.level":
		return cfg.Logging.Level, true
	}
	return nil, false
}

// WriteValue sets a dotted key in the TOML file at path, creating the file
// and any intermediate tables.
func WriteValue(path, key string, value any) error {
	if path == "" {
		return errors.New("config path is required")
	}
	parts := strings.Split(key, ".")
	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("invalid config key %q", key)
		}
	}

	doc := map[string]any{}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &doc); err != nil {
			return fmt.Errorf("decode config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	table := doc
	for _, p := range parts[:len(parts)-1] {
		next, exists := table[p]
		if !exists {
			child := map[string]any{}
			table[p] = child
			table = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("config key %q: %s is not a table", key, p)
		}
		table = child
	}
	table[parts[len(parts)-1]] = value

	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
