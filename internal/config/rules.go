package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Dicklesworthstone/safetynet/internal/core"
	"github.com/charmbracelet/log"
	"go.yaml.in/yaml/v3"
)

// ErrInvalidRuleSet wraps every rule file validation failure.
var ErrInvalidRuleSet = errors.New("invalid rule set")

// RuleSetVersion is the only accepted rule file version.
const RuleSetVersion = 1

const maxReasonLength = 256

var (
	ruleNameRe    = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)
	ruleCommandRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
)

var ruleExtensions = []string{".json", ".yaml", ".yml"}

// RulePaths returns the first existing rule file for the user and project
// scopes. Missing scopes are returned as "".
func RulePaths(projectDir string) (userPath, projectPath string) {
	if home, err := os.UserHomeDir(); err == nil {
		userPath = firstExisting(filepath.Join(home, DirName, "rules"))
	}
	if projectDir != "" {
		projectPath = firstExisting(filepath.Join(projectDir, DirName))
	}
	return userPath, projectPath
}

// ProjectRulesPath is where `rules init` writes a new project rule file.
func ProjectRulesPath(projectDir string) string {
	return filepath.Join(projectDir, DirName+".json")
}

// UserRulesPath is where `rules init --global` writes a new user rule file.
func UserRulesPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}
	return filepath.Join(home, DirName, "rules.json"), nil
}

func firstExisting(base string) string {
	for _, ext := range ruleExtensions {
		path := base + ext
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// LoadRuleFile decodes and validates one rule file. The format follows the
// file extension.
func LoadRuleFile(path string) (core.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.RuleSet{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var rs core.RuleSet
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&rs); err != nil {
			return core.RuleSet{}, fmt.Errorf("%w: %s: %v", ErrInvalidRuleSet, path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&rs); err != nil {
			return core.RuleSet{}, fmt.Errorf("%w: %s: %v", ErrInvalidRuleSet, path, err)
		}
	}

	if err := ValidateRuleSet(rs); err != nil {
		return core.RuleSet{}, fmt.Errorf("%s: %w", path, err)
	}
	return rs, nil
}

// ValidateRuleSet checks a decoded rule set. The returned error wraps
// ErrInvalidRuleSet and lists every problem.
func ValidateRuleSet(rs core.RuleSet) error {
	var problems []string
	if rs.Version != RuleSetVersion {
		problems = append(problems, fmt.Sprintf("version must be %d, got %d", RuleSetVersion, rs.Version))
	}

	seen := make(map[string]bool, len(rs.Rules))
	for i, rule := range rs.Rules {
		label := fmt.Sprintf("rules[%d]", i)
		if rule.Name != "" {
			label = fmt.Sprintf("rule %q", rule.Name)
		}

		if !ruleNameRe.MatchString(rule.Name) {
			problems = append(problems, label+": name must match "+ruleNameRe.String())
		}
		key := strings.ToLower(rule.Name)
		if seen[key] {
			problems = append(problems, label+": duplicate name")
		}
		seen[key] = true

		if !ruleCommandRe.MatchString(rule.Command) {
			problems = append(problems, label+": command must match "+ruleCommandRe.String())
		}
		if rule.Subcommand != "" && !ruleCommandRe.MatchString(rule.Subcommand) {
			problems = append(problems, label+": subcommand must match "+ruleCommandRe.String())
		}
		if len(rule.BlockArgs) == 0 {
			problems = append(problems, label+": block_args must not be empty")
		}
		for _, arg := range rule.BlockArgs {
			if arg == "" {
				problems = append(problems, label+": block_args must not contain empty strings")
				break
			}
		}
		if n := utf8.RuneCountInString(rule.Reason); n == 0 || n > maxReasonLength {
			problems = append(problems, fmt.Sprintf("%s: reason must be 1..%d characters", label, maxReasonLength))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRuleSet, strings.Join(problems, "; "))
	}
	return nil
}

// MergeRuleSets combines user and project rules. A project rule shadows a
// user rule with the same case-insensitive name; surviving user rules come
// first.
func MergeRuleSets(user, project core.RuleSet) core.RuleSet {
	shadowed := make(map[string]bool, len(project.Rules))
	for _, rule := range project.Rules {
		shadowed[strings.ToLower(rule.Name)] = true
	}

	merged := core.RuleSet{Version: RuleSetVersion}
	for _, rule := range user.Rules {
		if !shadowed[strings.ToLower(rule.Name)] {
			merged.Rules = append(merged.Rules, rule)
		}
	}
	merged.Rules = append(merged.Rules, project.Rules...)
	return merged
}

// LoadedRules is the merged rule set plus the files that contributed.
type LoadedRules struct {
	Rules   core.RuleSet `json:"rules"`
	Sources []string     `json:"sources"`
	// Skipped lists files that failed validation and were ignored.
	Skipped []string `json:"skipped,omitempty"`
}

// LoadRules loads and merges the user and project rule files. A file that
// fails to load is skipped with a warning; custom rules never make the
// analyzer fail.
func LoadRules(projectDir string, logger *log.Logger) LoadedRules {
	userPath, projectPath := RulePaths(projectDir)

	var out LoadedRules
	load := func(path string) core.RuleSet {
		if path == "" {
			return core.RuleSet{}
		}
		rs, err := LoadRuleFile(path)
		if err != nil {
			if logger != nil {
				logger.Warn("ignoring rule file", "path", path, "error", err)
			}
			out.Skipped = append(out.Skipped, path)
			return core.RuleSet{}
		}
		out.Sources = append(out.Sources, path)
		return rs
	}

	user := load(userPath)
	project := load(projectPath)
	out.Rules = MergeRuleSets(user, project)
	return out
}

// ExampleRuleSet is the starter file written by `rules init`.
func ExampleRuleSet() core.RuleSet {
	return core.RuleSet{
		Version: RuleSetVersion,
		Rules: []core.CustomRule{
			{
				Name:       "no-git-add-all",
				Command:    "git",
				Subcommand: "add",
				BlockArgs:  []string{"-A", "--all", "."},
				Reason:     "Stage files explicitly instead of adding everything.",
			},
			{
				Name:      "no-npm-publish",
				Command:   "npm",
				BlockArgs: []string{"publish"},
				Reason:    "Publishing is done by CI, not from a workstation.",
			},
		},
	}
}
