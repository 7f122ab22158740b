package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/safetynet/internal/config"
	"github.com/Dicklesworthstone/safetynet/internal/testutil"
)

func TestRulesInit_WritesProjectFile(t *testing.T) {
	h := testutil.NewHarness(t)

	cmd := newTestRootCmd()
	stdout, _, err := executeCommand(cmd, "-C", h.ProjectDir, "-j", "rules", "init")
	testutil.RequireNoError(t, err, "rules init")

	var result map[string]any
	decodeJSON(t, stdout, &result)
	path := h.MustPath(".safety-net.json")
	testutil.RequireEqual(t, path, result["path"].(string), "path")

	rs, err := config.LoadRuleFile(path)
	testutil.RequireNoError(t, err, "starter file must validate")
	testutil.RequireLen(t, rs.Rules, len(config.ExampleRuleSet().Rules), "rules")

	cmd = newTestRootCmd()
	_, _, err = executeCommand(cmd, "-C", h.ProjectDir, "rules", "init")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already exists error, got %v", err)
	}

	cmd = newTestRootCmd()
	_, _, err = executeCommand(cmd, "-C", h.ProjectDir, "rules", "init", "--force")
	testutil.RequireNoError(t, err, "rules init --force")
}

func TestRulesInit_Global(t *testing.T) {
	h := testutil.NewHarness(t)

	cmd := newTestRootCmd()
	_, _, err := executeCommand(cmd, "-C", h.ProjectDir, "rules", "init", "--global")
	testutil.RequireNoError(t, err, "rules init --global")

	if _, err := os.Stat(filepath.Join(h.HomeDir, ".safety-net", "rules.json")); err != nil {
		t.Fatalf("expected user rule file: %v", err)
	}
}

func TestRulesList_MergesScopes(t *testing.T) {
	h := testutil.NewHarness(t)
	h.WriteUserRules(testutil.RuleJSON("shared", "docker", "prune"))
	h.WriteRules(`{"version": 1, "rules": [
  {"name": "SHARED", "command": "npm", "block_args": ["publish"], "reason": "project wins"},
  {"name": "no-terraform-destroy", "command": "terraform", "block_args": ["destroy"], "reason": "use CI"}
]}`)

	cmd := newTestRootCmd()
	stdout, _, err := executeCommand(cmd, "-C", h.ProjectDir, "-j", "rules", "list")
	testutil.RequireNoError(t, err, "rules list")

	var loaded config.LoadedRules
	decodeJSON(t, stdout, &loaded)
	testutil.RequireLen(t, loaded.Rules.Rules, 2, "merged rules")
	testutil.RequireEqual(t, "SHARED", loaded.Rules.Rules[0].Name, "first rule")
	testutil.RequireEqual(t, "npm", loaded.Rules.Rules[0].Command, "shadowed command")
	testutil.RequireLen(t, loaded.Sources, 2, "sources")

	cmd = newTestRootCmd()
	stdout, _, err = executeCommand(cmd, "-C", h.ProjectDir, "rules", "list")
	testutil.RequireNoError(t, err, "rules list text")
	testutil.RequireContains(t, stdout, "rules list text", "NAME", "no-terraform-destroy", "terraform", "source:")
}

func TestRulesList_Empty(t *testing.T) {
	h := testutil.NewHarness(t)

	cmd := newTestRootCmd()
	stdout, _, err := executeCommand(cmd, "-C", h.ProjectDir, "rules", "list")
	testutil.RequireNoError(t, err, "rules list")
	testutil.RequireContains(t, stdout, "empty list", "No custom rules.")
}

func TestRulesValidate(t *testing.T) {
	h := testutil.NewHarness(t)
	good := h.WriteRules(testutil.RuleJSON("ok-rule", "npm", "publish"))
	bad := h.WriteFile("bad.yaml", []byte("version: 2\nrules: []\n"), 0644)

	cmd := newTestRootCmd()
	stdout, _, err := executeCommand(cmd, "-C", h.ProjectDir, "rules", "validate")
	testutil.RequireNoError(t, err, "validate discovered")
	testutil.RequireContains(t, stdout, "validate discovered", "ok", good, "(1 rules)")

	cmd = newTestRootCmd()
	stdout, _, err = executeCommand(cmd, "-C", h.ProjectDir, "-j", "rules", "validate", bad)
	if err == nil {
		t.Fatal("expected error for invalid file")
	}
	var reports []ruleFileReport
	decodeJSON(t, stdout, &reports)
	testutil.RequireLen(t, reports, 1, "reports")
	if reports[0].Valid || reports[0].Error == "" {
		t.Fatalf("expected invalid report, got %+v", reports[0])
	}
}

func TestRulesValidate_NoFiles(t *testing.T) {
	h := testutil.NewHarness(t)

	cmd := newTestRootCmd()
	stdout, _, err := executeCommand(cmd, "-C", h.ProjectDir, "rules", "validate")
	testutil.RequireNoError(t, err, "validate")
	testutil.RequireContains(t, stdout, "no files", "No rule files found.")
}
