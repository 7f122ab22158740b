package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Dicklesworthstone/safetynet/internal/db"
)

// Harness is a lightweight integration test environment.
//
// It provisions a temp project directory, a fake HOME (so user config and
// rule files are isolated) and a migrated audit database under
// HOME/.safety-net/audit.db.
type Harness struct {
	T          *testing.T
	ProjectDir string
	HomeDir    string
	DBPath     string
	DB         *db.DB
}

func NewHarness(t *testing.T) *Harness {
	t.Helper()

	projectDir := t.TempDir()
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)
	t.Setenv("USERPROFILE", homeDir)

	stateDir := filepath.Join(homeDir, ".safety-net")
	if err := os.MkdirAll(stateDir, 0750); err != nil {
		t.Fatalf("NewHarness: mkdir .safety-net: %v", err)
	}

	dbPath := filepath.Join(stateDir, "audit.db")
	return &Harness{
		T:          t,
		ProjectDir: projectDir,
		HomeDir:    homeDir,
		DBPath:     dbPath,
		DB:         NewTestDBAtPath(t, dbPath),
	}
}

// MustPath joins ProjectDir with parts.
func (h *Harness) MustPath(parts ...string) string {
	h.T.Helper()
	if h == nil || h.ProjectDir == "" {
		h.T.Fatalf("Harness.MustPath: harness not initialized")
	}
	all := append([]string{h.ProjectDir}, parts...)
	return filepath.Join(all...)
}

// WriteFile writes a file relative to the project directory.
func (h *Harness) WriteFile(rel string, data []byte, perm os.FileMode) string {
	h.T.Helper()
	if strings.TrimSpace(rel) == "" {
		h.T.Fatalf("Harness.WriteFile: rel path is required")
	}
	return writeAt(h.T, h.MustPath(rel), data, perm)
}

// WriteRules writes the project rule file (.safety-net.json).
func (h *Harness) WriteRules(body string) string {
	h.T.Helper()
	return h.WriteFile(".safety-net.json", []byte(body), 0644)
}

// WriteUserRules writes HOME/.safety-net/rules.json.
func (h *Harness) WriteUserRules(body string) string {
	h.T.Helper()
	return writeAt(h.T, filepath.Join(h.HomeDir, ".safety-net", "rules.json"), []byte(body), 0644)
}

func writeAt(t *testing.T, abs string, data []byte, perm os.FileMode) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(abs), 0750); err != nil {
		t.Fatalf("Harness: mkdir: %v", err)
	}
	if err := os.WriteFile(abs, data, perm); err != nil {
		t.Fatalf("Harness: write: %v", err)
	}
	return abs
}

func (h *Harness) String() string {
	if h == nil {
		return "Harness<nil>"
	}
	return fmt.Sprintf("Harness(project=%s, home=%s, db=%s)", h.ProjectDir, h.HomeDir, h.DBPath)
}
