// Package core implements the command safety analyzer: path classification,
// the destructive-operation rule modules and the recursive orchestrator
// that ties them together.
//
// Everything in this package is pure. Process state such as the home
// directory or the temp directory reaches the analyzer through Context,
// so a call can be reproduced with any fabricated environment.
package core

import (
	"os"
	"path/filepath"
	"runtime"
)

// Context carries the per-call inputs of Analyze.
type Context struct {
	// Cwd is the directory the command is believed to run in. Empty means
	// unknown, which withdraws every cwd-relative allowance.
	Cwd string
	// OriginalCwd is the cwd at the start of the whole command. Defaults
	// to Cwd.
	OriginalCwd string
	// Home is the user's home directory.
	Home string
	// TempDir is the platform temp directory, trusted in addition to /tmp
	// and /var/tmp.
	TempDir string

	// Strict blocks top-level input the segmenter could not structure.
	Strict bool
	// ParanoidRm removes the within-cwd exemption for rm -rf.
	ParanoidRm bool
	// ParanoidInterpreters blocks every interpreter one-liner.
	ParanoidInterpreters bool

	// Rules are the merged custom rules.
	Rules RuleSet

	// CaseInsensitiveFS folds case on both sides of path comparisons.
	CaseInsensitiveFS bool
	// Resolve optionally maps a path to its real location (symlinks
	// followed). Errors fall back to lexical resolution.
	Resolve func(path string) (string, error)
}

// NewContext builds a Context for cwd from the running process: home and
// temp directories, the platform's filesystem case rules and symlink
// resolution. Hosts call it once; the analyzer itself never reads process
// state.
func NewContext(cwd string) Context {
	home, _ := os.UserHomeDir()
	if cwd != "" {
		if abs, err := filepath.Abs(cwd); err == nil {
			cwd = abs
		}
	}
	return Context{
		Cwd:               cwd,
		OriginalCwd:       cwd,
		Home:              home,
		TempDir:           os.TempDir(),
		CaseInsensitiveFS: runtime.GOOS == "windows" || runtime.GOOS == "darwin",
		Resolve:           filepath.EvalSymlinks,
	}
}
