package core

import (
	"regexp"
	"strings"

	"github.com/mattn/go-shellwords"
)

const reasonTextRm = "rm -rf found in a command that could not be fully analyzed. Split it into simpler commands."

var (
	rmClauseRe    = regexp.MustCompile(`\brm\s+([^;&|\n)]*)`)
	gitClauseRe   = regexp.MustCompile(`\bgit\s+([^;&|\n)]*)`)
	findDeleteRe  = regexp.MustCompile(`\bfind\b[^;&|\n]*\s-delete\b`)
	displayLineRe = regexp.MustCompile(`^\s*(?:echo|rg)\b`)
)

// scanText is the dangerous-text net for input that is not shell syntax
// the segmenter could structure: opaque segments and interpreter code.
// rm and git clauses found in the text go through their rule modules.
func (a *analyzer) scanText(text string, sc scope) string {
	for _, m := range rmClauseRe.FindAllStringSubmatch(text, -1) {
		args := clauseFields(m[1])
		if !hasRecursiveForce(args) {
			continue
		}
		if reason := a.evaluateRm(append([]string{"rm"}, args...), sc); reason != "" {
			return reason
		}
		if len(rmTargets(args)) == 0 {
			return reasonTextRm
		}
	}
	for _, m := range gitClauseRe.FindAllStringSubmatch(text, -1) {
		if reason := evaluateGit(append([]string{"git"}, clauseFields(m[1])...)); reason != "" {
			return reason
		}
	}
	if findDeleteRe.MatchString(text) && !displayLineRe.MatchString(text) {
		return reasonFindDelete
	}
	return ""
}

// clauseFields splits a clause into words, falling back to whitespace
// fields with quote characters trimmed when the quoting is broken.
func clauseFields(clause string) []string {
	if words, err := shellwords.Parse(clause); err == nil {
		return words
	}
	fields := strings.Fields(clause)
	for i, f := range fields {
		fields[i] = strings.Trim(f, "'\"`")
	}
	return fields
}
