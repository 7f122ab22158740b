package core

import (
	"regexp"
	"strings"
)

// CommandKind is the closed set of command families the analyzer knows how
// to evaluate.
type CommandKind int

const (
	KindUnknown CommandKind = iota
	KindShell
	KindInterpreter
	KindGit
	KindRm
	KindFind
	KindXargs
	KindParallel
)

func (k CommandKind) String() string {
	switch k {
	case KindShell:
		return "shell"
	case KindInterpreter:
		return "interpreter"
	case KindGit:
		return "git"
	case KindRm:
		return "rm"
	case KindFind:
		return "find"
	case KindXargs:
		return "xargs"
	case KindParallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// ruleModule reports whether k is claimed by one of the built-in rule
// modules. Custom rules at nested depths only apply when it is not.
func (k CommandKind) ruleModule() bool {
	switch k {
	case KindGit, KindRm, KindFind, KindXargs, KindParallel:
		return true
	}
	return false
}

var shellNames = map[string]bool{
	"bash": true, "sh": true, "zsh": true, "ksh": true,
	"dash": true, "fish": true, "csh": true, "tcsh": true,
}

var pythonRe = regexp.MustCompile(`^python[0-9.]*$`)

// displayCommands print or search text; tokens that follow them are data,
// not commands.
var displayCommands = map[string]bool{
	"echo": true, "printf": true, "cat": true, "grep": true, "egrep": true,
	"fgrep": true, "rg": true, "ag": true, "ack": true, "man": true,
	"which": true, "type": true, "whereis": true, "head": true, "tail": true,
	"less": true, "more": true, "wc": true,
}

// KindOf classifies a command basename.
func KindOf(name string) CommandKind {
	name = strings.ToLower(name)
	switch {
	case shellNames[name]:
		return KindShell
	case isInterpreter(name):
		return KindInterpreter
	case name == "git":
		return KindGit
	case name == "rm":
		return KindRm
	case name == "find":
		return KindFind
	case name == "xargs":
		return KindXargs
	case name == "parallel":
		return KindParallel
	}
	return KindUnknown
}

func isInterpreter(name string) bool {
	switch name {
	case "node", "nodejs", "ruby", "perl":
		return true
	}
	return pythonRe.MatchString(name)
}
