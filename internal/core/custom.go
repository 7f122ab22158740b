package core

import (
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/safetynet/internal/shell"
)

// CustomRule is a user-supplied block rule. Rules only ever add
// restrictions.
type CustomRule struct {
	Name       string   `json:"name" yaml:"name"`
	Command    string   `json:"command" yaml:"command"`
	Subcommand string   `json:"subcommand,omitempty" yaml:"subcommand,omitempty"`
	BlockArgs  []string `json:"block_args" yaml:"block_args"`
	Reason     string   `json:"reason" yaml:"reason"`
}

// RuleSet is an ordered, already merged list of custom rules.
type RuleSet struct {
	Version int          `json:"version" yaml:"version"`
	Rules   []CustomRule `json:"rules" yaml:"rules"`
}

// BlockReason formats the reason reported when the rule matches.
func (r CustomRule) BlockReason() string {
	return fmt.Sprintf("[%s] %s", r.Name, r.Reason)
}

// Match returns the first rule matching tokens.
func (rs RuleSet) Match(tokens []string) (CustomRule, bool) {
	for _, rule := range rs.Rules {
		if rule.Matches(tokens) {
			return rule, true
		}
	}
	return CustomRule{}, false
}

// Matches reports whether the rule applies to a stripped token list.
func (r CustomRule) Matches(tokens []string) bool {
	if len(tokens) == 0 || shell.CommandName(tokens[0]) != r.Command {
		return false
	}
	args := tokens[1:]
	if r.Subcommand != "" {
		sub, rest, ok := subcommandOf(tokens)
		if !ok || sub != r.Subcommand {
			return false
		}
		args = rest
	}
	for _, arg := range args {
		for _, want := range r.BlockArgs {
			if argMatches(arg, want) {
				return true
			}
		}
	}
	return false
}

// subcommandOf returns the first positional argument. git's global
// options are understood; for other commands every option is assumed to
// be a flag.
func subcommandOf(tokens []string) (sub string, rest []string, ok bool) {
	args := tokens[1:]
	if KindOf(shell.CommandName(tokens[0])) == KindGit {
		return gitSubcommand(args)
	}
	for i, arg := range args {
		if arg == "--" {
			if i+1 < len(args) {
				return args[i+1], args[i+2:], true
			}
			return "", nil, false
		}
		if strings.HasPrefix(arg, "-") && arg != "-" {
			continue
		}
		return arg, args[i+1:], true
	}
	return "", nil, false
}

// argMatches compares literally, and lets a short option like -A match
// inside a combined cluster such as -Av. Long options match exactly.
func argMatches(arg, want string) bool {
	if arg == want {
		return true
	}
	if len(want) == 2 && want[0] == '-' && want[1] != '-' {
		return hasShort(arg, want[1:])
	}
	return false
}
