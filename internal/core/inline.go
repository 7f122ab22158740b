package core

import (
	"strings"

	"github.com/Dicklesworthstone/safetynet/internal/shell"
)

// shellValueOptions take a separate value on shell command lines.
var shellValueOptions = map[string]bool{
	"-o": true, "+o": true, "-O": true, "+O": true,
	"--rcfile": true, "--init-file": true,
}

// shellScript extracts the inline script of `bash -c SCRIPT` and its
// relatives (`sh -xc`, `fish --command`). ok is false when the shell runs a
// file or reads stdin.
func shellScript(tokens []string) (script string, ok bool) {
	args := tokens[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-c" || arg == "--command":
			if i+1 < len(args) {
				return args[i+1], true
			}
			return "", false
		case strings.HasPrefix(arg, "--command="):
			return strings.TrimPrefix(arg, "--command="), true
		case arg == "--" || arg == "-":
			return "", false
		case shellValueOptions[arg]:
			i++
		case strings.HasPrefix(arg, "--"):
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			if !strings.Contains(arg[1:], "c") {
				continue
			}
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				return args[i+1], true
			}
			return "", false
		case strings.HasPrefix(arg, "+") && len(arg) > 1:
		default:
			return "", false
		}
	}
	return "", false
}

// interpreterFlags lists, per interpreter family, the options whose value
// is inline code.
var interpreterFlags = map[string][]string{
	"python": {"-c"},
	"node":   {"-e", "--eval", "-p", "--print"},
	"ruby":   {"-e"},
	"perl":   {"-e", "-E"},
}

// interpreterValueOptions take a separate, non-code value.
var interpreterValueOptions = map[string]bool{
	"-W": true, "-X": true, "-r": true, "--require": true, "-I": true,
}

func interpreterFamily(name string) string {
	name = strings.ToLower(name)
	switch {
	case pythonRe.MatchString(name):
		return "python"
	case name == "node" || name == "nodejs":
		return "node"
	}
	return name
}

// interpreterCode extracts the one-liner passed to an interpreter with -c
// or -e. Clusters such as `perl -ne` and `python -Bc` count when the code
// flag is their last letter.
func interpreterCode(tokens []string) (code string, ok bool) {
	flags := interpreterFlags[interpreterFamily(shell.CommandName(tokens[0]))]
	if len(flags) == 0 {
		return "", false
	}
	args := tokens[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" || arg == "-" || !strings.HasPrefix(arg, "-") {
			// Script file, stdin or end of options.
			return "", false
		}
		if name, value, eq := strings.Cut(arg, "="); eq && strings.HasPrefix(arg, "--") {
			for _, f := range flags {
				if name == f {
					return value, true
				}
			}
			continue
		}
		if isCodeFlag(arg, flags) {
			if i+1 < len(args) {
				return args[i+1], true
			}
			return "", false
		}
		if interpreterValueOptions[arg] {
			i++
		}
	}
	return "", false
}

func isCodeFlag(arg string, flags []string) bool {
	for _, f := range flags {
		if arg == f {
			return true
		}
		if len(f) == 2 && len(arg) > 2 && arg[1] != '-' && arg[len(arg)-1] == f[1] {
			return true
		}
	}
	return false
}
