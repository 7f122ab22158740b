package shell

import (
	"regexp"
	"strings"

	"github.com/mattn/go-shellwords"
)

// maxStripSteps bounds the wrapper stripping state machine.
const maxStripSteps = 20

var assignmentRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)

// Stripped is the outcome of StripWrappers.
type Stripped struct {
	// Tokens is the residual command after wrappers and assignments.
	Tokens []string
	// Env holds NAME=value assignments seen while stripping, in the order
	// they apply (later assignments overwrite earlier ones).
	Env map[string]string
}

// wrapperSpec describes the option grammar of a wrapper command.
type wrapperSpec struct {
	// valueShort are short options taking a separate value when they are
	// the last letter of their cluster.
	valueShort string
	// valueLong are long options taking a separate value unless written
	// with '='.
	valueLong map[string]bool
	// bareDash treats a lone "-" as an option (env's alias for -i).
	bareDash bool
}

var wrappers = map[string]wrapperSpec{
	"sudo": {
		valueShort: "ugUpCDrtTR",
		valueLong: map[string]bool{
			"--user": true, "--group": true, "--other-user": true, "--host": true,
			"--prompt": true, "--close-from": true, "--chdir": true, "--role": true,
			"--type": true, "--command-timeout": true, "--chroot": true,
		},
	},
	"env": {
		valueShort: "uCS",
		valueLong: map[string]bool{
			"--unset": true, "--chdir": true, "--split-string": true,
		},
		bareDash: true,
	},
	"command": {},
}

// IsAssignment reports whether tok has the NAME=value shape.
func IsAssignment(tok string) bool {
	return assignmentRe.MatchString(tok)
}

// SplitAssignment splits a NAME=value token.
func SplitAssignment(tok string) (name, value string, ok bool) {
	if !IsAssignment(tok) {
		return "", "", false
	}
	name, value, _ = strings.Cut(tok, "=")
	return name, value, true
}

// StripWrappers peels leading assignments and sudo/env/command prefixes
// off tokens until nothing more can be removed. It never fails: whenever
// the shape is unclear it stops and returns what it has.
func StripWrappers(tokens []string) Stripped {
	out := Stripped{Tokens: tokens, Env: map[string]string{}}
	for step := 0; step < maxStripSteps; step++ {
		next, changed := stripOnce(out.Tokens, out.Env)
		if !changed {
			break
		}
		out.Tokens = next
	}
	return out
}

// stripOnce performs one transition of the stripping state machine.
func stripOnce(tokens []string, env map[string]string) ([]string, bool) {
	i := 0
	for i < len(tokens) {
		name, value, ok := SplitAssignment(tokens[i])
		if !ok {
			break
		}
		env[name] = value
		i++
	}
	if i > 0 {
		return tokens[i:], true
	}
	if len(tokens) == 0 {
		return tokens, false
	}

	head := CommandName(tokens[0])
	spec, ok := wrappers[head]
	if !ok {
		return tokens, false
	}

	rest, split, ok := skipWrapperOptions(tokens[1:], spec)
	if !ok {
		return tokens, false
	}
	if head == "env" {
		j := 0
		for j < len(rest) {
			name, value, isAssign := SplitAssignment(rest[j])
			if !isAssign {
				break
			}
			env[name] = value
			j++
		}
		rest = rest[j:]
		if len(split) > 0 {
			rest = append(append([]string{}, split...), rest...)
		}
	}
	if len(rest) == 0 {
		// A bare wrapper runs nothing we can see; keep it as the command.
		return tokens, false
	}
	return rest, true
}

// skipWrapperOptions consumes the wrapper's own options. The split result
// carries words produced by env -S/--split-string.
func skipWrapperOptions(args []string, spec wrapperSpec) (rest, split []string, ok bool) {
	i := 0
	for i < len(args) {
		tok := args[i]
		if tok == "--" {
			return args[i+1:], split, true
		}
		if tok == "-" {
			if !spec.bareDash {
				break
			}
			i++
			continue
		}
		if !strings.HasPrefix(tok, "-") {
			break
		}

		var value string
		var hasValue, isSplit bool
		if strings.HasPrefix(tok, "--") {
			name, v, eq := strings.Cut(tok, "=")
			isSplit = name == "--split-string"
			switch {
			case eq:
				value, hasValue = v, true
			case spec.valueLong[name]:
				if i+1 >= len(args) {
					return nil, nil, false
				}
				i++
				value, hasValue = args[i], true
			}
		} else {
			letters := tok[1:]
			for k := 0; k < len(letters); k++ {
				if !strings.ContainsRune(spec.valueShort, rune(letters[k])) {
					continue
				}
				isSplit = letters[k] == 'S'
				if k+1 < len(letters) {
					value, hasValue = letters[k+1:], true
				} else {
					if i+1 >= len(args) {
						return nil, nil, false
					}
					i++
					value, hasValue = args[i], true
				}
				break
			}
		}
		if isSplit && hasValue {
			words, err := shellwords.Parse(value)
			if err != nil {
				return nil, nil, false
			}
			split = append(split, words...)
		}
		i++
	}
	return args[i:], split, true
}

// UnwrapBusybox removes a leading busybox token when it names an applet.
func UnwrapBusybox(tokens []string) ([]string, bool) {
	if len(tokens) < 2 || CommandName(tokens[0]) != "busybox" {
		return tokens, false
	}
	return tokens[1:], true
}

// CommandName returns the basename of a command token, accepting both
// slash and backslash separators and dropping a Windows .exe suffix.
func CommandName(tok string) string {
	if idx := strings.LastIndexAny(tok, `/\`); idx >= 0 {
		tok = tok[idx+1:]
	}
	if len(tok) > 4 && strings.EqualFold(tok[len(tok)-4:], ".exe") {
		tok = tok[:len(tok)-4]
	}
	return tok
}
