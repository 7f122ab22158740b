package core

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/Dicklesworthstone/safetynet/internal/shell"
)

const (
	reasonXargsShell    = "xargs feeding a shell can execute arbitrary commands from its input. Run the commands explicitly instead."
	reasonXargsRm       = "xargs rm -rf deletes paths read from input that cannot be verified. List the files first, then delete them explicitly."
	reasonParallelShell = "parallel with a shell -c template built from placeholders can execute arbitrary input. Run the commands explicitly instead."
	reasonParallelRm    = "parallel rm -rf deletes paths that cannot be verified. List the files first, then delete them explicitly."
)

// xargs options taking a separate value when they end their cluster.
// -e, -i and -l only ever take an attached value.
const (
	xargsShortValue    = "aEILnPsd"
	xargsShortOptional = "eil"
)

var xargsLongValue = map[string]bool{
	"--arg-file": true, "--delimiter": true, "--max-args": true,
	"--max-procs": true, "--max-chars": true, "--process-slot-var": true,
}

// xargsChild returns the command xargs will run, or nil for the default
// echo.
func xargsChild(args []string) []string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return args[i+1:]
		case strings.HasPrefix(arg, "--"):
			if !strings.Contains(arg, "=") && xargsLongValue[arg] {
				i++
			}
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			letters := arg[1:]
			for k := 0; k < len(letters); k++ {
				if strings.IndexByte(xargsShortOptional, letters[k]) >= 0 {
					break
				}
				if strings.IndexByte(xargsShortValue, letters[k]) >= 0 {
					if k == len(letters)-1 {
						i++
					}
					break
				}
			}
		default:
			return args[i:]
		}
	}
	return nil
}

func (a *analyzer) evaluateXargs(tokens []string, sc scope, depth int) *Result {
	child := xargsChild(tokens[1:])
	if len(child) == 0 {
		return nil
	}
	stripped := shell.StripWrappers(child)
	toks := stripped.Tokens
	if inner, ok := shell.UnwrapBusybox(toks); ok {
		toks = inner
	}
	if len(toks) == 0 {
		return nil
	}
	csc := sc.with(stripped.Env)

	switch KindOf(shell.CommandName(toks[0])) {
	case KindShell:
		return blocked(reasonXargsShell)
	case KindRm:
		if !hasRecursiveForce(toks[1:]) {
			return nil
		}
		if reason := a.evaluateRm(toks, csc); reason != "" {
			return blocked(reason)
		}
		return blocked(reasonXargsRm)
	case KindFind:
		return a.evaluateFind(toks, csc, depth)
	case KindGit:
		return blockedIf(evaluateGit(toks))
	default:
		return a.dispatch(toks, csc, depth+1)
	}
}

// parallel options that take a separate value.
var parallelValueOptions = map[string]bool{
	"-j": true, "--jobs": true, "-P": true, "-S": true, "--sshlogin": true,
	"--slf": true, "--sshloginfile": true, "-a": true, "--arg-file": true,
	"-I": true, "--delay": true, "--timeout": true, "--joblog": true,
	"--results": true, "--res": true, "-n": true, "--max-args": true,
	"-N": true, "--colsep": true, "-C": true, "-d": true, "--delimiter": true,
	"--tmpdir": true, "--workdir": true, "--wd": true, "--env": true,
	"-E": true, "--retries": true, "--memfree": true, "--load": true,
	"-L": true, "--max-lines": true, "-s": true, "--max-chars": true,
	"--tagstring": true, "--tag-string": true, "--basefile": true, "--bf": true,
	"--return": true, "--transferfile": true, "--tf": true, "--halt": true,
	"--termseq": true, "--limit": true, "--profile": true, "-J": true,
	"--block": true, "--block-size": true, "--recend": true, "--recstart": true,
	"--header": true, "--rpl": true, "--sshdelay": true,
}

var placeholderRe = regexp.MustCompile(`\{\d*(?:\.|/|//|/\.|#|%)?\}`)

// parallelInvocation is a parsed `parallel [options] template ::: args`.
type parallelInvocation struct {
	template []string
	values   []string
	// known is false when arguments come from stdin or files.
	known bool
}

func parseParallel(args []string) parallelInvocation {
	i := 0
	for i < len(args) {
		arg := args[i]
		if arg == "--" {
			i++
			break
		}
		if !strings.HasPrefix(arg, "-") || len(arg) < 2 {
			break
		}
		if parallelValueOptions[arg] {
			i++
		}
		i++
	}
	rest := args[min(i, len(args)):]

	marker := -1
	for j, tok := range rest {
		if isParallelMarker(tok) {
			marker = j
			break
		}
	}
	if marker < 0 {
		for j, tok := range rest {
			if tok == "--" {
				return parallelInvocation{template: rest[:j]}
			}
		}
		return parallelInvocation{template: rest}
	}

	inv := parallelInvocation{template: rest[:marker], known: true}
	for _, tok := range rest[marker:] {
		switch {
		case strings.HasPrefix(tok, "::::"):
			// Arguments read from files.
			inv.known = false
		case isParallelMarker(tok):
		default:
			inv.values = append(inv.values, tok)
		}
	}
	if !inv.known {
		inv.values = nil
	}
	return inv
}

func isParallelMarker(tok string) bool {
	switch tok {
	case ":::", ":::+", "::::", "::::+":
		return true
	}
	return false
}

func (a *analyzer) evaluateParallel(tokens []string, sc scope, depth int) *Result {
	inv := parseParallel(tokens[1:])

	if len(inv.template) == 0 {
		// Every argument is a command of its own.
		for _, value := range inv.values {
			if res := a.analyzeCommand(value, sc, depth+1); res != nil {
				return res
			}
		}
		return nil
	}

	stripped := shell.StripWrappers(inv.template)
	toks := stripped.Tokens
	csc := sc.with(stripped.Env)
	if len(toks) > 0 {
		switch KindOf(shell.CommandName(toks[0])) {
		case KindShell:
			if script, ok := shellScript(toks); ok {
				return a.evaluateParallelScript(script, inv, csc, depth)
			}
		case KindRm:
			if hasRecursiveForce(toks[1:]) {
				if len(inv.values) == 0 {
					return blocked(reasonParallelRm)
				}
				for n, value := range inv.values {
					if reason := a.evaluateRm(expandTokens(toks, value, n+1), csc); reason != "" {
						return blocked(reason)
					}
				}
				return nil
			}
		}
	}

	if len(inv.values) == 0 {
		return a.analyzeCommand(shell.Join(inv.template), sc, depth+1)
	}
	for n, value := range inv.values {
		if res := a.analyzeCommand(shell.Join(expandTokens(inv.template, value, n+1)), sc, depth+1); res != nil {
			return res
		}
	}
	return nil
}

func (a *analyzer) evaluateParallelScript(script string, inv parallelInvocation, sc scope, depth int) *Result {
	if !placeholderRe.MatchString(script) {
		return a.analyzeCommand(script, sc, depth+1)
	}
	if strings.TrimSpace(placeholderRe.ReplaceAllString(script, "")) == "" {
		return blocked(reasonParallelShell)
	}
	if len(inv.values) == 0 {
		return blocked(reasonParallelShell)
	}
	for n, value := range inv.values {
		if res := a.analyzeCommand(expandPlaceholders(script, value, n+1), sc, depth+1); res != nil {
			return res
		}
	}
	return nil
}

// expandTokens substitutes value into the template the way parallel does:
// into every placeholder, or appended when there is none.
func expandTokens(template []string, value string, job int) []string {
	out := make([]string, 0, len(template)+1)
	replaced := false
	for _, tok := range template {
		if placeholderRe.MatchString(tok) {
			tok = expandPlaceholders(tok, value, job)
			replaced = true
		}
		out = append(out, tok)
	}
	if !replaced {
		out = append(out, value)
	}
	return out
}

func expandPlaceholders(s, value string, job int) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		switch strings.TrimLeft(strings.Trim(m, "{}"), "0123456789") {
		case ".":
			return strings.TrimSuffix(value, path.Ext(value))
		case "/":
			return path.Base(value)
		case "//":
			return path.Dir(value)
		case "/.":
			base := path.Base(value)
			return strings.TrimSuffix(base, path.Ext(base))
		case "#", "%":
			return strconv.Itoa(job)
		default:
			return value
		}
	})
}
