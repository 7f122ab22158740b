package core

import (
	"regexp"
	"strings"

	"github.com/Dicklesworthstone/safetynet/internal/shell"
)

// MaxRecursionDepth caps nested shell, interpreter and bulk-execution
// re-analysis. Reaching it blocks.
const MaxRecursionDepth = 10

const (
	reasonRecursion           = "Command nests shells or interpreters deeper than the maximum recursion depth (10) and cannot be verified."
	reasonUnparseable         = "Command could not be safely analyzed (strict mode). Simplify the quoting or split it into separate commands."
	reasonInterpreterParanoid = "Interpreter one-liners are blocked by paranoid mode (SAFETY_NET_PARANOID_INTERPRETERS). Write the code to a file and review it first."
)

// ResultKind tells apart the ways a command can be blocked.
type ResultKind string

const (
	ResultRuleMatch         ResultKind = "rule_match"
	ResultRecursionExceeded ResultKind = "recursion_exceeded"
	ResultUnparseable       ResultKind = "unparseable"
)

// Result describes a blocked command. A nil *Result means allowed.
type Result struct {
	// Reason is the user-facing explanation.
	Reason string `json:"reason"`
	// Segment is the excerpt that triggered the block. It is not redacted.
	Segment string     `json:"segment"`
	Kind    ResultKind `json:"kind"`
}

// cwdChangeRe catches directory changes at any command position in text
// the segmenter could not structure.
var cwdChangeRe = regexp.MustCompile(`(?:^|[;&|(){}\n])\s*(?:builtin\s+)?(?:cd|pushd|popd)\b`)

// Analyze decides whether command may run in ctx. It returns nil when the
// command is allowed, otherwise the first block found.
func Analyze(command string, ctx Context) *Result {
	if ctx.OriginalCwd == "" {
		ctx.OriginalCwd = ctx.Cwd
	}
	a := &analyzer{ctx: ctx}
	return a.analyzeCommand(command, scope{cwd: ctx.Cwd}, 0)
}

type analyzer struct {
	ctx Context
	// trace observes every top-level segment and disables short-circuiting.
	trace func(seg shell.Segment, cwd string, res *Result)
}

// scope is the state that flows from one segment to the next within a
// single command string.
type scope struct {
	// cwd is the effective cwd, empty once it can no longer be trusted.
	cwd string
	// env holds assignments in effect (prefix, env, export and friends).
	// Maps are never mutated once shared; see with.
	env map[string]string
}

func (s scope) with(env map[string]string) scope {
	if len(env) == 0 {
		return s
	}
	merged := make(map[string]string, len(s.env)+len(env))
	for k, v := range s.env {
		merged[k] = v
	}
	for k, v := range env {
		merged[k] = v
	}
	return scope{cwd: s.cwd, env: merged}
}

func (a *analyzer) analyzeCommand(command string, sc scope, depth int) *Result {
	if depth >= MaxRecursionDepth {
		return &Result{Reason: reasonRecursion, Segment: command, Kind: ResultRecursionExceeded}
	}

	segments := shell.Split(command)
	if depth == 0 && a.ctx.Strict && len(segments) == 1 && segments[0].Opaque &&
		strings.Contains(strings.TrimSpace(command), " ") {
		return &Result{Reason: reasonUnparseable, Segment: command, Kind: ResultUnparseable}
	}

	tracing := depth == 0 && a.trace != nil
	var first *Result
	for _, seg := range segments {
		cwd := sc.cwd
		res := a.analyzeSegment(seg, &sc, depth)
		if tracing {
			a.trace(seg, cwd, res)
		}
		if res != nil && first == nil {
			first = res
			if !tracing {
				break
			}
		}
	}
	return first
}

// analyzeSegment evaluates one segment and folds its side effects (cwd
// changes, exported variables) into sc for the segments after it.
func (a *analyzer) analyzeSegment(seg shell.Segment, sc *scope, depth int) *Result {
	if seg.Opaque {
		// The text may change directory before its rm runs, so the cwd
		// is unknown for the whole scan.
		if cwdChangeRe.MatchString(seg.Text) {
			sc.cwd = ""
		}
		if reason := a.scanText(seg.Text, *sc); reason != "" {
			return &Result{Reason: reason, Segment: seg.Text, Kind: ResultRuleMatch}
		}
		return nil
	}

	stripped := shell.StripWrappers(seg.Tokens)
	var res *Result
	if len(stripped.Tokens) > 0 {
		res = a.dispatch(stripped.Tokens, sc.with(stripped.Env), depth)
	}
	if res != nil && res.Segment == "" {
		res.Segment = seg.Text
	}
	*sc = carry(*sc, stripped)
	return res
}

// carry returns the scope seen by later segments.
func carry(sc scope, stripped shell.Stripped) scope {
	if len(stripped.Tokens) == 0 {
		// NAME=value on its own sets a shell variable.
		return sc.with(stripped.Env)
	}
	tokens := dropGrouping(stripped.Tokens)
	if len(tokens) == 0 {
		return sc
	}
	switch shell.CommandName(tokens[0]) {
	case "cd", "pushd", "popd":
		sc.cwd = ""
	case "export", "declare", "typeset", "readonly", "local":
		set := map[string]string{}
		for _, tok := range tokens[1:] {
			if name, value, ok := shell.SplitAssignment(tok); ok {
				set[name] = value
			}
		}
		sc = sc.with(set)
	}
	return sc
}

// changesCwd reports whether tokens start a cd, pushd or popd.
func changesCwd(tokens []string) bool {
	tokens = dropGrouping(shell.StripWrappers(tokens).Tokens)
	if len(tokens) == 0 {
		return false
	}
	switch shell.CommandName(tokens[0]) {
	case "cd", "pushd", "popd":
		return true
	}
	return false
}

func dropGrouping(tokens []string) []string {
	for len(tokens) > 0 {
		switch tokens[0] {
		case "{", "(", "$(", "builtin":
			tokens = tokens[1:]
		default:
			return tokens
		}
	}
	return tokens
}

// dispatch routes a stripped token list to its rule module, then applies
// custom rules.
func (a *analyzer) dispatch(tokens []string, sc scope, depth int) *Result {
	if inner, ok := shell.UnwrapBusybox(tokens); ok {
		stripped := shell.StripWrappers(inner)
		if len(stripped.Tokens) == 0 {
			return nil
		}
		return a.dispatch(stripped.Tokens, sc.with(stripped.Env), depth)
	}

	name := shell.CommandName(tokens[0])
	kind := KindOf(name)
	if res := a.evaluate(kind, tokens, sc, depth); res != nil {
		return res
	}
	if depth == 0 || !kind.ruleModule() {
		if rule, ok := a.ctx.Rules.Match(tokens); ok {
			return blocked(rule.BlockReason())
		}
	}
	return nil
}

func (a *analyzer) evaluate(kind CommandKind, tokens []string, sc scope, depth int) *Result {
	switch kind {
	case KindShell:
		if script, ok := shellScript(tokens); ok {
			return a.analyzeCommand(script, sc, depth+1)
		}
	case KindInterpreter:
		code, ok := interpreterCode(tokens)
		if !ok {
			return nil
		}
		if a.ctx.ParanoidInterpreters {
			return blocked(reasonInterpreterParanoid)
		}
		if res := a.analyzeCommand(code, sc, depth+1); res != nil {
			return res
		}
		return blockedIf(a.scanText(code, sc))
	case KindRm:
		if a.cwdIsHome(sc) && hasRecursiveForce(tokens[1:]) {
			return blocked(reasonRmHomeCwd)
		}
		return blockedIf(a.evaluateRm(tokens, sc))
	case KindGit:
		return blockedIf(evaluateGit(tokens))
	case KindFind:
		return a.evaluateFind(tokens, sc, depth)
	case KindXargs:
		return a.evaluateXargs(tokens, sc, depth)
	case KindParallel:
		return a.evaluateParallel(tokens, sc, depth)
	case KindUnknown:
		return a.scanEmbedded(tokens, sc, depth)
	}
	return nil
}

// scanEmbedded looks past an unknown head (nice, timeout, ssh host, ...)
// for the first token that starts a command the rule modules know.
func (a *analyzer) scanEmbedded(tokens []string, sc scope, depth int) *Result {
	if displayCommands[strings.ToLower(shell.CommandName(tokens[0]))] {
		return nil
	}
	for i := 1; i < len(tokens); i++ {
		stripped := shell.StripWrappers(tokens[i:])
		if len(stripped.Tokens) == 0 {
			continue
		}
		name := shell.CommandName(stripped.Tokens[0])
		if KindOf(name) == KindUnknown && name != "busybox" {
			continue
		}
		return a.dispatch(stripped.Tokens, sc.with(stripped.Env), depth)
	}
	return nil
}

func blocked(reason string) *Result {
	return &Result{Reason: reason, Kind: ResultRuleMatch}
}

func blockedIf(reason string) *Result {
	if reason == "" {
		return nil
	}
	return blocked(reason)
}
