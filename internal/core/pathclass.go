package core

import (
	"path"
	"regexp"
	"strings"
)

// PathClass is the classification of a deletion target.
type PathClass int

const (
	PathOutsideCwd PathClass = iota
	PathRootOrHome
	PathCwdSelf
	PathTemp
	PathWithinCwd
)

func (c PathClass) String() string {
	switch c {
	case PathRootOrHome:
		return "root_or_home"
	case PathCwdSelf:
		return "cwd_self"
	case PathTemp:
		return "temp"
	case PathWithinCwd:
		return "within_cwd"
	default:
		return "outside_cwd"
	}
}

var (
	driveRe       = regexp.MustCompile(`^[A-Za-z]:(/|$)`)
	homeVarPrefix = []string{"${HOME}", "$HOME", "~"}
	tmpVarPrefix  = []string{"${TMPDIR}/", "$TMPDIR/"}
)

// pathEnv is the view of the analysis state the classifier needs.
type pathEnv struct {
	// cwd is the effective cwd; empty when unknown.
	cwd string
	// anchor is the effective cwd if known, else the original cwd.
	anchor        string
	home          string
	tempDir       string
	tmpdirTrusted bool
	foldCase      bool
	resolve       func(string) (string, error)
}

func newPathEnv(ctx Context, cwd string, env map[string]string) pathEnv {
	pe := pathEnv{
		home:     toSlash(ctx.Home),
		tempDir:  toSlash(ctx.TempDir),
		foldCase: ctx.CaseInsensitiveFS,
		resolve:  ctx.Resolve,
	}
	pe.cwd = pe.absOrEmpty(cwd)
	pe.anchor = pe.cwd
	if pe.anchor == "" {
		pe.anchor = pe.absOrEmpty(ctx.OriginalCwd)
	}
	pe.tmpdirTrusted = tmpdirTrusted(env, pe)
	return pe
}

// ClassifyPath classifies target against ctx.Cwd with an untouched TMPDIR.
func ClassifyPath(target string, ctx Context) PathClass {
	cwd := ctx.Cwd
	if ctx.OriginalCwd == "" {
		ctx.OriginalCwd = cwd
	}
	return classifyPath(target, newPathEnv(ctx, cwd, nil))
}

// classifyPath evaluates the classes in precedence order; the first match
// wins. Anything unresolvable lands in PathOutsideCwd.
func classifyPath(target string, pe pathEnv) PathClass {
	t := toSlash(target)
	if t == "" {
		return PathOutsideCwd
	}
	if pe.isRootOrHome(t) {
		return PathRootOrHome
	}
	if pe.isCwdSelf(t) {
		return PathCwdSelf
	}
	if pe.isTemp(t) {
		return PathTemp
	}
	if pe.isWithin(t) {
		return PathWithinCwd
	}
	return PathOutsideCwd
}

func (pe pathEnv) isRootOrHome(t string) bool {
	if pe.anchor != "" && pe.home != "" && pe.same(pe.anchor, pe.clean(pe.home)) {
		return true
	}

	base := strings.TrimSuffix(t, "*")
	if base == "" {
		// A bare "*" expands to everything in the cwd.
		return false
	}

	for _, prefix := range homeVarPrefix {
		if !strings.HasPrefix(base, prefix) {
			continue
		}
		rest := base[len(prefix):]
		if rest == "" || path.Clean("/"+rest) == "/" {
			return true
		}
	}

	if !isAbs(base) {
		return false
	}
	cleaned := pe.clean(base)
	if isRoot(cleaned) {
		return true
	}
	return pe.home != "" && pe.same(cleaned, pe.clean(pe.home))
}

func (pe pathEnv) isCwdSelf(t string) bool {
	if !isAbs(t) && !hasExpansion(t) && !strings.HasPrefix(t, "~") && path.Clean(t) == "." {
		return true
	}
	if pe.anchor == "" || hasExpansion(t) || strings.HasPrefix(t, "~") {
		return false
	}
	return pe.same(pe.real(pe.absolute(t, pe.anchor)), pe.real(pe.anchor))
}

func (pe pathEnv) isTemp(t string) bool {
	if hasDotDot(t) {
		return false
	}
	if pe.tmpdirTrusted {
		for _, prefix := range tmpVarPrefix {
			if rest, ok := strings.CutPrefix(t, prefix); ok && strings.Trim(rest, "/") != "" {
				return true
			}
		}
	}
	if !isAbs(t) {
		return false
	}
	cleaned := pe.clean(t)
	for _, root := range pe.tempRoots() {
		if pe.under(cleaned, root) {
			return true
		}
	}
	return false
}

func (pe pathEnv) isWithin(t string) bool {
	if pe.cwd == "" || isRoot(pe.cwd) {
		return false
	}
	if hasExpansion(t) || strings.HasPrefix(t, "~") {
		return false
	}
	if t == ".." || strings.HasPrefix(t, "../") {
		return false
	}
	abs := pe.absolute(t, pe.cwd)
	if !pe.under(abs, pe.cwd) {
		return false
	}
	if pe.resolve == nil {
		return true
	}
	// A symlink inside the cwd can still point elsewhere.
	return pe.under(pe.real(abs), pe.real(pe.cwd))
}

func (pe pathEnv) tempRoots() []string {
	roots := []string{"/tmp", "/var/tmp"}
	if pe.tempDir != "" {
		if td := toSlash(pe.tempDir); isAbs(td) && !isRoot(pe.clean(td)) {
			roots = append(roots, pe.clean(td))
		}
	}
	return roots
}

// tmpdirTrusted applies the temp-trust policy to the TMPDIR override, if
// the command carries one.
func tmpdirTrusted(env map[string]string, pe pathEnv) bool {
	v, ok := env["TMPDIR"]
	if !ok {
		return true
	}
	v = toSlash(v)
	if v == "" || !isAbs(v) || hasDotDot(v) || hasExpansion(v) {
		return false
	}
	cleaned := pe.clean(v)
	for _, root := range pe.tempRoots() {
		if pe.same(cleaned, root) || pe.under(cleaned, root) {
			return true
		}
	}
	return false
}

func (pe pathEnv) absOrEmpty(p string) string {
	p = toSlash(p)
	if p == "" || !isAbs(p) {
		return ""
	}
	return pe.clean(p)
}

func (pe pathEnv) absolute(t, base string) string {
	if isAbs(t) {
		return pe.clean(t)
	}
	return pe.clean(base + "/" + t)
}

func (pe pathEnv) real(p string) string {
	if pe.resolve == nil {
		return p
	}
	// A missing path resolves through its nearest existing ancestor so it
	// compares against the resolved cwd.
	cur, rest := p, ""
	for {
		if r, err := pe.resolve(cur); err == nil && r != "" {
			return pe.clean(toSlash(r) + rest)
		}
		parent := path.Dir(cur)
		if parent == cur {
			return p
		}
		rest = "/" + path.Base(cur) + rest
		cur = parent
	}
}

func (pe pathEnv) clean(p string) string {
	p = path.Clean(p)
	if pe.foldCase {
		p = strings.ToLower(p)
	}
	return p
}

func (pe pathEnv) same(a, b string) bool {
	if pe.foldCase {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// under reports whether p is strictly below dir.
func (pe pathEnv) under(p, dir string) bool {
	if pe.foldCase {
		p, dir = strings.ToLower(p), strings.ToLower(dir)
	}
	if dir == "/" {
		return p != "/" && strings.HasPrefix(p, "/")
	}
	return strings.HasPrefix(p, strings.TrimSuffix(dir, "/")+"/")
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

func isAbs(p string) bool {
	return strings.HasPrefix(p, "/") || driveRe.MatchString(p)
}

func isRoot(p string) bool {
	if p == "/" {
		return true
	}
	return driveRe.MatchString(p) && strings.Trim(p[2:], "/") == ""
}

func hasExpansion(p string) bool {
	return strings.ContainsAny(p, "$`")
}

func hasDotDot(p string) bool {
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return true
		}
	}
	return false
}
