package core

import "strings"

const (
	reasonRmRootHome       = "rm -rf on root or home paths is extremely dangerous and is always blocked."
	reasonRmNoPreserveRoot = "rm --no-preserve-root is extremely dangerous and is always blocked."
	reasonRmCwdSelf        = "rm -rf on the current working directory itself is blocked. Delete specific paths inside it instead."
	reasonRmOutside        = "rm -rf outside the current working directory is blocked. Use explicit paths inside the project, or delete manually."
	reasonRmParanoid       = "rm -rf is blocked by paranoid mode (SAFETY_NET_PARANOID_RM). Delete files individually or ask the user."
	reasonRmHomeCwd        = "rm -rf while the working directory is the home directory is blocked."
)

// rmFlags scans options before any "--" for recursive and force flags.
func rmFlags(args []string) (recursive, force, noPreserveRoot bool) {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		switch {
		case arg == "--recursive":
			recursive = true
		case arg == "--force":
			force = true
		case arg == "--no-preserve-root":
			noPreserveRoot = true
		case strings.HasPrefix(arg, "--"):
		case strings.HasPrefix(arg, "-") && len(arg) > 1:
			if strings.ContainsAny(arg[1:], "rR") {
				recursive = true
			}
			if strings.Contains(arg[1:], "f") {
				force = true
			}
		}
	}
	return recursive, force, noPreserveRoot
}

// hasRecursiveForce reports whether an rm argument list (command name
// excluded) carries both -r and -f before "--".
func hasRecursiveForce(args []string) bool {
	recursive, force, _ := rmFlags(args)
	return recursive && force
}

// rmTargets returns the positional arguments: non-options before "--"
// and everything after it.
func rmTargets(args []string) []string {
	var targets []string
	for i, arg := range args {
		if arg == "--" {
			return append(targets, args[i+1:]...)
		}
		if strings.HasPrefix(arg, "-") && arg != "-" {
			continue
		}
		targets = append(targets, arg)
	}
	return targets
}

// evaluateRm applies the filesystem deletion rule to an rm invocation
// (tokens[0] is the command itself). A fatal target wins over any other
// blocked target.
func (a *analyzer) evaluateRm(tokens []string, sc scope) string {
	if len(tokens) == 0 {
		return ""
	}
	args := tokens[1:]
	recursive, force, noPreserveRoot := rmFlags(args)
	if !recursive || !force {
		return ""
	}
	if noPreserveRoot {
		return reasonRmNoPreserveRoot
	}

	pe := newPathEnv(a.ctx, sc.cwd, sc.env)
	var first string
	for _, target := range rmTargets(args) {
		var reason string
		switch classifyPath(target, pe) {
		case PathRootOrHome:
			return reasonRmRootHome
		case PathCwdSelf:
			reason = reasonRmCwdSelf
		case PathTemp:
		case PathWithinCwd:
			if a.ctx.ParanoidRm {
				reason = reasonRmParanoid
			}
		default:
			reason = reasonRmOutside
		}
		if first == "" {
			first = reason
		}
	}
	return first
}

// cwdIsHome reports whether the known effective cwd is the home directory.
func (a *analyzer) cwdIsHome(sc scope) bool {
	if sc.cwd == "" || a.ctx.Home == "" {
		return false
	}
	pe := newPathEnv(a.ctx, sc.cwd, nil)
	return pe.cwd != "" && pe.same(pe.cwd, pe.clean(toSlash(a.ctx.Home)))
}
