package core

import "strings"

const (
	reasonGitCheckoutDashDash = "git checkout -- discards uncommitted changes permanently. Use 'git stash' first."
	reasonGitCheckoutRefPath  = "git checkout <ref> -- <path> overwrites the working tree with the ref version. Use 'git stash' first."
	reasonGitCheckoutPathspec = "git checkout --pathspec-from-file can overwrite many files with no undo. Use 'git stash' first."
	reasonGitCheckoutAmbig    = "git checkout with multiple positional arguments may overwrite files. Use 'git switch' for branches or 'git restore' for files."
	reasonGitRestore          = "git restore discards uncommitted changes. Use 'git stash' first, or --staged to only unstage."
	reasonGitRestoreWorktree  = "git restore --worktree discards uncommitted changes permanently."
	reasonGitResetHard        = "git reset --hard destroys all uncommitted changes permanently. Use 'git stash' first."
	reasonGitResetMerge       = "git reset --merge can lose uncommitted changes."
	reasonGitClean            = "git clean -f removes untracked files permanently. Review with 'git clean -n' first."
	reasonGitPushForce        = "Force push can destroy remote history. Use --force-with-lease if necessary."
	reasonGitBranchForce      = "git branch -D force-deletes without a merge check. Use -d for a safe delete."
	reasonGitStashDrop        = "git stash drop permanently deletes stashed changes. List stashes first with 'git stash list'."
	reasonGitStashClear       = "git stash clear permanently deletes ALL stashed changes."
	reasonGitWorktreeForce    = "git worktree remove --force can delete uncommitted changes. Drop the --force flag."
)

// gitValueOptions are global options that take a separate value.
var gitValueOptions = map[string]bool{
	"-C": true, "-c": true, "--git-dir": true, "--work-tree": true,
	"--namespace": true, "--super-prefix": true, "--config-env": true,
}

var gitHandlers = map[string]func(args []string) string{
	"checkout": gitCheckout,
	"restore":  gitRestore,
	"reset":    gitReset,
	"clean":    gitClean,
	"push":     gitPush,
	"branch":   gitBranch,
	"stash":    gitStash,
	"worktree": gitWorktree,
}

// gitSubcommand skips git's global options and returns the subcommand and
// its arguments. ok is false when no subcommand is present.
func gitSubcommand(args []string) (sub string, rest []string, ok bool) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			if i+1 < len(args) {
				return args[i+1], args[i+2:], true
			}
			return "", nil, false
		case gitValueOptions[arg]:
			i++
		case strings.HasPrefix(arg, "-"):
			// --git-dir=x, -C<dir>, --no-pager, --exec-path[=x] and friends.
		default:
			return arg, args[i+1:], true
		}
	}
	return "", nil, false
}

// evaluateGit dispatches a git invocation (tokens[0] is git) to the
// subcommand's handler. Unknown subcommands are allowed.
func evaluateGit(tokens []string) string {
	if len(tokens) == 0 {
		return ""
	}
	sub, rest, ok := gitSubcommand(tokens[1:])
	if !ok {
		return ""
	}
	handler, ok := gitHandlers[strings.ToLower(sub)]
	if !ok {
		return ""
	}
	return handler(rest)
}

// hasShort reports whether arg is a short option cluster containing any
// of letters. Long options never match.
func hasShort(arg, letters string) bool {
	if len(arg) < 2 || arg[0] != '-' || arg[1] == '-' {
		return false
	}
	return strings.ContainsAny(arg[1:], letters)
}

func hasArg(args []string, want ...string) bool {
	for _, arg := range args {
		for _, w := range want {
			if arg == w {
				return true
			}
		}
	}
	return false
}

// beforeDashDash returns the arguments preceding the first "--".
func beforeDashDash(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			return args[:i]
		}
	}
	return args
}

func positionals(args []string) []string {
	var out []string
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") && arg != "-" {
			continue
		}
		out = append(out, arg)
	}
	return out
}

func gitCheckout(args []string) string {
	for _, arg := range args {
		if arg == "--pathspec-from-file" || strings.HasPrefix(arg, "--pathspec-from-file=") {
			return reasonGitCheckoutPathspec
		}
	}
	opts := beforeDashDash(args)
	if hasArg(opts, "-b", "-B", "--orphan") {
		return ""
	}
	if len(opts) < len(args) {
		if len(args) == len(opts)+1 {
			// Nothing follows "--".
			return ""
		}
		if len(positionals(opts)) > 0 {
			return reasonGitCheckoutRefPath
		}
		return reasonGitCheckoutDashDash
	}
	if len(positionals(args)) >= 2 {
		return reasonGitCheckoutAmbig
	}
	return ""
}

func gitRestore(args []string) string {
	opts := beforeDashDash(args)
	if hasArg(opts, "--help", "-h", "--version") {
		return ""
	}
	for _, arg := range opts {
		if arg == "--worktree" || hasShort(arg, "W") {
			return reasonGitRestoreWorktree
		}
	}
	for _, arg := range opts {
		if arg == "--staged" || hasShort(arg, "S") {
			return ""
		}
	}
	return reasonGitRestore
}

func gitReset(args []string) string {
	opts := beforeDashDash(args)
	if hasArg(opts, "--hard") {
		return reasonGitResetHard
	}
	if hasArg(opts, "--merge") {
		return reasonGitResetMerge
	}
	return ""
}

func gitClean(args []string) string {
	opts := beforeDashDash(args)
	for _, arg := range opts {
		if arg == "--dry-run" || hasShort(arg, "n") {
			return ""
		}
	}
	for _, arg := range opts {
		if arg == "--force" || hasShort(arg, "f") {
			return reasonGitClean
		}
	}
	return ""
}

func gitPush(args []string) string {
	force := false
	for _, arg := range args {
		switch {
		case arg == "--force-with-lease" || strings.HasPrefix(arg, "--force-with-lease="):
			return ""
		case arg == "--force" || hasShort(arg, "f"):
			force = true
		case strings.HasPrefix(arg, "+") && len(arg) > 1:
			// +refspec forces that ref.
			force = true
		}
	}
	if force {
		return reasonGitPushForce
	}
	return ""
}

func gitBranch(args []string) string {
	var del, forced bool
	for _, arg := range args {
		if hasShort(arg, "D") {
			return reasonGitBranchForce
		}
		if arg == "--delete" || hasShort(arg, "d") {
			del = true
		}
		if arg == "--force" || hasShort(arg, "f") {
			forced = true
		}
	}
	if del && forced {
		return reasonGitBranchForce
	}
	return ""
}

func gitStash(args []string) string {
	pos := positionals(args)
	if len(pos) == 0 {
		return ""
	}
	switch pos[0] {
	case "drop":
		return reasonGitStashDrop
	case "clear":
		return reasonGitStashClear
	}
	return ""
}

func gitWorktree(args []string) string {
	pos := positionals(args)
	if len(pos) == 0 || pos[0] != "remove" {
		return ""
	}
	for _, arg := range beforeDashDash(args) {
		if arg == "--force" || hasShort(arg, "f") {
			return reasonGitWorktreeForce
		}
	}
	return ""
}
