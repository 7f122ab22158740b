package core

import (
	"strings"

	"github.com/Dicklesworthstone/safetynet/internal/shell"
)

const (
	reasonFindDelete = "find -delete permanently removes every match. Run it with -print first to review the matches."
	reasonFindExecRm = "find -exec rm -rf permanently removes every match. Run it with -print first to review the matches."
)

// findValuePredicates consume that many following tokens.
var findValuePredicates = map[string]int{
	"-name": 1, "-iname": 1, "-path": 1, "-ipath": 1, "-wholename": 1,
	"-iwholename": 1, "-regex": 1, "-iregex": 1, "-regextype": 1,
	"-lname": 1, "-ilname": 1, "-type": 1, "-xtype": 1, "-size": 1,
	"-user": 1, "-group": 1, "-uid": 1, "-gid": 1, "-perm": 1,
	"-mtime": 1, "-atime": 1, "-ctime": 1, "-mmin": 1, "-amin": 1,
	"-cmin": 1, "-used": 1, "-maxdepth": 1, "-mindepth": 1, "-links": 1,
	"-inum": 1, "-samefile": 1, "-fstype": 1, "-context": 1,
	"-printf": 1, "-fprint": 1, "-fprint0": 1, "-fls": 1,
	"-files0-from": 1, "-D": 1,
	"-fprintf": 2,
}

var findExecPredicates = map[string]bool{
	"-exec": true, "-execdir": true, "-ok": true, "-okdir": true,
}

// evaluateFind blocks a top-level -delete and any -exec clause that
// removes recursively. Other clauses are re-analyzed as commands.
func (a *analyzer) evaluateFind(tokens []string, sc scope, depth int) *Result {
	args := tokens[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-delete":
			return blocked(reasonFindDelete)
		case findExecPredicates[arg]:
			end := i + 1
			for end < len(args) && args[end] != ";" && args[end] != "+" {
				end++
			}
			if res := a.evaluateExecClause(args[i+1:end], sc, depth); res != nil {
				return res
			}
			i = end
		case strings.HasPrefix(arg, "-newer"):
			i++
		default:
			i += findValuePredicates[arg]
		}
	}
	return nil
}

func (a *analyzer) evaluateExecClause(clause []string, sc scope, depth int) *Result {
	if len(clause) == 0 {
		return nil
	}
	stripped := shell.StripWrappers(clause)
	if len(stripped.Tokens) > 0 &&
		KindOf(shell.CommandName(stripped.Tokens[0])) == KindRm &&
		hasRecursiveForce(stripped.Tokens[1:]) {
		return blocked(reasonFindExecRm)
	}
	return a.analyzeCommand(shell.Join(clause), sc, depth+1)
}
