package cli

import (
	"io"
	"os"
	"strings"

	"github.com/Dicklesworthstone/safetynet/internal/core"
	"github.com/Dicklesworthstone/safetynet/internal/hook"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	flagCheckCwd      string
	flagCheckExitCode bool
)

func init() {
	checkCmd.Flags().StringVar(&flagCheckCwd, "cwd", "", "directory the command runs in (default: project directory)")
	checkCmd.Flags().BoolVar(&flagCheckExitCode, "exit-code", false, "exit with status 2 when the command is blocked")

	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check <command>",
	Short: "Check whether a shell command would be blocked",
	Long: `Run the analyzer on a command and print the verdict.

The command may be given as one quoted argument or as several words
after "--".

Examples:
  safety-net check "rm -rf ./build"
  safety-net check --cwd /tmp -- rm -rf ~/projects
  safety-net check --exit-code "git push --force" || echo blocked`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

// checkVerdict is the check command's result.
type checkVerdict struct {
	Command string       `json:"command"`
	Cwd     string       `json:"cwd"`
	Allowed bool         `json:"allowed"`
	Result  *core.Result `json:"result,omitempty"`

	styled bool
}

func runCheck(cmd *cobra.Command, args []string) error {
	state, err := loadState(cmd)
	if err != nil {
		return err
	}

	command := strings.Join(args, " ")
	cwd := flagCheckCwd
	if cwd == "" {
		cwd = state.project
	}
	ctx := state.analysisContext(cwd)

	res := core.Analyze(command, ctx)
	state.logger.Debug("analyzed", "cwd", ctx.Cwd, "blocked", res != nil)

	verdict := checkVerdict{
		Command: hook.Clean(command),
		Cwd:     ctx.Cwd,
		Allowed: res == nil,
		styled:  isTerminal(cmd.OutOrStdout()),
	}
	if res != nil {
		redacted := *res
		redacted.Segment = hook.Clean(res.Segment)
		verdict.Result = &redacted
	}

	if err := newWriter(cmd).Write(verdict); err != nil {
		return err
	}
	if res != nil && flagCheckExitCode {
		return &ExitError{Code: 2}
	}
	return nil
}

func (v checkVerdict) Text() string {
	allowed, blocked, muted := lipgloss.NewStyle(), lipgloss.NewStyle(), lipgloss.NewStyle()
	if v.styled {
		allowed = allowed.Bold(true).Foreground(colorGreen)
		blocked = blocked.Bold(true).Foreground(colorRed)
		muted = muted.Foreground(colorOverlay)
	}

	if v.Result == nil {
		return allowed.Render("ALLOWED") + "  " + muted.Render(v.Command)
	}

	var b strings.Builder
	b.WriteString(blocked.Render("BLOCKED"))
	b.WriteString("  ")
	b.WriteString(muted.Render(v.Command))
	b.WriteString("\n  reason:  ")
	b.WriteString(v.Result.Reason)
	if v.Result.Segment != "" && v.Result.Segment != v.Command {
		b.WriteString("\n  segment: ")
		b.WriteString(v.Result.Segment)
	}
	return b.String()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
