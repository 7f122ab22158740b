package cli

import (
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/safetynet/internal/core"
	"github.com/Dicklesworthstone/safetynet/internal/hook"
	"github.com/spf13/cobra"
)

var flagExplainCwd string

func init() {
	explainCmd.Flags().StringVar(&flagExplainCwd, "cwd", "", "directory the command runs in (default: project directory)")

	rootCmd.AddCommand(explainCmd)
}

var explainCmd = &cobra.Command{
	Use:   "explain <command>",
	Short: "Show how a command is segmented and judged",
	Long: `Print every top-level segment of a command with its stripped head,
command kind, effective directory and verdict.

Unlike check, explain keeps going after the first block so every segment
is reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState(cmd)
		if err != nil {
			return err
		}
		cwd := flagExplainCwd
		if cwd == "" {
			cwd = state.project
		}
		exp := core.Explain(strings.Join(args, " "), state.analysisContext(cwd))
		return newWriter(cmd).Write(explainView{redactExplanation(exp)})
	},
}

type explainView struct {
	core.Explanation
}

// redactExplanation masks secrets in every excerpt before it is printed.
func redactExplanation(exp core.Explanation) core.Explanation {
	exp.Command = hook.Clean(exp.Command)
	segments := make([]core.SegmentReport, len(exp.Segments))
	for i, seg := range exp.Segments {
		seg.Text = hook.Clean(seg.Text)
		seg.Tokens = cleanAll(seg.Tokens)
		seg.Command = cleanAll(seg.Command)
		seg.Result = redactResult(seg.Result)
		segments[i] = seg
	}
	exp.Segments = segments
	exp.Result = redactResult(exp.Result)
	return exp
}

func redactResult(res *core.Result) *core.Result {
	if res == nil {
		return nil
	}
	out := *res
	out.Segment = hook.Clean(res.Segment)
	return &out
}

func cleanAll(tokens []string) []string {
	if tokens == nil {
		return nil
	}
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = hook.Clean(t)
	}
	return out
}

func (v explainView) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Command: %s\n", v.Command)
	for i, seg := range v.Segments {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, seg.Text)
		switch {
		case seg.Opaque:
			b.WriteString("   opaque: could not be split into words\n")
		case len(seg.Command) > 0:
			fmt.Fprintf(&b, "   command: %s\n", strings.Join(seg.Command, " "))
		}
		fmt.Fprintf(&b, "   kind:    %s\n", seg.Kind)
		cwd := seg.Cwd
		if cwd == "" {
			cwd = "(unknown)"
		}
		fmt.Fprintf(&b, "   cwd:     %s\n", cwd)
		if seg.ChangesCwd {
			b.WriteString("   changes the working directory\n")
		}
		if seg.Result != nil {
			fmt.Fprintf(&b, "   verdict: BLOCKED (%s)\n   reason:  %s\n", seg.Result.Kind, seg.Result.Reason)
		} else {
			b.WriteString("   verdict: allowed\n")
		}
	}
	b.WriteString("\n")
	if v.Result != nil {
		fmt.Fprintf(&b, "Result: BLOCKED\n  %s", v.Result.Reason)
	} else {
		b.WriteString("Result: allowed")
	}
	return b.String()
}
