package core

import "github.com/Dicklesworthstone/safetynet/internal/shell"

// SegmentReport describes how one top-level segment was evaluated.
type SegmentReport struct {
	Text   string   `json:"text" yaml:"text"`
	Tokens []string `json:"tokens" yaml:"tokens"`
	// Command is the token list after wrapper and assignment stripping.
	Command    []string `json:"command" yaml:"command"`
	Kind       string   `json:"kind" yaml:"kind"`
	Opaque     bool     `json:"opaque" yaml:"opaque"`
	Cwd        string   `json:"cwd" yaml:"cwd"`
	ChangesCwd bool     `json:"changes_cwd" yaml:"changes_cwd"`
	Result     *Result  `json:"result,omitempty" yaml:"result,omitempty"`
}

// Explanation is the full trace of an analysis.
type Explanation struct {
	Command  string          `json:"command" yaml:"command"`
	Segments []SegmentReport `json:"segments" yaml:"segments"`
	// Result is what Analyze returns for the same input.
	Result *Result `json:"result,omitempty" yaml:"result,omitempty"`
}

// Explain runs the analyzer without stopping at the first block and
// reports every top-level segment.
func Explain(command string, ctx Context) Explanation {
	if ctx.OriginalCwd == "" {
		ctx.OriginalCwd = ctx.Cwd
	}
	exp := Explanation{Command: command}
	a := &analyzer{ctx: ctx}
	a.trace = func(seg shell.Segment, cwd string, res *Result) {
		report := SegmentReport{
			Text:   seg.Text,
			Tokens: seg.Tokens,
			Opaque: seg.Opaque,
			Cwd:    cwd,
			Result: res,
			Kind:   KindUnknown.String(),
		}
		if seg.Opaque {
			report.ChangesCwd = cwdChangeRe.MatchString(seg.Text)
		} else {
			report.Command = shell.StripWrappers(seg.Tokens).Tokens
			report.ChangesCwd = changesCwd(seg.Tokens)
			if len(report.Command) > 0 {
				report.Kind = KindOf(shell.CommandName(report.Command[0])).String()
			}
		}
		exp.Segments = append(exp.Segments, report)
	}
	exp.Result = a.analyzeCommand(command, scope{cwd: ctx.Cwd}, 0)
	return exp
}
