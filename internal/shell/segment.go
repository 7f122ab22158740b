// Package shell splits raw command strings into independently executable
// segments and peels wrapper prefixes off their token lists.
//
// It approximates shell semantics only as far as needed to find the
// commands a string would run. Nothing here expands variables or executes
// anything: `$VAR`, `${VAR}` and `$(...)` stay in their textual form so
// later stages can reason about what the command looks like, not what it
// evaluates to.
package shell

import (
	"sort"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Segment is one independently executable command extracted from a
// command line.
type Segment struct {
	// Tokens are the rendered words of the command, leading assignments
	// included (as NAME=value).
	Tokens []string
	// Text is the source excerpt the segment was taken from.
	Text string
	// Opaque marks a segment the segmenter could not structure. Its only
	// token is the raw text.
	Opaque bool

	offset uint
}

// Split tokenizes command and returns its segments.
//
// Unbalanced quoting or any parse failure degrades to a single opaque
// segment holding the whole command. Segments found inside command
// substitutions, subshells, groups and compound statements are returned
// alongside the top-level ones, ordered by their position in the source.
func Split(command string) []Segment {
	if strings.TrimSpace(command) == "" {
		return nil
	}
	if HasUnbalancedQuotes(command) {
		return []Segment{opaque(command)}
	}

	parser := syntax.NewParser(syntax.KeepComments(false), syntax.Variant(syntax.LangBash))
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return []Segment{opaque(command)}
	}

	var segments []Segment
	syntax.Walk(file, func(node syntax.Node) bool {
		var tokens []string
		switch n := node.(type) {
		case *syntax.CallExpr:
			for _, as := range n.Assigns {
				if tok := renderAssign(as, command); tok != "" {
					tokens = append(tokens, tok)
				}
			}
			for _, w := range n.Args {
				tokens = append(tokens, renderWord(w, command))
			}
		case *syntax.DeclClause:
			if n.Variant != nil {
				tokens = append(tokens, n.Variant.Value)
			}
			for _, as := range n.Args {
				if tok := renderAssign(as, command); tok != "" {
					tokens = append(tokens, tok)
				}
			}
		default:
			return true
		}
		if len(tokens) > 0 {
			segments = append(segments, Segment{
				Tokens: tokens,
				Text:   sourceText(command, node),
				offset: node.Pos().Offset(),
			})
		}
		return true
	})

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].offset < segments[j].offset
	})
	if len(segments) == 0 {
		return nil
	}
	return segments
}

func opaque(command string) Segment {
	return Segment{Tokens: []string{command}, Text: command, Opaque: true}
}

// HasUnbalancedQuotes reports whether command leaves a single or double
// quote open. Backslash escapes are honored outside single quotes.
func HasUnbalancedQuotes(command string) bool {
	var inSingle, inDouble, escaped bool
	for _, r := range command {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if !inSingle {
				escaped = true
			}
		case '\'':
			if !inDouble {
				inSingle = !inSingle
			}
		case '"':
			if !inSingle {
				inDouble = !inDouble
			}
		}
	}
	return inSingle || inDouble
}
