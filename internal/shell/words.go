package shell

import (
	"bytes"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// renderWord flattens a parsed word into the string the analyzer reasons
// about: quotes removed, escapes resolved, expansions left as written.
func renderWord(w *syntax.Word, src string) string {
	if w == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range w.Parts {
		renderPart(&sb, part, false, src)
	}
	return sb.String()
}

func renderPart(sb *strings.Builder, part syntax.WordPart, quoted bool, src string) {
	switch p := part.(type) {
	case *syntax.Lit:
		if quoted {
			sb.WriteString(unescapeDouble(p.Value))
		} else {
			sb.WriteString(unescapeBare(p.Value))
		}
	case *syntax.SglQuoted:
		if p.Dollar {
			sb.WriteString(unescapeANSIC(p.Value))
		} else {
			sb.WriteString(p.Value)
		}
	case *syntax.DblQuoted:
		for _, inner := range p.Parts {
			renderPart(sb, inner, true, src)
		}
	default:
		// $VAR, ${VAR}, $(...), `...`, $((...)) and friends stay literal.
		sb.WriteString(sourceText(src, part))
	}
}

func renderAssign(as *syntax.Assign, src string) string {
	if as == nil {
		return ""
	}
	if as.Naked {
		if as.Name != nil {
			return as.Name.Value
		}
		return renderWord(as.Value, src)
	}
	if as.Name == nil {
		return ""
	}
	op := "="
	if as.Append {
		op = "+="
	}
	switch {
	case as.Array != nil:
		return as.Name.Value + op + sourceText(src, as.Array)
	case as.Value != nil:
		return as.Name.Value + op + renderWord(as.Value, src)
	default:
		return as.Name.Value + op
	}
}

// sourceText returns the exact source bytes of node, falling back to the
// syntax printer when offsets do not line up with src.
func sourceText(src string, node syntax.Node) string {
	start, end := int(node.Pos().Offset()), int(node.End().Offset())
	if start >= 0 && end <= len(src) && start < end {
		return src[start:end]
	}
	var buf bytes.Buffer
	if err := syntax.NewPrinter().Print(&buf, node); err != nil {
		return ""
	}
	return buf.String()
}

// unescapeBare resolves backslash escapes in an unquoted literal.
func unescapeBare(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			if s[i] == '\n' {
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// unescapeDouble resolves the escapes bash honors inside double quotes.
func unescapeDouble(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '$', '`', '"', '\\':
				i++
			case '\n':
				i++
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// unescapeANSIC decodes the common escapes of a bash $'...' string.
// Unknown escapes are kept verbatim.
func unescapeANSIC(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			sb.WriteByte(s[i])
			continue
		}
		i++
		switch c := s[i]; c {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case 'a':
			sb.WriteByte('\a')
		case 'b':
			sb.WriteByte('\b')
		case 'f':
			sb.WriteByte('\f')
		case 'v':
			sb.WriteByte('\v')
		case 'e', 'E':
			sb.WriteByte(0x1b)
		case '\\', '\'', '"', '?':
			sb.WriteByte(c)
		case 'x':
			j := i + 1
			for j < len(s) && j < i+3 && isHex(s[j]) {
				j++
			}
			if j == i+1 {
				sb.WriteString(`\x`)
				continue
			}
			v, _ := strconv.ParseUint(s[i+1:j], 16, 8)
			sb.WriteByte(byte(v))
			i = j - 1
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 16)
			sb.WriteByte(byte(v))
			i = j - 1
		default:
			sb.WriteByte('\\')
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Quote returns s quoted so that Split renders it back as a single token.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if q, err := syntax.Quote(s, syntax.LangBash); err == nil {
		return q
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Join rebuilds a command string from tokens, quoting where needed.
func Join(tokens []string) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = Quote(tok)
	}
	return strings.Join(parts, " ")
}
