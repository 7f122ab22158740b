package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Catppuccin Mocha color palette
var (
	colorMauve   = lipgloss.Color("#cba6f7") // Title
	colorBlue    = lipgloss.Color("#89b4fa") // Section headers
	colorGreen   = lipgloss.Color("#a6e3a1") // Commands, allowed
	colorYellow  = lipgloss.Color("#f9e2af") // Flags
	colorRed     = lipgloss.Color("#f38ba8") // Blocked
	colorPeach   = lipgloss.Color("#fab387") // Paranoid modes
	colorOverlay = lipgloss.Color("#6c7086") // Muted text
	colorBase    = lipgloss.Color("#1e1e2e") // Background
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMauve).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorBlue).
			MarginTop(1)

	commandStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	flagStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	blockedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorRed)

	paranoidStyle = lipgloss.NewStyle().
			Foreground(colorPeach)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorOverlay)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBlue).
			Background(colorBase).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

func showQuickReference(w io.Writer) {
	width := clampWidth(detectWidth())
	useUnicode := supportsUnicode()

	border := lipgloss.RoundedBorder()
	if !useUnicode {
		border = lipgloss.Border{
			Top:         "-",
			Bottom:      "-",
			Left:        "|",
			Right:       "|",
			TopLeft:     "+",
			TopRight:    "+",
			BottomLeft:  "+",
			BottomRight: "+",
		}
	}

	container := boxStyle.Border(border).Width(width)

	titleText := " SAFETY NET QUICK REFERENCE · Destructive Command Guard "
	titleRendered := gradientText(titleText, []lipgloss.Color{colorMauve, colorBlue})
	if !useUnicode {
		titleRendered = "SAFETY NET QUICK REFERENCE - Destructive Command Guard"
	}
	title := titleStyle.Width(width - 4).Align(lipgloss.Center).Render(titleRendered)

	setup := renderSection(useUnicode, "🔷 SETUP (once)", []string{
		bullet("safety-net hook install", "register the Claude Code PreToolUse hook"),
		bullet("safety-net hook status", "check the hook is configured"),
		bullet("safety-net rules init", "write a starter .safety-net.json"),
	})

	check := renderSection(useUnicode, "🔶 CHECKING COMMANDS", []string{
		bullet("safety-net check \"rm -rf ./build\"", "print the verdict"),
		bullet("safety-net check --exit-code -- git push --force", "exit 2 when blocked"),
		bullet("safety-net explain \"cd /tmp && rm -rf *\"", "show every segment and verdict"),
	})

	hooks := renderSection(useUnicode, "🔧 HOOKS (stdin JSON, deny on stdout)", []string{
		bullet("safety-net hook claude-code", "Claude Code PreToolUse"),
		bullet("safety-net hook gemini-cli", "Gemini CLI BeforeTool"),
		bullet("safety-net hook copilot-cli", "Copilot CLI preToolUse"),
	})

	audit := renderSection(useUnicode, "🛡️ AUDIT & CONFIG", []string{
		bullet("safety-net history --limit 20", "recently blocked commands"),
		bullet("safety-net rules list", "merged custom rules"),
		bullet("safety-net config set general.strict true", "persist a setting"),
	})

	modes := modeLegend(useUnicode)
	flags := flagLegend(useUnicode)
	footer := footerLegend(useUnicode)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		setup,
		check,
		hooks,
		audit,
		modes,
		flags,
		footer,
	)

	fmt.Fprintln(w, container.Render(content))
}

func clampWidth(w int) int {
	if w < 72 {
		return 72
	}
	if w > 100 {
		return 100
	}
	return w
}

func detectWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	// fall back to environment or default
	if cols := os.Getenv("COLUMNS"); cols != "" {
		if v, err := strconv.Atoi(cols); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

func supportsUnicode() bool {
	termEnv := strings.ToLower(os.Getenv("TERM"))
	locale := strings.ToLower(strings.Join([]string{
		os.Getenv("LC_ALL"),
		os.Getenv("LC_CTYPE"),
		os.Getenv("LANG"),
	}, " "))
	if strings.Contains(termEnv, "dumb") {
		return false
	}
	return strings.Contains(locale, "utf-8") || strings.Contains(locale, "utf8")
}

func gradientText(text string, colors []lipgloss.Color) string {
	if len(colors) == 0 || !supportsUnicode() {
		return text
	}
	runes := []rune(text)
	if len(colors) == 1 || len(runes) <= 1 {
		return lipgloss.NewStyle().Foreground(colors[0]).Render(text)
	}

	var b strings.Builder
	for i, r := range runes {
		idx := i * (len(colors) - 1) / (len(runes) - 1)
		b.WriteString(lipgloss.NewStyle().Foreground(colors[idx]).Render(string(r)))
	}
	return b.String()
}

func bullet(command, desc string) string {
	return commandStyle.Render("  "+command) + mutedStyle.Render("  "+desc)
}

func renderSection(useUnicode bool, title string, lines []string) string {
	if !useUnicode {
		title = strings.TrimLeft(title, "🔷🔶🔧🛡️ ") // strip icons for ASCII fallback
	}
	header := sectionStyle.Render(title)
	body := strings.Join(lines, "\n")
	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

func modeLegend(useUnicode bool) string {
	header := "🎯 MODES"
	blocked := "BLOCKED = deny + reason"
	if !useUnicode {
		header = "MODES"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(header),
		fmt.Sprintf("  %s   %s   %s",
			blockedStyle.Render(blocked),
			flagStyle.Render("--strict"),
			paranoidStyle.Render("--paranoid-rm  --paranoid-interpreters")),
	)
}

func flagLegend(useUnicode bool) string {
	prefix := "🚩 GLOBAL FLAGS"
	if !useUnicode {
		prefix = "FLAGS"
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		sectionStyle.Render(prefix),
		flagStyle.Render("  -j, --json")+mutedStyle.Render("              structured output"),
		flagStyle.Render("  -C, --project <dir>")+mutedStyle.Render("   override project path"),
		flagStyle.Render("  -c, --config <file>")+mutedStyle.Render("   project config file"),
		flagStyle.Render("  --db <path>")+mutedStyle.Render("               audit database path"),
		flagStyle.Render("  -v, --verbose")+mutedStyle.Render("           debug logging on stderr"),
	)
}

func footerLegend(useUnicode bool) string {
	help := "safety-net <command> --help"
	if !useUnicode {
		return mutedStyle.Render("HELP: " + help)
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		mutedStyle.Render("HELP: "), commandStyle.Render(help),
	)
}
