package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestClampWidth(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{50, 72},   // Below minimum, clamp to 72
		{72, 72},   // At minimum
		{80, 80},   // Normal width
		{100, 100}, // At maximum
		{120, 100}, // Above maximum, clamp to 100
	}

	for _, tt := range tests {
		result := clampWidth(tt.input)
		if result != tt.expected {
			t.Errorf("clampWidth(%d) = %d, want %d", tt.input, result, tt.expected)
		}
	}
}

func TestDetectWidth(t *testing.T) {
	t.Setenv("COLUMNS", "invalid")
	if width := detectWidth(); width <= 0 {
		t.Errorf("detectWidth() returned %d, expected positive value", width)
	}
}

func TestSupportsUnicode(t *testing.T) {
	t.Setenv("TERM", "dumb")
	t.Setenv("LC_ALL", "en_US.UTF-8")
	if supportsUnicode() {
		t.Error("expected supportsUnicode() = false for dumb terminal")
	}

	t.Setenv("TERM", "xterm")
	if !supportsUnicode() {
		t.Error("expected supportsUnicode() = true for UTF-8 locale")
	}

	t.Setenv("LC_ALL", "")
	t.Setenv("LC_CTYPE", "")
	t.Setenv("LANG", "C")
	if supportsUnicode() {
		t.Error("expected supportsUnicode() = false for C locale")
	}
}

func TestGradientText(t *testing.T) {
	t.Setenv("LANG", "en_US.UTF-8")
	t.Setenv("TERM", "xterm")

	if result := gradientText("hello", nil); result != "hello" {
		t.Errorf("expected 'hello' with no colors, got %q", result)
	}
	if result := gradientText("hello", []lipgloss.Color{colorMauve, colorBlue}); result == "" {
		t.Error("expected non-empty result")
	}
	if result := gradientText("x", []lipgloss.Color{colorMauve, colorBlue}); result == "" {
		t.Error("expected non-empty result for single rune")
	}
}

func TestShowQuickReference(t *testing.T) {
	for _, lang := range []string{"en_US.UTF-8", "C"} {
		t.Run(lang, func(t *testing.T) {
			t.Setenv("LANG", lang)
			t.Setenv("LC_ALL", "")
			t.Setenv("LC_CTYPE", "")
			t.Setenv("TERM", "xterm")

			var buf bytes.Buffer
			showQuickReference(&buf)
			out := buf.String()
			for _, want := range []string{"QUICK REFERENCE", "hook install", "check", "history", "--json"} {
				if !strings.Contains(out, want) {
					t.Errorf("expected %q in quick reference:\n%s", want, out)
				}
			}
		})
	}
}
