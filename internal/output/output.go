// Package output renders CLI results as text, JSON or YAML.
// Structured output uses snake_case keys taken from json tags.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.yaml.in/yaml/v3"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported format: %s", s)
}

// Texter is implemented by values with a human-readable rendering.
type Texter interface {
	Text() string
}

// Writer handles formatted output.
type Writer struct {
	format Format
	out    io.Writer
	errOut io.Writer
}

// Option configures the Writer.
type Option func(*Writer)

// WithOutput sets the standard output writer.
func WithOutput(w io.Writer) Option {
	return func(wr *Writer) {
		wr.out = w
	}
}

// WithErrorOutput sets the error output writer.
func WithErrorOutput(w io.Writer) Option {
	return func(wr *Writer) {
		wr.errOut = w
	}
}

// New creates a new output writer.
func New(format Format, opts ...Option) *Writer {
	w := &Writer{
		format: format,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Format returns the configured format.
func (w *Writer) Format() Format {
	return w.format
}

// IsText reports whether output is meant for humans.
func (w *Writer) IsText() bool {
	return w.format == FormatText
}

// Write outputs data in the configured format. In text mode values
// implementing Texter render through Text.
func (w *Writer) Write(data any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.out)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		b, err := marshalYAML(data)
		if err != nil {
			return err
		}
		_, err = w.out.Write(b)
		return err
	case FormatText:
		text := fmt.Sprintf("%v", data)
		if t, ok := data.(Texter); ok {
			text = t.Text()
		}
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		_, err := io.WriteString(w.out, text)
		return err
	default:
		return fmt.Errorf("unsupported format: %s", w.format)
	}
}

// Table renders rows under headers. Structured formats emit a list of
// objects keyed by header.
func (w *Writer) Table(headers []string, rows [][]string) error {
	if w.format != FormatText {
		items := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			item := make(map[string]string, len(headers))
			for i, h := range headers {
				if i < len(row) {
					item[h] = row[i]
				}
			}
			items = append(items, item)
		}
		return w.Write(items)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w.out, t.String())
	return err
}

// Success outputs a success message.
func (w *Writer) Success(msg string) {
	if w.format != FormatText {
		_ = w.Write(map[string]any{"status": "success", "message": msg})
		return
	}
	fmt.Fprintf(w.errOut, "✓ %s\n", msg)
}

// ErrorPayload is the structured error body.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error outputs an error message.
func (w *Writer) Error(err error) {
	if w.format == FormatText {
		fmt.Fprintf(w.errOut, "✗ %s\n", err.Error())
		return
	}
	_ = w.Write(ErrorPayload{
		Error:   "error",
		Message: err.Error(),
		Details: map[string]any{"code": 1},
	})
}

func normalizeForYAML(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var normalized any
	if err := dec.Decode(&normalized); err != nil {
		return nil, err
	}
	return normalized, nil
}

// marshalYAML goes through JSON first so json tags name the fields.
func marshalYAML(v any) ([]byte, error) {
	normalized, err := normalizeForYAML(v)
	if err != nil {
		return nil, err
	}
	b, err := yaml.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 || b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}
	return b, nil
}
