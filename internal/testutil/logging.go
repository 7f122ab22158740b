package testutil

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/charmbracelet/log"
)

// TestLogger returns a structured logger for tests. Output is discarded
// unless `go test -v` is used.
func TestLogger(t *testing.T) *log.Logger {
	t.Helper()

	var out io.Writer = io.Discard
	if testing.Verbose() {
		out = os.Stderr
	}
	return log.NewWithOptions(out, log.Options{
		Level:  log.DebugLevel,
		Prefix: t.Name(),
	})
}

// CaptureLogger returns a logger writing plain logfmt lines into the
// returned buffer, for asserting on warnings.
func CaptureLogger(t *testing.T) (*log.Logger, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	return log.NewWithOptions(&buf, log.Options{
		Level:     log.DebugLevel,
		Formatter: log.LogfmtFormatter,
	}), &buf
}
