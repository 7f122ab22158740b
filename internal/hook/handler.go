package hook

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/Dicklesworthstone/safetynet/internal/core"
	"github.com/Dicklesworthstone/safetynet/internal/db"
	"github.com/charmbracelet/log"
)

const reasonMalformedInput = "Strict mode: the hook input could not be parsed, so the command cannot be verified."

// Recorder stores block decisions. *db.DB satisfies it.
type Recorder interface {
	RecordDecision(d *db.Decision) error
}

// Options configures a Handler.
type Options struct {
	// Context is the analysis context; the hook's cwd replaces Cwd and
	// OriginalCwd when present.
	Context  core.Context
	Logger   *log.Logger
	Recorder Recorder
}

// Handler evaluates one hook invocation.
type Handler struct {
	platform Platform
	opts     Options
	logger   *log.Logger
}

// NewHandler returns a handler for platform p.
func NewHandler(p Platform, opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Handler{platform: p, opts: opts, logger: logger}
}

// Outcome describes what the handler decided.
type Outcome struct {
	Request Request
	Result  *core.Result
	// Message is the redacted deny message, empty when allowed.
	Message string
}

// Blocked reports whether the command was denied.
func (o Outcome) Blocked() bool {
	return o.Message != ""
}

// Run reads the hook payload from in and writes a deny body to out when
// the command must not run. Malformed input is allowed unless strict mode
// is on. The returned error only reports failures writing the response.
func (h *Handler) Run(in io.Reader, out io.Writer) (Outcome, error) {
	data, err := io.ReadAll(in)
	if err == nil {
		var req Request
		req, err = ParseInput(h.platform, data)
		if err == nil {
			return h.evaluate(req, out)
		}
	}

	if !h.opts.Context.Strict {
		h.logger.Warn("allowing unparseable hook input", "platform", h.platform, "error", err)
		return Outcome{Request: Request{Platform: h.platform}}, nil
	}
	h.logger.Warn("denying unparseable hook input in strict mode", "platform", h.platform, "error", err)
	outcome := Outcome{
		Request: Request{Platform: h.platform},
		Result:  &core.Result{Reason: reasonMalformedInput, Kind: core.ResultUnparseable},
		Message: FormatReason(reasonMalformedInput, ""),
	}
	return outcome, h.write(out, outcome.Message)
}

func (h *Handler) evaluate(req Request, out io.Writer) (Outcome, error) {
	outcome := Outcome{Request: req}
	if !req.Shell || req.Command == "" {
		h.logger.Debug("skipping non-shell tool", "tool", req.ToolName)
		return outcome, nil
	}

	ctx := h.opts.Context
	if req.Cwd != "" {
		cwd := req.Cwd
		if abs, err := filepath.Abs(cwd); err == nil {
			cwd = abs
		}
		ctx.Cwd = cwd
		ctx.OriginalCwd = cwd
	}

	res := core.Analyze(req.Command, ctx)
	if res == nil {
		h.logger.Debug("allowed", "command", Clean(req.Command))
		return outcome, nil
	}

	segment := Clean(res.Segment)
	outcome.Result = res
	outcome.Message = FormatReason(res.Reason, segment)
	h.logger.Info("blocked", "platform", req.Platform, "kind", res.Kind, "reason", res.Reason)

	if h.opts.Recorder != nil {
		err := h.opts.Recorder.RecordDecision(&db.Decision{
			SessionID: req.SessionID,
			Platform:  string(req.Platform),
			Cwd:       ctx.Cwd,
			Command:   Clean(req.Command),
			Segment:   segment,
			Reason:    res.Reason,
		})
		if err != nil {
			h.logger.Warn("audit write failed", "error", err)
		}
	}
	return outcome, h.write(out, outcome.Message)
}

func (h *Handler) write(out io.Writer, message string) error {
	body, err := DenyResponse(h.platform, message)
	if err != nil {
		return err
	}
	body = append(body, '\n')
	if _, err := out.Write(body); err != nil {
		return fmt.Errorf("writing hook response: %w", err)
	}
	return nil
}
