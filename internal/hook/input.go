// Package hook adapts agent pre-execution hooks to the command analyzer.
//
// Each platform sends a JSON description of the pending tool call on stdin
// and expects a platform-specific JSON body on stdout when the call should
// be denied. Allowing is signalled by writing nothing.
package hook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedPlatform is returned for an unknown platform name.
	ErrUnsupportedPlatform = errors.New("unsupported hook platform")
	// ErrEmptyInput is returned when stdin carried no JSON at all.
	ErrEmptyInput = errors.New("empty hook input")
)

// Platform names a supported agent.
type Platform string

const (
	PlatformClaudeCode Platform = "claude-code"
	PlatformGeminiCLI  Platform = "gemini-cli"
	PlatformCopilotCLI Platform = "copilot-cli"
)

// Platforms lists every supported platform.
func Platforms() []Platform {
	return []Platform{PlatformClaudeCode, PlatformGeminiCLI, PlatformCopilotCLI}
}

// ParsePlatform validates a platform name.
func ParsePlatform(name string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Platforms() {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedPlatform, name)
}

// Request is the platform-neutral view of a hook invocation.
type Request struct {
	Platform  Platform `json:"platform"`
	ToolName  string   `json:"tool_name"`
	Command   string   `json:"command"`
	Cwd       string   `json:"cwd,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	// Shell is true when the tool runs a shell command.
	Shell bool `json:"shell"`
}

type commandInput struct {
	Command string `json:"command"`
}

type claudeInput struct {
	SessionID string       `json:"session_id"`
	Cwd       string       `json:"cwd"`
	ToolName  string       `json:"tool_name"`
	ToolInput commandInput `json:"tool_input"`
}

type geminiInput struct {
	SessionID string       `json:"session_id"`
	Cwd       string       `json:"cwd"`
	ToolName  string       `json:"tool_name"`
	ToolInput commandInput `json:"tool_input"`
}

type copilotInput struct {
	SessionID string          `json:"sessionId"`
	Cwd       string          `json:"cwd"`
	ToolName  string          `json:"toolName"`
	ToolArgs  json.RawMessage `json:"toolArgs"`
}

// ParseInput decodes the stdin payload of platform p.
func ParseInput(p Platform, data []byte) (Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Request{}, ErrEmptyInput
	}

	req := Request{Platform: p}
	switch p {
	case PlatformClaudeCode:
		var in claudeInput
		if err := json.Unmarshal(data, &in); err != nil {
			return Request{}, fmt.Errorf("decoding %s input: %w", p, err)
		}
		req.ToolName, req.Cwd, req.SessionID = in.ToolName, in.Cwd, in.SessionID
		req.Command = in.ToolInput.Command
		req.Shell = in.ToolName == "Bash"
	case PlatformGeminiCLI:
		var in geminiInput
		if err := json.Unmarshal(data, &in); err != nil {
			return Request{}, fmt.Errorf("decoding %s input: %w", p, err)
		}
		req.ToolName, req.Cwd, req.SessionID = in.ToolName, in.Cwd, in.SessionID
		req.Command = in.ToolInput.Command
		req.Shell = in.ToolName == "run_shell_command"
	case PlatformCopilotCLI:
		var in copilotInput
		if err := json.Unmarshal(data, &in); err != nil {
			return Request{}, fmt.Errorf("decoding %s input: %w", p, err)
		}
		req.ToolName, req.Cwd, req.SessionID = in.ToolName, in.Cwd, in.SessionID
		req.Shell = in.ToolName == "bash" || in.ToolName == "shell"
		if req.Shell {
			cmd, err := copilotCommand(in.ToolArgs)
			if err != nil {
				return Request{}, fmt.Errorf("decoding %s toolArgs: %w", p, err)
			}
			req.Command = cmd
		}
	default:
		return Request{}, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, p)
	}
	return req, nil
}

// copilotCommand accepts toolArgs either as a JSON-encoded string or as an
// object.
func copilotCommand(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		raw = []byte(s)
	}
	var args commandInput
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", err
	}
	return args.Command, nil
}
