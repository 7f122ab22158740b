package hook

import (
	"encoding/json"
	"fmt"
	"strings"
)

const blockFooter = "If this operation is really needed, ask the user for explicit permission and have them run it manually."

// FormatReason builds the message shown to the agent for a block.
// segment must already be redacted.
func FormatReason(reason, segment string) string {
	var b strings.Builder
	b.WriteString("BLOCKED by Safety Net\n\nReason: ")
	b.WriteString(reason)
	if segment != "" {
		b.WriteString("\n\nCommand: ")
		b.WriteString(segment)
	}
	b.WriteString("\n\n")
	b.WriteString(blockFooter)
	return b.String()
}

type claudeSpecificOutput struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason"`
}

type claudeOutput struct {
	HookSpecificOutput claudeSpecificOutput `json:"hookSpecificOutput"`
}

type geminiOutput struct {
	Decision      string `json:"decision"`
	Reason        string `json:"reason"`
	SystemMessage string `json:"systemMessage"`
}

type copilotOutput struct {
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason"`
}

// DenyResponse renders the deny body expected by platform p.
func DenyResponse(p Platform, message string) ([]byte, error) {
	var body any
	switch p {
	case PlatformClaudeCode:
		body = claudeOutput{HookSpecificOutput: claudeSpecificOutput{
			HookEventName:            "PreToolUse",
			PermissionDecision:       "deny",
			PermissionDecisionReason: message,
		}}
	case PlatformGeminiCLI:
		body = geminiOutput{
			Decision:      "deny",
			Reason:        message,
			SystemMessage: firstLine(message),
		}
	case PlatformCopilotCLI:
		body = copilotOutput{
			PermissionDecision:       "deny",
			PermissionDecisionReason: message,
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPlatform, p)
	}
	return json.Marshal(body)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
