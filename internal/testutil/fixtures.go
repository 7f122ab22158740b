package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/Dicklesworthstone/safetynet/internal/db"
)

// DecisionOption customizes a test decision.
type DecisionOption func(*db.Decision)

// MakeDecision creates and inserts a decision into the DB.
func MakeDecision(t *testing.T, database *db.DB, opts ...DecisionOption) *db.Decision {
	t.Helper()

	d := &db.Decision{
		SessionID: "sess-" + randHex(6),
		Platform:  "claude-code",
		Cwd:       "/home/user/project",
		Command:   "git reset --hard",
		Segment:   "git reset --hard",
		Reason:    "test block",
	}
	for _, opt := range opts {
		opt(d)
	}
	RequireNoError(t, database.RecordDecision(d), "record decision")
	return d
}

// WithSession sets the session ID.
func WithSession(id string) DecisionOption {
	return func(d *db.Decision) { d.SessionID = id }
}

// WithPlatform sets the hook platform.
func WithPlatform(p string) DecisionOption {
	return func(d *db.Decision) { d.Platform = p }
}

// WithCommand sets the command and segment text.
func WithCommand(command, segment string) DecisionOption {
	return func(d *db.Decision) {
		d.Command = command
		d.Segment = segment
	}
}

// WithReason sets the block reason.
func WithReason(reason string) DecisionOption {
	return func(d *db.Decision) { d.Reason = reason }
}

// WithCreatedAt overrides the timestamp.
func WithCreatedAt(ts time.Time) DecisionOption {
	return func(d *db.Decision) { d.CreatedAt = ts }
}

// RuleJSON renders a one-rule version 1 rule file.
func RuleJSON(name, command string, blockArgs ...string) string {
	args := ""
	for i, a := range blockArgs {
		if i > 0 {
			args += ", "
		}
		args += fmt.Sprintf("%q", a)
	}
	return fmt.Sprintf(`{"version": 1, "rules": [{"name": %q, "command": %q, "block_args": [%s], "reason": "blocked by %s"}]}`,
		name, command, args, name)
}

// randHex returns a random hex string for unique test IDs.
func randHex(n int) string {
	b := make([]byte, (n+1)/2)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return hex.EncodeToString(b)[:n]
}
