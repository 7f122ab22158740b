package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrDecisionNotFound is returned when a decision ID is unknown.
var ErrDecisionNotFound = errors.New("decision not found")

// timeFormat has a fixed width so created_at sorts lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Decision is one recorded block.
type Decision struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id,omitempty"`
	Platform  string    `json:"platform"`
	Cwd       string    `json:"cwd,omitempty"`
	Command   string    `json:"command"`
	Segment   string    `json:"segment,omitempty"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// ListOptions filters ListDecisions.
type ListOptions struct {
	SessionID string
	// Limit defaults to 50.
	Limit int
}

// RecordDecision inserts d, filling ID and CreatedAt when unset. Command
// and Segment should already be redacted.
func (db *DB) RecordDecision(d *Decision) error {
	if d.Command == "" {
		return fmt.Errorf("command is required")
	}
	if d.Reason == "" {
		return fmt.Errorf("reason is required")
	}
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(`
		INSERT INTO decisions (id, session_id, platform, cwd, command, segment, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.SessionID, d.Platform, d.Cwd, d.Command, d.Segment, d.Reason, d.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("recording decision: %w", err)
	}
	return nil
}

// GetDecision retrieves a decision by ID.
func (db *DB) GetDecision(id string) (*Decision, error) {
	row := db.QueryRow(`
		SELECT id, session_id, platform, cwd, command, segment, reason, created_at
		FROM decisions WHERE id = ?
	`, id)

	d := &Decision{}
	var createdAt string
	err := row.Scan(&d.ID, &d.SessionID, &d.Platform, &d.Cwd, &d.Command, &d.Segment, &d.Reason, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDecisionNotFound
		}
		return nil, fmt.Errorf("scanning decision: %w", err)
	}
	if d.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return d, nil
}

// ListDecisions returns the most recent decisions first.
func (db *DB) ListDecisions(opts ListOptions) ([]*Decision, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session_id, platform, cwd, command, segment, reason, created_at
		FROM decisions`
	args := []any{}
	if opts.SessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, opts.SessionID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying decisions: %w", err)
	}
	defer rows.Close()

	var out []*Decision
	for rows.Next() {
		d := &Decision{}
		var createdAt string
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Platform, &d.Cwd, &d.Command, &d.Segment, &d.Reason, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning decision row: %w", err)
		}
		if d.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decisions: %w", err)
	}
	return out, nil
}

// PruneDecisions deletes decisions older than the cutoff and returns how
// many rows were removed.
func (db *DB) PruneDecisions(before time.Time) (int64, error) {
	result, err := db.Exec(`DELETE FROM decisions WHERE created_at < ?`, before.UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("pruning decisions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return n, nil
}
