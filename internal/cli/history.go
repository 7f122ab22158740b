package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dicklesworthstone/safetynet/internal/config"
	"github.com/Dicklesworthstone/safetynet/internal/db"
	"github.com/spf13/cobra"
)

var (
	flagHistorySession   string
	flagHistoryLimit     int
	flagHistoryOlderThan string
)

func init() {
	historyCmd.Flags().StringVar(&flagHistorySession, "session", "", "only show decisions from this agent session")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 50, "max results to return")

	historyPruneCmd.Flags().StringVar(&flagHistoryOlderThan, "older-than", "30d", "delete decisions older than this (e.g. 72h, 30d)")

	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently blocked commands",
	Long: `Show commands blocked by the hook, newest first.

Examples:
  safety-net history                    # Last 50 blocks
  safety-net history --limit 10 -j      # JSON output
  safety-net history --session abc123   # One agent session
  safety-net history prune --older-than 7d`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState(cmd)
		if err != nil {
			return err
		}
		decisions, err := listDecisions(config.AuditDBPath(state.cfg))
		if err != nil {
			return err
		}

		out := newWriter(cmd)
		if !out.IsText() {
			return out.Write(decisions)
		}
		if len(decisions) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "No blocked commands recorded.")
			return err
		}

		rows := make([][]string, 0, len(decisions))
		for _, d := range decisions {
			rows = append(rows, []string{
				d.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				d.Platform,
				truncate(d.Command, 60),
				truncate(firstReasonLine(d.Reason), 60),
			})
		}
		return out.Table([]string{"TIME", "PLATFORM", "COMMAND", "REASON"}, rows)
	},
}

func listDecisions(path string) ([]*db.Decision, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return []*db.Decision{}, nil
	}
	dbConn, err := db.OpenWithOptions(path, db.OpenOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer dbConn.Close()

	decisions, err := dbConn.ListDecisions(db.ListOptions{
		SessionID: flagHistorySession,
		Limit:     flagHistoryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing decisions: %w", err)
	}
	return decisions, nil
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old decisions from the audit store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		age, err := parseAge(flagHistoryOlderThan)
		if err != nil {
			return err
		}
		state, err := loadState(cmd)
		if err != nil {
			return err
		}

		path := config.AuditDBPath(state.cfg)
		var removed int64
		if _, statErr := os.Stat(path); statErr == nil {
			dbConn, err := db.Open(path)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer dbConn.Close()
			removed, err = dbConn.PruneDecisions(time.Now().Add(-age))
			if err != nil {
				return fmt.Errorf("pruning decisions: %w", err)
			}
		}

		out := newWriter(cmd)
		if out.IsText() {
			out.Success(fmt.Sprintf("removed %d decision(s) older than %s", removed, flagHistoryOlderThan))
			return nil
		}
		return out.Write(map[string]any{
			"removed":    removed,
			"older_than": flagHistoryOlderThan,
		})
	},
}

// parseAge accepts Go durations plus a whole-day suffix ("30d").
func parseAge(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid age %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid age %q", s)
	}
	return d, nil
}

func firstReasonLine(reason string) string {
	line, _, _ := strings.Cut(reason, "\n")
	return line
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
