package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dicklesworthstone/safetynet/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagRulesGlobal bool
	flagRulesForce  bool
)

func init() {
	rulesInitCmd.Flags().BoolVar(&flagRulesGlobal, "global", false, "write the user rule file (~/.safety-net/rules.json)")
	rulesInitCmd.Flags().BoolVarP(&flagRulesForce, "force", "f", false, "overwrite an existing rule file")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesInitCmd)

	rootCmd.AddCommand(rulesCmd)
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage custom block rules",
	Long: `Custom rules add blocks for commands the built-in rules allow.

Rule files are read from ~/.safety-net/rules.json (user) and
<project>/.safety-net.json (project); .yaml and .yml work too. Project
rules replace user rules with the same name.`,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the merged custom rules",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := loadState(cmd)
		if err != nil {
			return err
		}
		out := newWriter(cmd)
		if !out.IsText() {
			return out.Write(state.rules)
		}

		w := cmd.OutOrStdout()
		if len(state.rules.Rules.Rules) == 0 {
			fmt.Fprintln(w, "No custom rules.")
		} else {
			rows := make([][]string, 0, len(state.rules.Rules.Rules))
			for _, r := range state.rules.Rules.Rules {
				rows = append(rows, []string{
					r.Name,
					strings.TrimSpace(r.Command + " " + r.Subcommand),
					strings.Join(r.BlockArgs, " "),
					r.Reason,
				})
			}
			if err := out.Table([]string{"NAME", "COMMAND", "BLOCK ARGS", "REASON"}, rows); err != nil {
				return err
			}
		}
		for _, src := range state.rules.Sources {
			fmt.Fprintf(w, "source:  %s\n", src)
		}
		for _, skipped := range state.rules.Skipped {
			fmt.Fprintf(w, "skipped: %s (invalid)\n", skipped)
		}
		return nil
	},
}

// ruleFileReport is the validation result for one file.
type ruleFileReport struct {
	Path  string `json:"path"`
	Valid bool   `json:"valid"`
	Rules int    `json:"rules"`
	Error string `json:"error,omitempty"`
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a rule file, or the discovered user and project files",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var paths []string
		if len(args) == 1 {
			paths = []string{args[0]}
		} else {
			project, err := projectPath()
			if err != nil {
				return err
			}
			userPath, projectRules := config.RulePaths(project)
			for _, p := range []string{userPath, projectRules} {
				if p != "" {
					paths = append(paths, p)
				}
			}
		}

		reports := make([]ruleFileReport, 0, len(paths))
		invalid := 0
		for _, p := range paths {
			report := ruleFileReport{Path: p, Valid: true}
			rs, err := config.LoadRuleFile(p)
			if err != nil {
				report.Valid = false
				report.Error = err.Error()
				invalid++
			} else {
				report.Rules = len(rs.Rules)
			}
			reports = append(reports, report)
		}

		out := newWriter(cmd)
		if out.IsText() {
			w := cmd.OutOrStdout()
			if len(reports) == 0 {
				fmt.Fprintln(w, "No rule files found.")
			}
			for _, r := range reports {
				if r.Valid {
					fmt.Fprintf(w, "ok       %s (%d rules)\n", r.Path, r.Rules)
				} else {
					fmt.Fprintf(w, "invalid  %s\n  %s\n", r.Path, r.Error)
				}
			}
		} else if err := out.Write(reports); err != nil {
			return err
		}

		if invalid > 0 {
			return fmt.Errorf("%d rule file(s) invalid", invalid)
		}
		return nil
	},
}

var rulesInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter rule file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var target string
		if flagRulesGlobal {
			p, err := config.UserRulesPath()
			if err != nil {
				return err
			}
			target = p
		} else {
			project, err := projectPath()
			if err != nil {
				return err
			}
			target = config.ProjectRulesPath(project)
		}

		if _, err := os.Stat(target); err == nil && !flagRulesForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", target)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", target, err)
		}

		data, err := json.MarshalIndent(config.ExampleRuleSet(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding rules: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}

		return newWriter(cmd).Write(map[string]any{
			"status": "created",
			"path":   target,
			"rules":  len(config.ExampleRuleSet().Rules),
		})
	},
}
