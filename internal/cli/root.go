// Package cli implements the Cobra command-line interface for safety-net.
package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/Dicklesworthstone/safetynet/internal/config"
	"github.com/Dicklesworthstone/safetynet/internal/core"
	"github.com/Dicklesworthstone/safetynet/internal/output"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version information set by goreleaser
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flag values
var (
	flagConfig               string
	flagOutput               string
	flagJSON                 bool
	flagVerbose              bool
	flagDB                   string
	flagProject              string
	flagStrict               bool
	flagParanoid             bool
	flagParanoidRm           bool
	flagParanoidInterpreters bool
)

var rootCmd = &cobra.Command{
	Use:   "safety-net",
	Short: "Safety Net - block destructive shell commands before an agent runs them",
	Long: `Safety Net inspects shell commands proposed by coding agents and blocks
the ones that destroy work: rm -rf outside the project, git reset --hard,
force pushes, find -delete and friends.

It runs as a pre-execution hook (Claude Code, Gemini CLI, Copilot CLI) and
can be queried directly:

  safety-net check "git reset --hard"
  safety-net explain "cd /tmp && rm -rf ./build"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		// When no subcommand given, show quick reference card
		showQuickReference(cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := projectPath()
		userPath, projectCfg := config.ConfigPaths(project, flagConfig)

		payload := map[string]any{
			"version":        version,
			"commit":         commit,
			"build_date":     date,
			"go_version":     runtime.Version(),
			"user_config":    userPath,
			"project_config": projectCfg,
			"project_path":   project,
		}

		out := newWriter(cmd)
		if !out.IsText() {
			return out.Write(payload)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "safety-net %s\n", version)
		fmt.Fprintf(w, "  commit:  %s\n", commit)
		fmt.Fprintf(w, "  built:   %s\n", date)
		fmt.Fprintf(w, "  go:      %s\n", runtime.Version())
		fmt.Fprintf(w, "  config:  %s\n", userPath)
		fmt.Fprintf(w, "  project: %s\n", projectCfg)
		return nil
	},
}

// ExitError asks main to exit with Code without printing anything.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetOutput returns the configured output format.
// Precedence: CLI flags > SAFETY_NET_OUTPUT_FORMAT env > default
func GetOutput() string {
	if flagJSON {
		return "json"
	}
	if flagOutput != "" && flagOutput != "text" {
		return flagOutput
	}
	if envFormat := os.Getenv("SAFETY_NET_OUTPUT_FORMAT"); envFormat != "" {
		if f, err := output.ParseFormat(envFormat); err == nil {
			return string(f)
		}
	}
	return "text"
}

func newWriter(cmd *cobra.Command) *output.Writer {
	return output.New(output.Format(GetOutput()),
		output.WithOutput(cmd.OutOrStdout()),
		output.WithErrorOutput(cmd.ErrOrStderr()),
	)
}

func projectPath() (string, error) {
	if flagProject != "" {
		return flagProject, nil
	}
	pwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return pwd, nil
}

// flagOverrides turns mode flags into config keys. Flags only switch
// toggles on.
func flagOverrides() map[string]any {
	overrides := map[string]any{}
	if flagStrict {
		overrides["general.strict"] = true
	}
	if flagParanoid {
		overrides["general.paranoid"] = true
	}
	if flagParanoidRm {
		overrides["general.paranoid_rm"] = true
	}
	if flagParanoidInterpreters {
		overrides["general.paranoid_interpreters"] = true
	}
	if flagDB != "" {
		overrides["audit.db_path"] = flagDB
	}
	return overrides
}

// appState is what every analyzing command needs: effective settings,
// merged custom rules and a logger.
type appState struct {
	project string
	cfg     config.Config
	rules   config.LoadedRules
	logger  *log.Logger
}

func loadState(cmd *cobra.Command) (*appState, error) {
	project, err := projectPath()
	if err != nil {
		return nil, err
	}
	return loadStateAt(cmd, project)
}

func loadStateAt(cmd *cobra.Command, project string) (*appState, error) {
	cfg, err := config.Load(config.LoadOptions{
		ProjectDir:    project,
		ConfigPath:    flagConfig,
		FlagOverrides: flagOverrides(),
	})
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd, cfg)
	return &appState{
		project: project,
		cfg:     cfg,
		rules:   config.LoadRules(project, logger),
		logger:  logger,
	}, nil
}

func newLogger(cmd *cobra.Command, cfg config.Config) *log.Logger {
	level, err := log.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = log.InfoLevel
	}
	if flagVerbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		Prefix: "safety-net",
		Level:  level,
	})
}

// analysisContext builds the analyzer context for cwd. An empty cwd
// leaves the directory unknown.
func (s *appState) analysisContext(cwd string) core.Context {
	ctx := core.NewContext(cwd)
	ctx.Strict = s.cfg.General.Strict
	ctx.ParanoidRm = s.cfg.General.ParanoidRm
	ctx.ParanoidInterpreters = s.cfg.General.ParanoidInterpreters
	ctx.Rules = s.rules.Rules
	return ctx
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "project config file path")
	cmd.PersistentFlags().StringVarP(&flagOutput, "output", "o", "text", "output format: text, json, yaml (env: SAFETY_NET_OUTPUT_FORMAT)")
	cmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "shorthand for --output=json")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging on stderr")
	cmd.PersistentFlags().StringVar(&flagDB, "db", "", "audit database path")
	cmd.PersistentFlags().StringVarP(&flagProject, "project", "C", "", "project directory")
	cmd.PersistentFlags().BoolVar(&flagStrict, "strict", false, "block commands that cannot be parsed (env: SAFETY_NET_STRICT)")
	cmd.PersistentFlags().BoolVar(&flagParanoid, "paranoid", false, "enable every paranoid check (env: SAFETY_NET_PARANOID)")
	cmd.PersistentFlags().BoolVar(&flagParanoidRm, "paranoid-rm", false, "block rm -rf even inside the working directory")
	cmd.PersistentFlags().BoolVar(&flagParanoidInterpreters, "paranoid-interpreters", false, "block every interpreter one-liner")
}

func init() {
	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(versionCmd)
}
