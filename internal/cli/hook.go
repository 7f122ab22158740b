package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dicklesworthstone/safetynet/internal/config"
	"github.com/Dicklesworthstone/safetynet/internal/db"
	"github.com/Dicklesworthstone/safetynet/internal/hook"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// hookCommand is the command written into Claude Code settings.
const hookCommand = "safety-net hook claude-code"

var flagHookForce bool

func init() {
	hookInstallCmd.Flags().BoolVarP(&flagHookForce, "force", "f", false, "replace an existing safety-net hook entry")

	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookCmd.AddCommand(hookStatusCmd)

	rootCmd.AddCommand(hookCmd)
}

var hookCmd = &cobra.Command{
	Use:   "hook <platform>",
	Short: "Run as a pre-execution hook, or manage the Claude Code hook",
	Long: `Read one hook payload from stdin and deny the tool call when the shell
command is destructive. Allowed commands produce no output.

Platforms: claude-code, gemini-cli, copilot-cli

Quick start:
  safety-net hook install    # Register with Claude Code
  safety-net hook status     # Check installation status
  safety-net hook uninstall  # Remove the hook`,
	Args: cobra.ExactArgs(1),
	RunE: runHook,
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the hook into Claude Code settings",
	Long: `Add a PreToolUse hook for the Bash tool to ~/.claude/settings.json.

Existing hooks are preserved. An existing safety-net entry is kept as is
unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runHookInstall,
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove the hook from Claude Code settings",
	Args:  cobra.NoArgs,
	RunE:  runHookUninstall,
}

var hookStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show hook installation status",
	Args:  cobra.NoArgs,
	RunE:  runHookStatus,
}

func runHook(cmd *cobra.Command, args []string) error {
	platform, err := hook.ParsePlatform(args[0])
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("hook %s reads a JSON payload from stdin; it is meant to be run by the agent", platform)
	}

	data, readErr := io.ReadAll(in)
	project, err := hookProject(platform, data)
	if err != nil {
		return err
	}

	state, err := loadStateAt(cmd, project)
	if err != nil {
		// A broken config must not stop the agent; run with defaults.
		state = defaultState(cmd, project, err)
	}
	if readErr != nil {
		state.logger.Warn("reading hook input failed", "error", readErr)
	}

	opts := hook.Options{
		Context: state.analysisContext(state.project),
		Logger:  state.logger,
	}
	if state.cfg.Audit.Enabled {
		dbConn, err := db.OpenAndMigrate(config.AuditDBPath(state.cfg))
		if err != nil {
			state.logger.Warn("audit store unavailable", "error", err)
		} else {
			defer dbConn.Close()
			opts.Recorder = dbConn
		}
	}

	_, err = hook.NewHandler(platform, opts).Run(bytes.NewReader(data), cmd.OutOrStdout())
	return err
}

// hookProject picks the directory whose config and rules apply: --project
// when given, else the payload's cwd when it is a directory, else the
// process cwd.
func hookProject(platform hook.Platform, data []byte) (string, error) {
	if flagProject != "" {
		return flagProject, nil
	}
	if req, err := hook.ParseInput(platform, data); err == nil && req.Cwd != "" {
		if info, err := os.Stat(req.Cwd); err == nil && info.IsDir() {
			return req.Cwd, nil
		}
	}
	return projectPath()
}

func defaultState(cmd *cobra.Command, project string, cause error) *appState {
	cfg := config.DefaultConfig()
	cfg.General.Strict = flagStrict
	cfg.General.ParanoidRm = flagParanoid || flagParanoidRm
	cfg.General.ParanoidInterpreters = flagParanoid || flagParanoidInterpreters
	cfg.Audit.DBPath = flagDB
	logger := newLogger(cmd, cfg)
	logger.Warn("ignoring invalid config", "error", cause)
	return &appState{
		project: project,
		cfg:     cfg,
		rules:   config.LoadRules(project, logger),
		logger:  logger,
	}
}

func claudeSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

// readSettings returns the parsed settings, or an empty map when the file
// does not exist.
func readSettings(path string) (map[string]any, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read settings: %w", err)
	}
	settings := map[string]any{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return settings, true, nil
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, true, fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings, true, nil
}

func writeSettings(path string, settings map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create .claude directory: %w", err)
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

func preToolUseEntries(settings map[string]any) []any {
	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		return nil
	}
	entries, _ := hooks["PreToolUse"].([]any)
	return entries
}

func setPreToolUseEntries(settings map[string]any, entries []any) {
	hooks, ok := settings["hooks"].(map[string]any)
	if !ok {
		hooks = map[string]any{}
	}
	hooks["PreToolUse"] = entries
	settings["hooks"] = hooks
}

// safetyNetCommand returns the configured command when entry is a Bash
// matcher running safety-net.
func safetyNetCommand(entry any) (string, bool) {
	h, ok := entry.(map[string]any)
	if !ok {
		return "", false
	}
	if matcher, _ := h["matcher"].(string); matcher != "Bash" {
		return "", false
	}
	hookList, _ := h["hooks"].([]any)
	for _, hk := range hookList {
		hkMap, ok := hk.(map[string]any)
		if !ok {
			continue
		}
		if command, ok := hkMap["command"].(string); ok && isSafetyNetCommand(command) {
			return command, true
		}
	}
	return "", false
}

func isSafetyNetCommand(command string) bool {
	fields := strings.Fields(command)
	if len(fields) < 2 {
		return false
	}
	base := strings.TrimSuffix(filepath.Base(fields[0]), ".exe")
	return base == "safety-net" && fields[1] == "hook"
}

func safetyNetEntry() map[string]any {
	return map[string]any{
		"matcher": "Bash",
		"hooks": []any{
			map[string]any{
				"type":    "command",
				"command": hookCommand,
			},
		},
	}
}

func runHookInstall(cmd *cobra.Command, args []string) error {
	settingsPath, err := claudeSettingsPath()
	if err != nil {
		return err
	}
	settings, _, err := readSettings(settingsPath)
	if err != nil {
		return err
	}

	entries := preToolUseEntries(settings)
	found := false
	for i, entry := range entries {
		if _, ok := safetyNetCommand(entry); ok {
			found = true
			if flagHookForce {
				entries[i] = safetyNetEntry()
			}
			break
		}
	}
	if !found {
		entries = append(entries, safetyNetEntry())
	}
	setPreToolUseEntries(settings, entries)

	if err := writeSettings(settingsPath, settings); err != nil {
		return err
	}

	return newWriter(cmd).Write(map[string]any{
		"status":          "installed",
		"settings_path":   settingsPath,
		"command":         hookCommand,
		"already_existed": found && !flagHookForce,
	})
}

func runHookUninstall(cmd *cobra.Command, args []string) error {
	settingsPath, err := claudeSettingsPath()
	if err != nil {
		return err
	}
	out := newWriter(cmd)

	settings, exists, err := readSettings(settingsPath)
	if err != nil {
		return err
	}
	if !exists {
		return out.Write(map[string]any{
			"status":  "not_installed",
			"message": "Claude Code settings.json not found",
		})
	}

	entries := preToolUseEntries(settings)
	filtered := make([]any, 0, len(entries))
	removed := false
	for _, entry := range entries {
		if _, ok := safetyNetCommand(entry); ok {
			removed = true
			continue
		}
		filtered = append(filtered, entry)
	}
	if !removed {
		return out.Write(map[string]any{
			"status":  "not_installed",
			"message": "No safety-net PreToolUse hook configured",
		})
	}

	setPreToolUseEntries(settings, filtered)
	if err := writeSettings(settingsPath, settings); err != nil {
		return err
	}
	return out.Write(map[string]any{
		"status":  "uninstalled",
		"removed": removed,
	})
}

func runHookStatus(cmd *cobra.Command, args []string) error {
	settingsPath, err := claudeSettingsPath()
	if err != nil {
		return err
	}

	status := map[string]any{
		"status":        "not_installed",
		"settings_path": settingsPath,
		"platforms":     hook.Platforms(),
	}
	settings, exists, err := readSettings(settingsPath)
	if err != nil {
		status["error"] = err.Error()
	} else {
		status["settings_exists"] = exists
		for _, entry := range preToolUseEntries(settings) {
			if command, ok := safetyNetCommand(entry); ok {
				status["status"] = "installed"
				status["configured_command"] = command
				break
			}
		}
	}

	return newWriter(cmd).Write(status)
}
