package cli

import (
	"fmt"

	"github.com/Dicklesworthstone/safetynet/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagConfigGlobal bool
)

func init() {
	configCmd.PersistentFlags().BoolVar(&flagConfigGlobal, "global", false, "operate on user config (~/.safety-net/config.toml)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)

	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or modify safety-net configuration",
	Long: `Show or modify safety-net configuration.

Settings are read from ~/.safety-net/config.toml, then
<project>/.safety-net/config.toml, then SAFETY_NET_* environment
variables, then command-line flags.

Keys:
  general.strict, general.paranoid, general.paranoid_rm,
  general.paranoid_interpreters, audit.enabled, audit.db_path,
  logging.level`,
	RunE: showConfig,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  showConfig,
}

func showConfig(cmd *cobra.Command, args []string) error {
	project, err := projectPath()
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.LoadOptions{
		ProjectDir:    project,
		ConfigPath:    flagConfig,
		FlagOverrides: flagOverrides(),
	})
	if err != nil {
		return err
	}

	out := newWriter(cmd)
	if !out.IsText() {
		return out.Write(cfg)
	}
	w := cmd.OutOrStdout()
	for _, key := range config.Keys() {
		val, _ := config.GetValue(cfg, key)
		fmt.Fprintf(w, "%-30s %v\n", key, val)
	}
	return nil
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectPath()
		if err != nil {
			return err
		}
		cfg, err := config.Load(config.LoadOptions{
			ProjectDir:    project,
			ConfigPath:    flagConfig,
			FlagOverrides: flagOverrides(),
		})
		if err != nil {
			return err
		}

		val, ok := config.GetValue(cfg, args[0])
		if !ok {
			return fmt.Errorf("unknown key %q", args[0])
		}
		out := newWriter(cmd)
		if out.IsText() {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), val)
			return err
		}
		return out.Write(map[string]any{
			"key":   args[0],
			"value": val,
		})
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in the project (or --global) config file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		project, err := projectPath()
		if err != nil {
			return err
		}
		userPath, projectPath := config.ConfigPaths(project, flagConfig)
		target := projectPath
		if flagConfigGlobal {
			target = userPath
		}

		value, err := config.ParseValue(args[0], args[1])
		if err != nil {
			return err
		}
		if args[0] == "logging.level" {
			probe := config.DefaultConfig()
			probe.Logging.Level = fmt.Sprint(value)
			if err := config.Validate(probe); err != nil {
				return err
			}
		}
		if err := config.WriteValue(target, args[0], value); err != nil {
			return err
		}

		return newWriter(cmd).Write(map[string]any{
			"path":  target,
			"key":   args[0],
			"value": value,
		})
	},
}
