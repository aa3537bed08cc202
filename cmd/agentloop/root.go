package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/isaid22/agentloop/internal/config"
	"github.com/isaid22/agentloop/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentloop",
	Short: "agentloop runs reasoning/tool agent loops as graphs",
	Long: `agentloop executes an agent graph: a reasoning node proposes actions, a tool
node runs them and hands the results back until the reasoner answers.

The CLI replays a scripted reasoner from YAML and runs tools from an
allow-list of local processes.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultFile, "Path to the configuration file")
	rootCmd.PersistentFlags().String("script", "", "Scripted reasoner file (overrides config)")
	rootCmd.PersistentFlags().String("tools", "", "Tool allow-list file (overrides config)")
	rootCmd.PersistentFlags().String("cache", "", "Result cache: none, memory or redis (overrides config)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging to stderr")
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path, cmd.Flags().Changed("config"))
	if err != nil {
		return cfg, err
	}

	if cmd.Flags().Changed("script") {
		cfg.Script, _ = cmd.Flags().GetString("script")
	}
	if cmd.Flags().Changed("tools") {
		cfg.Tools, _ = cmd.Flags().GetString("tools")
	}
	if cmd.Flags().Changed("cache") {
		cfg.Cache, _ = cmd.Flags().GetString("cache")
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.LogLevel = "debug"
	}
	applyRunFlags(cmd, &cfg)
	return cfg, cfg.Validate()
}

// applyRunFlags copies the per-run flags, when a command defines them.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Lookup("step-limit") != nil && flags.Changed("step-limit") {
		cfg.StepLimit, _ = flags.GetInt("step-limit")
	}
	if flags.Lookup("max-concurrency") != nil && flags.Changed("max-concurrency") {
		cfg.MaxConcurrency, _ = flags.GetInt("max-concurrency")
	}
	if flags.Lookup("action-timeout") != nil && flags.Changed("action-timeout") {
		cfg.ActionTimeout, _ = flags.GetDuration("action-timeout")
	}
	if flags.Lookup("run-timeout") != nil && flags.Changed("run-timeout") {
		cfg.RunTimeout, _ = flags.GetDuration("run-timeout")
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().Int("step-limit", 0, "Maximum node executions per run")
	cmd.Flags().Int("max-concurrency", 0, "Maximum concurrent actions per tool turn")
	cmd.Flags().Duration("action-timeout", 0, "Timeout of a single action")
	cmd.Flags().Duration("run-timeout", 0, "Wall-clock budget of a run")
}

// createLogger configures the application logger on stderr.
func createLogger(cfg config.Config) *slog.Logger {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return logging.NewWithFormat(os.Stderr, level, cfg.LogFormat)
}
