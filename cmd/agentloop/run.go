package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/isaid22/agentloop"
	"github.com/isaid22/agentloop/internal/cli"
	"github.com/isaid22/agentloop/internal/presentation/tui"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/isaid22/agentloop/pkg/observability"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [prompt]",
	Short: "Run the agent loop for a prompt",
	Long:  `Runs one invocation of the agent graph and prints the transcript as each node completes.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := createLogger(cfg)
		jsonMode, _ := cmd.Flags().GetBool("json")
		quiet, _ := cmd.Flags().GetBool("quiet")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var hooks []domain.LifecycleHooks
		if cfg.LogLevel == "debug" {
			hooks = append(hooks, observability.LogHooks(logger))
		}
		eng, err := cli.NewEngine(ctx, cfg, logger, hooks...)
		if err != nil {
			return err
		}
		defer eng.Close()

		out := cmd.OutOrStdout()
		if !jsonMode && !quiet && tui.IsTerminal(out) {
			tui.PrintBanner(out, tui.NewRenderer(out).Profile(), agentloop.Version)
		}

		return cli.Run(ctx, eng, cli.RunOptions{
			Prompt: strings.Join(args, " "),
			JSON:   jsonMode,
			Quiet:  quiet,
			Out:    out,
			Logger: logger,
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	addRunFlags(runCmd)
	runCmd.Flags().Bool("json", false, "Write one JSON step event per line")
	runCmd.Flags().BoolP("quiet", "q", false, "Print only the final answer")
}
