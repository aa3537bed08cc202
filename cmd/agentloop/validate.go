package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/isaid22/agentloop/internal/cli"
	"github.com/isaid22/agentloop/internal/logging"
	"github.com/isaid22/agentloop/pkg/domain"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration, script and tools",
	Long:  `Loads the configuration, the scripted reasoner and the tool allow-list, compiles the agent graph and prints its topology.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}

		eng, err := cli.NewEngine(cmd.Context(), cfg, logging.NewNop())
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		defer eng.Close()

		out := cmd.OutOrStdout()
		printTopology(out, eng.Describe())
		fmt.Fprintln(out, "Configuration is valid! ✅")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func printTopology(w io.Writer, info domain.GraphInfo) {
	fmt.Fprintf(w, "entry: %s\n", info.Entry)
	for _, n := range info.Nodes {
		fmt.Fprintf(w, "node:  %s (%s)\n", n.Name, n.Kind)
	}
	for _, e := range info.Edges {
		fmt.Fprintf(w, "edge:  %s -> %s\n", e.From, e.To)
	}
	for _, r := range info.Routes {
		labels := make([]string, 0, len(r.Table))
		for label := range r.Table {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(w, "route: %s -[%s]-> %s\n", r.From, label, r.Table[label])
		}
	}
}
