// Package cli implements the fairalloc command line: it loads scenarios,
// drives the runner, and prints per-strategy tables and capacity charts.
package cli

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"fairalloc/pkg/chart"
	"fairalloc/pkg/config"
	"fairalloc/pkg/runner"
	"fairalloc/pkg/solve"
	"fairalloc/pkg/types"
)

var (
	flagNoChart  bool
	flagBarWidth int
)

// NewRootCommand builds the fairalloc command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "fairalloc",
		Short:        "Divide a scalar resource among capacity-bounded agents under competing fairness notions",
		SilenceUsage: true,
	}

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	root.PersistentFlags().AddGoFlagSet(klogFlags)
	root.PersistentFlags().BoolVar(&flagNoChart, "no-chart", false, "suppress capacity charts")
	root.PersistentFlags().IntVar(&flagBarWidth, "bar-width", chart.DefaultBarWidth, "chart bar width in characters")

	root.AddCommand(newRunCommand())
	root.AddCommand(newDemoCommand())
	return root
}

// Execute runs the CLI and returns a process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run every allocation strategy on a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, err := config.Load(args[0])
			if err != nil {
				return err
			}
			resource, err := scenario.ResourceValue()
			if err != nil {
				return err
			}
			capacity, err := scenario.Capacity()
			if err != nil {
				return err
			}
			timeout, err := scenario.Timeout()
			if err != nil {
				return err
			}
			fmt.Printf("scenario %s: resource=%.1f over %d agents (capacity %.1f)\n\n",
				scenario.Name, resource, len(capacity), capacity.Total())
			return runScenario(cmd.Context(), resource, capacity, timeout)
		},
	}
}

func newDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the built-in three-agent demo scenario",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			capacity := types.Capacity{"A": 250, "B": 450, "C": 450}
			return runScenario(cmd.Context(), 1000, capacity, config.DefaultSolverTimeout)
		},
	}
}

func runScenario(ctx context.Context, resource float64, capacity types.Capacity, timeout time.Duration) error {
	var sink chart.Sink = chart.Discard{}
	if !flagNoChart {
		termSink := chart.NewTermSink(os.Stdout)
		termSink.Width = flagBarWidth
		sink = termSink
	}

	r := runner.New(solve.NewProjectedGradient(), sink, timeout)
	results, err := r.Run(ctx, resource, capacity)
	if err != nil {
		return err
	}
	printTable(results)
	return nil
}

func printTable(results []runner.Result) {
	fmt.Printf("%-14s %10s %8s %8s %10s %10s\n", "STRATEGY", "TOTAL", "JAIN", "GINI", "WASTE", "STDDEV")
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("%-14s failed: %v\n", res.Strategy, res.Err)
			continue
		}
		fmt.Printf("%-14s %10.1f %8s %8s %10.1f %10.2f\n",
			res.Strategy,
			res.Allocation.Total(),
			formatIndex(res.Jain),
			formatIndex(res.Gini),
			res.Waste,
			res.Summary.StdDev,
		)
	}
}

func formatIndex(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}
