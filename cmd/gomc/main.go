package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/rmera/gomc/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	configPath  string
	moves       uint64
	metricsAddr string
	outDir      string
	verbose     bool

	rootCmd = &cobra.Command{
		Use:   "gomc",
		Short: "Monte Carlo simulation of phase equilibria with fractional-molecule transfers",
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Build the system described by a configuration file and run transfer moves",
		RunE:  runSimulation,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the default configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := yaml.Marshal(config.Default())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
)

func init() {
	runCmd.Flags().StringVarP(&configPath, "config", "c", "gomc.yaml", "YAML configuration file")
	runCmd.Flags().Uint64Var(&moves, "moves", 0, "number of transfer attempts, overrides the configuration if not zero")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	runCmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory for the report, the bias snapshot and the plots")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.AddCommand(runCmd, configCmd)
	rootCmd.SilenceUsage = true
}

func runSimulation(cmd *cobra.Command, args []string) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if moves > 0 {
		cfg.Run.Moves = moves
	}
	return simulate(cmd.Context(), cfg, runOptions{out: outDir, metricsAddr: metricsAddr}, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "gomc:", err)
		os.Exit(1)
	}
}
