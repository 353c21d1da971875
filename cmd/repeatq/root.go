package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aatumaykin/repeatq/internal/config"
	"github.com/aatumaykin/repeatq/internal/constants"
)

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath      string
	envPath         string
	metricsTextfile string
}

// newRootCmd builds the command tree. Every call returns fresh flag state.
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "repeatq",
		Short: "repeatq - repeatable jobs for Redis delayed queues",
		Long: `repeatq schedules cron-driven repeatable jobs on a Redis delayed queue.
Each call schedules exactly one upcoming occurrence with a deterministic id,
so concurrent producers converge on a single job per fire time.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.toml (default ./config.toml if present)")
	rootCmd.PersistentFlags().StringVar(&opts.envPath, "env", constants.DefaultEnvPath, "path to an optional .env file")
	rootCmd.PersistentFlags().StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file after the command")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(opts))
	rootCmd.AddCommand(newNextCmd(opts))
	rootCmd.AddCommand(newAddCmd(opts))
	rootCmd.AddCommand(newListCmd(opts))
	rootCmd.AddCommand(newCountCmd(opts))
	rootCmd.AddCommand(newRemoveCmd(opts))
	rootCmd.AddCommand(newAdvanceCmd(opts))
	rootCmd.AddCommand(newPendingCmd(opts))
	rootCmd.AddCommand(newApplyCmd(opts))

	return rootCmd
}

// loadConfig reads the .env file and the configuration. Without an explicit
// --config the default path is used when it exists, built-in defaults otherwise.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	if err := config.LoadEnvOptional(o.envPath); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	path := o.configPath
	if path == "" {
		if _, err := os.Stat(constants.DefaultConfigPath); err != nil {
			return config.Default(), nil
		}
		path = constants.DefaultConfigPath
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

func (o *globalOptions) writeMetrics(reg *prometheus.Registry) error {
	if o.metricsTextfile == "" || reg == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(o.metricsTextfile, reg); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
