package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aatumaykin/repeatq/internal/config"
	"github.com/aatumaykin/repeatq/internal/constants"
)

func newConfigCmd(opts *globalOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Validate and inspect repeatq configuration.`,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate configuration file",
		Long:  `Validate the configuration file and check for errors.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			configPath := constants.DefaultConfigPath
			if opts.configPath != "" {
				configPath = opts.configPath
			}
			if len(args) > 0 {
				configPath = args[0]
			}

			if err := config.LoadEnvOptional(opts.envPath); err != nil {
				return fmt.Errorf("failed to load env file: %w", err)
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				fmt.Fprintf(out, constants.MsgConfigLoadError, err)
				return err
			}

			if errs := cfg.Validate(); len(errs) > 0 {
				fmt.Fprint(out, constants.MsgConfigValidationError)
				for _, e := range errs {
					fmt.Fprintf(out, constants.MsgConfigValidatePrefix, e)
				}
				return errors.New("configuration is invalid")
			}

			fmt.Fprint(out, constants.MsgConfigValid)
			fmt.Fprintf(out, "   Redis:  %s\n", config.MaskURL(cfg.Redis.URL))
			fmt.Fprintf(out, "   Queue:  %s:%s\n", cfg.Queue.Prefix, cfg.Queue.Name)
			return nil
		},
	})

	return configCmd
}
