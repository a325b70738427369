package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file

Examples:
  trader config init -o trader.yaml
  trader config validate -f trader.yaml`,
		Annotations: skipSetup,
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigValidateCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Generate a default configuration file",
		Args:        cobra.NoArgs,
		Annotations: skipSetup,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created default configuration: %s\n", output)
			fmt.Fprintln(out, "\nEdit the file and run with:")
			fmt.Fprintf(out, "  trader simulate --config %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "trader.yaml", "output config file path")
	return cmd
}

func newConfigValidateCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:         "validate",
		Short:       "Validate a configuration file",
		Args:        cobra.NoArgs,
		Annotations: skipSetup,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(path)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			p, err := cfg.Policy()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", path)
			fmt.Fprintf(out, "  Account: %s %s ($%.2f)\n", cfg.Account.ID, cfg.Account.Pair, cfg.Account.Capital)
			fmt.Fprintf(out, "  Strategy: %s (entry %.2f%%, TP %.2f%%, SL %.2f%%, weekly limit %.2f%%)\n",
				p.Name, p.EntryPct, p.TakeProfitPct, p.StopLossPct, p.MaxWeeklyLossPct)
			fmt.Fprintf(out, "  Source: %s\n", cfg.Source.Type)
			if cfg.Journal.DBPath != "" {
				fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.DBPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
