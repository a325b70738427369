package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/journal"
)

func newSimulateCmd(a *app) *cobra.Command {
	var (
		days, perDay int
		asJSON       bool
		asOrg        bool
		noSave       bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate the strategy over a number of days",
		Long: `Run the configured strategy for N days x M trades per day, starting from the
account's initial capital, and print the per-day and total results.

The run stops early if the weekly loss limit halts the bot. When a journal
database is configured the result is stored and can be viewed later with
'trader journal show'.

Examples:
  trader simulate --days 7
  trader simulate --days 30 --trades-per-day 50 --json
  TRADER_SOURCE=synthetic TRADER_SEED=42 trader simulate --org`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if days == 0 {
				days = a.cfg.Simulation.Days
			}
			p, err := a.cfg.Policy()
			if err != nil {
				return err
			}
			if perDay == 0 {
				perDay = a.cfg.TradesPerDay(p)
			}

			src, err := a.source()
			if err != nil {
				return err
			}
			e, err := a.engine(a.cfg.Account.Pair, src)
			if err != nil {
				return err
			}
			e.Start()

			r := &backtest.Runner{Engine: e, Log: a.log}
			rep, err := r.Run(cmd.Context(), days, perDay)
			if err != nil {
				return fmt.Errorf("simulate: %w", err)
			}

			if !noSave {
				if err := saveSimulation(cmd, a, rep); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rep)
			case asOrg:
				s, err := journal.FormatSimulationOrg(rep)
				if err != nil {
					return err
				}
				fmt.Fprint(out, s)
			default:
				backtest.PrintReport(out, rep)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVarP(&days, "days", "d", 0, "days to simulate (default from config)")
	f.IntVarP(&perDay, "trades-per-day", "t", 0, "trades per day (default from config or policy)")
	f.BoolVar(&asJSON, "json", false, "print the report as JSON")
	f.BoolVar(&asOrg, "org", false, "print the report as an Org-mode entry")
	f.BoolVar(&noSave, "no-save", false, "do not store the result in the journal")
	cmd.MarkFlagsMutuallyExclusive("json", "org")

	return cmd
}

func saveSimulation(cmd *cobra.Command, a *app, rep backtest.Report) error {
	db, err := a.openDB()
	if err != nil || db == nil {
		return err
	}
	defer db.Close()

	if err := db.RecordSimulation(cmd.Context(), rep); err != nil {
		return err
	}
	a.log.Info("simulation saved", zap.String("run_id", rep.RunID), zap.String("db", a.cfg.Journal.DBPath))
	return nil
}
