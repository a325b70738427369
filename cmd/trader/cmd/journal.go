package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/journal"
)

func newJournalCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query stored simulation results",
		Long: `Query simulation results stored in the SQLite journal.

Subcommands:
  list    - List recent simulations
  show    - Show one simulation with its daily results

Examples:
  trader journal list --limit 5
  trader journal show 01HV3K... --org`,
	}
	cmd.AddCommand(newJournalListCmd(a), newJournalShowCmd(a))
	return cmd
}

func (a *app) requireDB() (*journal.SQLite, error) {
	db, err := a.openDB()
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, errors.New("no journal configured (set journal.db_path or TRADER_JOURNAL_DB)")
	}
	return db, nil
}

func newJournalListCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent simulations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.requireDB()
			if err != nil {
				return err
			}
			defer db.Close()

			reps, err := db.ListSimulations(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(reps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No simulations recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tSTARTED\tSTRATEGY\tPAIR\tDAYS\tTRADES\tRETURN\tHALTED")
			for _, r := range reps {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%.2f%%\t%v\n",
					r.RunID, r.Started.Local().Format("2006-01-02 15:04"), r.Strategy, r.TradingPair,
					r.Days, r.TotalTrades, r.TotalProfitLossPct, r.Halted)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of simulations (0 for all)")
	return cmd
}

func newJournalShowCmd(a *app) *cobra.Command {
	var asOrg bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one simulation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.requireDB()
			if err != nil {
				return err
			}
			defer db.Close()

			rep, err := db.GetSimulation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asOrg {
				s, err := journal.FormatSimulationOrg(rep)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), s)
				return nil
			}
			backtest.PrintReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asOrg, "org", false, "print as an Org-mode entry")
	return cmd
}
