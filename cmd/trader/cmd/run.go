package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/scheduler"
	"github.com/rustyeddy/papertrader/sim"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		pairs  []string
		once   bool
		trades string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run bots on a schedule until interrupted",
		Long: `Start one bot per trading pair and execute trades at the policy's cadence
(24h / trades_per_day) until interrupted, then print the status of every bot.

Closed trades are streamed to stdout as text, CSV or Org-mode entries. Trade
history lives only as long as the process: a restarted bot starts with empty
weekly and daily windows.

Examples:
  trader run
  trader run --pairs BTC-USD,ETH-USD --trades csv > trades.csv
  trader run --once --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if len(pairs) == 0 {
				pairs = []string{a.cfg.Account.Pair}
			}

			j, err := tradeStream(trades, out)
			if err != nil {
				return err
			}
			if j != nil {
				defer j.Close()
			}

			src, err := a.source()
			if err != nil {
				return err
			}

			reg := sim.NewRegistry()
			sched := scheduler.New(ctx, a.log, j)
			for _, pair := range pairs {
				e, err := a.engine(pair, src)
				if err != nil {
					return err
				}
				if err := reg.Add(e); err != nil {
					return err
				}
				e.Start()
				if err := sched.Add(e); err != nil {
					return err
				}
			}

			if once {
				for _, e := range reg.List() {
					res, err := sched.Tick(e)
					switch {
					case err != nil:
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", e.Key(), err)
					case res.Halted():
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: HALTED %s\n", e.Key(), res.Message)
					}
				}
			} else {
				sched.Start()
				for _, e := range reg.List() {
					if next, ok := sched.Next(e.Key()); ok {
						fmt.Fprintf(cmd.ErrOrStderr(), "%s: every %s, next trade at %s\n",
							e.Key(), scheduler.Interval(e.Policy()), next.Format(time.RFC3339))
					}
				}
				<-ctx.Done()
				<-sched.Stop().Done()
			}

			return printStatuses(out, reg.Statuses(), asJSON)
		},
	}

	f := cmd.Flags()
	f.StringSliceVar(&pairs, "pairs", nil, "trading pairs to run (default: account.pair)")
	f.BoolVar(&once, "once", false, "execute one trade per bot and exit")
	f.StringVar(&trades, "trades", "text", "stream closed trades as text, csv, org or none")
	f.BoolVar(&asJSON, "json", false, "print the final bot statuses as JSON")

	return cmd
}

// tradeStream picks the journal that writes closed trades to w.
func tradeStream(format string, w io.Writer) (journal.Journal, error) {
	switch format {
	case "text":
		return journal.NewText(w), nil
	case "csv":
		c, err := journal.NewCSV(w)
		if err != nil {
			return nil, err
		}
		return c, nil
	case "org":
		return journal.NewOrg(w), nil
	case "none", "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown trade format %q (want text, csv, org or none)", format)
}

func printStatuses(w io.Writer, sts []sim.Status, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sts)
	}
	for _, st := range sts {
		fmt.Fprintf(w, "%s/%s: %s capital=%.2f weekly_pl=%.2f (%.2f%%) multiplier=%g trades_today=%d trades_week=%d\n",
			st.AccountID, st.TradingPair, st.State, st.CurrentCapital, st.WeeklyProfitLoss,
			st.WeeklyProfitLossPct, st.LossMultiplier, st.DailyTrades, st.WeeklyTrades)
	}
	return nil
}
