package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/scheduler"
	"github.com/rustyeddy/papertrader/strategy"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "presets",
		Short:       "List the built-in strategy presets",
		Args:        cobra.NoArgs,
		Annotations: skipSetup,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tENTRY\tTP\tSL\tLADDER\tWEEKLY LIMIT\tTRADES/DAY\tEVERY\tCANDLES")
			for _, name := range strategy.PresetNames() {
				p, err := strategy.Preset(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%g%%\t%g%%\t%g%%\tx%g cap %d\t%g%%\t%d\t%s\t%s/%s\n",
					p.Name, p.EntryPct, p.TakeProfitPct, p.StopLossPct,
					p.LossMultiplierBase, p.LossMultiplierCap, p.MaxWeeklyLossPct,
					p.TradesPerDay, scheduler.Interval(p), p.CandleInterval, p.CandleRange)
			}
			return w.Flush()
		},
	}
}
