package backtest

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// DayResult summarises one simulated day.
type DayResult struct {
	Day             int     `json:"day"`
	StartingCapital float64 `json:"starting_capital"`
	EndingCapital   float64 `json:"ending_capital"`
	ProfitLoss      float64 `json:"profit_loss"`
	ProfitLossPct   float64 `json:"profit_loss_percentage"`
	Trades          int     `json:"trades_count"`
	Profitable      int     `json:"profitable_trades"`
	Losing          int     `json:"losing_trades"`
}

// add counts a closed trade. Break-even trades count as losing.
func (d *DayResult) add(pl float64) {
	d.Trades++
	d.ProfitLoss += pl
	if pl > 0 {
		d.Profitable++
	} else {
		d.Losing++
	}
}

// Report is the aggregate result of a simulation run.
type Report struct {
	RunID       string    `json:"run_id"`
	Strategy    string    `json:"strategy"`
	AccountID   string    `json:"account_id"`
	TradingPair string    `json:"trading_pair"`
	Started     time.Time `json:"started"`
	Finished    time.Time `json:"finished"`

	Days         int `json:"days"`
	TradesPerDay int `json:"trades_per_day"`

	InitialCapital     float64 `json:"initial_capital"`
	FinalCapital       float64 `json:"final_capital"`
	TotalProfitLoss    float64 `json:"total_profit_loss"`
	TotalProfitLossPct float64 `json:"total_profit_loss_percentage"`

	TotalTrades int `json:"total_trades"`
	Profitable  int `json:"profitable_trades"`
	Losing      int `json:"losing_trades"`
	Errors      int `json:"errors"`

	Halted       bool   `json:"halted"`
	HaltedReason string `json:"halted_reason,omitempty"`

	Daily []DayResult `json:"daily_results"`
}

func (r *Report) addDay(d DayResult) {
	r.Daily = append(r.Daily, d)
	r.TotalTrades += d.Trades
	r.Profitable += d.Profitable
	r.Losing += d.Losing
}

// DaysSimulated is the number of days actually run, which is less than
// Days when the run halted early.
func (r Report) DaysSimulated() int { return len(r.Daily) }

// WinRate is the share of profitable trades as a percentage.
func (r Report) WinRate() float64 {
	if r.TotalTrades == 0 {
		return 0
	}
	return float64(r.Profitable) / float64(r.TotalTrades) * 100
}

func money(v float64) string { return decimal.NewFromFloat(v).StringFixed(2) }

// PrintReport writes a human readable summary of r.
func PrintReport(w io.Writer, r Report) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Simulation Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Started:       %s\n", r.Started.Format(time.RFC3339))
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Account:       %s\n", r.AccountID)
	fmt.Fprintf(w, "Pair:          %s\n", r.TradingPair)
	fmt.Fprintf(w, "Days:          %d of %d\n", r.DaysSimulated(), r.Days)
	fmt.Fprintf(w, "Trades/Day:    %d\n", r.TradesPerDay)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Profitable)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losing)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate())
	if r.Errors > 0 {
		fmt.Fprintf(w, "Skipped:       %d (no market data)\n", r.Errors)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %s\n", money(r.InitialCapital))
	fmt.Fprintf(w, "End Balance:   %s\n", money(r.FinalCapital))
	fmt.Fprintf(w, "Net P/L:       %s\n", money(r.TotalProfitLoss))
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.TotalProfitLossPct)

	if r.Halted {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "HALTED:        %s\n", r.HaltedReason)
	}

	if len(r.Daily) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Daily")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "%4s %12s %12s %10s %8s %6s %6s\n", "Day", "Start", "End", "P/L", "P/L %", "Wins", "Loss")
		for _, d := range r.Daily {
			fmt.Fprintf(w, "%4d %12s %12s %10s %7.2f%% %6d %6d\n",
				d.Day, money(d.StartingCapital), money(d.EndingCapital), money(d.ProfitLoss),
				d.ProfitLossPct, d.Profitable, d.Losing)
		}
	}

	fmt.Fprintln(w)
}
