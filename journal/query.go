package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rustyeddy/papertrader/backtest"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("journal: not found")

type scanner interface {
	Scan(dest ...any) error
}

const simulationColumns = `run_id, strategy, account_id, trading_pair, started, finished, days,
	trades_per_day, initial_capital, final_capital, total_profit_loss, total_profit_loss_pct,
	total_trades, profitable_trades, losing_trades, errors, halted, halted_reason`

func scanSimulation(s scanner) (backtest.Report, error) {
	var r backtest.Report
	err := s.Scan(
		&r.RunID, &r.Strategy, &r.AccountID, &r.TradingPair, &r.Started, &r.Finished, &r.Days,
		&r.TradesPerDay, &r.InitialCapital, &r.FinalCapital, &r.TotalProfitLoss, &r.TotalProfitLossPct,
		&r.TotalTrades, &r.Profitable, &r.Losing, &r.Errors, &r.Halted, &r.HaltedReason,
	)
	return r, err
}

// GetSimulation loads a simulation report together with its daily rows.
func (j *SQLite) GetSimulation(ctx context.Context, runID string) (backtest.Report, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+simulationColumns+` FROM simulations WHERE run_id = ?`, runID)
	r, err := scanSimulation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return backtest.Report{}, fmt.Errorf("simulation %q: %w", runID, ErrNotFound)
	}
	if err != nil {
		return backtest.Report{}, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT day, starting_capital, ending_capital, profit_loss, profit_loss_pct,
		       trades, profitable_trades, losing_trades
		FROM simulation_days
		WHERE run_id = ?
		ORDER BY day ASC`, runID)
	if err != nil {
		return backtest.Report{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var d backtest.DayResult
		if err := rows.Scan(&d.Day, &d.StartingCapital, &d.EndingCapital, &d.ProfitLoss,
			&d.ProfitLossPct, &d.Trades, &d.Profitable, &d.Losing); err != nil {
			return backtest.Report{}, err
		}
		r.Daily = append(r.Daily, d)
	}
	if err := rows.Err(); err != nil {
		return backtest.Report{}, err
	}
	return r, nil
}

// ListSimulations returns the most recent simulations first, without their
// daily rows. A limit of zero or less returns all of them.
func (j *SQLite) ListSimulations(ctx context.Context, limit int) ([]backtest.Report, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+simulationColumns+`
		FROM simulations
		ORDER BY started DESC, run_id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.Report
	for rows.Next() {
		r, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
