package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/papertrader/backtest"
)

// SQLite stores simulation reports.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// RecordSimulation stores a simulation report and its daily rows in one
// transaction.
func (j *SQLite) RecordSimulation(ctx context.Context, r backtest.Report) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO simulations
		(run_id, strategy, account_id, trading_pair, started, finished, days, trades_per_day,
		 initial_capital, final_capital, total_profit_loss, total_profit_loss_pct,
		 total_trades, profitable_trades, losing_trades, errors, halted, halted_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Strategy, r.AccountID, r.TradingPair, r.Started.UTC(), r.Finished.UTC(),
		r.Days, r.TradesPerDay, r.InitialCapital, r.FinalCapital, r.TotalProfitLoss,
		r.TotalProfitLossPct, r.TotalTrades, r.Profitable, r.Losing, r.Errors,
		r.Halted, r.HaltedReason,
	)
	if err != nil {
		return fmt.Errorf("journal: insert simulation %s: %w", r.RunID, err)
	}

	for _, d := range r.Daily {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO simulation_days
			(run_id, day, starting_capital, ending_capital, profit_loss, profit_loss_pct,
			 trades, profitable_trades, losing_trades)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, d.Day, d.StartingCapital, d.EndingCapital, d.ProfitLoss, d.ProfitLossPct,
			d.Trades, d.Profitable, d.Losing,
		)
		if err != nil {
			return fmt.Errorf("journal: insert day %d of %s: %w", d.Day, r.RunID, err)
		}
	}

	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
