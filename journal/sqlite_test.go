package journal

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/strategy"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func sampleTrade(id string, exit time.Time, pl float64) ledger.Trade {
	return ledger.Trade{
		ID:             id,
		AccountID:      "acct",
		TradingPair:    "BTC-USD",
		Direction:      strategy.Short,
		EntryPrice:     100,
		ExitPrice:      104.5,
		Quantity:       5,
		Amount:         500,
		EntryTime:      exit.Add(-time.Minute),
		ExitTime:       exit,
		ExitReason:     strategy.StopLoss,
		ProfitLoss:     pl,
		ProfitLossPct:  pl / 5,
		LossMultiplier: 2,
	}
}

func sampleReport() backtest.Report {
	return backtest.Report{
		RunID:              "01HRUN",
		Strategy:           strategy.TenTrades,
		AccountID:          "acct",
		TradingPair:        "BTC-USD",
		Started:            time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC),
		Finished:           time.Date(2024, 5, 6, 9, 0, 1, 0, time.UTC),
		Days:               3,
		TradesPerDay:       2,
		InitialCapital:     10_000,
		FinalCapital:       10_090,
		TotalProfitLoss:    90,
		TotalProfitLossPct: 0.9,
		TotalTrades:        4,
		Profitable:         3,
		Losing:             1,
		Errors:             1,
		Halted:             true,
		HaltedReason:       "weekly loss",
		Daily: []backtest.DayResult{
			{Day: 1, StartingCapital: 10_000, EndingCapital: 10_045, ProfitLoss: 45, ProfitLossPct: 0.45, Trades: 2, Profitable: 2},
			{Day: 2, StartingCapital: 10_045, EndingCapital: 10_090, ProfitLoss: 45, ProfitLossPct: 0.448, Trades: 2, Profitable: 1, Losing: 1},
		},
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	assert.False(t, found["trades"])
	assert.True(t, found["simulations"])
	assert.True(t, found["simulation_days"])
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	j, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, j.RecordSimulation(ctx, sampleReport()))
	require.NoError(t, j.Close())

	j, err = NewSQLite(path)
	require.NoError(t, err)
	defer j.Close()

	_, err = j.GetSimulation(ctx, sampleReport().RunID)
	assert.NoError(t, err)
}

func TestSQLiteSimulations(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	rep := sampleReport()
	require.NoError(t, j.RecordSimulation(ctx, rep))
	assert.Error(t, j.RecordSimulation(ctx, rep), "duplicate run id")

	got, err := j.GetSimulation(ctx, rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, got.RunID)
	assert.Equal(t, rep.Strategy, got.Strategy)
	assert.True(t, rep.Started.Equal(got.Started))
	assert.Equal(t, rep.Days, got.Days)
	assert.Equal(t, rep.FinalCapital, got.FinalCapital)
	assert.Equal(t, rep.TotalProfitLossPct, got.TotalProfitLossPct)
	assert.Equal(t, rep.Errors, got.Errors)
	assert.True(t, got.Halted)
	assert.Equal(t, "weekly loss", got.HaltedReason)
	assert.Equal(t, rep.Daily, got.Daily)

	_, err = j.GetSimulation(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	second := sampleReport()
	second.RunID = "01HRUN2"
	second.Started = rep.Started.Add(time.Hour)
	second.Halted = false
	second.HaltedReason = ""
	second.Daily = nil
	require.NoError(t, j.RecordSimulation(ctx, second))

	list, err := j.ListSimulations(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "01HRUN2", list[0].RunID, "newest first")
	assert.False(t, list[0].Halted)
	assert.Empty(t, list[1].Daily, "list does not load daily rows")

	list, err = j.ListSimulations(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
