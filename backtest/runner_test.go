package backtest

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/sim"
	"github.com/rustyeddy/papertrader/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, src market.Source, reasons ...strategy.ExitReason) *sim.Engine {
	t.Helper()

	p, err := strategy.Preset(strategy.TenTrades)
	require.NoError(t, err)

	e, err := sim.NewEngine(sim.Account{ID: "acct", Pair: "BTC-USD", Capital: 10_000}, p, src,
		sim.WithDirectionModel(strategy.Fixed(strategy.Long)),
		sim.WithOutcomeModel(strategy.NewScripted(reasons...)),
	)
	require.NoError(t, err)
	return e
}

func static(price float64) *market.Static {
	return &market.Static{Series: market.CandleSeries{CurrentPrice: price}}
}

func TestRunner_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := (&Runner{}).Run(ctx, 1, 1)
	assert.Error(t, err)

	e := newEngine(t, static(100), strategy.TakeProfit)
	e.Start()
	_, err = (&Runner{Engine: e}).Run(ctx, 0, 1)
	assert.Error(t, err)
	_, err = (&Runner{Engine: e}).Run(ctx, 1, 0)
	assert.Error(t, err)
}

func TestRunner_RequiresActiveEngine(t *testing.T) {
	t.Parallel()

	src := static(100)
	e := newEngine(t, src, strategy.TakeProfit)

	_, err := (&Runner{Engine: e}).Run(context.Background(), 3, 3)
	require.ErrorIs(t, err, sim.ErrInactiveBot)
	assert.Equal(t, 10_000.0, e.Capital())
	assert.Zero(t, src.Calls())
}

func TestRunner_AggregatesDays(t *testing.T) {
	t.Parallel()

	e := newEngine(t, static(100), strategy.TakeProfit)
	e.Start()

	fixed := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	r := &Runner{Engine: e, Now: func() time.Time { return fixed }}

	rep, err := r.Run(context.Background(), 2, 3)
	require.NoError(t, err)

	// every trade risks 5% and wins 9% of it
	growth := 1 + 0.05*0.09
	day1 := 10_000 * math.Pow(growth, 3)
	day2 := 10_000 * math.Pow(growth, 6)

	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, strategy.TenTrades, rep.Strategy)
	assert.Equal(t, "BTC-USD", rep.TradingPair)
	assert.Equal(t, fixed, rep.Started)
	assert.False(t, rep.Halted)
	assert.Equal(t, 2, rep.DaysSimulated())
	assert.Equal(t, 6, rep.TotalTrades)
	assert.Equal(t, 6, rep.Profitable)
	assert.Zero(t, rep.Losing)
	assert.Equal(t, 100.0, rep.WinRate())
	assert.Equal(t, 10_000.0, rep.InitialCapital)
	assert.InDelta(t, day2, rep.FinalCapital, 1e-6)
	assert.InDelta(t, day2-10_000, rep.TotalProfitLoss, 1e-6)
	assert.InDelta(t, (day2-10_000)/100, rep.TotalProfitLossPct, 1e-6)

	require.Len(t, rep.Daily, 2)
	d1, d2 := rep.Daily[0], rep.Daily[1]
	assert.Equal(t, 1, d1.Day)
	assert.InDelta(t, 10_000, d1.StartingCapital, 1e-6)
	assert.InDelta(t, day1, d1.EndingCapital, 1e-6)
	assert.InDelta(t, (day1-10_000)/100, d1.ProfitLossPct, 1e-6)
	assert.Equal(t, 3, d1.Trades)
	assert.InDelta(t, day1, d2.StartingCapital, 1e-6)
	assert.InDelta(t, day2, d2.EndingCapital, 1e-6)

	assert.Equal(t, 10_000.0, e.Capital(), "capital restored")
}

func TestRunner_RestoresLiveCapitalAndKeepsLadder(t *testing.T) {
	t.Parallel()

	e := newEngine(t, static(100), strategy.StopLoss)
	e.Start()

	// a live trade before the run
	_, err := e.ExecuteTrade(context.Background())
	require.NoError(t, err)
	live := e.Capital()
	require.InDelta(t, 9977.5, live, 1e-9)

	rep, err := (&Runner{Engine: e}).Run(context.Background(), 1, 3)
	require.NoError(t, err)

	// the run starts from the initial capital, not the live one
	assert.InDelta(t, 10_000, rep.Daily[0].StartingCapital, 1e-6)
	assert.Equal(t, 3, rep.Losing)

	assert.Equal(t, live, e.Capital())
	s := e.Session()
	assert.Equal(t, 3, s.Ladder.Streak, "ladder keeps the simulated state")
	assert.Equal(t, 8.0, s.Ladder.Multiplier)
}

func TestRunner_StopsOnHalt(t *testing.T) {
	t.Parallel()

	e := newEngine(t, static(100), strategy.StopLoss)
	e.Start()

	rep, err := (&Runner{Engine: e}).Run(context.Background(), 5, 10)
	require.NoError(t, err)

	assert.True(t, rep.Halted)
	assert.NotEmpty(t, rep.HaltedReason)
	assert.Less(t, rep.DaysSimulated(), 5)
	assert.Less(t, rep.TotalTrades, 50)
	assert.Equal(t, rep.TotalTrades, rep.Losing)
	assert.LessOrEqual(t, rep.TotalProfitLossPct, -20.0)

	assert.Equal(t, sim.Halted, e.State())
	assert.Equal(t, 10_000.0, e.Capital(), "capital restored after halt")
}

func TestRunner_SkipsMissingMarketData(t *testing.T) {
	t.Parallel()

	src := &market.Static{Err: market.NoData("BTC-USD", "offline")}
	e := newEngine(t, src, strategy.TakeProfit)
	e.Start()

	rep, err := (&Runner{Engine: e}).Run(context.Background(), 2, 4)
	require.NoError(t, err)
	assert.Equal(t, 8, rep.Errors)
	assert.Zero(t, rep.TotalTrades)
	assert.Len(t, rep.Daily, 2)
	assert.Zero(t, rep.TotalProfitLoss)
}

func TestRunner_Cancelled(t *testing.T) {
	t.Parallel()

	e := newEngine(t, static(100), strategy.TakeProfit)
	e.Start()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := (&Runner{Engine: e}).Run(ctx, 3, 3)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, rep.TotalTrades)
	assert.Equal(t, 10_000.0, e.Capital())
}

func TestRunner_AbortsOnEngineError(t *testing.T) {
	t.Parallel()

	e := newEngine(t, static(100)) // empty script
	e.Start()
	e.RestoreCapital(12_345)

	_, err := (&Runner{Engine: e}).Run(context.Background(), 1, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "day 1 trade 1")
	assert.Equal(t, 12_345.0, e.Capital())
}

func TestPrintReport(t *testing.T) {
	t.Parallel()

	rep := Report{
		RunID:          "01HXYZ",
		Strategy:       strategy.TenTrades,
		TradingPair:    "BTC-USD",
		Days:           2,
		TradesPerDay:   1,
		InitialCapital: 10_000,
		FinalCapital:   9_977.5,
		Halted:         true,
		HaltedReason:   "weekly loss",
	}
	rep.TotalProfitLoss = rep.FinalCapital - rep.InitialCapital
	rep.addDay(DayResult{Day: 1, StartingCapital: 10_000, EndingCapital: 9_977.5, ProfitLoss: -22.5, ProfitLossPct: -0.225, Trades: 1, Losing: 1})

	var buf bytes.Buffer
	PrintReport(&buf, rep)
	out := buf.String()

	assert.Contains(t, out, "Run ID:        01HXYZ")
	assert.Contains(t, out, "Days:          1 of 2")
	assert.Contains(t, out, "End Balance:   9977.50")
	assert.Contains(t, out, "Net P/L:       -22.50")
	assert.Contains(t, out, "HALTED:        weekly loss")
	assert.Contains(t, out, "10000.00")
}
