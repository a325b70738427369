package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/sim"
	"github.com/rustyeddy/papertrader/strategy"
)

type memJournal struct {
	mu     sync.Mutex
	trades []ledger.Trade
	err    error
}

func (m *memJournal) RecordTrade(_ context.Context, t ledger.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.trades = append(m.trades, t)
	return nil
}

func (m *memJournal) Close() error { return nil }

func newEngine(t *testing.T, pair string, src market.Source) *sim.Engine {
	t.Helper()
	p, err := strategy.Preset(strategy.TenTrades)
	require.NoError(t, err)
	e, err := sim.NewEngine(sim.Account{ID: "acct", Pair: pair, Capital: 10_000}, p, src,
		sim.WithDirectionModel(strategy.Fixed(strategy.Long)),
		sim.WithOutcomeModel(strategy.NewScripted(strategy.TakeProfit)))
	require.NoError(t, err)
	return e
}

func priced(p float64) *market.Static {
	return &market.Static{Series: market.CandleSeries{CurrentPrice: p}}
}

func TestInterval(t *testing.T) {
	t.Parallel()

	ten, err := strategy.Preset(strategy.TenTrades)
	require.NoError(t, err)
	thousand, err := strategy.Preset(strategy.ThousandTrades)
	require.NoError(t, err)

	assert.Equal(t, 144*time.Minute, Interval(ten))
	assert.Equal(t, 86400*time.Millisecond, Interval(thousand))
	assert.Equal(t, 24*time.Hour, Interval(strategy.Policy{}))
}

func TestScheduleKeepsSubSecondPeriod(t *testing.T) {
	t.Parallel()

	thousand, err := strategy.Preset(strategy.ThousandTrades)
	require.NoError(t, err)

	sched := every(Interval(thousand))
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	next := t0
	for i := 0; i < 1000; i++ {
		next = sched.Next(next)
	}
	assert.Equal(t, 86400*time.Millisecond, sched.Next(t0).Sub(t0))
	assert.Equal(t, t0.Add(24*time.Hour), next, "1000 ticks span exactly one day")
}

func TestTickJournalsTrade(t *testing.T) {
	t.Parallel()

	j := &memJournal{}
	s := New(context.Background(), nil, j)
	e := newEngine(t, "BTC-USD", priced(100))
	e.Start()

	res, err := s.Tick(e)
	require.NoError(t, err)
	require.Equal(t, sim.StatusSuccess, res.Status)
	require.Len(t, j.trades, 1)
	assert.Equal(t, res.Trade.ID, j.trades[0].ID)
}

func TestTickSkipsWithoutTrade(t *testing.T) {
	t.Parallel()

	j := &memJournal{}
	s := New(context.Background(), nil, j)

	inactive := newEngine(t, "BTC-USD", priced(100))
	_, err := s.Tick(inactive)
	assert.ErrorIs(t, err, sim.ErrInactiveBot)

	noData := newEngine(t, "ETH-USD", &market.Static{Err: market.NoData("ETH-USD", "down")})
	noData.Start()
	_, err = s.Tick(noData)
	assert.ErrorIs(t, err, sim.ErrMarketDataUnavailable)

	assert.Empty(t, j.trades)
}

func TestTickHaltedIsNotAnError(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	j := &memJournal{}
	s := New(context.Background(), zap.New(core), j)

	p, err := strategy.Preset(strategy.TenTrades)
	require.NoError(t, err)
	p.MaxWeeklyLossPct = 0.1
	e, err := sim.NewEngine(sim.Account{ID: "acct", Pair: "BTC-USD", Capital: 10_000}, p, priced(100),
		sim.WithDirectionModel(strategy.Fixed(strategy.Long)),
		sim.WithOutcomeModel(strategy.NewScripted(strategy.StopLoss)))
	require.NoError(t, err)
	e.Start()

	// 22.5 lost on 10000 is past the 0.1% limit.
	res, err := s.Tick(e)
	require.NoError(t, err)
	require.Equal(t, sim.StatusSuccess, res.Status)

	res, err = s.Tick(e)
	require.NoError(t, err)
	assert.True(t, res.Halted())
	assert.Len(t, j.trades, 1)
	assert.Equal(t, 1, logs.FilterMessage("bot halted").Len())
	assert.Equal(t, sim.Halted, e.State())
}

func TestTickJournalError(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	s := New(context.Background(), nil, &memJournal{err: boom})
	e := newEngine(t, "BTC-USD", priced(100))
	e.Start()

	res, err := s.Tick(e)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, sim.StatusSuccess, res.Status, "the trade itself went through")
}

func TestAddRemove(t *testing.T) {
	t.Parallel()

	s := New(context.Background(), nil, nil)
	e := newEngine(t, "BTC-USD", priced(100))

	require.NoError(t, s.Add(e))
	assert.Error(t, s.Add(e))

	s.Start()
	next, ok := s.Next(e.Key())
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(144*time.Minute), next, time.Minute)

	assert.True(t, s.Remove(e.Key()))
	assert.False(t, s.Remove(e.Key()))
	_, ok = s.Next(e.Key())
	assert.False(t, ok)

	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestCronLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	l := Logger(zap.New(core))

	l.Info("wake", "now", 1)
	l.Error(errors.New("bad"), "panic", "job", 2)

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "cron", entries[0].LoggerName)
	assert.Equal(t, int64(1), entries[0].ContextMap()["now"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "bad", entries[1].ContextMap()["error"])
	assert.Equal(t, int64(2), entries[1].ContextMap()["job"])
}
