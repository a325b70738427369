package strategy

import (
	"math/rand"
	"testing"
	"time"

	"github.com/rustyeddy/papertrader/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(closes ...float64) market.CandleSeries {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := market.CandleSeries{}
	for i, c := range closes {
		s.Candles = append(s.Candles, market.Candle{Time: t0.Add(time.Duration(i) * time.Minute), Close: c})
	}
	if len(closes) > 0 {
		s.CurrentPrice = closes[len(closes)-1]
	}
	return s
}

func TestDirectionString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "long", Long.String())
	assert.Equal(t, "short", Short.String())
	assert.Equal(t, "unknown", Direction(0).String())
	assert.Equal(t, 1.0, Long.Sign())
	assert.Equal(t, -1.0, Short.Sign())

	b, err := Short.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "short", string(b))

	var d Direction
	require.NoError(t, d.UnmarshalText([]byte("long")))
	assert.Equal(t, Long, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestMomentum(t *testing.T) {
	t.Parallel()

	m := NewMomentum(rand.New(rand.NewSource(1)))

	assert.Equal(t, Long, m.Direction(series(1, 5, 3, 4)))
	assert.Equal(t, Short, m.Direction(series(1, 5, 4)))
	assert.Equal(t, Short, m.Direction(series(4, 4)), "flat is short")
}

func TestMomentumCoinFlipWithoutHistory(t *testing.T) {
	t.Parallel()

	m := NewMomentum(rand.New(rand.NewSource(3)))
	seen := map[Direction]int{}
	for i := 0; i < 200; i++ {
		seen[m.Direction(series(100))]++
		seen[m.Direction(market.CandleSeries{})]++
	}
	assert.Len(t, seen, 2)
	assert.Greater(t, seen[Long], 100)
	assert.Greater(t, seen[Short], 100)
}

func TestFixedDirection(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Short, Fixed(Short).Direction(series(1, 2)))
}

func TestEMACross(t *testing.T) {
	t.Parallel()

	c := NewEMACross(2, 4, Fixed(Short))

	assert.Equal(t, Long, c.Direction(series(10, 11, 12, 13, 14, 15)))
	assert.Equal(t, Short, c.Direction(series(15, 14, 13, 12, 11, 10)))
	assert.Equal(t, Short, c.Direction(series(10, 11)), "too few candles uses the fallback")

	c.Fallback = nil
	assert.Equal(t, Long, c.Direction(series(10)))
}

func TestWeightedOutcome(t *testing.T) {
	t.Parallel()

	o := Order{Direction: Long, Entry: 100, TakeProfit: 109, StopLoss: 95.5}
	w := NewWeighted(rand.New(rand.NewSource(11)))

	wins := 0
	const n = 10_000
	for i := 0; i < n; i++ {
		ex, err := w.Resolve(o)
		require.NoError(t, err)
		switch ex.Reason {
		case TakeProfit:
			wins++
			assert.Equal(t, 109.0, ex.Price)
		case StopLoss:
			assert.Equal(t, 95.5, ex.Price)
		default:
			t.Fatalf("unexpected reason %q", ex.Reason)
		}
	}
	assert.InDelta(t, 0.55, float64(wins)/n, 0.03)
}

func TestWeightedOutcomeBadWeights(t *testing.T) {
	t.Parallel()

	w := &Weighted{}
	_, err := w.Resolve(Order{})
	assert.Error(t, err)

	w = &Weighted{TakeProfitWeight: 1, StopLossWeight: 0}
	ex, err := w.Resolve(Order{TakeProfit: 2, StopLoss: 1})
	require.NoError(t, err)
	assert.Equal(t, TakeProfit, ex.Reason)
}

func TestScriptedOutcome(t *testing.T) {
	t.Parallel()

	s := NewScripted(StopLoss, StopLoss, TakeProfit)
	o := Order{Entry: 100, TakeProfit: 109, StopLoss: 95.5}

	var got []ExitReason
	for i := 0; i < 4; i++ {
		ex, err := s.Resolve(o)
		require.NoError(t, err)
		got = append(got, ex.Reason)
	}
	assert.Equal(t, []ExitReason{StopLoss, StopLoss, TakeProfit, StopLoss}, got)

	_, err := NewScripted().Resolve(o)
	assert.Error(t, err)
}

func TestRandomWalkOutcome(t *testing.T) {
	t.Parallel()

	w := NewRandomWalk(rand.New(rand.NewSource(5)), 0.001)

	long := Order{Direction: Long, Entry: 100, TakeProfit: 100.18, StopLoss: 99.91}
	short := Order{Direction: Short, Entry: 100, TakeProfit: 99.82, StopLoss: 100.09}
	for i := 0; i < 500; i++ {
		ex, err := w.Resolve(long)
		require.NoError(t, err)
		assert.Contains(t, []float64{long.TakeProfit, long.StopLoss}, ex.Price)

		ex, err = w.Resolve(short)
		require.NoError(t, err)
		assert.Contains(t, []float64{short.TakeProfit, short.StopLoss}, ex.Price)
	}
}

func TestRandomWalkDriftFavoursDirection(t *testing.T) {
	t.Parallel()

	w := NewRandomWalk(rand.New(rand.NewSource(9)), 0.0005)
	w.Drift = 0.001

	ex, err := w.Resolve(Order{Direction: Long, Entry: 100, TakeProfit: 101, StopLoss: 90})
	require.NoError(t, err)
	assert.Equal(t, TakeProfit, ex.Reason)

	ex, err = w.Resolve(Order{Direction: Short, Entry: 100, TakeProfit: 90, StopLoss: 101})
	require.NoError(t, err)
	assert.Equal(t, StopLoss, ex.Reason)
}

func TestRandomWalkExhaustionStopsOut(t *testing.T) {
	t.Parallel()

	w := NewRandomWalk(rand.New(rand.NewSource(1)), 1e-9)
	w.MaxSteps = 10
	ex, err := w.Resolve(Order{Direction: Long, Entry: 100, TakeProfit: 200, StopLoss: 50})
	require.NoError(t, err)
	assert.Equal(t, StopLoss, ex.Reason)

	_, err = (&RandomWalk{}).Resolve(Order{Entry: 1})
	assert.Error(t, err)
	_, err = NewRandomWalk(nil, 0.01).Resolve(Order{})
	assert.Error(t, err)
}
