package risk

import (
	"math"
	"math/rand"
	"testing"

	"github.com/rustyeddy/papertrader/strategy"
	"github.com/stretchr/testify/assert"
)

func TestLadderEscalatesAndPins(t *testing.T) {
	t.Parallel()

	l := NewLadder(2, 4)
	assert.Equal(t, 1.0, l.Multiplier)
	assert.Equal(t, 0, l.Streak)

	var got []float64
	for i := 0; i < 5; i++ {
		l.Apply(strategy.StopLoss)
		got = append(got, l.Multiplier)
	}

	assert.Equal(t, []float64{2, 4, 8, 16, 16}, got)
	assert.Equal(t, 4, l.Streak)
	assert.True(t, l.AtCap())
}

func TestLadderResetsOnTakeProfit(t *testing.T) {
	t.Parallel()

	l := NewLadder(2, 5)
	for i := 0; i < 3; i++ {
		l.Apply(strategy.StopLoss)
	}
	assert.Equal(t, 8.0, l.Multiplier)

	l.Apply(strategy.TakeProfit)
	assert.Equal(t, 1.0, l.Multiplier)
	assert.Equal(t, 0, l.Streak)
	assert.False(t, l.AtCap())
}

func TestLadderZeroCap(t *testing.T) {
	t.Parallel()

	l := NewLadder(2, 0)
	l.Apply(strategy.StopLoss)
	l.Apply(strategy.StopLoss)
	assert.Equal(t, 1.0, l.Multiplier)
	assert.Equal(t, 0, l.Streak)
}

func TestLadderInvariantHoldsForRandomSequences(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(99))
	for _, cfg := range []struct {
		base float64
		cap  int
	}{{2, 4}, {2, 5}, {3, 2}, {1.5, 6}} {
		l := NewLadder(cfg.base, cfg.cap)
		for i := 0; i < 2000; i++ {
			reason := strategy.StopLoss
			if rng.Intn(3) == 0 {
				reason = strategy.TakeProfit
			}
			l.Apply(reason)

			assert.LessOrEqual(t, l.Streak, cfg.cap)
			assert.GreaterOrEqual(t, l.Streak, 0)
			assert.InDelta(t, math.Pow(cfg.base, float64(l.Streak)), l.Multiplier, 1e-9)
			if reason == strategy.TakeProfit {
				assert.Equal(t, 0, l.Streak)
			}
		}
	}
}
