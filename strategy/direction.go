package strategy

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/market"
)

// Direction is the side of a trade.
type Direction int

const (
	Long Direction = iota + 1
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "unknown"
	}
}

// Sign is +1 for long and -1 for short.
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// MarshalText lets Direction render as "long"/"short" in JSON and YAML.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "long":
		return Long, nil
	case "short":
		return Short, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// DirectionModel picks the bias for the next trade from recent candles.
type DirectionModel interface {
	Direction(series market.CandleSeries) Direction
}

// Momentum goes long when the latest close is above the previous close and
// short otherwise. With fewer than two candles it flips a fair coin.
type Momentum struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMomentum returns a Momentum model whose coin flips use rng.
// A nil rng is replaced by a time seeded one.
func NewMomentum(rng *rand.Rand) *Momentum {
	return &Momentum{rng: rng}
}

func (m *Momentum) Direction(series market.CandleSeries) Direction {
	last, ok1 := series.Last(0)
	prev, ok2 := series.Last(1)
	if ok1 && ok2 {
		if last.Close > prev.Close {
			return Long
		}
		return Short
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rng == nil {
		m.rng = newRand()
	}
	if m.rng.Intn(2) == 0 {
		return Long
	}
	return Short
}

// Fixed always returns the same direction.
type Fixed Direction

func (f Fixed) Direction(market.CandleSeries) Direction { return Direction(f) }

// EMACross goes long while the fast EMA of the closes sits above the slow
// one and short otherwise. Until the series holds Slow candles it defers to
// Fallback.
type EMACross struct {
	Fast, Slow int
	Fallback   DirectionModel
}

func NewEMACross(fast, slow int, fallback DirectionModel) *EMACross {
	return &EMACross{Fast: fast, Slow: slow, Fallback: fallback}
}

func (c *EMACross) Direction(series market.CandleSeries) Direction {
	fast, err1 := indicators.EMA(series.Candles, c.Fast)
	slow, err2 := indicators.EMA(series.Candles, c.Slow)
	if err1 != nil || err2 != nil {
		if c.Fallback == nil {
			return Long
		}
		return c.Fallback.Direction(series)
	}
	if fast > slow {
		return Long
	}
	return Short
}
