package strategy

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// ExitReason says which protective level closed a trade.
type ExitReason string

const (
	TakeProfit ExitReason = "take_profit"
	StopLoss   ExitReason = "stop_loss"
)

// Order is what an OutcomeModel needs to decide how a trade ends.
type Order struct {
	Direction  Direction
	Entry      float64
	TakeProfit float64
	StopLoss   float64
}

// Exit is the resolved end of a trade.
type Exit struct {
	Price  float64
	Reason ExitReason
}

func (o Order) exit(r ExitReason) Exit {
	if r == TakeProfit {
		return Exit{Price: o.TakeProfit, Reason: TakeProfit}
	}
	return Exit{Price: o.StopLoss, Reason: StopLoss}
}

// OutcomeModel decides which of take-profit or stop-loss is touched first.
type OutcomeModel interface {
	Resolve(o Order) (Exit, error)
}

// Weighted draws the outcome independently for every trade.
type Weighted struct {
	TakeProfitWeight float64
	StopLossWeight   float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewWeighted returns the default 55/45 take-profit/stop-loss draw.
func NewWeighted(rng *rand.Rand) *Weighted {
	return &Weighted{TakeProfitWeight: 55, StopLossWeight: 45, rng: rng}
}

func (w *Weighted) Resolve(o Order) (Exit, error) {
	total := w.TakeProfitWeight + w.StopLossWeight
	if w.TakeProfitWeight < 0 || w.StopLossWeight < 0 || total <= 0 {
		return Exit{}, fmt.Errorf("weighted outcome: bad weights %.2f/%.2f", w.TakeProfitWeight, w.StopLossWeight)
	}

	w.mu.Lock()
	if w.rng == nil {
		w.rng = newRand()
	}
	x := w.rng.Float64() * total
	w.mu.Unlock()

	if x < w.TakeProfitWeight {
		return o.exit(TakeProfit), nil
	}
	return o.exit(StopLoss), nil
}

// Scripted replays a fixed sequence of outcomes, wrapping around at the end.
// Tests and deterministic replays use it.
type Scripted struct {
	mu      sync.Mutex
	reasons []ExitReason
	next    int
}

func NewScripted(reasons ...ExitReason) *Scripted {
	return &Scripted{reasons: reasons}
}

func (s *Scripted) Resolve(o Order) (Exit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reasons) == 0 {
		return Exit{}, errors.New("scripted outcome: empty script")
	}
	r := s.reasons[s.next%len(s.reasons)]
	s.next++
	return o.exit(r), nil
}

// RandomWalk steps a gaussian price path from the entry until one of the two
// levels is touched. If neither is reached within MaxSteps the trade is
// stopped out.
type RandomWalk struct {
	Volatility float64 // per-step stddev as a fraction of the entry price
	Drift      float64 // per-step mean as a fraction of the entry price
	MaxSteps   int

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomWalk(rng *rand.Rand, volatility float64) *RandomWalk {
	return &RandomWalk{Volatility: volatility, MaxSteps: 100_000, rng: rng}
}

func (w *RandomWalk) Resolve(o Order) (Exit, error) {
	if w.Volatility <= 0 {
		return Exit{}, fmt.Errorf("random walk outcome: volatility must be positive")
	}
	if o.Entry <= 0 {
		return Exit{}, fmt.Errorf("random walk outcome: entry must be positive")
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.rng == nil {
		w.rng = newRand()
	}

	price := o.Entry
	sigma := w.Volatility * o.Entry
	mu := w.Drift * o.Entry
	for i := 0; i < w.MaxSteps; i++ {
		price += mu + w.rng.NormFloat64()*sigma
		if o.Direction == Short {
			if price >= o.StopLoss {
				return o.exit(StopLoss), nil
			}
			if price <= o.TakeProfit {
				return o.exit(TakeProfit), nil
			}
			continue
		}
		if price <= o.StopLoss {
			return o.exit(StopLoss), nil
		}
		if price >= o.TakeProfit {
			return o.exit(TakeProfit), nil
		}
	}
	return o.exit(StopLoss), nil
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
