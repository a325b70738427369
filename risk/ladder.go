package risk

import (
	"math"

	"github.com/rustyeddy/papertrader/strategy"
)

// Ladder is the martingale loss-recovery state.
//
// Invariant: Multiplier == Base^Streak and 0 <= Streak <= Cap.
type Ladder struct {
	Base       float64
	Cap        int
	Streak     int
	Multiplier float64
}

// NewLadder returns a ladder at rest (streak 0, multiplier 1).
func NewLadder(base float64, cap int) Ladder {
	return Ladder{Base: base, Cap: cap, Multiplier: 1}
}

// Apply advances the ladder for one completed trade. A stop-loss climbs one
// rung unless the cap is already reached; a take-profit drops straight back
// to the bottom.
func (l *Ladder) Apply(reason strategy.ExitReason) {
	if reason == strategy.TakeProfit {
		l.Reset()
		return
	}
	if l.Streak < l.Cap {
		l.Streak++
	}
	l.Multiplier = math.Pow(l.Base, float64(l.Streak))
}

// Reset puts the ladder back at rest.
func (l *Ladder) Reset() {
	l.Streak = 0
	l.Multiplier = 1
}

// AtCap reports whether further losses will no longer grow the size.
func (l Ladder) AtCap() bool { return l.Streak >= l.Cap }
