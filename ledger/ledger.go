// Package ledger keeps the trades of one session and exposes the trailing
// weekly and calendar-day windows over them.
package ledger

import "time"

// Week is the length of the weekly window.
const Week = 7 * 24 * time.Hour

// Ledger is an append-only trade record with two windowed views.
//
//   - weekly: trades whose exit time is after now-Week
//   - daily:  trades whose exit time falls on now's calendar date in Location
//
// Eviction is a filter applied whenever a view is read or a trade is added;
// there is no background expiry. A Ledger belongs to a single engine and is
// not safe for concurrent use.
type Ledger struct {
	loc    *time.Location
	weekly []Trade
	daily  []Trade
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLocation sets the timezone used to decide calendar days. Default UTC.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) {
		if loc != nil {
			l.loc = loc
		}
	}
}

func New(opts ...Option) *Ledger {
	l := &Ledger{loc: time.UTC}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Location returns the timezone of the daily window.
func (l *Ledger) Location() *time.Location { return l.loc }

// Add records t and then evicts anything that has left either window.
func (l *Ledger) Add(t Trade, now time.Time) {
	l.weekly = append(l.weekly, t)
	l.daily = append(l.daily, t)
	l.Evict(now)
}

// Evict drops trades that are outside their window as of now.
func (l *Ledger) Evict(now time.Time) {
	l.weekly = filter(l.weekly, func(t Trade) bool { return InWeek(t, now) })
	l.daily = filter(l.daily, func(t Trade) bool { return SameDay(t.ExitTime, now, l.loc) })
}

// Weekly returns the trades in the trailing week as of now.
func (l *Ledger) Weekly(now time.Time) []Trade {
	l.Evict(now)
	return append([]Trade(nil), l.weekly...)
}

// Daily returns the trades closed on now's calendar day.
func (l *Ledger) Daily(now time.Time) []Trade {
	l.Evict(now)
	return append([]Trade(nil), l.daily...)
}

// WeeklyProfitLoss sums the P/L of the trailing week as of now.
func (l *Ledger) WeeklyProfitLoss(now time.Time) float64 {
	l.Evict(now)
	var sum float64
	for _, t := range l.weekly {
		sum += t.ProfitLoss
	}
	return sum
}

// Counts returns the number of daily and weekly trades as of now.
func (l *Ledger) Counts(now time.Time) (daily, weekly int) {
	l.Evict(now)
	return len(l.daily), len(l.weekly)
}

// Reset empties both windows.
func (l *Ledger) Reset() {
	l.weekly = nil
	l.daily = nil
}

// InWeek reports whether t closed within the week before now.
func InWeek(t Trade, now time.Time) bool {
	return t.ExitTime.After(now.Add(-Week))
}

// SameDay reports whether a and b share a calendar date in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// filter keeps the elements matching keep, reusing the backing array.
func filter(ts []Trade, keep func(Trade) bool) []Trade {
	out := ts[:0]
	for _, t := range ts {
		if keep(t) {
			out = append(out, t)
		}
	}
	// clear the tail so dropped trades can be collected
	for i := len(out); i < len(ts); i++ {
		ts[i] = Trade{}
	}
	return out
}
