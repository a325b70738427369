package market

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoData is returned (possibly wrapped) by a Source that could not
// produce a usable series. Callers match it with errors.Is and never
// inspect the message text.
var ErrNoData = errors.New("market: no data")

// Source supplies time ordered candles for a symbol.
//
// interval and rng use the provider's vocabulary, e.g. "1m"/"15m" and
// "1d"/"5d". Implementations may block on network I/O and should honour ctx.
type Source interface {
	Fetch(ctx context.Context, symbol, interval, rng string) (CandleSeries, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc func(ctx context.Context, symbol, interval, rng string) (CandleSeries, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, symbol, interval, rng string) (CandleSeries, error) {
	return f(ctx, symbol, interval, rng)
}

// NoData wraps ErrNoData with some context about the request.
func NoData(symbol, format string, args ...any) error {
	return fmt.Errorf("%w for %s: %s", ErrNoData, symbol, fmt.Sprintf(format, args...))
}

// Static is a Source that always returns the same series or error.
// It is handy for tests and for replaying a captured series.
type Static struct {
	Series CandleSeries
	Err    error

	calls int
}

// Fetch returns the configured series, stamped with the requested symbol and interval.
func (s *Static) Fetch(ctx context.Context, symbol, interval, rng string) (CandleSeries, error) {
	s.calls++
	if err := ctx.Err(); err != nil {
		return CandleSeries{}, err
	}
	if s.Err != nil {
		return CandleSeries{}, s.Err
	}
	out := s.Series
	out.Symbol = symbol
	out.Interval = interval
	return out, nil
}

// Calls reports how many times Fetch was invoked.
func (s *Static) Calls() int { return s.calls }
