package sim

import (
	"errors"
	"fmt"
)

// ErrInactiveBot is returned by operations that need an Active engine.
// It is recoverable: Start the engine and retry.
var ErrInactiveBot = errors.New("bot is not active")

// ErrMarketDataUnavailable matches every *MarketDataError via errors.Is.
var ErrMarketDataUnavailable = errors.New("market data unavailable")

// MarketDataError wraps whatever the candle source returned.
type MarketDataError struct {
	Pair string
	Err  error
}

func (e *MarketDataError) Error() string {
	return fmt.Sprintf("market data unavailable for %s: %v", e.Pair, e.Err)
}

func (e *MarketDataError) Unwrap() error { return e.Err }

func (e *MarketDataError) Is(target error) bool { return target == ErrMarketDataUnavailable }
