// Package indicators computes trend indicators over candle closes.
package indicators

import (
	"fmt"

	"github.com/rustyeddy/papertrader/market"
)

// MA calculates the Simple Moving Average of the last period closes.
func MA(candles []market.Candle, period int) (float64, error) {
	if err := check(len(candles), period); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Close
	}
	return sum / float64(period), nil
}

// EMA calculates the Exponential Moving Average for the given period, seeded
// with the SMA of the first period closes.
func EMA(candles []market.Candle, period int) (float64, error) {
	if err := check(len(candles), period); err != nil {
		return 0, err
	}

	multiplier := 2.0 / float64(period+1)

	ema := 0.0
	for i := 0; i < period; i++ {
		ema += candles[i].Close
	}
	ema /= float64(period)

	for i := period; i < len(candles); i++ {
		ema = (candles[i].Close-ema)*multiplier + ema
	}
	return ema, nil
}

func check(n, period int) error {
	if period <= 0 {
		return fmt.Errorf("period must be positive, got %d", period)
	}
	if n < period {
		return fmt.Errorf("not enough candles: need %d, got %d", period, n)
	}
	return nil
}
