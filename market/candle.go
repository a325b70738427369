package market

import "time"

// Candle represents OHLCV candlestick data for one interval.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CandleSeries is what a Source returns for a symbol/interval/range request.
// Candles are ordered oldest first and may be empty.
type CandleSeries struct {
	Symbol       string
	Interval     string
	CurrentPrice float64
	Candles      []Candle
}

// Len returns the number of candles in the series.
func (s CandleSeries) Len() int { return len(s.Candles) }

// Last returns the n-th candle counting back from the newest one (0 is the newest).
func (s CandleSeries) Last(n int) (Candle, bool) {
	i := len(s.Candles) - 1 - n
	if n < 0 || i < 0 {
		return Candle{}, false
	}
	return s.Candles[i], true
}
