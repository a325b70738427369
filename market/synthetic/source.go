// Package synthetic generates random-walk candles so simulations can run
// without a network data provider.
package synthetic

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

// Source is a market.Source backed by a seeded gaussian random walk.
// Each symbol keeps its own last price so consecutive fetches continue
// the same path.
type Source struct {
	StartPrice float64 // first price for a symbol never seen before
	Volatility float64 // per-candle stddev as a fraction of price, e.g. 0.002
	Count      int     // candles returned per fetch
	Now        func() time.Time

	mu   sync.Mutex
	rng  *rand.Rand
	last map[string]float64
}

// New returns a Source seeded with seed. A seed of 0 uses the current time.
func New(seed int64, startPrice float64) *Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Source{
		StartPrice: startPrice,
		Volatility: 0.002,
		Count:      30,
		rng:        rand.New(rand.NewSource(seed)),
		last:       make(map[string]float64),
	}
}

// Fetch walks Count candles forward from the symbol's last price.
func (s *Source) Fetch(ctx context.Context, symbol, interval, rng string) (market.CandleSeries, error) {
	if err := ctx.Err(); err != nil {
		return market.CandleSeries{}, err
	}
	step, err := market.ParseInterval(interval)
	if err != nil {
		return market.CandleSeries{}, err
	}
	if s.StartPrice <= 0 {
		return market.CandleSeries{}, market.NoData(symbol, "synthetic start price not set")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if s.last == nil {
		s.last = make(map[string]float64)
	}
	price, ok := s.last[symbol]
	if !ok {
		price = s.StartPrice
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	n := s.Count
	if n <= 0 {
		n = 1
	}
	start := now.Truncate(step).Add(-time.Duration(n-1) * step)

	candles := make([]market.Candle, 0, n)
	for i := 0; i < n; i++ {
		open := price
		cl := math.Max(open*(1+s.rng.NormFloat64()*s.Volatility), open*0.5)
		wick := math.Abs(s.rng.NormFloat64()) * s.Volatility * open / 2
		candles = append(candles, market.Candle{
			Time:   start.Add(time.Duration(i) * step),
			Open:   open,
			High:   math.Max(open, cl) + wick,
			Low:    math.Max(math.Min(open, cl)-wick, 0),
			Close:  cl,
			Volume: math.Round(1000 + s.rng.Float64()*9000),
		})
		price = cl
	}
	s.last[symbol] = price

	return market.CandleSeries{
		Symbol:       symbol,
		Interval:     interval,
		CurrentPrice: price,
		Candles:      candles,
	}, nil
}
