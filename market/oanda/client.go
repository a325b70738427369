// Package oanda fetches mid-price candles from the OANDA v20 REST API.
package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

const (
	PracticeURL = "https://api-fxpractice.oanda.com"

	// maxCount is the largest count the candles endpoint accepts.
	maxCount = 5000
)

var granularities = map[string]string{
	"1m":  "M1",
	"5m":  "M5",
	"15m": "M15",
	"30m": "M30",
	"1h":  "H1",
	"4h":  "H4",
	"1d":  "D",
	"1wk": "W",
	"1mo": "M",
}

// Client implements market.Source on top of /v3/instruments/{i}/candles.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL: PracticeURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type ohlc struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type candlesResp struct {
	Instrument  string `json:"instrument"`
	Granularity string `json:"granularity"`
	Candles     []struct {
		Complete bool   `json:"complete"`
		Time     string `json:"time"`
		Volume   int    `json:"volume"`
		Mid      *ohlc  `json:"mid,omitempty"`
	} `json:"candles"`
}

// Instrument converts a pair like "EUR-USD" or "EUR/USD" to "EUR_USD".
func Instrument(symbol string) string {
	return strings.NewReplacer("-", "_", "/", "_").Replace(strings.ToUpper(strings.TrimSpace(symbol)))
}

// Granularity maps a Yahoo style interval to an OANDA granularity.
func Granularity(interval string) (string, error) {
	g, ok := granularities[strings.ToLower(strings.TrimSpace(interval))]
	if !ok {
		return "", fmt.Errorf("oanda: unsupported interval %q", interval)
	}
	return g, nil
}

// Fetch requests enough candles of the given interval to span rng.
func (c *Client) Fetch(ctx context.Context, symbol, interval, rng string) (market.CandleSeries, error) {
	if c.Token == "" {
		return market.CandleSeries{}, fmt.Errorf("oanda: missing token")
	}
	if symbol == "" {
		return market.CandleSeries{}, fmt.Errorf("oanda: missing instrument")
	}
	gran, err := Granularity(interval)
	if err != nil {
		return market.CandleSeries{}, err
	}
	count, err := candleCount(interval, rng)
	if err != nil {
		return market.CandleSeries{}, err
	}

	base := c.BaseURL
	if base == "" {
		base = PracticeURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return market.CandleSeries{}, err
	}
	u.Path = fmt.Sprintf("/v3/instruments/%s/candles", Instrument(symbol))

	q := u.Query()
	q.Set("granularity", gran)
	q.Set("price", "M")
	q.Set("count", strconv.Itoa(count))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return market.CandleSeries{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return market.CandleSeries{}, fmt.Errorf("oanda fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return market.CandleSeries{}, fmt.Errorf("oanda candles http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var cr candlesResp
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return market.CandleSeries{}, fmt.Errorf("oanda decode: %w", err)
	}

	series := market.CandleSeries{Symbol: symbol, Interval: interval}
	for _, cd := range cr.Candles {
		if cd.Mid == nil {
			continue
		}
		candle, err := parseCandle(cd.Time, cd.Volume, cd.Mid)
		if err != nil {
			return market.CandleSeries{}, fmt.Errorf("oanda candle %s: %w", cd.Time, err)
		}
		series.Candles = append(series.Candles, candle)
	}

	last, ok := series.Last(0)
	if !ok {
		return market.CandleSeries{}, market.NoData(symbol, "empty candles response")
	}
	if last.Close <= 0 {
		return market.CandleSeries{}, market.NoData(symbol, "no current price")
	}
	series.CurrentPrice = last.Close
	return series, nil
}

func candleCount(interval, rng string) (int, error) {
	step, err := market.ParseInterval(interval)
	if err != nil {
		return 0, err
	}
	span, err := market.ParseInterval(rng)
	if err != nil {
		return 0, err
	}
	n := int(span / step)
	if n < 1 {
		n = 1
	}
	if n > maxCount {
		n = maxCount
	}
	return n, nil
}

func parseCandle(ts string, volume int, p *ohlc) (market.Candle, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return market.Candle{}, err
	}
	var v [4]float64
	for i, s := range []string{p.O, p.H, p.L, p.C} {
		if v[i], err = strconv.ParseFloat(s, 64); err != nil {
			return market.Candle{}, err
		}
	}
	return market.Candle{
		Time:   t.UTC(),
		Open:   v[0],
		High:   v[1],
		Low:    v[2],
		Close:  v[3],
		Volume: float64(volume),
	}, nil
}
