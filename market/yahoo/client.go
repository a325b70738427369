// Package yahoo fetches chart candles from the public Yahoo Finance API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rustyeddy/papertrader/market"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Client implements market.Source on top of the v8 chart endpoint.
type Client struct {
	BaseURL   string
	HTTP      *http.Client
	UserAgent string
}

// New returns a Client with a bounded request timeout.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:   DefaultBaseURL,
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: "Mozilla/5.0",
	}
}

type chartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch downloads candles for symbol. An empty or malformed chart is
// reported as market.ErrNoData; transport failures are returned wrapped.
func (c *Client) Fetch(ctx context.Context, symbol, interval, rng string) (market.CandleSeries, error) {
	if symbol == "" {
		return market.CandleSeries{}, fmt.Errorf("yahoo: missing symbol")
	}
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}

	u, err := url.Parse(base)
	if err != nil {
		return market.CandleSeries{}, err
	}
	u.Path = "/v8/finance/chart/" + url.PathEscape(symbol)
	q := u.Query()
	q.Set("interval", interval)
	q.Set("range", rng)
	q.Set("includePrePost", "false")
	q.Set("includeAdjustedClose", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return market.CandleSeries{}, err
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return market.CandleSeries{}, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return market.CandleSeries{}, fmt.Errorf("yahoo chart http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var cr chartResp
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return market.CandleSeries{}, fmt.Errorf("yahoo decode: %w", err)
	}
	if cr.Chart.Error != nil {
		return market.CandleSeries{}, market.NoData(symbol, "api error %s: %s", cr.Chart.Error.Code, cr.Chart.Error.Description)
	}
	if len(cr.Chart.Result) == 0 {
		return market.CandleSeries{}, market.NoData(symbol, "empty chart result")
	}

	res := cr.Chart.Result[0]
	series := market.CandleSeries{
		Symbol:       symbol,
		Interval:     interval,
		CurrentPrice: res.Meta.RegularMarketPrice,
	}

	if len(res.Indicators.Quote) > 0 {
		quote := res.Indicators.Quote[0]
		series.Candles = make([]market.Candle, 0, len(res.Timestamp))
		for i, ts := range res.Timestamp {
			// rows without a close are gaps in the feed
			cl := at(quote.Close, i)
			if cl == nil {
				continue
			}
			series.Candles = append(series.Candles, market.Candle{
				Time:   time.Unix(ts, 0).UTC(),
				Open:   value(at(quote.Open, i)),
				High:   value(at(quote.High, i)),
				Low:    value(at(quote.Low, i)),
				Close:  *cl,
				Volume: value(at(quote.Volume, i)),
			})
		}
	}

	if series.CurrentPrice <= 0 {
		if last, ok := series.Last(0); ok {
			series.CurrentPrice = last.Close
		}
	}
	if series.CurrentPrice <= 0 {
		return market.CandleSeries{}, market.NoData(symbol, "no current price")
	}

	return series, nil
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
