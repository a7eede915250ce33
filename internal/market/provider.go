// Package market fetches daily price history for the LED ticker list and
// reduces it to monthly averages through the snapshot store.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrNoData reports that the provider has no history for a symbol.
// The builder skips such tickers instead of failing the run.
var ErrNoData = errors.New("market: no data")

// Bar is one daily price record as returned by a provider.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Provider returns the full daily history of a symbol.
type Provider interface {
	History(ctx context.Context, symbol string) ([]Bar, error)
}

const (
	defaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"
)

// YahooOptions configures the YahooProvider
type YahooOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// YahooProvider reads the public Yahoo Finance chart endpoint.
type YahooProvider struct {
	http *http.Client
	opts YahooOptions
	now  func() time.Time
}

// NewYahooProvider creates a provider with defaults for unset options
func NewYahooProvider(o YahooOptions) *YahooProvider {
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	return &YahooProvider{
		http: &http.Client{Timeout: o.Timeout},
		opts: o,
		now:  time.Now,
	}
}

// chartResponse is the subset of the chart endpoint payload we read.
// Quote arrays are parallel to Timestamp; null entries decode as nil.
type chartResponse struct {
	Chart struct {
		Result []struct {
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

// History fetches the maximum available daily history of symbol.
// Rows with a null close are dropped. A 404, an empty result or a
// "Not Found" chart error yields ErrNoData.
func (p *YahooProvider) History(ctx context.Context, symbol string) ([]Bar, error) {
	q := url.Values{}
	q.Set("period1", "0")
	q.Set("period2", strconv.FormatInt(p.now().Unix(), 10))
	q.Set("interval", "1d")
	q.Set("events", "history")
	u := p.opts.BaseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("history %s: new request: %w", symbol, err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.7")
	req.Header.Set("User-Agent", p.opts.UserAgent)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("history %s: %w", symbol, ErrNoData)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("history %s: unexpected status %d body %s", symbol, resp.StatusCode, string(body))
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("history %s: decode: %w", symbol, err)
	}
	if e := payload.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("history %s: %w", symbol, ErrNoData)
		}
		return nil, fmt.Errorf("history %s: provider error %s: %s", symbol, e.Code, e.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("history %s: %w", symbol, ErrNoData)
	}

	res := payload.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	bars := make([]Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		c := at(quote.Close, i)
		if c == nil {
			continue
		}
		bars = append(bars, Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   orZero(at(quote.Open, i)),
			High:   orZero(at(quote.High, i)),
			Low:    orZero(at(quote.Low, i)),
			Close:  *c,
			Volume: orZero(at(quote.Volume, i)),
		})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("history %s: %w", symbol, ErrNoData)
	}
	return bars, nil
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
