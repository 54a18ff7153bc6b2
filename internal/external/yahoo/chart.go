package yahoo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null/v6"

	"github.com/wonny/idxscreen/internal/contracts"
)

// ErrNoResult is returned when the chart payload has no result[0]
var ErrNoResult = errors.New("chart response has no result")

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta       chartMeta `json:"meta"`
	Timestamp  []int64   `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

type chartMeta struct {
	Currency           string   `json:"currency"`
	Symbol             string   `json:"symbol"`
	ExchangeName       string   `json:"exchangeName"`
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	PreviousClose      *float64 `json:"previousClose"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
	GMTOffset          int64    `json:"gmtoffset"`
}

// chartQuote holds per-field arrays aligned with Timestamp; any slot may be null
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

// FetchChart fetches OHLCV bars for an exchange-suffixed symbol
func (c *Client) FetchChart(ctx context.Context, symbol, rng, interval string) (*contracts.PriceSeries, error) {
	var resp chartResponse
	if err := c.getJSON(ctx, c.chartEndpoint(symbol, rng, interval), &resp); err != nil {
		return nil, err
	}

	series, err := parseChart(&resp)
	if err != nil {
		return nil, err
	}
	series.Symbol = symbol
	series.Range = rng
	series.Interval = interval

	c.logger.WithFields(map[string]interface{}{
		"symbol":   symbol,
		"range":    rng,
		"interval": interval,
		"bars":     len(series.Bars),
	}).Debug("Fetched chart")

	return series, nil
}

// parseChart maps the raw arrays into bars, dropping slots without a close
func parseChart(resp *chartResponse) (*contracts.PriceSeries, error) {
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, ErrNoResult
	}

	result := resp.Chart.Result[0]
	meta := result.Meta

	series := &contracts.PriceSeries{
		Currency:           meta.Currency,
		ExchangeName:       meta.ExchangeName,
		RegularMarketPrice: null.FloatFromPtr(meta.RegularMarketPrice),
		PreviousClose:      null.FloatFromPtr(meta.PreviousClose),
		Bars:               make([]contracts.PriceBar, 0, len(result.Timestamp)),
	}
	if !series.PreviousClose.Valid {
		series.PreviousClose = null.FloatFromPtr(meta.ChartPreviousClose)
	}

	// timestamp 만 있고 quote 가 비어있는 응답도 있음 (거래정지 종목)
	if len(result.Indicators.Quote) == 0 {
		return series, nil
	}
	q := result.Indicators.Quote[0]

	for i, ts := range result.Timestamp {
		closePx := at(q.Close, i)
		if closePx == nil {
			continue
		}
		series.Bars = append(series.Bars, contracts.PriceBar{
			Date:      localDate(ts, meta.GMTOffset),
			Timestamp: ts,
			Open:      valueOrZero(at(q.Open, i)),
			High:      valueOrZero(at(q.High, i)),
			Low:       valueOrZero(at(q.Low, i)),
			Close:     *closePx,
			Volume:    int64(valueOrZero(at(q.Volume, i))),
		})
	}

	return series, nil
}

// localDate returns the exchange-local calendar day of an epoch second
func localDate(ts, gmtOffset int64) string {
	return time.Unix(ts+gmtOffset, 0).UTC().Format("2006-01-02")
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
