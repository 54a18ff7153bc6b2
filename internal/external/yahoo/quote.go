package yahoo

import (
	"context"
	"errors"
	"strings"

	"github.com/guregu/null/v6"

	"github.com/wonny/idxscreen/internal/contracts"
)

// ErrInvalidQuoteResponse is returned when quoteResponse.result is missing
var ErrInvalidQuoteResponse = errors.New("invalid quote response")

type quoteResponse struct {
	QuoteResponse *struct {
		Result []rawQuote `json:"result"`
		Error  *apiError  `json:"error"`
	} `json:"quoteResponse"`
}

type rawQuote struct {
	Symbol                     string   `json:"symbol"`
	ShortName                  string   `json:"shortName"`
	LongName                   string   `json:"longName"`
	RegularMarketPrice         *float64 `json:"regularMarketPrice"`
	RegularMarketChange        *float64 `json:"regularMarketChange"`
	RegularMarketChangePercent *float64 `json:"regularMarketChangePercent"`
	RegularMarketVolume        *float64 `json:"regularMarketVolume"`
	RegularMarketOpen          *float64 `json:"regularMarketOpen"`
	RegularMarketDayHigh       *float64 `json:"regularMarketDayHigh"`
	RegularMarketDayLow        *float64 `json:"regularMarketDayLow"`
	AverageDailyVolume3Month   *float64 `json:"averageDailyVolume3Month"`
	MarketCap                  *float64 `json:"marketCap"`
	FiftyTwoWeekLow            *float64 `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh           *float64 `json:"fiftyTwoWeekHigh"`
	FiftyDayAverage            *float64 `json:"fiftyDayAverage"`
	TwoHundredDayAverage       *float64 `json:"twoHundredDayAverage"`
	TrailingPE                 *float64 `json:"trailingPE"`
	ForwardPE                  *float64 `json:"forwardPE"`
	PriceToBook                *float64 `json:"priceToBook"`
	DividendYield              *float64 `json:"dividendYield"`
	Bid                        *float64 `json:"bid"`
	BidSize                    *float64 `json:"bidSize"`
	Ask                        *float64 `json:"ask"`
	AskSize                    *float64 `json:"askSize"`
}

// FetchQuotes fetches quotes for exchange-suffixed symbols in one request
func (c *Client) FetchQuotes(ctx context.Context, symbols []string) ([]contracts.Quote, error) {
	var resp quoteResponse
	if err := c.getJSON(ctx, c.quoteEndpoint(symbols), &resp); err != nil {
		return nil, err
	}

	quotes, err := c.parseQuotes(&resp)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"returned":  len(quotes),
	}).Debug("Fetched quotes")

	return quotes, nil
}

func (c *Client) parseQuotes(resp *quoteResponse) ([]contracts.Quote, error) {
	if resp.QuoteResponse == nil || resp.QuoteResponse.Result == nil {
		return nil, ErrInvalidQuoteResponse
	}

	quotes := make([]contracts.Quote, 0, len(resp.QuoteResponse.Result))
	for _, r := range resp.QuoteResponse.Result {
		name := r.ShortName
		if name == "" {
			name = r.LongName
		}

		q := contracts.Quote{
			Symbol:               strings.TrimSuffix(r.Symbol, c.suffix),
			Name:                 name,
			Source:               contracts.QuoteSourceQuote,
			Price:                null.FloatFromPtr(r.RegularMarketPrice),
			Change:               null.FloatFromPtr(r.RegularMarketChange),
			ChangePercent:        null.FloatFromPtr(r.RegularMarketChangePercent),
			Volume:               null.FloatFromPtr(r.RegularMarketVolume),
			AvgVolume:            null.FloatFromPtr(r.AverageDailyVolume3Month),
			MarketCap:            null.FloatFromPtr(r.MarketCap),
			Open:                 null.FloatFromPtr(r.RegularMarketOpen),
			DayHigh:              null.FloatFromPtr(r.RegularMarketDayHigh),
			DayLow:               null.FloatFromPtr(r.RegularMarketDayLow),
			FiftyTwoWeekLow:      null.FloatFromPtr(r.FiftyTwoWeekLow),
			FiftyTwoWeekHigh:     null.FloatFromPtr(r.FiftyTwoWeekHigh),
			FiftyDayAverage:      null.FloatFromPtr(r.FiftyDayAverage),
			TwoHundredDayAverage: null.FloatFromPtr(r.TwoHundredDayAverage),
			TrailingPE:           null.FloatFromPtr(r.TrailingPE),
			ForwardPE:            null.FloatFromPtr(r.ForwardPE),
			PriceToBook:          null.FloatFromPtr(r.PriceToBook),
			DividendYield:        null.FloatFromPtr(r.DividendYield),
			Bid:                  null.FloatFromPtr(r.Bid),
			BidSize:              null.FloatFromPtr(r.BidSize),
			Ask:                  null.FloatFromPtr(r.Ask),
			AskSize:              null.FloatFromPtr(r.AskSize),
		}
		q.DeriveSpread()
		quotes = append(quotes, q)
	}

	return quotes, nil
}
