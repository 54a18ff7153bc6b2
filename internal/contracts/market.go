package contracts

import (
	"github.com/guregu/null/v6"
)

// PriceBar is one OHLCV session. Close is always present; bars with a
// missing close are dropped at ingestion.
type PriceBar struct {
	Date      string  `json:"date"`      // YYYY-MM-DD, exchange local
	Timestamp int64   `json:"timestamp"` // epoch seconds
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
}

// PriceSeries is the ordered bar history of one symbol
// ⭐ SSOT: Gateway → Indicator/Screening 가격 데이터 전달 (read-only)
type PriceSeries struct {
	Symbol             string     `json:"symbol"` // exchange-suffixed, e.g. BBCA.JK
	Currency           string     `json:"currency"`
	ExchangeName       string     `json:"exchangeName"`
	RegularMarketPrice null.Float `json:"regularMarketPrice"`
	PreviousClose      null.Float `json:"previousClose"`
	Range              string     `json:"range"`
	Interval           string     `json:"interval"`
	Bars               []PriceBar `json:"data"`
}

// Len returns the number of bars
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Last returns the most recent bar
func (s *PriceSeries) Last() (PriceBar, bool) {
	if s.Len() == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Opens returns open prices in bar order
func (s *PriceSeries) Opens() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Open })
}

// Highs returns high prices in bar order
func (s *PriceSeries) Highs() []float64 {
	return s.column(func(b PriceBar) float64 { return b.High })
}

// Lows returns low prices in bar order
func (s *PriceSeries) Lows() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Low })
}

// Closes returns close prices in bar order
func (s *PriceSeries) Closes() []float64 {
	return s.column(func(b PriceBar) float64 { return b.Close })
}

// Volumes returns volumes as float64 in bar order
func (s *PriceSeries) Volumes() []float64 {
	return s.column(func(b PriceBar) float64 { return float64(b.Volume) })
}

func (s *PriceSeries) column(pick func(PriceBar) float64) []float64 {
	out := make([]float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		out[i] = pick(s.Bars[i])
	}
	return out
}

// QuoteSource tells where a quote came from
type QuoteSource string

const (
	QuoteSourceQuote    QuoteSource = "quote"
	QuoteSourceFallback QuoteSource = "chart-fallback"
)

// Quote is a real-time snapshot plus fundamentals for one symbol.
// Every numeric field is nullable; the provider omits fields freely.
type Quote struct {
	Symbol string      `json:"symbol"` // without exchange suffix
	Name   string      `json:"name"`
	Source QuoteSource `json:"source"`

	Price         null.Float `json:"price"`
	Change        null.Float `json:"change"`
	ChangePercent null.Float `json:"changePercent"`
	Volume        null.Float `json:"volume"`
	AvgVolume     null.Float `json:"avgVolume"`
	MarketCap     null.Float `json:"marketCap"`

	// Session so far
	Open    null.Float `json:"open"`
	DayHigh null.Float `json:"dayHigh"`
	DayLow  null.Float `json:"dayLow"`

	FiftyTwoWeekLow      null.Float `json:"fiftyTwoWeekLow"`
	FiftyTwoWeekHigh     null.Float `json:"fiftyTwoWeekHigh"`
	FiftyDayAverage      null.Float `json:"fiftyDayAverage"`
	TwoHundredDayAverage null.Float `json:"twoHundredDayAverage"`

	// Valuation
	TrailingPE    null.Float `json:"trailingPE"`
	ForwardPE     null.Float `json:"forwardPE"`
	PriceToBook   null.Float `json:"priceToBook"`
	DividendYield null.Float `json:"dividendYield"`

	// Top of book
	Bid           null.Float `json:"bid"`
	BidSize       null.Float `json:"bidSize"`
	Ask           null.Float `json:"ask"`
	AskSize       null.Float `json:"askSize"`
	Spread        null.Float `json:"spread"`
	SpreadPercent null.Float `json:"spreadPercent"`
}

// DeriveSpread fills Spread and SpreadPercent from Bid/Ask.
// Both stay null when either side is missing; the percentage also needs a non-zero bid.
func (q *Quote) DeriveSpread() {
	q.Spread = null.Float{}
	q.SpreadPercent = null.Float{}
	if !q.Bid.Valid || !q.Ask.Valid {
		return
	}

	spread := q.Ask.Float64 - q.Bid.Float64
	q.Spread = null.FloatFrom(spread)
	if q.Bid.Float64 != 0 {
		q.SpreadPercent = null.FloatFrom(spread / q.Bid.Float64 * 100)
	}
}
