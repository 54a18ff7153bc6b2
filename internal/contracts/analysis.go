package contracts

import "github.com/guregu/null/v6"

// StockReport is one symbol's full indicator history plus current signals
type StockReport struct {
	Symbol     string        `json:"symbol"`
	Series     *PriceSeries  `json:"series"`
	Indicators *IndicatorSet `json:"indicators"`
	Signals    []Signal      `json:"signals"`
}

// ScreenEntry is one slot of a screen response. A failed symbol carries only Error.
type ScreenEntry struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error,omitempty"`
	*ScreenItem
}

// ScreenItem is a screened instrument
type ScreenItem struct {
	Price        null.Float        `json:"price"`
	Indicators   IndicatorSnapshot `json:"indicators"`
	Fundamentals *Quote            `json:"fundamentals,omitempty"`
	Signals      []Signal          `json:"signals"`
	Screening    ScreeningResult   `json:"screening"`
}

// Score returns the screening score, 0 for failed entries
func (e ScreenEntry) Score() float64 {
	if e.ScreenItem == nil {
		return 0
	}
	return e.Screening.Score
}

// BatchEntry is one slot of a batch response
type BatchEntry struct {
	Symbol     string             `json:"symbol"`
	Error      string             `json:"error,omitempty"`
	Price      null.Float         `json:"price"`
	Bars       int                `json:"bars,omitempty"`
	Indicators *IndicatorSnapshot `json:"indicators,omitempty"`
	Signals    []Signal           `json:"signals,omitempty"`
}

// Performance summarizes price movement over the fetched range
type Performance struct {
	StartDate     string       `json:"startDate"`
	EndDate       string       `json:"endDate"`
	StartPrice    float64      `json:"startPrice"`
	EndPrice      float64      `json:"endPrice"`
	High          float64      `json:"high"`
	Low           float64      `json:"low"`
	ReturnPercent float64      `json:"returnPercent"`
	Volatility    null.Float   `json:"volatility"` // stddev of daily % returns
	Bars          int          `json:"bars"`
	Risk          *RiskMetrics `json:"risk,omitempty"`
}

// RiskMetrics are one-day loss estimates over a close series.
// Losses are positive percentages.
type RiskMetrics struct {
	Confidence    float64 `json:"confidence"`
	VaR           float64 `json:"var"`           // historical simulation
	CVaR          float64 `json:"cvar"`          // mean of the loss tail
	ParametricVaR float64 `json:"parametricVar"` // normal assumption
	MaxDrawdown   float64 `json:"maxDrawdown"`   // peak to trough
	Samples       int     `json:"samples"`
}

// CompareEntry is one slot of a compare response
type CompareEntry struct {
	Symbol      string             `json:"symbol"`
	Error       string             `json:"error,omitempty"`
	Performance *Performance       `json:"performance,omitempty"`
	Indicators  *IndicatorSnapshot `json:"indicators,omitempty"`
	Signals     []Signal           `json:"signals,omitempty"`
}

// StockInfo is an entry of the popular-stocks list
type StockInfo struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}
