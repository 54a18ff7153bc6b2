package contracts

import "github.com/guregu/null/v6"

// Label values of a regression dataset row
const (
	TargetDown    = 0
	TargetUp      = 1
	TargetNeutral = -1
)

// DatasetOptions configures labelling. Dates are inclusive YYYY-MM-DD; empty = unbounded.
type DatasetOptions struct {
	StartDate      string  `json:"startDate"`
	EndDate        string  `json:"endDate"`
	UpThreshold    float64 `json:"upThreshold"`   // percent
	DownThreshold  float64 `json:"downThreshold"` // percent
	IncludeNeutral bool    `json:"includeNeutral"`
}

// DefaultDatasetOptions returns the +1% / -0.5% labelling without neutral rows
func DefaultDatasetOptions() DatasetOptions {
	return DatasetOptions{
		UpThreshold:   1.0,
		DownThreshold: -0.5,
	}
}

// Features maps feature name to value. Values come from the day before the labelled bar.
type Features map[string]null.Float

// DatasetRow is one labelled bar: the target is from day H, the features from H-1
type DatasetRow struct {
	Symbol        string   `json:"symbol"`
	Date          string   `json:"date"`
	IndicatorDate string   `json:"indicatorDate"`
	Close         float64  `json:"close"`
	Return        float64  `json:"return"` // percent
	Target        int      `json:"target"`
	Features      Features `json:"features"`
}

// DatasetSummary describes a multi-symbol dataset
type DatasetSummary struct {
	TotalRows        int            `json:"totalRows"`
	TargetCounts     map[string]int `json:"targetDistribution"`
	SymbolsProcessed []string       `json:"symbolsProcessed"`
	SymbolsFailed    []SymbolError  `json:"symbolsFailed"`
	StartDate        string         `json:"startDate,omitempty"`
	EndDate          string         `json:"endDate,omitempty"`
	FeatureNames     []string       `json:"featureNames"`
	MeanReturn       null.Float     `json:"meanReturn"`
	StdDevReturn     null.Float     `json:"stdDevReturn"`
}

// Dataset is the regression-data response
type Dataset struct {
	Rows    []DatasetRow   `json:"data"`
	Summary DatasetSummary `json:"summary"`
}

// FeatureSnapshot is the look-ahead-free feature lookup for one target date
type FeatureSnapshot struct {
	Symbol        string     `json:"symbol"`
	TargetDate    string     `json:"targetDate"`
	IndicatorDate string     `json:"indicatorDate"`
	IsFutureDate  bool       `json:"isFutureDate"`
	Timeframe     int        `json:"timeframe"`  // sessions per bar
	Realtime      bool       `json:"isRealtime"` // today's quote merged into the last bar
	Features      Features   `json:"features"`
	Actual        *PriceBar  `json:"actualData,omitempty"`
	ActualReturn  null.Float `json:"actualReturn"`
}

// SymbolError is a per-symbol failure inside a batch response
type SymbolError struct {
	Symbol string `json:"symbol"`
	Error  string `json:"error"`
}
