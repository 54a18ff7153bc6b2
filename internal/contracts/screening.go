package contracts

import "github.com/guregu/null/v6"

// Criterion names one boolean check of the screening catalogue
type Criterion string

// Price action
const (
	CriterionPriceGainToday Criterion = "priceGainToday"
	CriterionPriceDropToday Criterion = "priceDropToday"
	CriterionHighVolume     Criterion = "highVolume"
	CriterionNearHighs      Criterion = "nearHighs"
	CriterionNearLows       Criterion = "nearLows"
)

// Valuation
const (
	CriterionLowPE        Criterion = "lowPE"
	CriterionHighPE       Criterion = "highPE"
	CriterionLowPB        Criterion = "lowPB"
	CriterionHighDividend Criterion = "highDividend"
	CriterionLargeCap     Criterion = "largeCap"
	CriterionMidCap       Criterion = "midCap"
	CriterionSmallCap     Criterion = "smallCap"
)

// Price bands
const (
	CriterionPriceUnder500   Criterion = "priceUnder500"
	CriterionPrice500to2000  Criterion = "price500to2000"
	CriterionPrice2000to5000 Criterion = "price2000to5000"
	CriterionPriceOver5000   Criterion = "priceOver5000"
)

// Indicators
const (
	CriterionRSIOversold       Criterion = "rsiOversold"
	CriterionRSIOverbought     Criterion = "rsiOverbought"
	CriterionRSINeutral        Criterion = "rsiNeutral"
	CriterionPriceAboveSMA20   Criterion = "priceAboveSMA20"
	CriterionPriceAboveSMA50   Criterion = "priceAboveSMA50"
	CriterionPriceAboveSMA200  Criterion = "priceAboveSMA200"
	CriterionGoldenCross       Criterion = "goldenCross"
	CriterionDeathCross        Criterion = "deathCross"
	CriterionAllMAUptrend      Criterion = "allMAUptrend"
	CriterionMACDBullish       Criterion = "macdBullish"
	CriterionMACDBearish       Criterion = "macdBearish"
	CriterionMACDCrossover     Criterion = "macdCrossover"
	CriterionPriceBelowLowerBB Criterion = "priceBelowLowerBB"
	CriterionPriceAboveUpperBB Criterion = "priceAboveUpperBB"
	CriterionBBSqueeze         Criterion = "bbSqueeze"
	CriterionStochOversold     Criterion = "stochOversold"
	CriterionStochOverbought   Criterion = "stochOverbought"
	CriterionStrongTrend       Criterion = "strongTrend"
	CriterionBreakoutPattern   Criterion = "breakoutPattern"
	CriterionConsolidation     Criterion = "consolidation"
)

// Composite setups (≥ 4 of 5 sub-conditions)
const (
	CriterionBullishSetup Criterion = "bullishSetup"
	CriterionBearishSetup Criterion = "bearishSetup"
	CriterionMomentumPlay Criterion = "momentumPlay"
	CriterionValuePlay    Criterion = "valuePlay"
)

// ScreeningCriteria enables criteria by name. Supplied per request, never persisted.
type ScreeningCriteria map[Criterion]bool

// Enabled reports whether c is switched on
func (sc ScreeningCriteria) Enabled(c Criterion) bool {
	return sc[c]
}

// ScreeningParams overrides catalogue thresholds
type ScreeningParams struct {
	RSIOversoldLevel   null.Float `json:"rsiOversoldLevel"`
	RSIOverboughtLevel null.Float `json:"rsiOverboughtLevel"`
}

// ScreeningResult is the outcome of one instrument against the enabled criteria.
// Criteria whose inputs were missing are absent from Results.
type ScreeningResult struct {
	Results         map[Criterion]bool `json:"results"`
	ConditionsMet   int                `json:"conditionsMet"`
	TotalConditions int                `json:"totalConditions"`
	Score           float64            `json:"score"` // 0..100
}
