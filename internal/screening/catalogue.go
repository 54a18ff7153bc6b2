package screening

import (
	"math"

	"github.com/guregu/null/v6"

	"github.com/wonny/idxscreen/internal/contracts"
)

// Category groups criteria for display
type Category string

const (
	CategoryPriceAction Category = "priceAction"
	CategoryValuation   Category = "valuation"
	CategoryPriceBand   Category = "priceBand"
	CategoryRSI         Category = "rsi"
	CategoryMovingAvg   Category = "movingAverage"
	CategoryMACD        Category = "macd"
	CategoryBollinger   Category = "bollinger"
	CategoryStochastic  Category = "stochastic"
	CategoryTrend       Category = "trend"
	CategoryComposite   Category = "composite"
)

// Market cap bands in IDR
const (
	capOneTrillion = 1e12
	capTenTrillion = 1e13
)

// Input is everything a criterion may read
type Input struct {
	Quote   contracts.Quote
	Current contracts.IndicatorSnapshot
	ATR     []null.Float // full ATR series, for the 20-bar average
	Params  contracts.ScreeningParams
}

// check returns (result, applicable). Not applicable = required input missing.
type check func(in *Input) (bool, bool)

// Definition describes one catalogue entry
type Definition struct {
	Name        contracts.Criterion `json:"name"`
	Category    Category            `json:"category"`
	Description string              `json:"description"`
	eval        check
}

// catalogue is evaluated in this order
var catalogue = []Definition{
	// Price action
	{contracts.CriterionPriceGainToday, CategoryPriceAction, "Change today > 0%", func(in *Input) (bool, bool) {
		return gt(in.Quote.ChangePercent, 0)
	}},
	{contracts.CriterionPriceDropToday, CategoryPriceAction, "Change today < 0%", func(in *Input) (bool, bool) {
		return lt(in.Quote.ChangePercent, 0)
	}},
	{contracts.CriterionHighVolume, CategoryPriceAction, "Volume above 3-month average", func(in *Input) (bool, bool) {
		if !valid(in.Quote.Volume, in.Quote.AvgVolume) {
			return false, false
		}
		return in.Quote.Volume.Float64 > in.Quote.AvgVolume.Float64, true
	}},
	{contracts.CriterionNearHighs, CategoryPriceAction, "Price within 10% of 52-week high", func(in *Input) (bool, bool) {
		if !valid(in.Quote.Price, in.Quote.FiftyTwoWeekHigh) {
			return false, false
		}
		return in.Quote.Price.Float64 > in.Quote.FiftyTwoWeekHigh.Float64*0.9, true
	}},
	{contracts.CriterionNearLows, CategoryPriceAction, "Price within 10% of 52-week low", func(in *Input) (bool, bool) {
		if !valid(in.Quote.Price, in.Quote.FiftyTwoWeekLow) {
			return false, false
		}
		return in.Quote.Price.Float64 < in.Quote.FiftyTwoWeekLow.Float64*1.1, true
	}},

	// Valuation
	{contracts.CriterionLowPE, CategoryValuation, "Trailing P/E < 15", func(in *Input) (bool, bool) {
		return lt(in.Quote.TrailingPE, 15)
	}},
	{contracts.CriterionHighPE, CategoryValuation, "Trailing P/E > 30", func(in *Input) (bool, bool) {
		return gt(in.Quote.TrailingPE, 30)
	}},
	{contracts.CriterionLowPB, CategoryValuation, "Price/Book < 2", func(in *Input) (bool, bool) {
		return lt(in.Quote.PriceToBook, 2)
	}},
	{contracts.CriterionHighDividend, CategoryValuation, "Dividend yield > 3%", func(in *Input) (bool, bool) {
		if !valid(in.Quote.DividendYield) {
			return false, false
		}
		return in.Quote.DividendYield.Float64*100 > 3, true
	}},
	{contracts.CriterionLargeCap, CategoryValuation, "Market cap > 10T", func(in *Input) (bool, bool) {
		return gt(in.Quote.MarketCap, capTenTrillion)
	}},
	{contracts.CriterionMidCap, CategoryValuation, "Market cap 1T - 10T", func(in *Input) (bool, bool) {
		return between(in.Quote.MarketCap, capOneTrillion, capTenTrillion)
	}},
	{contracts.CriterionSmallCap, CategoryValuation, "Market cap < 1T", func(in *Input) (bool, bool) {
		return lt(in.Quote.MarketCap, capOneTrillion)
	}},

	// Price bands
	{contracts.CriterionPriceUnder500, CategoryPriceBand, "Price < 500", func(in *Input) (bool, bool) {
		return lt(in.Current.Price, 500)
	}},
	{contracts.CriterionPrice500to2000, CategoryPriceBand, "Price 500 - 2000", func(in *Input) (bool, bool) {
		return between(in.Current.Price, 500, 2000)
	}},
	{contracts.CriterionPrice2000to5000, CategoryPriceBand, "Price 2000 - 5000", func(in *Input) (bool, bool) {
		return between(in.Current.Price, 2000, 5000)
	}},
	{contracts.CriterionPriceOver5000, CategoryPriceBand, "Price > 5000", func(in *Input) (bool, bool) {
		return gt(in.Current.Price, 5000)
	}},

	// RSI
	{contracts.CriterionRSIOversold, CategoryRSI, "RSI below oversold level (default 30)", func(in *Input) (bool, bool) {
		return lt(in.Current.RSI, level(in.Params.RSIOversoldLevel, 30))
	}},
	{contracts.CriterionRSIOverbought, CategoryRSI, "RSI above overbought level (default 70)", func(in *Input) (bool, bool) {
		return gt(in.Current.RSI, level(in.Params.RSIOverboughtLevel, 70))
	}},
	{contracts.CriterionRSINeutral, CategoryRSI, "RSI between 30 and 70", func(in *Input) (bool, bool) {
		return between(in.Current.RSI, 30, 70)
	}},

	// Moving averages
	{contracts.CriterionPriceAboveSMA20, CategoryMovingAvg, "Price above SMA20", func(in *Input) (bool, bool) {
		return above(in.Current.Price, in.Current.SMA20)
	}},
	{contracts.CriterionPriceAboveSMA50, CategoryMovingAvg, "Price above SMA50", func(in *Input) (bool, bool) {
		return above(in.Current.Price, in.Current.SMA50)
	}},
	{contracts.CriterionPriceAboveSMA200, CategoryMovingAvg, "Price above 200-day average", func(in *Input) (bool, bool) {
		return above(in.Current.Price, in.Quote.TwoHundredDayAverage)
	}},
	{contracts.CriterionGoldenCross, CategoryMovingAvg, "SMA20 above SMA50", func(in *Input) (bool, bool) {
		return above(in.Current.SMA20, in.Current.SMA50)
	}},
	{contracts.CriterionDeathCross, CategoryMovingAvg, "SMA20 below SMA50", func(in *Input) (bool, bool) {
		return above(in.Current.SMA50, in.Current.SMA20)
	}},
	{contracts.CriterionAllMAUptrend, CategoryMovingAvg, "Price > SMA20 > SMA50 > 200-day average", func(in *Input) (bool, bool) {
		c := in.Current
		sma200 := in.Quote.TwoHundredDayAverage
		if !valid(c.Price, c.SMA20, c.SMA50, sma200) {
			return false, false
		}
		return c.Price.Float64 > c.SMA20.Float64 &&
			c.SMA20.Float64 > c.SMA50.Float64 &&
			c.SMA50.Float64 > sma200.Float64, true
	}},

	// MACD
	{contracts.CriterionMACDBullish, CategoryMACD, "MACD line above signal", func(in *Input) (bool, bool) {
		return above(in.Current.MACD.Line, in.Current.MACD.Signal)
	}},
	{contracts.CriterionMACDBearish, CategoryMACD, "MACD line below signal", func(in *Input) (bool, bool) {
		return above(in.Current.MACD.Signal, in.Current.MACD.Line)
	}},
	{contracts.CriterionMACDCrossover, CategoryMACD, "MACD near signal with positive histogram", func(in *Input) (bool, bool) {
		m := in.Current.MACD
		if !valid(m.Line, m.Signal, m.Histogram) {
			return false, false
		}
		return math.Abs(m.Line.Float64-m.Signal.Float64) < 0.5 && m.Histogram.Float64 > 0, true
	}},

	// Bollinger
	{contracts.CriterionPriceBelowLowerBB, CategoryBollinger, "Price below lower band", func(in *Input) (bool, bool) {
		return above(in.Current.Bollinger.Lower, in.Current.Price)
	}},
	{contracts.CriterionPriceAboveUpperBB, CategoryBollinger, "Price above upper band", func(in *Input) (bool, bool) {
		return above(in.Current.Price, in.Current.Bollinger.Upper)
	}},
	{contracts.CriterionBBSqueeze, CategoryBollinger, "Band width < 10% of middle band", func(in *Input) (bool, bool) {
		bb := in.Current.Bollinger
		if !valid(bb.Upper, bb.Middle, bb.Lower) || bb.Middle.Float64 == 0 {
			return false, false
		}
		return (bb.Upper.Float64-bb.Lower.Float64)/bb.Middle.Float64 < 0.1, true
	}},

	// Stochastic
	{contracts.CriterionStochOversold, CategoryStochastic, "Stochastic %K < 20", func(in *Input) (bool, bool) {
		return lt(in.Current.Stochastic.K, 20)
	}},
	{contracts.CriterionStochOverbought, CategoryStochastic, "Stochastic %K > 80", func(in *Input) (bool, bool) {
		return gt(in.Current.Stochastic.K, 80)
	}},

	// Trend and volatility
	{contracts.CriterionStrongTrend, CategoryTrend, "ADX > 25", func(in *Input) (bool, bool) {
		return gt(in.Current.ADX.ADX, 25)
	}},
	{contracts.CriterionBreakoutPattern, CategoryTrend, "ATR > 1.5x its 20-bar average", func(in *Input) (bool, bool) {
		if !valid(in.Current.ATR, in.Current.Bollinger.Middle) {
			return false, false
		}
		return in.Current.ATR.Float64 > averageATR(in.ATR)*1.5, true
	}},
	{contracts.CriterionConsolidation, CategoryTrend, "ATR < 0.7x its 20-bar average", func(in *Input) (bool, bool) {
		if !valid(in.Current.ATR) {
			return false, false
		}
		return in.Current.ATR.Float64 < averageATR(in.ATR)*0.7, true
	}},

	// Composites
	{contracts.CriterionBullishSetup, CategoryComposite, "At least 4 of 5 bullish conditions", bullishSetup},
	{contracts.CriterionBearishSetup, CategoryComposite, "At least 4 of 5 bearish conditions", bearishSetup},
	{contracts.CriterionMomentumPlay, CategoryComposite, "At least 4 of 5 momentum conditions", momentumPlay},
	{contracts.CriterionValuePlay, CategoryComposite, "At least 4 of 5 value conditions", valuePlay},
}

// Catalogue returns every known criterion in evaluation order
func Catalogue() []Definition {
	out := make([]Definition, len(catalogue))
	copy(out, catalogue)
	return out
}

// Known reports whether c is in the catalogue
func Known(c contracts.Criterion) bool {
	for _, d := range catalogue {
		if d.Name == c {
			return true
		}
	}
	return false
}

// averageATR is the sum of the last 20 ATR slots (null as 0) divided by 20
func averageATR(atr []null.Float) float64 {
	start := len(atr) - 20
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, v := range atr[start:] {
		sum += v.ValueOrZero()
	}
	return sum / 20
}

func bullishSetup(in *Input) (bool, bool) {
	c := in.Current
	if !valid(c.RSI, c.MACD.Line, c.MACD.Signal) {
		return false, false
	}
	return atLeast(4,
		c.RSI.Float64 < 70,
		c.MACD.Line.Float64 > c.MACD.Signal.Float64,
		isTrue(above(c.SMA20, c.SMA50)),
		isTrue(above(c.Price, c.SMA20)),
		isTrue(gt(c.Stochastic.K, 20)),
	), true
}

func bearishSetup(in *Input) (bool, bool) {
	c := in.Current
	if !valid(c.RSI, c.MACD.Line, c.MACD.Signal) {
		return false, false
	}
	return atLeast(4,
		c.RSI.Float64 > 30,
		c.MACD.Line.Float64 < c.MACD.Signal.Float64,
		isTrue(above(c.SMA50, c.SMA20)),
		isTrue(above(c.SMA20, c.Price)),
		isTrue(lt(c.Stochastic.K, 80)),
	), true
}

func momentumPlay(in *Input) (bool, bool) {
	q, c := in.Quote, in.Current
	if !valid(q.ChangePercent, q.Volume, q.AvgVolume) {
		return false, false
	}
	return atLeast(4,
		math.Abs(q.ChangePercent.Float64) > 2,
		q.Volume.Float64 > q.AvgVolume.Float64*1.5,
		isTrue(gt(c.ADX.ADX, 25)),
		isTrue(gt(c.MACD.Histogram, 0)),
		isTrue(above(c.Price, c.SMA20)),
	), true
}

func valuePlay(in *Input) (bool, bool) {
	q, c := in.Quote, in.Current
	if !valid(q.TrailingPE, q.PriceToBook) {
		return false, false
	}
	nearHigh := valid(q.Price, q.FiftyTwoWeekHigh) && q.Price.Float64 < q.FiftyTwoWeekHigh.Float64*0.9
	return atLeast(4,
		q.TrailingPE.Float64 < 15,
		q.PriceToBook.Float64 < 2,
		valid(q.DividendYield) && q.DividendYield.Float64*100 > 3,
		nearHigh,
		isTrue(lt(c.RSI, 50)),
	), true
}

func atLeast(n int, conds ...bool) bool {
	count := 0
	for _, c := range conds {
		if c {
			count++
		}
	}
	return count >= n
}

func valid(values ...null.Float) bool {
	for _, v := range values {
		if !v.Valid {
			return false
		}
	}
	return true
}

// isTrue collapses a (result, applicable) pair; missing input counts as false
func isTrue(result, applicable bool) bool {
	return result && applicable
}

func gt(v null.Float, threshold float64) (bool, bool) {
	if !v.Valid {
		return false, false
	}
	return v.Float64 > threshold, true
}

func lt(v null.Float, threshold float64) (bool, bool) {
	if !v.Valid {
		return false, false
	}
	return v.Float64 < threshold, true
}

// between is inclusive on both ends
func between(v null.Float, lo, hi float64) (bool, bool) {
	if !v.Valid {
		return false, false
	}
	return v.Float64 >= lo && v.Float64 <= hi, true
}

// above reports a > b when both are present
func above(a, b null.Float) (bool, bool) {
	if !valid(a, b) {
		return false, false
	}
	return a.Float64 > b.Float64, true
}

// level returns an override threshold, or def when unset or zero
func level(v null.Float, def float64) float64 {
	if v.Valid && v.Float64 != 0 {
		return v.Float64
	}
	return def
}
