package dataset

import (
	"math"

	"github.com/guregu/null/v6"

	"github.com/wonny/idxscreen/internal/contracts"
)

// FeatureNames lists every feature key in a stable order
var FeatureNames = []string{
	// H-1 bar
	"prevOpen", "prevHigh", "prevLow", "prevClose", "prevVolume",
	// candle shape
	"closePosition", "bodyRangeRatio", "upperWickRatio", "lowerWickRatio",
	"bodySize", "upperWick", "lowerWick",
	"isBullishCandle", "isDoji", "gapUp", "gapDown", "hammerCandle", "bullishEngulfing",
	// trailing returns
	"return1d", "return3d", "return5d",
	// moving averages
	"sma5", "sma10", "sma20", "sma50",
	"ema5", "ema10", "ema12", "ema26", "ema21", "ema21High", "ema21Low",
	"distFromSMA5", "distFromSMA20", "distFromSMA50",
	"distFromEMA21", "distFromEMA21High", "distFromEMA21Low",
	"priceAboveSMA5", "priceAboveSMA10", "priceAboveSMA20", "priceAboveSMA50",
	"priceAboveEMA12", "priceAboveEMA26", "priceAboveEMA21", "priceAboveEMA21High", "priceBelowEMA21Low",
	"priceCrossAboveEMA21", "priceCrossBelowEMA21", "priceCrossUpEMA21High",
	"sma5AboveSMA10", "sma10AboveSMA20", "sma20AboveSMA50",
	// RSI
	"rsi", "deltaRSI", "rsiOversold", "rsiOverbought", "rsiNeutral", "rsiRising",
	"rsiExitOversold", "rsiBullishZone",
	// MACD
	"macd", "macdSignal", "macdHistogram", "deltaMACDHist", "macdBullish", "macdPositive",
	"macdGoldenCross", "macdDeathCross", "macdNearGoldenCross", "macdHistogramConverging",
	"macdHistogramRising", "macdDistanceToSignal",
	// Bollinger
	"bbUpper", "bbMiddle", "bbLower", "bbWidth", "priceBelowLowerBB", "priceAboveUpperBB",
	"nearLowerBB", "bouncingFromLowerBB", "bbSqueeze",
	// Stochastic
	"stochK", "stochD", "deltaStochK", "stochOversold", "stochOverbought",
	"stochBullishCross", "stochGoldenCross", "stochExitOversold",
	// ADX
	"adx", "pdi", "mdi", "deltaADX", "strongTrend", "bullishDI", "adxRising", "bullishDICross",
	// volatility and volume
	"atr", "atrPercent", "obv", "obvChange", "obvTrend",
	"volumeRatio", "highVolume", "bullishVolume", "volumeSpike",
	// extended oscillators
	"williamsR", "williamsROversold", "williamsROverbought",
	"cci", "deltaCCI", "cciOversold", "cciOverbought",
	"mfi", "deltaMFI", "mfiOversold", "mfiOverbought",
	"roc", "rocPositive", "momentum", "momentumPositive",
	"pricePosition", "psar", "priceAbovePSAR",
	// composites
	"bullishScore", "oversoldBounce", "momentumShift",
}

// featureRow reads indicator values at H-1 (p) and H-2 (p-1)
type featureRow struct {
	bars []contracts.PriceBar
	p    int
}

func (r featureRow) cur(series []null.Float) null.Float  { return valueAt(series, r.p) }
func (r featureRow) prev(series []null.Float) null.Float { return valueAt(series, r.p-1) }

func (r featureRow) delta(series []null.Float) null.Float {
	a, b := r.cur(series), r.prev(series)
	if !a.Valid || !b.Valid {
		return null.Float{}
	}
	return null.FloatFrom(a.Float64 - b.Float64)
}

// crossUp reports a close moving from at-or-below the line at p-1 to above it at p
func (r featureRow) crossUp(line []null.Float) bool {
	if r.p < 1 {
		return false
	}
	was, now := r.prev(line), r.cur(line)
	return was.Valid && now.Valid && r.bars[r.p-1].Close <= was.Float64 && r.bars[r.p].Close > now.Float64
}

// crossDown is the mirror of crossUp
func (r featureRow) crossDown(line []null.Float) bool {
	if r.p < 1 {
		return false
	}
	was, now := r.prev(line), r.cur(line)
	return was.Valid && now.Valid && r.bars[r.p-1].Close >= was.Float64 && r.bars[r.p].Close < now.Float64
}

// ret is the percent close change from bar p-back to bar p
func (r featureRow) ret(back int) null.Float {
	if r.p-back < 0 {
		return null.Float{}
	}
	base := r.bars[r.p-back].Close
	if base == 0 {
		return null.Float{}
	}
	return null.FloatFrom((r.bars[r.p].Close - base) / base * 100)
}

// BuildFeatures computes the feature row from bar p (H-1) and earlier.
// Nothing after p is read.
func BuildFeatures(series *contracts.PriceSeries, set *contracts.IndicatorSet, p int) contracts.Features {
	r := featureRow{bars: series.Bars, p: p}
	s := set.Series
	bar := series.Bars[p]
	px := bar.Close
	price := null.FloatFrom(px)
	rng := bar.High - bar.Low

	f := make(contracts.Features, len(FeatureNames))

	f["prevOpen"] = null.FloatFrom(bar.Open)
	f["prevHigh"] = null.FloatFrom(bar.High)
	f["prevLow"] = null.FloatFrom(bar.Low)
	f["prevClose"] = price
	f["prevVolume"] = null.FloatFrom(float64(bar.Volume))

	body := math.Abs(px - bar.Open)
	if rng > 0 {
		f["closePosition"] = null.FloatFrom((px - bar.Low) / rng)
		f["bodyRangeRatio"] = null.FloatFrom(body / rng)
		f["upperWickRatio"] = null.FloatFrom((bar.High - math.Max(bar.Open, px)) / rng)
		f["lowerWickRatio"] = null.FloatFrom((math.Min(bar.Open, px) - bar.Low) / rng)
	} else {
		f["closePosition"] = null.FloatFrom(0.5)
		f["bodyRangeRatio"] = null.FloatFrom(0)
		f["upperWickRatio"] = null.FloatFrom(0)
		f["lowerWickRatio"] = null.FloatFrom(0)
	}
	f["bodySize"] = null.FloatFrom(body)
	f["upperWick"] = null.FloatFrom(bar.High - math.Max(bar.Open, px))
	f["lowerWick"] = null.FloatFrom(math.Min(bar.Open, px) - bar.Low)
	f["isBullishCandle"] = flag(px > bar.Open)
	f["isDoji"] = flag(body < rng*0.1)
	f["hammerCandle"] = flag(rng > 0 && math.Min(bar.Open, px)-bar.Low > rng*0.6 && body < rng*0.3)
	if p >= 1 {
		before := series.Bars[p-1]
		f["gapUp"] = flag(bar.Open > before.Close)
		f["gapDown"] = flag(bar.Open < before.Close)
		f["bullishEngulfing"] = flag(before.Close < before.Open && px > bar.Open &&
			px > before.Open && bar.Open < before.Close)
	} else {
		f["gapUp"], f["gapDown"], f["bullishEngulfing"] = flag(false), flag(false), flag(false)
	}

	f["return1d"] = r.ret(1)
	f["return3d"] = r.ret(3)
	f["return5d"] = r.ret(5)

	sma5, sma10, sma20, sma50 := r.cur(s.Extended.SMA5), r.cur(s.Extended.SMA10), r.cur(s.SMA20), r.cur(s.SMA50)
	f["sma5"], f["sma10"], f["sma20"], f["sma50"] = sma5, sma10, sma20, sma50
	ema12, ema26 := r.cur(s.EMA12), r.cur(s.EMA26)
	ema21, ema21High, ema21Low := r.cur(s.Extended.EMA21), r.cur(s.Extended.EMA21High), r.cur(s.Extended.EMA21Low)
	f["ema5"] = r.cur(s.Extended.EMA5)
	f["ema10"] = r.cur(s.Extended.EMA10)
	f["ema12"], f["ema26"] = ema12, ema26
	f["ema21"], f["ema21High"], f["ema21Low"] = ema21, ema21High, ema21Low

	f["distFromSMA5"] = distance(px, sma5)
	f["distFromSMA20"] = distance(px, sma20)
	f["distFromSMA50"] = distance(px, sma50)
	f["distFromEMA21"] = distance(px, ema21)
	f["distFromEMA21High"] = distance(px, ema21High)
	f["distFromEMA21Low"] = distance(px, ema21Low)

	f["priceAboveSMA5"] = flag(greater(price, sma5))
	f["priceAboveSMA10"] = flag(greater(price, sma10))
	f["priceAboveSMA20"] = flag(greater(price, sma20))
	f["priceAboveSMA50"] = flag(greater(price, sma50))
	f["priceAboveEMA12"] = flag(greater(price, ema12))
	f["priceAboveEMA26"] = flag(greater(price, ema26))
	f["priceAboveEMA21"] = flag(greater(price, ema21))
	f["priceAboveEMA21High"] = flag(greater(price, ema21High))
	f["priceBelowEMA21Low"] = flag(greater(ema21Low, price))
	f["priceCrossAboveEMA21"] = flag(r.crossUp(s.Extended.EMA21))
	f["priceCrossBelowEMA21"] = flag(r.crossDown(s.Extended.EMA21))
	f["priceCrossUpEMA21High"] = flag(r.crossUp(s.Extended.EMA21High))

	f["sma5AboveSMA10"] = flag(greater(sma5, sma10))
	f["sma10AboveSMA20"] = flag(greater(sma10, sma20))
	f["sma20AboveSMA50"] = flag(greater(sma20, sma50))

	rsi := r.cur(s.RSI)
	f["rsi"] = rsi
	f["deltaRSI"] = r.delta(s.RSI)
	f["rsiOversold"] = flag(rsi.Valid && rsi.Float64 < 30)
	f["rsiOverbought"] = flag(rsi.Valid && rsi.Float64 > 70)
	f["rsiNeutral"] = flag(rsi.Valid && rsi.Float64 >= 30 && rsi.Float64 <= 70)
	prevRSI := r.prev(s.RSI)
	f["rsiRising"] = flag(greater(rsi, prevRSI))
	f["rsiExitOversold"] = flag(prevRSI.Valid && rsi.Valid && prevRSI.Float64 < 30 && rsi.Float64 >= 30)
	f["rsiBullishZone"] = flag(rsi.Valid && rsi.Float64 >= 30 && rsi.Float64 <= 50)

	line, signal, hist := r.cur(s.MACD.Line), r.cur(s.MACD.Signal), r.cur(s.MACD.Histogram)
	f["macd"], f["macdSignal"], f["macdHistogram"] = line, signal, hist
	f["deltaMACDHist"] = r.delta(s.MACD.Histogram)
	f["macdBullish"] = flag(greater(line, signal))
	f["macdPositive"] = flag(line.Valid && line.Float64 > 0)
	prevLine, prevSignal := r.prev(s.MACD.Line), r.prev(s.MACD.Signal)
	prevPair := prevLine.Valid && prevSignal.Valid
	f["macdGoldenCross"] = flag(greater(line, signal) && prevPair && prevLine.Float64 <= prevSignal.Float64)
	f["macdDeathCross"] = flag(greater(signal, line) && prevPair && prevLine.Float64 >= prevSignal.Float64)
	prevHist := r.prev(s.MACD.Histogram)
	f["macdNearGoldenCross"] = flag(hist.Valid && hist.Float64 < 0 && greater(hist, prevHist))
	f["macdHistogramConverging"] = flag(hist.Valid && line.Valid && hist.Float64 < 0 &&
		math.Abs(hist.Float64) < math.Abs(line.Float64)*0.25)
	f["macdHistogramRising"] = flag(greater(hist, prevHist) && greater(prevHist, valueAt(s.MACD.Histogram, p-2)))
	if line.Valid && signal.Valid && signal.Float64 != 0 {
		f["macdDistanceToSignal"] = null.FloatFrom((line.Float64 - signal.Float64) / math.Abs(signal.Float64) * 100)
	} else {
		f["macdDistanceToSignal"] = null.Float{}
	}

	upper, middle, lower := r.cur(s.Bollinger.Upper), r.cur(s.Bollinger.Middle), r.cur(s.Bollinger.Lower)
	f["bbUpper"], f["bbMiddle"], f["bbLower"] = upper, middle, lower
	if upper.Valid && lower.Valid && middle.Valid && middle.Float64 != 0 {
		f["bbWidth"] = null.FloatFrom((upper.Float64 - lower.Float64) / middle.Float64 * 100)
	} else {
		f["bbWidth"] = null.Float{}
	}
	f["priceBelowLowerBB"] = flag(greater(lower, price))
	f["priceAboveUpperBB"] = flag(greater(price, upper))
	f["nearLowerBB"] = flag(lower.Valid && px <= lower.Float64*1.02)
	f["bouncingFromLowerBB"] = flag(r.crossUp(s.Bollinger.Lower))
	f["bbSqueeze"] = flag(f["bbWidth"].Valid && f["bbWidth"].Float64 < 5)

	k, d := r.cur(s.Stochastic.K), r.cur(s.Stochastic.D)
	f["stochK"], f["stochD"] = k, d
	f["deltaStochK"] = r.delta(s.Stochastic.K)
	f["stochOversold"] = flag(k.Valid && k.Float64 < 20)
	f["stochOverbought"] = flag(k.Valid && k.Float64 > 80)
	f["stochBullishCross"] = flag(greater(k, d))
	prevK, prevD := r.prev(s.Stochastic.K), r.prev(s.Stochastic.D)
	f["stochGoldenCross"] = flag(greater(k, d) && prevK.Valid && prevD.Valid && prevK.Float64 <= prevD.Float64)
	f["stochExitOversold"] = flag(prevK.Valid && k.Valid && prevK.Float64 < 20 && k.Float64 >= 20)

	adx, pdi, mdi := r.cur(s.ADX.ADX), r.cur(s.ADX.PlusDI), r.cur(s.ADX.MinusDI)
	f["adx"], f["pdi"], f["mdi"] = adx, pdi, mdi
	f["deltaADX"] = r.delta(s.ADX.ADX)
	f["strongTrend"] = flag(adx.Valid && adx.Float64 > 25)
	f["bullishDI"] = flag(greater(pdi, mdi))
	f["adxRising"] = flag(greater(adx, r.prev(s.ADX.ADX)))
	prevPDI, prevMDI := r.prev(s.ADX.PlusDI), r.prev(s.ADX.MinusDI)
	f["bullishDICross"] = flag(greater(pdi, mdi) && prevPDI.Valid && prevMDI.Valid && prevPDI.Float64 <= prevMDI.Float64)

	atr := r.cur(s.ATR)
	f["atr"] = atr
	if atr.Valid && px != 0 {
		f["atrPercent"] = null.FloatFrom(atr.Float64 / px * 100)
	} else {
		f["atrPercent"] = null.Float{}
	}
	f["obv"] = r.cur(s.OBV)
	obvChange := r.delta(s.OBV)
	f["obvChange"] = obvChange
	f["obvTrend"] = sign(obvChange)

	volRatio := volumeRatio(bar, r.cur(s.Extended.VolumeSMA20))
	f["volumeRatio"] = volRatio
	f["highVolume"] = flag(volRatio.Valid && volRatio.Float64 > 1.5)
	f["bullishVolume"] = flag(volRatio.Valid && volRatio.Float64 > 1.2 && px > bar.Open)
	f["volumeSpike"] = flag(volRatio.Valid && volRatio.Float64 > 2)

	willR := r.cur(s.Extended.WilliamsR)
	f["williamsR"] = willR
	f["williamsROversold"] = flag(willR.Valid && willR.Float64 < -80)
	f["williamsROverbought"] = flag(willR.Valid && willR.Float64 > -20)

	cci := r.cur(s.Extended.CCI)
	f["cci"] = cci
	f["deltaCCI"] = r.delta(s.Extended.CCI)
	f["cciOversold"] = flag(cci.Valid && cci.Float64 < -100)
	f["cciOverbought"] = flag(cci.Valid && cci.Float64 > 100)

	mfi := r.cur(s.Extended.MFI)
	f["mfi"] = mfi
	f["deltaMFI"] = r.delta(s.Extended.MFI)
	f["mfiOversold"] = flag(mfi.Valid && mfi.Float64 < 20)
	f["mfiOverbought"] = flag(mfi.Valid && mfi.Float64 > 80)

	roc, mom := r.cur(s.Extended.ROC), r.cur(s.Extended.Momentum)
	f["roc"] = roc
	f["rocPositive"] = flag(roc.Valid && roc.Float64 > 0)
	f["momentum"] = mom
	f["momentumPositive"] = flag(mom.Valid && mom.Float64 > 0)
	f["pricePosition"] = r.cur(s.Extended.PricePosition)

	psar := r.cur(s.Extended.PSAR)
	f["psar"] = psar
	f["priceAbovePSAR"] = flag(greater(price, psar))

	f["bullishScore"] = null.FloatFrom(float64(atLeastCount(
		rsi.Valid && rsi.Float64 < 40,
		greater(rsi, r.prev(s.RSI)),
		greater(hist, r.prev(s.MACD.Histogram)),
		greater(line, signal),
		volRatio.Valid && volRatio.Float64 > 1.2,
		greater(r.cur(s.OBV), r.prev(s.OBV)),
		greater(pdi, mdi),
		px > bar.Open,
		k.Valid && k.Float64 < 50,
		greater(price, sma20),
	)))
	f["oversoldBounce"] = flag((rsi.Valid && rsi.Float64 < 35 || k.Valid && k.Float64 < 25) &&
		px > bar.Open && volRatio.Valid && volRatio.Float64 > 1)
	f["momentumShift"] = flag(greater(hist, prevHist) && greater(rsi, prevRSI) && greater(pdi, mdi))

	return f
}

func valueAt(series []null.Float, i int) null.Float {
	if i < 0 || i >= len(series) {
		return null.Float{}
	}
	return series[i]
}

// flag encodes a condition as 1/0; conditions on missing inputs are 0
func flag(b bool) null.Float {
	if b {
		return null.FloatFrom(1)
	}
	return null.FloatFrom(0)
}

func greater(a, b null.Float) bool {
	return a.Valid && b.Valid && a.Float64 > b.Float64
}

// distance is the percent gap between a close and a moving average
func distance(px float64, ma null.Float) null.Float {
	if !ma.Valid || ma.Float64 == 0 {
		return null.Float{}
	}
	return null.FloatFrom((px - ma.Float64) / ma.Float64 * 100)
}

func volumeRatio(bar contracts.PriceBar, avg null.Float) null.Float {
	if !avg.Valid {
		return null.Float{}
	}
	if avg.Float64 == 0 {
		return null.FloatFrom(1)
	}
	return null.FloatFrom(float64(bar.Volume) / avg.Float64)
}

// sign encodes a change as 1, -1 or 0; a missing change stays null
func sign(v null.Float) null.Float {
	switch {
	case !v.Valid:
		return null.Float{}
	case v.Float64 > 0:
		return null.FloatFrom(1)
	case v.Float64 < 0:
		return null.FloatFrom(-1)
	default:
		return null.FloatFrom(0)
	}
}

func atLeastCount(conds ...bool) int {
	n := 0
	for _, c := range conds {
		if c {
			n++
		}
	}
	return n
}
