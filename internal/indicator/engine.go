package indicator

import (
	"github.com/guregu/null/v6"
	"github.com/markcheno/go-talib"

	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/pkg/logger"
)

// Engine computes the indicator set of a price series
// ⭐ SSOT: 지표 계산은 여기서만 (talib wrapper)
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a new indicator engine
func NewEngine(log *logger.Logger) *Engine {
	return &Engine{logger: log}
}

// Compute returns every indicator aligned 1:1 with series.Bars.
// An empty or short series yields null-filled series; Compute never fails.
func (e *Engine) Compute(series *contracts.PriceSeries) *contracts.IndicatorSet {
	n := series.Len()
	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()

	s := contracts.IndicatorSeries{
		SMA20: trimmed(n, lookbackSMA20, func() []float64 { return talib.Sma(closes, 20) }),
		SMA50: trimmed(n, lookbackSMA50, func() []float64 { return talib.Sma(closes, 50) }),
		EMA12: trimmed(n, lookbackEMA12, func() []float64 { return talib.Ema(closes, 12) }),
		EMA26: trimmed(n, lookbackEMA26, func() []float64 { return talib.Ema(closes, 26) }),
		RSI:   trimmed(n, lookbackRSI14, func() []float64 { return talib.Rsi(closes, 14) }),
		MACD:  macd(closes),
		ATR:   trimmed(n, lookbackATR14, func() []float64 { return talib.Atr(highs, lows, closes, 14) }),
		OBV:   obv(closes, volumes),
	}

	s.Bollinger = bollinger(closes)
	s.Stochastic = stochastic(highs, lows, closes)
	s.ADX = contracts.ADXSeries{
		ADX:     trimmed(n, lookbackADX14, func() []float64 { return talib.Adx(highs, lows, closes, 14) }),
		PlusDI:  trimmed(n, lookbackDI14, func() []float64 { return talib.PlusDI(highs, lows, closes, 14) }),
		MinusDI: trimmed(n, lookbackDI14, func() []float64 { return talib.MinusDI(highs, lows, closes, 14) }),
	}
	s.Extended = extended(highs, lows, closes, volumes)

	set := &contracts.IndicatorSet{Series: s}
	set.Current = Snapshot(series, set, n-1)

	if e.logger != nil && n > 0 {
		e.logger.WithFields(map[string]interface{}{
			"symbol": series.Symbol,
			"bars":   n,
		}).Debug("Computed indicators")
	}
	return set
}

// macd composes MACD(12,26,9) from two EMAs so each output keeps its own warm-up
func macd(closes []float64) contracts.MACDSeries {
	n := len(closes)
	out := contracts.MACDSeries{
		Line:      nulls(n),
		Signal:    nulls(n),
		Histogram: nulls(n),
	}
	if n <= lookbackEMA26 {
		return out
	}

	fast := talib.Ema(closes, 12)[lookbackEMA12:]
	slow := talib.Ema(closes, 26)[lookbackEMA26:]
	skip := lookbackEMA26 - lookbackEMA12

	line := make([]float64, len(slow))
	for i := range slow {
		line[i] = fast[i+skip] - slow[i]
	}
	out.Line = pad(line, n)

	if len(line) <= lookbackMACDSig {
		return out
	}
	signal := talib.Ema(line, 9)[lookbackMACDSig:]
	hist := make([]float64, len(signal))
	for i := range signal {
		hist[i] = line[i+lookbackMACDSig] - signal[i]
	}
	out.Signal = pad(signal, n)
	out.Histogram = pad(hist, n)
	return out
}

func bollinger(closes []float64) contracts.BollingerSeries {
	n := len(closes)
	if n <= lookbackBB20 {
		return contracts.BollingerSeries{Upper: nulls(n), Middle: nulls(n), Lower: nulls(n)}
	}

	upper, middle, lower := talib.BBands(closes, 20, 2, 2, talib.SMA)
	return contracts.BollingerSeries{
		Upper:  pad(upper[lookbackBB20:], n),
		Middle: pad(middle[lookbackBB20:], n),
		Lower:  pad(lower[lookbackBB20:], n),
	}
}

func stochastic(highs, lows, closes []float64) contracts.StochasticSeries {
	n := len(closes)
	if n <= lookbackStoch {
		return contracts.StochasticSeries{K: nulls(n), D: nulls(n)}
	}

	k, d := talib.StochF(highs, lows, closes, 14, 3, talib.SMA)
	return contracts.StochasticSeries{
		K: pad(k[lookbackStoch:], n),
		D: pad(d[lookbackStoch:], n),
	}
}

// obv is cumulative on-balance volume starting at 0 on the first bar.
// talib seeds the running total with the first bar's volume.
func obv(closes, volumes []float64) []null.Float {
	n := len(closes)
	if n == 0 {
		return nulls(0)
	}

	raw := talib.Obv(closes, volumes)
	compact := make([]float64, n)
	for i, v := range raw {
		compact[i] = v - volumes[0]
	}
	return pad(compact, n)
}

func extended(highs, lows, closes, volumes []float64) contracts.ExtendedSeries {
	n := len(closes)
	return contracts.ExtendedSeries{
		SMA5:          trimmed(n, lookbackSMA5, func() []float64 { return talib.Sma(closes, 5) }),
		SMA10:         trimmed(n, lookbackSMA10, func() []float64 { return talib.Sma(closes, 10) }),
		EMA5:          trimmed(n, lookbackEMA5, func() []float64 { return talib.Ema(closes, 5) }),
		EMA10:         trimmed(n, lookbackEMA10, func() []float64 { return talib.Ema(closes, 10) }),
		EMA21:         trimmed(n, lookbackEMA21, func() []float64 { return talib.Ema(closes, 21) }),
		EMA21High:     trimmed(n, lookbackEMA21, func() []float64 { return talib.Ema(highs, 21) }),
		EMA21Low:      trimmed(n, lookbackEMA21, func() []float64 { return talib.Ema(lows, 21) }),
		WilliamsR:     trimmed(n, lookbackWillR14, func() []float64 { return talib.WillR(highs, lows, closes, 14) }),
		CCI:           trimmed(n, lookbackCCI20, func() []float64 { return talib.Cci(highs, lows, closes, 20) }),
		MFI:           trimmed(n, lookbackMFI14, func() []float64 { return talib.Mfi(highs, lows, closes, volumes, 14) }),
		ROC:           trimmed(n, lookbackROC10, func() []float64 { return talib.Roc(closes, 10) }),
		Momentum:      trimmed(n, lookbackMom10, func() []float64 { return talib.Mom(closes, 10) }),
		PSAR:          trimmed(n, lookbackSAR, func() []float64 { return talib.Sar(highs, lows, 0.02, 0.2) }),
		PricePosition: pricePosition(highs, lows, closes),
		VolumeSMA20:   trimmed(n, lookbackSMA20, func() []float64 { return talib.Sma(volumes, 20) }),
	}
}

// pricePosition places each close inside its 20-bar high/low range (0 = low, 100 = high).
// A flat range has no position and stays null.
func pricePosition(highs, lows, closes []float64) []null.Float {
	n := len(closes)
	out := nulls(n)
	if n <= lookbackRange20 {
		return out
	}

	hh := talib.Max(highs, 20)
	ll := talib.Min(lows, 20)
	for i := lookbackRange20; i < n; i++ {
		if span := hh[i] - ll[i]; span > 0 {
			out[i] = null.FloatFrom((closes[i] - ll[i]) / span * 100)
		}
	}
	return out
}

// Snapshot reads every core indicator at bar index i.
// Out-of-range indexes give an all-null snapshot.
func Snapshot(series *contracts.PriceSeries, set *contracts.IndicatorSet, i int) contracts.IndicatorSnapshot {
	var snap contracts.IndicatorSnapshot
	if i < 0 || i >= series.Len() {
		return snap
	}

	bar := series.Bars[i]
	s := set.Series
	snap.Date = bar.Date
	snap.Price = null.FloatFrom(bar.Close)
	snap.Volume = null.FloatFrom(float64(bar.Volume))
	snap.SMA20 = at(s.SMA20, i)
	snap.SMA50 = at(s.SMA50, i)
	snap.EMA12 = at(s.EMA12, i)
	snap.EMA26 = at(s.EMA26, i)
	snap.RSI = at(s.RSI, i)
	snap.MACD = contracts.MACDValue{
		Line:      at(s.MACD.Line, i),
		Signal:    at(s.MACD.Signal, i),
		Histogram: at(s.MACD.Histogram, i),
	}
	snap.Bollinger = contracts.BollingerValue{
		Upper:  at(s.Bollinger.Upper, i),
		Middle: at(s.Bollinger.Middle, i),
		Lower:  at(s.Bollinger.Lower, i),
	}
	snap.Stochastic = contracts.StochasticValue{
		K: at(s.Stochastic.K, i),
		D: at(s.Stochastic.D, i),
	}
	snap.ADX = contracts.ADXValue{
		ADX:     at(s.ADX.ADX, i),
		PlusDI:  at(s.ADX.PlusDI, i),
		MinusDI: at(s.ADX.MinusDI, i),
	}
	snap.ATR = at(s.ATR, i)
	snap.OBV = at(s.OBV, i)
	return snap
}
