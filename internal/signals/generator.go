package signals

import (
	"fmt"

	"github.com/guregu/null/v6"

	"github.com/wonny/idxscreen/internal/contracts"
)

// Fixed thresholds
const (
	rsiOversold     = 30.0
	rsiOverbought   = 70.0
	stochOversold   = 20.0
	stochOverbought = 80.0
)

// rule emits at most one signal from the current snapshot
type rule func(cur contracts.IndicatorSnapshot) (contracts.Signal, bool)

// rules run in this order; output preserves it
var rules = []rule{rsiRule, macdRule, maRule, bollingerRule, stochasticRule}

// Generate derives BUY/SELL signals from the latest indicator values.
// A rule whose inputs are null is skipped.
// ⭐ SSOT: 매매 신호 판정은 여기서만
func Generate(cur contracts.IndicatorSnapshot) []contracts.Signal {
	out := make([]contracts.Signal, 0, len(rules))
	for _, r := range rules {
		if sig, ok := r(cur); ok {
			out = append(out, sig)
		}
	}
	return out
}

func valid(values ...null.Float) bool {
	for _, v := range values {
		if !v.Valid {
			return false
		}
	}
	return true
}

func buy(indicator, reason string) (contracts.Signal, bool) {
	return contracts.Signal{Type: contracts.SignalBuy, Indicator: indicator, Reason: reason}, true
}

func sell(indicator, reason string) (contracts.Signal, bool) {
	return contracts.Signal{Type: contracts.SignalSell, Indicator: indicator, Reason: reason}, true
}

func rsiRule(cur contracts.IndicatorSnapshot) (contracts.Signal, bool) {
	if !valid(cur.RSI) {
		return contracts.Signal{}, false
	}
	switch rsi := cur.RSI.Float64; {
	case rsi < rsiOversold:
		return buy("RSI", fmt.Sprintf("RSI oversold at %.2f", rsi))
	case rsi > rsiOverbought:
		return sell("RSI", fmt.Sprintf("RSI overbought at %.2f", rsi))
	}
	return contracts.Signal{}, false
}

func macdRule(cur contracts.IndicatorSnapshot) (contracts.Signal, bool) {
	m := cur.MACD
	if !valid(m.Line, m.Signal, m.Histogram) {
		return contracts.Signal{}, false
	}
	switch {
	case m.Line.Float64 > m.Signal.Float64 && m.Histogram.Float64 > 0:
		return buy("MACD", "MACD bullish crossover")
	case m.Line.Float64 < m.Signal.Float64 && m.Histogram.Float64 < 0:
		return sell("MACD", "MACD bearish crossover")
	}
	return contracts.Signal{}, false
}

func maRule(cur contracts.IndicatorSnapshot) (contracts.Signal, bool) {
	if !valid(cur.Price, cur.SMA20, cur.SMA50) {
		return contracts.Signal{}, false
	}
	price, sma20, sma50 := cur.Price.Float64, cur.SMA20.Float64, cur.SMA50.Float64
	switch {
	case price > sma20 && sma20 > sma50:
		return buy("MA", "Price above SMA20 > SMA50 (uptrend)")
	case price < sma20 && sma20 < sma50:
		return sell("MA", "Price below SMA20 < SMA50 (downtrend)")
	}
	return contracts.Signal{}, false
}

func bollingerRule(cur contracts.IndicatorSnapshot) (contracts.Signal, bool) {
	bb := cur.Bollinger
	if !valid(cur.Price, bb.Upper, bb.Lower) {
		return contracts.Signal{}, false
	}
	switch {
	case cur.Price.Float64 < bb.Lower.Float64:
		return buy("BB", "Price below lower Bollinger Band")
	case cur.Price.Float64 > bb.Upper.Float64:
		return sell("BB", "Price above upper Bollinger Band")
	}
	return contracts.Signal{}, false
}

func stochasticRule(cur contracts.IndicatorSnapshot) (contracts.Signal, bool) {
	st := cur.Stochastic
	if !valid(st.K, st.D) {
		return contracts.Signal{}, false
	}
	k, d := st.K.Float64, st.D.Float64
	switch {
	case k < stochOversold && d < stochOversold:
		return buy("Stoch", "Stochastic oversold")
	case k > stochOverbought && d > stochOverbought:
		return sell("Stoch", "Stochastic overbought")
	}
	return contracts.Signal{}, false
}
