package contracts

import "github.com/guregu/null/v6"

// IndicatorSet is the Indicator Engine output for one PriceSeries
// ⭐ SSOT: 모든 시리즈는 PriceSeries.Bars 와 index 1:1 정렬 (앞쪽 warm-up 구간은 null)
type IndicatorSet struct {
	Current IndicatorSnapshot `json:"current"`
	Series  IndicatorSeries   `json:"series"`
}

// IndicatorSeries holds every indicator as a full-length, null-padded series
type IndicatorSeries struct {
	SMA20      []null.Float     `json:"sma20"`
	SMA50      []null.Float     `json:"sma50"`
	EMA12      []null.Float     `json:"ema12"`
	EMA26      []null.Float     `json:"ema26"`
	RSI        []null.Float     `json:"rsi"`
	MACD       MACDSeries       `json:"macd"`
	Bollinger  BollingerSeries  `json:"bollingerBands"`
	Stochastic StochasticSeries `json:"stochastic"`
	ADX        ADXSeries        `json:"adx"`
	ATR        []null.Float     `json:"atr"`
	OBV        []null.Float     `json:"obv"`
	Extended   ExtendedSeries   `json:"extended"`
}

// MACDSeries is MACD(12,26,9)
type MACDSeries struct {
	Line      []null.Float `json:"macd"`
	Signal    []null.Float `json:"signal"`
	Histogram []null.Float `json:"histogram"`
}

// BollingerSeries is Bollinger Bands(20, 2σ)
type BollingerSeries struct {
	Upper  []null.Float `json:"upper"`
	Middle []null.Float `json:"middle"`
	Lower  []null.Float `json:"lower"`
}

// StochasticSeries is Stochastic(14,3)
type StochasticSeries struct {
	K []null.Float `json:"k"`
	D []null.Float `json:"d"`
}

// ADXSeries is ADX(14) with its directional indicators
type ADXSeries struct {
	ADX     []null.Float `json:"adx"`
	PlusDI  []null.Float `json:"pdi"`
	MinusDI []null.Float `json:"mdi"`
}

// ExtendedSeries holds the secondary indicators used as dataset features
type ExtendedSeries struct {
	SMA5          []null.Float `json:"sma5"`
	SMA10         []null.Float `json:"sma10"`
	EMA5          []null.Float `json:"ema5"`
	EMA10         []null.Float `json:"ema10"`
	EMA21         []null.Float `json:"ema21"`
	EMA21High     []null.Float `json:"ema21High"` // EMA(21) of highs
	EMA21Low      []null.Float `json:"ema21Low"`  // EMA(21) of lows
	WilliamsR     []null.Float `json:"williamsR"`
	CCI           []null.Float `json:"cci"`
	MFI           []null.Float `json:"mfi"`
	ROC           []null.Float `json:"roc"`
	Momentum      []null.Float `json:"momentum"`
	PSAR          []null.Float `json:"psar"`
	PricePosition []null.Float `json:"pricePosition"` // close within the 20-bar high/low range, 0..100
	VolumeSMA20   []null.Float `json:"volumeSma20"`
}

// IndicatorSnapshot is every indicator value at one bar index
type IndicatorSnapshot struct {
	Date       string          `json:"date,omitempty"`
	Price      null.Float      `json:"price"`
	Volume     null.Float      `json:"volume"`
	SMA20      null.Float      `json:"sma20"`
	SMA50      null.Float      `json:"sma50"`
	EMA12      null.Float      `json:"ema12"`
	EMA26      null.Float      `json:"ema26"`
	RSI        null.Float      `json:"rsi"`
	MACD       MACDValue       `json:"macd"`
	Bollinger  BollingerValue  `json:"bollingerBands"`
	Stochastic StochasticValue `json:"stochastic"`
	ADX        ADXValue        `json:"adx"`
	ATR        null.Float      `json:"atr"`
	OBV        null.Float      `json:"obv"`
}

// MACDValue is one MACD point
type MACDValue struct {
	Line      null.Float `json:"macd"`
	Signal    null.Float `json:"signal"`
	Histogram null.Float `json:"histogram"`
}

// BollingerValue is one Bollinger point
type BollingerValue struct {
	Upper  null.Float `json:"upper"`
	Middle null.Float `json:"middle"`
	Lower  null.Float `json:"lower"`
}

// StochasticValue is one Stochastic point
type StochasticValue struct {
	K null.Float `json:"k"`
	D null.Float `json:"d"`
}

// ADXValue is one ADX point
type ADXValue struct {
	ADX     null.Float `json:"adx"`
	PlusDI  null.Float `json:"pdi"`
	MinusDI null.Float `json:"mdi"`
}

// SignalType is BUY or SELL
type SignalType string

const (
	SignalBuy  SignalType = "BUY"
	SignalSell SignalType = "SELL"
)

// Signal is a discrete trading assertion derived from the current snapshot
type Signal struct {
	Type      SignalType `json:"type"`
	Indicator string     `json:"indicator"`
	Reason    string     `json:"reason"`
}
