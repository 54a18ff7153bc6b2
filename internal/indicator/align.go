package indicator

import "github.com/guregu/null/v6"

// go-talib returns full-length outputs with zeros in the warm-up slots.
// Lookbacks below are the number of leading slots talib leaves unset for the
// periods used by the engine.
const (
	lookbackSMA5    = 4
	lookbackSMA10   = 9
	lookbackSMA20   = 19
	lookbackSMA50   = 49
	lookbackEMA5    = 4
	lookbackEMA10   = 9
	lookbackEMA21   = 20
	lookbackRange20 = 19 // MAX/MIN(20)
	lookbackEMA12   = 11
	lookbackEMA26   = 25
	lookbackRSI14   = 14
	lookbackMACDSig = 8 // EMA(9) over the compact MACD line
	lookbackBB20    = 19
	lookbackStoch   = 15 // fast %K(14) + %D SMA(3)
	lookbackADX14   = 27
	lookbackDI14    = 14
	lookbackATR14   = 14
	lookbackWillR14 = 13
	lookbackCCI20   = 19
	lookbackMFI14   = 14
	lookbackROC10   = 10
	lookbackMom10   = 10
	lookbackSAR     = 1
)

// nulls returns n null values
func nulls(n int) []null.Float {
	return make([]null.Float, n)
}

// pad left-pads a compact series with nulls to length n
func pad(compact []float64, n int) []null.Float {
	out := nulls(n)
	offset := n - len(compact)
	if offset < 0 {
		compact = compact[-offset:]
		offset = 0
	}
	for i, v := range compact {
		out[offset+i] = null.FloatFrom(v)
	}
	return out
}

// trimmed drops talib's warm-up slots and re-aligns the remainder to length n.
// Inputs with n <= lookback never reach talib; the result is all null.
func trimmed(n, lookback int, compute func() []float64) []null.Float {
	if n <= lookback {
		return nulls(n)
	}
	raw := compute()
	return pad(raw[lookback:], n)
}

func at(series []null.Float, i int) null.Float {
	if i < 0 || i >= len(series) {
		return null.Float{}
	}
	return series[i]
}
