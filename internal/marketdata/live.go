package marketdata

import (
	"math"
	"time"

	"github.com/wonny/idxscreen/internal/contracts"
)

// exchangeZone is IDX local time. WIB has no daylight saving.
var exchangeZone = time.FixedZone("WIB", 7*60*60)

// ExchangeDate returns the YYYY-MM-DD session date of t on the exchange
func ExchangeDate(t time.Time) string {
	return t.In(exchangeZone).Format("2006-01-02")
}

// MergeQuote folds an intraday quote into the bar for date.
// The last bar is patched when it already is date; otherwise a bar is
// appended. series itself is never mutated. The bool reports whether the
// quote was applied.
func MergeQuote(series *contracts.PriceSeries, q *contracts.Quote, date string) (*contracts.PriceSeries, bool) {
	if series == nil || q == nil || !q.Price.Valid || q.Price.Float64 <= 0 || len(series.Bars) == 0 {
		return series, false
	}
	last := series.Bars[len(series.Bars)-1]
	if last.Date > date {
		return series, false
	}

	price := q.Price.Float64
	out := *series
	out.Bars = make([]contracts.PriceBar, len(series.Bars), len(series.Bars)+1)
	copy(out.Bars, series.Bars)

	if last.Date == date {
		bar := &out.Bars[len(out.Bars)-1]
		bar.High = math.Max(bar.High, price)
		bar.Low = math.Min(bar.Low, price)
		bar.Close = price
		if v := int64(q.Volume.ValueOrZero()); v > bar.Volume {
			bar.Volume = v
		}
		return &out, true
	}

	bar := contracts.PriceBar{
		Date:  date,
		Open:  q.Open.ValueOrZero(),
		High:  q.DayHigh.ValueOrZero(),
		Low:   q.DayLow.ValueOrZero(),
		Close: price,
	}
	if bar.Open <= 0 {
		bar.Open = price
	}
	bar.High = math.Max(math.Max(bar.High, bar.Open), price)
	if bar.Low <= 0 {
		bar.Low = price
	}
	bar.Low = math.Min(math.Min(bar.Low, bar.Open), price)
	bar.Volume = int64(q.Volume.ValueOrZero())
	out.Bars = append(out.Bars, bar)
	return &out, true
}
