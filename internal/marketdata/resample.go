package marketdata

import (
	"fmt"
	"time"

	"github.com/wonny/idxscreen/internal/contracts"
)

// IsResampleInterval reports whether interval is built locally from daily bars
func IsResampleInterval(interval string) bool {
	return interval == "1wk" || interval == "1mo"
}

// Resample aggregates daily bars into ISO weeks ("1wk") or calendar months ("1mo").
// Each output bar carries the date of the last session in its period.
func Resample(series *contracts.PriceSeries, interval string) (*contracts.PriceSeries, error) {
	var period func(time.Time) string
	switch interval {
	case "1d", "":
		return series, nil
	case "1wk":
		period = func(t time.Time) string {
			y, w := t.ISOWeek()
			return fmt.Sprintf("%d-W%02d", y, w)
		}
	case "1mo":
		period = func(t time.Time) string { return t.Format("2006-01") }
	default:
		return nil, contracts.NewValidationError("interval", "cannot resample to %q", interval)
	}

	out := cloneMeta(series, interval)
	var (
		current string
		chunk   []contracts.PriceBar
	)
	for _, b := range series.Bars {
		t, err := time.Parse("2006-01-02", b.Date)
		if err != nil {
			return nil, fmt.Errorf("bad bar date %q: %w", b.Date, err)
		}
		key := period(t)
		if key != current && len(chunk) > 0 {
			out.Bars = append(out.Bars, aggregate(chunk))
			chunk = chunk[:0]
		}
		current = key
		chunk = append(chunk, b)
	}
	if len(chunk) > 0 {
		out.Bars = append(out.Bars, aggregate(chunk))
	}
	return out, nil
}

// ResampleDays aggregates every n consecutive sessions into one bar, counting from
// the first bar. n <= 1 returns the series unchanged.
func ResampleDays(series *contracts.PriceSeries, n int) *contracts.PriceSeries {
	if n <= 1 {
		return series
	}

	out := cloneMeta(series, fmt.Sprintf("%dd", n))
	for i := 0; i < series.Len(); i += n {
		end := i + n
		if end > series.Len() {
			end = series.Len()
		}
		out.Bars = append(out.Bars, aggregate(series.Bars[i:end]))
	}
	return out
}

func cloneMeta(series *contracts.PriceSeries, interval string) *contracts.PriceSeries {
	out := *series
	out.Interval = interval
	out.Bars = nil
	return &out
}

func aggregate(chunk []contracts.PriceBar) contracts.PriceBar {
	last := chunk[len(chunk)-1]
	bar := contracts.PriceBar{
		Date:      last.Date,
		Timestamp: last.Timestamp,
		Open:      chunk[0].Open,
		High:      chunk[0].High,
		Low:       chunk[0].Low,
		Close:     last.Close,
	}
	for _, b := range chunk {
		if b.High > bar.High {
			bar.High = b.High
		}
		if b.Low < bar.Low {
			bar.Low = b.Low
		}
		bar.Volume += b.Volume
	}
	return bar
}
