package dataset

import (
	"fmt"
	"time"

	"github.com/guregu/null/v6"

	"github.com/wonny/idxscreen/internal/contracts"
)

// ForDate returns the features a model would see when predicting targetDate.
//
// A date after the last bar is treated as the next session: features come
// from the last bar and no actual data is attached. Otherwise H is the bar
// on targetDate (or the first one after it) and features come from H-1.
func ForDate(series *contracts.PriceSeries, set *contracts.IndicatorSet, targetDate string) (*contracts.FeatureSnapshot, error) {
	if _, err := time.Parse(dateLayout, targetDate); err != nil {
		return nil, contracts.NewValidationError("date", "must be YYYY-MM-DD, got %q", targetDate)
	}
	n := series.Len()
	if n == 0 || set == nil {
		return nil, fmt.Errorf("%w: no bars", contracts.ErrInsufficientHistory)
	}

	bars := series.Bars
	snap := &contracts.FeatureSnapshot{
		Symbol:     series.Symbol,
		TargetDate: targetDate,
		Timeframe:  1,
	}

	if targetDate > bars[n-1].Date {
		if n < minLabelIndex {
			return nil, fmt.Errorf("%w: need at least %d bars", contracts.ErrInsufficientHistory, minLabelIndex)
		}
		p := n - 1
		snap.IsFutureDate = true
		snap.IndicatorDate = bars[p].Date
		snap.Features = BuildFeatures(series, set, p)
		return snap, nil
	}

	idx := targetIndex(bars, targetDate)
	if idx < minLabelIndex {
		return nil, fmt.Errorf("%w for %s", contracts.ErrInsufficientHistory, targetDate)
	}

	p := idx - 1
	actual := bars[idx]
	snap.TargetDate = actual.Date
	snap.IndicatorDate = bars[p].Date
	snap.Features = BuildFeatures(series, set, p)
	snap.Actual = &actual
	if prev := bars[p].Close; prev != 0 {
		snap.ActualReturn = null.FloatFrom((actual.Close - prev) / prev * 100)
	}
	return snap, nil
}

// targetIndex finds the exact date or the first bar after it; the caller
// guarantees targetDate is not past the last bar
func targetIndex(bars []contracts.PriceBar, targetDate string) int {
	for i, b := range bars {
		if b.Date >= targetDate {
			return i
		}
	}
	return len(bars) - 1
}
