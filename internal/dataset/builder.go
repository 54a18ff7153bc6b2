package dataset

import (
	"sort"
	"time"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/idxscreen/internal/contracts"
)

const dateLayout = "2006-01-02"

// minLabelIndex is the first bar that can be labelled: features read H-1 and H-2
const minLabelIndex = 2

// ValidateOptions checks date formats and threshold ordering
func ValidateOptions(opts contracts.DatasetOptions) error {
	for field, v := range map[string]string{"startDate": opts.StartDate, "endDate": opts.EndDate} {
		if v == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, v); err != nil {
			return contracts.NewValidationError(field, "must be YYYY-MM-DD, got %q", v)
		}
	}
	if opts.StartDate != "" && opts.EndDate != "" && opts.StartDate > opts.EndDate {
		return contracts.NewValidationError("startDate", "must not be after endDate")
	}
	if opts.UpThreshold < opts.DownThreshold {
		return contracts.NewValidationError("upThreshold", "must be >= downThreshold")
	}
	return nil
}

// Build labels every bar in range with the next-day direction and attaches
// the features of the previous bar. Rows whose RSI or MACD line is still
// warming up at H-1 are skipped.
func Build(series *contracts.PriceSeries, set *contracts.IndicatorSet, opts contracts.DatasetOptions) ([]contracts.DatasetRow, error) {
	if err := ValidateOptions(opts); err != nil {
		return nil, err
	}
	if series.Len() <= minLabelIndex || set == nil {
		return []contracts.DatasetRow{}, nil
	}

	bars := series.Bars
	rows := make([]contracts.DatasetRow, 0, len(bars))
	for i := minLabelIndex; i < len(bars); i++ {
		bar := bars[i]
		if !inRange(bar.Date, opts) {
			continue
		}

		prevClose := bars[i-1].Close
		if prevClose == 0 {
			continue
		}
		ret := (bar.Close - prevClose) / prevClose * 100

		target := Label(ret, opts)
		if target == contracts.TargetNeutral && !opts.IncludeNeutral {
			continue
		}

		p := i - 1
		if !valueAt(set.Series.RSI, p).Valid || !valueAt(set.Series.MACD.Line, p).Valid {
			continue
		}

		rows = append(rows, contracts.DatasetRow{
			Symbol:        series.Symbol,
			Date:          bar.Date,
			IndicatorDate: bars[p].Date,
			Close:         bar.Close,
			Return:        ret,
			Target:        target,
			Features:      BuildFeatures(series, set, p),
		})
	}
	return rows, nil
}

// Label maps a percent return to up / down / neutral
func Label(ret float64, opts contracts.DatasetOptions) int {
	switch {
	case ret >= opts.UpThreshold:
		return contracts.TargetUp
	case ret <= opts.DownThreshold:
		return contracts.TargetDown
	default:
		return contracts.TargetNeutral
	}
}

func inRange(date string, opts contracts.DatasetOptions) bool {
	if opts.StartDate != "" && date < opts.StartDate {
		return false
	}
	if opts.EndDate != "" && date > opts.EndDate {
		return false
	}
	return true
}

// SortRows orders rows by symbol, then date
func SortRows(rows []contracts.DatasetRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Symbol != rows[j].Symbol {
			return rows[i].Symbol < rows[j].Symbol
		}
		return rows[i].Date < rows[j].Date
	})
}

// Summarize describes a sorted multi-symbol dataset
func Summarize(rows []contracts.DatasetRow, processed []string, failed []contracts.SymbolError) contracts.DatasetSummary {
	summary := contracts.DatasetSummary{
		TotalRows: len(rows),
		TargetCounts: map[string]int{
			"up":      0,
			"down":    0,
			"neutral": 0,
		},
		SymbolsProcessed: processed,
		SymbolsFailed:    failed,
		FeatureNames:     FeatureNames,
	}
	if summary.SymbolsProcessed == nil {
		summary.SymbolsProcessed = []string{}
	}
	if summary.SymbolsFailed == nil {
		summary.SymbolsFailed = []contracts.SymbolError{}
	}
	if len(rows) == 0 {
		return summary
	}

	returns := make([]float64, len(rows))
	for i, row := range rows {
		returns[i] = row.Return
		switch row.Target {
		case contracts.TargetUp:
			summary.TargetCounts["up"]++
		case contracts.TargetDown:
			summary.TargetCounts["down"]++
		default:
			summary.TargetCounts["neutral"]++
		}
		if summary.StartDate == "" || row.Date < summary.StartDate {
			summary.StartDate = row.Date
		}
		if row.Date > summary.EndDate {
			summary.EndDate = row.Date
		}
	}

	mean, std := stat.MeanStdDev(returns, nil)
	summary.MeanReturn = null.FloatFrom(mean)
	if len(returns) > 1 {
		summary.StdDevReturn = null.FloatFrom(std)
	}
	return summary
}
