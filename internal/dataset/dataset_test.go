package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/internal/indicator"
	"github.com/wonny/idxscreen/pkg/logger"
)

// wave builds n consecutive daily bars from 2024-01-01
func wave(n int) *contracts.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &contracts.PriceSeries{Symbol: "TEST.JK"}
	for i := 0; i < n; i++ {
		c := 1000 + 50*math.Sin(float64(i)/4) + float64(i)
		s.Bars = append(s.Bars, contracts.PriceBar{
			Date:   start.AddDate(0, 0, i).Format(dateLayout),
			Open:   c - 2 + float64(i%5),
			High:   c + 6 + float64(i%3),
			Low:    c - 6 - float64(i%2),
			Close:  c,
			Volume: int64(1000 + 37*(i%11)),
		})
	}
	return s
}

func compute(s *contracts.PriceSeries) *contracts.IndicatorSet {
	return indicator.NewEngine(logger.Nop()).Compute(s)
}

func TestBuild_LabelsFromNextDay(t *testing.T) {
	s := wave(120)
	rows, err := Build(s, compute(s), contracts.DefaultDatasetOptions())
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	for _, row := range rows {
		assert.Contains(t, []int{contracts.TargetUp, contracts.TargetDown}, row.Target)
		if row.Target == contracts.TargetUp {
			assert.GreaterOrEqual(t, row.Return, 1.0)
		} else {
			assert.LessOrEqual(t, row.Return, -0.5)
		}
		assert.Less(t, row.IndicatorDate, row.Date)
		assert.Equal(t, "TEST.JK", row.Symbol)
		assert.Len(t, row.Features, len(FeatureNames))
	}
}

func TestBuild_SkipsWarmUp(t *testing.T) {
	s := wave(120)
	rows, err := Build(s, compute(s), contracts.DatasetOptions{IncludeNeutral: true})
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	// MACD line is the last core input to warm up, at index 25
	assert.Equal(t, s.Bars[26].Date, rows[0].Date)
	assert.Equal(t, s.Bars[25].Date, rows[0].IndicatorDate)
	assert.Len(t, rows, 120-26)
}

func TestBuild_NoLookAhead(t *testing.T) {
	full := wave(120)
	rows, err := Build(full, compute(full), contracts.DatasetOptions{IncludeNeutral: true})
	require.NoError(t, err)

	for _, row := range []contracts.DatasetRow{rows[0], rows[len(rows)/2], rows[len(rows)-1]} {
		var i int
		for i = range full.Bars {
			if full.Bars[i].Date == row.Date {
				break
			}
		}
		// only bars up to H-1 are visible
		cut := &contracts.PriceSeries{Symbol: full.Symbol, Bars: full.Bars[:i]}
		want := BuildFeatures(cut, compute(cut), i-1)

		assert.True(t, row.Features["ema21"].Valid, "ema21 at %s", row.Date)
		assert.True(t, row.Features["ema21Low"].Valid, "ema21Low at %s", row.Date)
		assert.True(t, row.Features["pricePosition"].Valid, "pricePosition at %s", row.Date)

		for _, name := range FeatureNames {
			got := row.Features[name]
			assert.Equal(t, want[name].Valid, got.Valid, name)
			if got.Valid {
				assert.InDelta(t, want[name].Float64, got.Float64, 1e-9, name)
			}
		}
	}
}

func TestBuild_IncludeNeutral(t *testing.T) {
	s := wave(120)
	set := compute(s)
	opts := contracts.DatasetOptions{UpThreshold: 1.0, DownThreshold: -0.5}

	strict, err := Build(s, set, opts)
	require.NoError(t, err)

	opts.IncludeNeutral = true
	all, err := Build(s, set, opts)
	require.NoError(t, err)

	assert.Greater(t, len(all), len(strict))
	neutral := 0
	for _, row := range all {
		if row.Target == contracts.TargetNeutral {
			neutral++
			assert.Less(t, row.Return, 1.0)
			assert.Greater(t, row.Return, -0.5)
		}
	}
	assert.Equal(t, len(all)-len(strict), neutral)
}

func TestBuild_DateRange(t *testing.T) {
	s := wave(120)
	opts := contracts.DatasetOptions{StartDate: "2024-02-15", EndDate: "2024-03-01", IncludeNeutral: true}
	rows, err := Build(s, compute(s), opts)
	require.NoError(t, err)

	require.Len(t, rows, 16)
	assert.Equal(t, "2024-02-15", rows[0].Date)
	assert.Equal(t, "2024-03-01", rows[len(rows)-1].Date)
}

func TestBuild_Validation(t *testing.T) {
	s := wave(30)
	set := compute(s)

	tests := []struct {
		name string
		opts contracts.DatasetOptions
	}{
		{"bad start", contracts.DatasetOptions{StartDate: "01/02/2024"}},
		{"bad end", contracts.DatasetOptions{EndDate: "2024-13-01"}},
		{"reversed", contracts.DatasetOptions{StartDate: "2024-03-01", EndDate: "2024-02-01"}},
		{"thresholds", contracts.DatasetOptions{UpThreshold: -1, DownThreshold: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(s, set, tt.opts)
			var ve *contracts.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestBuild_ShortSeries(t *testing.T) {
	s := wave(2)
	rows, err := Build(s, compute(s), contracts.DefaultDatasetOptions())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLabel(t *testing.T) {
	opts := contracts.DefaultDatasetOptions()
	assert.Equal(t, contracts.TargetUp, Label(1.0, opts))
	assert.Equal(t, contracts.TargetUp, Label(4.2, opts))
	assert.Equal(t, contracts.TargetDown, Label(-0.5, opts))
	assert.Equal(t, contracts.TargetNeutral, Label(0, opts))
	assert.Equal(t, contracts.TargetNeutral, Label(0.99, opts))
}

func TestBuildFeatures_CandleShape(t *testing.T) {
	s := &contracts.PriceSeries{Bars: []contracts.PriceBar{
		{Date: "2024-01-01", Open: 100, High: 100, Low: 100, Close: 100, Volume: 10},
		{Date: "2024-01-02", Open: 102, High: 110, Low: 100, Close: 108, Volume: 10},
		{Date: "2024-01-03", Open: 105, High: 105, Low: 105, Close: 105, Volume: 10},
	}}
	set := compute(s)

	f := BuildFeatures(s, set, 1)
	assert.InDelta(t, 0.8, f["closePosition"].Float64, 1e-9)
	assert.InDelta(t, 0.6, f["bodyRangeRatio"].Float64, 1e-9)
	assert.InDelta(t, 0.2, f["upperWickRatio"].Float64, 1e-9)
	assert.InDelta(t, 0.2, f["lowerWickRatio"].Float64, 1e-9)
	assert.Equal(t, 1.0, f["isBullishCandle"].Float64)
	assert.Equal(t, 0.0, f["isDoji"].Float64)
	assert.Equal(t, 1.0, f["gapUp"].Float64)
	assert.InDelta(t, 8.0, f["return1d"].Float64, 1e-9)
	assert.False(t, f["return3d"].Valid)
	// indicators are still warming up: values null, flags 0
	assert.False(t, f["rsi"].Valid)
	assert.Equal(t, 0.0, f["rsiOversold"].Float64)

	flat := BuildFeatures(s, set, 2)
	assert.Equal(t, 0.5, flat["closePosition"].Float64)
	assert.Equal(t, 0.0, flat["isDoji"].Float64)
	assert.Equal(t, 1.0, flat["gapDown"].Float64)
}

func nf(values ...float64) []null.Float {
	out := make([]null.Float, len(values))
	for i, v := range values {
		if !math.IsNaN(v) {
			out[i] = null.FloatFrom(v)
		}
	}
	return out
}

func TestBuildFeatures_TrendAndOscillatorFlags(t *testing.T) {
	nan := math.NaN()
	s := &contracts.PriceSeries{Bars: []contracts.PriceBar{
		{Date: "2024-01-01", Open: 100, High: 101, Low: 99, Close: 100, Volume: 10},
		{Date: "2024-01-02", Open: 101, High: 102, Low: 99, Close: 100, Volume: 10},
		{Date: "2024-01-03", Open: 101, High: 106, Low: 100, Close: 104, Volume: 10},
		{Date: "2024-01-04", Open: 104, High: 107, Low: 103, Close: 106, Volume: 10},
	}}
	set := &contracts.IndicatorSet{Series: contracts.IndicatorSeries{
		MACD: contracts.MACDSeries{
			Line:      nf(nan, 0.5, -1),
			Signal:    nf(nan, 0.4, -0.8),
			Histogram: nf(-3, -2, -0.2),
		},
		Stochastic: contracts.StochasticSeries{K: nf(nan, 15, 30), D: nf(nan, 18, 25)},
		OBV:        nf(0, 500, 300),
		Extended: contracts.ExtendedSeries{
			EMA21:         nf(nan, 101, 102),
			EMA21High:     nf(nan, 103, 105),
			EMA21Low:      nf(nan, 97, 98),
			WilliamsR:     nf(nan, nan, -85),
			CCI:           nf(nan, nan, 120),
			MFI:           nf(nan, nan, 15),
			PricePosition: nf(nan, nan, 66.5),
		},
	}}

	f := BuildFeatures(s, set, 2)

	// EMA21 channel
	assert.Equal(t, 1.0, f["priceCrossAboveEMA21"].Float64)
	assert.Equal(t, 0.0, f["priceCrossBelowEMA21"].Float64)
	assert.Equal(t, 0.0, f["priceCrossUpEMA21High"].Float64)
	assert.Equal(t, 1.0, f["priceAboveEMA21"].Float64)
	assert.Equal(t, 0.0, f["priceAboveEMA21High"].Float64)
	assert.Equal(t, 0.0, f["priceBelowEMA21Low"].Float64)
	assert.InDelta(t, 2.0/102*100, f["distFromEMA21"].Float64, 1e-9)
	assert.InDelta(t, 6.0/98*100, f["distFromEMA21Low"].Float64, 1e-9)
	// no EMA12 computed: value null, flag 0
	assert.False(t, f["ema12"].Valid)
	assert.Equal(t, 0.0, f["priceAboveEMA12"].Float64)

	// MACD
	assert.Equal(t, 1.0, f["macdDeathCross"].Float64)
	assert.Equal(t, 0.0, f["macdGoldenCross"].Float64)
	assert.Equal(t, 0.0, f["macdPositive"].Float64)
	assert.Equal(t, 1.0, f["macdNearGoldenCross"].Float64)
	assert.Equal(t, 1.0, f["macdHistogramConverging"].Float64)
	assert.Equal(t, 1.0, f["macdHistogramRising"].Float64)
	assert.InDelta(t, -25.0, f["macdDistanceToSignal"].Float64, 1e-9)

	// Stochastic
	assert.Equal(t, 1.0, f["stochBullishCross"].Float64)
	assert.Equal(t, 1.0, f["stochGoldenCross"].Float64)
	assert.Equal(t, 1.0, f["stochExitOversold"].Float64)

	// oscillators, OBV, range position
	assert.Equal(t, -1.0, f["obvTrend"].Float64)
	assert.Equal(t, 1.0, f["williamsROversold"].Float64)
	assert.Equal(t, 0.0, f["williamsROverbought"].Float64)
	assert.Equal(t, 1.0, f["cciOverbought"].Float64)
	assert.Equal(t, 1.0, f["mfiOversold"].Float64)
	assert.Equal(t, 66.5, f["pricePosition"].Float64)

	// H-2 is the first bar: histogram history ends at index 0
	early := BuildFeatures(s, set, 1)
	assert.Equal(t, 0.0, early["macdHistogramRising"].Float64)
	assert.Equal(t, 1.0, early["obvTrend"].Float64)
	assert.False(t, BuildFeatures(s, set, 0)["obvTrend"].Valid)
}

func TestForDate(t *testing.T) {
	s := &contracts.PriceSeries{Symbol: "GAP.JK", Bars: []contracts.PriceBar{
		{Date: "2024-01-02", Open: 100, High: 102, Low: 98, Close: 100, Volume: 10},
		{Date: "2024-01-03", Open: 100, High: 104, Low: 99, Close: 103, Volume: 10},
		{Date: "2024-01-05", Open: 103, High: 106, Low: 101, Close: 104, Volume: 10},
		{Date: "2024-01-08", Open: 104, High: 108, Low: 103, Close: 106, Volume: 10},
	}}
	set := compute(s)

	t.Run("exact date", func(t *testing.T) {
		snap, err := ForDate(s, set, "2024-01-05")
		require.NoError(t, err)
		assert.False(t, snap.IsFutureDate)
		assert.Equal(t, "2024-01-05", snap.TargetDate)
		assert.Equal(t, "2024-01-03", snap.IndicatorDate)
		require.NotNil(t, snap.Actual)
		assert.Equal(t, 104.0, snap.Actual.Close)
		assert.InDelta(t, (104.0-103.0)/103.0*100, snap.ActualReturn.Float64, 1e-9)
	})

	t.Run("gap uses next session", func(t *testing.T) {
		snap, err := ForDate(s, set, "2024-01-06")
		require.NoError(t, err)
		assert.Equal(t, "2024-01-08", snap.TargetDate)
		assert.Equal(t, "2024-01-05", snap.IndicatorDate)
	})

	t.Run("future date", func(t *testing.T) {
		snap, err := ForDate(s, set, "2024-02-01")
		require.NoError(t, err)
		assert.True(t, snap.IsFutureDate)
		assert.Equal(t, "2024-02-01", snap.TargetDate)
		assert.Equal(t, "2024-01-08", snap.IndicatorDate)
		assert.Nil(t, snap.Actual)
		assert.False(t, snap.ActualReturn.Valid)
		assert.Equal(t, 106.0, snap.Features["prevClose"].Float64)
	})

	t.Run("too early", func(t *testing.T) {
		for _, d := range []string{"2023-12-01", "2024-01-03"} {
			_, err := ForDate(s, set, d)
			assert.ErrorIs(t, err, contracts.ErrInsufficientHistory, d)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := ForDate(s, set, "Jan 5")
		var ve *contracts.ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestSummarize(t *testing.T) {
	rows := []contracts.DatasetRow{
		{Symbol: "AAA", Date: "2024-01-03", Return: 2, Target: contracts.TargetUp},
		{Symbol: "AAA", Date: "2024-01-04", Return: -1, Target: contracts.TargetDown},
		{Symbol: "BBB", Date: "2024-01-02", Return: 0.2, Target: contracts.TargetNeutral},
		{Symbol: "BBB", Date: "2024-01-05", Return: 1.8, Target: contracts.TargetUp},
	}
	failed := []contracts.SymbolError{{Symbol: "CCC", Error: "boom"}}

	sum := Summarize(rows, []string{"AAA", "BBB"}, failed)
	assert.Equal(t, 4, sum.TotalRows)
	assert.Equal(t, map[string]int{"up": 2, "down": 1, "neutral": 1}, sum.TargetCounts)
	assert.Equal(t, "2024-01-02", sum.StartDate)
	assert.Equal(t, "2024-01-05", sum.EndDate)
	assert.InDelta(t, 0.75, sum.MeanReturn.Float64, 1e-9)
	assert.True(t, sum.StdDevReturn.Valid)
	assert.Equal(t, failed, sum.SymbolsFailed)
	assert.Equal(t, FeatureNames, sum.FeatureNames)

	empty := Summarize(nil, nil, nil)
	assert.Equal(t, 0, empty.TotalRows)
	assert.NotNil(t, empty.SymbolsProcessed)
	assert.False(t, empty.MeanReturn.Valid)
}

func TestSortRows(t *testing.T) {
	rows := []contracts.DatasetRow{
		{Symbol: "BBB", Date: "2024-01-02"},
		{Symbol: "AAA", Date: "2024-01-03"},
		{Symbol: "AAA", Date: "2024-01-02"},
	}
	SortRows(rows)
	assert.Equal(t, "AAA", rows[0].Symbol)
	assert.Equal(t, "2024-01-02", rows[0].Date)
	assert.Equal(t, "2024-01-03", rows[1].Date)
	assert.Equal(t, "BBB", rows[2].Symbol)
}
