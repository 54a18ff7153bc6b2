package pipeline

import (
	"context"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/internal/risk"
	"github.com/wonny/idxscreen/internal/signals"
)

// Compare reports price performance for at least two symbols over one range
func (s *Service) Compare(ctx context.Context, symbols []string, rng string) ([]contracts.CompareEntry, error) {
	if err := requireSymbols(symbols, 2); err != nil {
		return nil, err
	}

	out := make([]contracts.CompareEntry, len(symbols))
	s.forEach(ctx, symbols, func(ctx context.Context, i int, symbol string) {
		entry := contracts.CompareEntry{Symbol: displaySymbol(symbol)}

		series, err := s.market.FetchResampled(ctx, symbol, rng, "1d")
		if err != nil {
			entry.Error = err.Error()
			out[i] = entry
			return
		}
		perf, err := performance(series)
		if err != nil {
			entry.Error = err.Error()
			out[i] = entry
			return
		}

		set := s.engine.Compute(series)
		entry.Performance = perf
		entry.Indicators = &set.Current
		entry.Signals = signals.Generate(set.Current)
		out[i] = entry
	})

	return out, nil
}

// performance measures first-to-last close return, daily return volatility
// and, with enough history, one-day VaR and max drawdown
func performance(series *contracts.PriceSeries) (*contracts.Performance, error) {
	n := series.Len()
	if n < 2 {
		return nil, insufficient(n, 2)
	}

	bars := series.Bars
	first, last := bars[0], bars[n-1]
	perf := &contracts.Performance{
		StartDate:  first.Date,
		EndDate:    last.Date,
		StartPrice: first.Close,
		EndPrice:   last.Close,
		High:       first.High,
		Low:        first.Low,
		Bars:       n,
	}
	if first.Close != 0 {
		perf.ReturnPercent = (last.Close - first.Close) / first.Close * 100
	}

	closes := make([]float64, n)
	for i, b := range bars {
		perf.High = max(perf.High, b.High)
		perf.Low = min(perf.Low, b.Low)
		closes[i] = b.Close
	}
	if returns := risk.PercentReturns(closes); len(returns) > 1 {
		perf.Volatility = null.FloatFrom(stat.StdDev(returns, nil))
	}
	perf.Risk = risk.Measure(closes, risk.DefaultConfidence)
	return perf, nil
}
