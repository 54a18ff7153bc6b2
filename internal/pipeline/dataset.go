package pipeline

import (
	"context"

	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/internal/dataset"
	"github.com/wonny/idxscreen/internal/marketdata"
)

const (
	// datasetRange is fetched so indicators are warm well before the labelled window
	datasetRange = "1y"

	// minDatasetBars is the history a symbol needs to enter a dataset or a feature lookup
	minDatasetBars = 60
)

// FeatureRequest is the input of Features.
// Realtime merges today's quote into the last bar when Date is the
// current exchange date.
type FeatureRequest struct {
	Symbol    string
	Date      string
	Timeframe int
	Realtime  bool
}

// DatasetRequest is the input of RegressionData
type DatasetRequest struct {
	Symbols []string                 `json:"symbols"`
	Options contracts.DatasetOptions `json:"options"`
}

// RegressionData builds a labelled dataset across symbols, sorted by symbol
// then date. Symbols with too little history are reported in the summary.
func (s *Service) RegressionData(ctx context.Context, req DatasetRequest) (*contracts.Dataset, error) {
	if err := requireSymbols(req.Symbols, 1); err != nil {
		return nil, err
	}
	if err := dataset.ValidateOptions(req.Options); err != nil {
		return nil, err
	}

	perSymbol := make([][]contracts.DatasetRow, len(req.Symbols))
	failures := make([]*contracts.SymbolError, len(req.Symbols))

	s.forEach(ctx, req.Symbols, func(ctx context.Context, i int, symbol string) {
		rows, err := s.datasetFor(ctx, symbol, req.Options)
		if err != nil {
			fail := symbolError(symbol, err)
			failures[i] = &fail
			return
		}
		perSymbol[i] = rows
	})

	rows := make([]contracts.DatasetRow, 0)
	processed := make([]string, 0, len(req.Symbols))
	failed := make([]contracts.SymbolError, 0)
	for i, symbol := range req.Symbols {
		if failures[i] != nil {
			failed = append(failed, *failures[i])
			continue
		}
		processed = append(processed, displaySymbol(symbol))
		rows = append(rows, perSymbol[i]...)
	}
	dataset.SortRows(rows)

	s.logger.WithFields(map[string]interface{}{
		"symbols": len(req.Symbols),
		"failed":  len(failed),
		"rows":    len(rows),
	}).Info("Regression dataset built")

	return &contracts.Dataset{
		Rows:    rows,
		Summary: dataset.Summarize(rows, processed, failed),
	}, nil
}

func (s *Service) datasetFor(ctx context.Context, symbol string, opts contracts.DatasetOptions) ([]contracts.DatasetRow, error) {
	series, err := s.market.FetchResampled(ctx, symbol, datasetRange, "1d")
	if err != nil {
		return nil, err
	}
	if series.Len() < minDatasetBars {
		return nil, insufficient(series.Len(), minDatasetBars)
	}

	rows, err := dataset.Build(series, s.engine.Compute(series), opts)
	if err != nil {
		return nil, err
	}
	display := displaySymbol(s.market.Display(series.Symbol))
	for i := range rows {
		rows[i].Symbol = display
	}
	return rows, nil
}

// Features returns the look-ahead-free feature row for targetDate.
// timeframe > 1 aggregates every timeframe sessions into one bar first.
func (s *Service) Features(ctx context.Context, req FeatureRequest) (*contracts.FeatureSnapshot, error) {
	if displaySymbol(req.Symbol) == "" {
		return nil, contracts.NewValidationError("symbol", "please provide a stock symbol")
	}
	if req.Date == "" {
		return nil, contracts.NewValidationError("date", "please provide a target date")
	}
	timeframe := req.Timeframe
	if timeframe < 1 {
		timeframe = 1
	}

	series, err := s.market.FetchResampled(ctx, req.Symbol, datasetRange, "1d")
	if err != nil {
		return nil, err
	}
	if series.Len() < minDatasetBars {
		return nil, insufficient(series.Len(), minDatasetBars)
	}

	live := false
	if today := marketdata.ExchangeDate(s.now()); req.Realtime && req.Date == today {
		series, live = s.mergeLiveQuote(ctx, series, today)
	}
	if timeframe > 1 {
		series = marketdata.ResampleDays(series, timeframe)
	}

	snap, err := dataset.ForDate(series, s.engine.Compute(series), req.Date)
	if err != nil {
		return nil, err
	}
	snap.Symbol = s.market.Display(series.Symbol)
	snap.Timeframe = timeframe
	snap.Realtime = live
	return snap, nil
}

// mergeLiveQuote folds today's quote into the daily history.
// A quote failure leaves the history as it is.
func (s *Service) mergeLiveQuote(ctx context.Context, series *contracts.PriceSeries, today string) (*contracts.PriceSeries, bool) {
	quote, err := s.market.FetchQuote(ctx, series.Symbol)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("symbol", series.Symbol).Warn("live quote unavailable, using closed bars")
		return series, false
	}
	return marketdata.MergeQuote(series, quote, today)
}
