package pipeline

import (
	"context"
	"sort"

	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/internal/screening"
	"github.com/wonny/idxscreen/internal/signals"
	"github.com/wonny/idxscreen/internal/strategyconfig"
)

// ScreenRequest is the input of Screen
type ScreenRequest struct {
	Symbols  []string                    `json:"symbols"`
	Criteria contracts.ScreeningCriteria `json:"criteria"`
	Params   contracts.ScreeningParams   `json:"params"`
	Range    string                      `json:"range"`
	Interval string                      `json:"interval"`
	Strategy string                      `json:"strategy"` // optional preset id
}

// Screen scores every symbol against the enabled criteria and returns entries
// sorted by score, highest first. Failed symbols sort as score 0.
// A strategy supplies defaults that explicit request fields override; its
// min score drops scored entries below it.
func (s *Service) Screen(ctx context.Context, req ScreenRequest) ([]contracts.ScreenEntry, error) {
	if err := requireSymbols(req.Symbols, 1); err != nil {
		return nil, err
	}
	req, minScore, err := s.applyStrategy(req)
	if err != nil {
		return nil, err
	}
	if err := screening.Validate(req.Criteria); err != nil {
		return nil, err
	}

	out := make([]contracts.ScreenEntry, len(req.Symbols))
	s.forEach(ctx, req.Symbols, func(ctx context.Context, i int, symbol string) {
		item, err := s.screenOne(ctx, symbol, req)
		if err != nil {
			s.logger.WithError(err).WithField("symbol", symbol).Warn("Screening failed")
			out[i] = contracts.ScreenEntry{Symbol: displaySymbol(symbol), Error: err.Error()}
			return
		}
		out[i] = contracts.ScreenEntry{Symbol: displaySymbol(symbol), ScreenItem: item}
	})

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score() > out[b].Score()
	})

	if minScore > 0 {
		kept := out[:0]
		for _, e := range out {
			if e.ScreenItem == nil || e.Score() >= minScore {
				kept = append(kept, e)
			}
		}
		out = kept
	}
	return out, nil
}

// applyStrategy merges the named strategy into req
func (s *Service) applyStrategy(req ScreenRequest) (ScreenRequest, float64, error) {
	if req.Strategy == "" {
		return req, 0, nil
	}
	var (
		strategy strategyconfig.Strategy
		ok       bool
	)
	if s.strategies != nil {
		strategy, ok = s.strategies.Find(req.Strategy)
	}
	if !ok {
		return req, 0, contracts.NewValidationError("strategy", "unknown strategy %q", req.Strategy)
	}

	criteria := strategy.ScreeningCriteria()
	for c, on := range req.Criteria {
		criteria[c] = on
	}
	req.Criteria = criteria

	params := strategy.ScreeningParams()
	if req.Params.RSIOversoldLevel.Valid {
		params.RSIOversoldLevel = req.Params.RSIOversoldLevel
	}
	if req.Params.RSIOverboughtLevel.Valid {
		params.RSIOverboughtLevel = req.Params.RSIOverboughtLevel
	}
	req.Params = params

	if req.Range == "" && req.Interval == "" {
		req.Range, req.Interval = strategy.Range, strategy.Interval
	}
	return req, strategy.MinScore, nil
}

// Strategies lists the configured screening strategies
func (s *Service) Strategies() []strategyconfig.Strategy {
	if s.strategies == nil {
		return []strategyconfig.Strategy{}
	}
	out := make([]strategyconfig.Strategy, len(s.strategies.Strategies))
	copy(out, s.strategies.Strategies)
	return out
}

func (s *Service) screenOne(ctx context.Context, symbol string, req ScreenRequest) (*contracts.ScreenItem, error) {
	series, err := s.market.FetchResampled(ctx, symbol, req.Range, req.Interval)
	if err != nil {
		return nil, err
	}
	set := s.engine.Compute(series)

	// Fundamentals are optional; criteria that need them become not applicable.
	var quote contracts.Quote
	fundamentals, err := s.market.FetchQuote(ctx, symbol)
	if err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Debug("Fundamentals unavailable")
	} else {
		quote = *fundamentals
	}

	result := screening.Evaluate(screening.Input{
		Quote:   quote,
		Current: set.Current,
		ATR:     set.Series.ATR,
		Params:  req.Params,
	}, req.Criteria)

	return &contracts.ScreenItem{
		Price:        set.Current.Price,
		Indicators:   set.Current,
		Fundamentals: fundamentals,
		Signals:      signals.Generate(set.Current),
		Screening:    result,
	}, nil
}

// Criteria lists the screening catalogue in evaluation order
func (s *Service) Criteria() []screening.Definition {
	return screening.Catalogue()
}
