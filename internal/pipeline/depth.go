package pipeline

import (
	"context"

	"github.com/wonny/idxscreen/internal/cache"
	"github.com/wonny/idxscreen/internal/contracts"
)

// OrderBook returns a 10-level ladder for symbol. A configured depth page is
// tried first; otherwise, or when it yields nothing, the ladder is synthesized
// from the current quote and labelled simulated.
func (s *Service) OrderBook(ctx context.Context, symbol string) (*contracts.OrderBook, error) {
	sym := s.market.Normalize(symbol)
	if sym == "" {
		return nil, contracts.NewValidationError("symbol", "symbol is required")
	}
	display := s.market.Display(sym)

	return cache.Fetch(ctx, s.loader, cache.OrderBookKey(sym), s.orderBookTTL, func(ctx context.Context) (*contracts.OrderBook, error) {
		if s.depthSource != nil {
			book, err := s.depthSource.Fetch(ctx, display)
			if err == nil {
				return book, nil
			}
			s.logger.WithError(err).WithField("symbol", display).Debug("Depth page unavailable, synthesizing")
		}

		quote, err := s.market.FetchQuote(ctx, sym)
		if err != nil {
			return nil, &contracts.DepthUnavailableError{Symbol: display, Err: err}
		}
		return s.generator.OrderBook(display, quote)
	})
}

// Broker returns the simulated broker summary for symbol
func (s *Service) Broker(ctx context.Context, symbol string) (*contracts.BrokerSummary, error) {
	sym := s.market.Normalize(symbol)
	if sym == "" {
		return nil, contracts.NewValidationError("symbol", "symbol is required")
	}
	display := s.market.Display(sym)

	return cache.Fetch(ctx, s.loader, cache.BrokerKey(sym), s.brokerTTL, func(ctx context.Context) (*contracts.BrokerSummary, error) {
		quote, err := s.market.FetchQuote(ctx, sym)
		if err != nil {
			return nil, err
		}
		return s.generator.BrokerSummary(display, quote), nil
	})
}
