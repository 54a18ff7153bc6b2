package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/idxscreen/internal/cache"
	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/internal/depth"
	"github.com/wonny/idxscreen/internal/indicator"
	"github.com/wonny/idxscreen/internal/signals"
	"github.com/wonny/idxscreen/internal/strategyconfig"
	"github.com/wonny/idxscreen/pkg/config"
	"github.com/wonny/idxscreen/pkg/logger"
)

// Market is the subset of the market data gateway the service needs
type Market interface {
	Normalize(symbol string) string
	Display(symbol string) string
	FetchResampled(ctx context.Context, symbol, rng, interval string) (*contracts.PriceSeries, error)
	FetchQuotes(ctx context.Context, symbols []string) ([]contracts.Quote, error)
	FetchQuote(ctx context.Context, symbol string) (*contracts.Quote, error)
}

// DepthSource returns a real order book for a display symbol. Optional.
type DepthSource interface {
	Fetch(ctx context.Context, symbol string) (*contracts.OrderBook, error)
}

// Service runs every analysis operation. HTTP handlers and CLI commands only
// parse input and serialize output.
// ⭐ SSOT: 분석 오케스트레이션은 여기서만
type Service struct {
	market      Market
	engine      *indicator.Engine
	generator   *depth.Generator
	depthSource DepthSource
	loader      *cache.Loader
	strategies  *strategyconfig.Config
	logger      *logger.Logger
	now         func() time.Time

	orderBookTTL time.Duration
	brokerTTL    time.Duration
	concurrency  int
}

// NewService creates a new analysis service
func NewService(market Market, engine *indicator.Engine, generator *depth.Generator, loader *cache.Loader, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		market:       market,
		engine:       engine,
		generator:    generator,
		loader:       loader,
		logger:       log,
		now:          time.Now,
		orderBookTTL: cfg.Cache.OrderBookTTL,
		brokerTTL:    cfg.Cache.BrokerTTL,
		concurrency:  cfg.Market.BatchConcurrency,
	}
}

// WithDepthSource makes OrderBook try src before synthesizing a ladder
func (s *Service) WithDepthSource(src DepthSource) *Service {
	s.depthSource = src
	return s
}

// WithStrategies enables named screening strategies
func (s *Service) WithStrategies(cfg *strategyconfig.Config) *Service {
	s.strategies = cfg
	return s
}

// History returns the bar history of one symbol
func (s *Service) History(ctx context.Context, symbol, rng, interval string) (*contracts.PriceSeries, error) {
	return s.market.FetchResampled(ctx, symbol, rng, interval)
}

// Analyze computes indicators and signals for one symbol
func (s *Service) Analyze(ctx context.Context, symbol, rng, interval string) (*contracts.StockReport, error) {
	series, err := s.market.FetchResampled(ctx, symbol, rng, interval)
	if err != nil {
		return nil, err
	}

	set := s.engine.Compute(series)
	return &contracts.StockReport{
		Symbol:     s.market.Display(series.Symbol),
		Series:     series,
		Indicators: set,
		Signals:    signals.Generate(set.Current),
	}, nil
}

// Quotes returns quotes for symbols
func (s *Service) Quotes(ctx context.Context, symbols []string) ([]contracts.Quote, error) {
	return s.market.FetchQuotes(ctx, symbols)
}

// Batch analyzes every symbol. Results keep the request order; a failing
// symbol only fills its own slot with an error.
func (s *Service) Batch(ctx context.Context, symbols []string, rng, interval string) ([]contracts.BatchEntry, error) {
	if err := requireSymbols(symbols, 1); err != nil {
		return nil, err
	}

	out := make([]contracts.BatchEntry, len(symbols))
	s.forEach(ctx, symbols, func(ctx context.Context, i int, symbol string) {
		entry := contracts.BatchEntry{Symbol: displaySymbol(symbol)}

		report, err := s.Analyze(ctx, symbol, rng, interval)
		if err != nil {
			entry.Error = err.Error()
			out[i] = entry
			return
		}

		cur := report.Indicators.Current
		entry.Price = cur.Price
		entry.Bars = report.Series.Len()
		entry.Indicators = &cur
		entry.Signals = report.Signals
		out[i] = entry
	})

	return out, nil
}

// forEach runs fn for every symbol with bounded concurrency and waits for all
func (s *Service) forEach(ctx context.Context, symbols []string, fn func(ctx context.Context, i int, symbol string)) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, symbol := range symbols {
		g.Go(func() error {
			fn(gctx, i, symbol)
			return nil
		})
	}

	_ = g.Wait()
}

// requireSymbols rejects an empty or blank symbol list before any fetch
func requireSymbols(symbols []string, minCount int) error {
	if len(symbols) < minCount {
		if minCount == 1 {
			return contracts.NewValidationError("symbols", "please provide an array of stock symbols")
		}
		return contracts.NewValidationError("symbols", "please provide at least %d stock symbols", minCount)
	}
	for _, sym := range symbols {
		if strings.TrimSpace(sym) == "" {
			return contracts.NewValidationError("symbols", "symbol must not be empty")
		}
	}
	return nil
}

// displaySymbol is the caller's symbol, trimmed and upper-cased
func displaySymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func symbolError(symbol string, err error) contracts.SymbolError {
	return contracts.SymbolError{Symbol: displaySymbol(symbol), Error: err.Error()}
}

// insufficient wraps ErrInsufficientHistory with a bar count
func insufficient(have, need int) error {
	return fmt.Errorf("%w: have %d bars, need %d", contracts.ErrInsufficientHistory, have, need)
}
