package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/idxscreen/internal/cache"
	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/pkg/config"
	"github.com/wonny/idxscreen/pkg/logger"
)

// ErrNoQuotes is returned when the quote endpoint answers with an empty result
var ErrNoQuotes = errors.New("quote response contained no quotes")

// ErrSymbolMissing is returned when a quote response omits the requested symbol
var ErrSymbolMissing = errors.New("quote response did not include the symbol")

// Provider is the upstream chart/quote source
type Provider interface {
	FetchChart(ctx context.Context, symbol, rng, interval string) (*contracts.PriceSeries, error)
	FetchQuotes(ctx context.Context, symbols []string) ([]contracts.Quote, error)
}

// Archive stores fetched bars. Optional.
type Archive interface {
	SaveSeries(ctx context.Context, series *contracts.PriceSeries) error
}

// Gateway fetches bars and quotes through the cache
// ⭐ SSOT: 외부 시세 데이터는 Gateway를 통해서만 조회
type Gateway struct {
	provider Provider
	loader   *cache.Loader
	archive  Archive
	logger   *logger.Logger

	suffix          string
	timeout         time.Duration
	ttl             time.Duration
	defaultRange    string
	defaultInterval string
}

// NewGateway creates a new market data gateway
func NewGateway(provider Provider, loader *cache.Loader, cfg *config.Config, log *logger.Logger) *Gateway {
	return &Gateway{
		provider:        provider,
		loader:          loader,
		logger:          log,
		suffix:          cfg.Market.ExchangeSuffix,
		timeout:         cfg.Yahoo.Timeout,
		ttl:             cfg.Cache.PriceTTL,
		defaultRange:    cfg.Market.DefaultRange,
		defaultInterval: cfg.Market.DefaultInterval,
	}
}

// WithArchive enables writing every fetched series to the archive
func (g *Gateway) WithArchive(archive Archive) *Gateway {
	g.archive = archive
	return g
}

// Normalize applies the configured exchange suffix
func (g *Gateway) Normalize(symbol string) string {
	return Normalize(symbol, g.suffix)
}

// Display strips the configured exchange suffix
func (g *Gateway) Display(symbol string) string {
	return Display(symbol, g.suffix)
}

// Defaults fills empty range/interval with the configured defaults
func (g *Gateway) Defaults(rng, interval string) (string, string) {
	if rng == "" {
		rng = g.defaultRange
	}
	if interval == "" {
		interval = g.defaultInterval
	}
	return rng, interval
}

// FetchSeries returns the bar history of one symbol.
// Upstream failures are returned as *contracts.UpstreamFetchError and never cached.
func (g *Gateway) FetchSeries(ctx context.Context, symbol, rng, interval string) (*contracts.PriceSeries, error) {
	sym := g.Normalize(symbol)
	if sym == "" {
		return nil, contracts.NewValidationError("symbol", "symbol is required")
	}
	rng, interval = g.Defaults(rng, interval)
	if err := ValidateRange(rng, interval); err != nil {
		return nil, err
	}

	key := cache.SeriesKey(sym, rng, interval)
	return cache.Fetch(ctx, g.loader, key, g.ttl, func(ctx context.Context) (*contracts.PriceSeries, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		series, err := g.provider.FetchChart(fetchCtx, sym, rng, interval)
		if err != nil {
			g.logger.WithError(err).WithField("symbol", sym).Warn("Chart fetch failed")
			return nil, &contracts.UpstreamFetchError{Symbol: sym, Err: err}
		}

		g.saveToArchive(ctx, series)
		return series, nil
	})
}

// FetchResampled fetches daily bars and aggregates them to interval ("1wk" or "1mo").
// Daily and resampled requests share one cached daily series.
func (g *Gateway) FetchResampled(ctx context.Context, symbol, rng, interval string) (*contracts.PriceSeries, error) {
	if !IsResampleInterval(interval) {
		return g.FetchSeries(ctx, symbol, rng, interval)
	}

	daily, err := g.FetchSeries(ctx, symbol, rng, "1d")
	if err != nil {
		return nil, err
	}
	return Resample(daily, interval)
}

// FetchQuotes returns quotes in the order the provider answers.
// When the quote endpoint fails every symbol is rebuilt from a 5-day chart; that
// fallback result is not cached. Both failing yields *contracts.QuoteUnavailableError.
func (g *Gateway) FetchQuotes(ctx context.Context, symbols []string) ([]contracts.Quote, error) {
	if len(symbols) == 0 {
		return nil, contracts.NewValidationError("symbols", "at least one symbol is required")
	}

	syms := make([]string, 0, len(symbols))
	for _, s := range symbols {
		n := g.Normalize(s)
		if n == "" {
			return nil, contracts.NewValidationError("symbols", "empty symbol in list")
		}
		syms = append(syms, n)
	}

	quotes, err := cache.Fetch(ctx, g.loader, cache.QuotesKey(syms), g.ttl, func(ctx context.Context) ([]contracts.Quote, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		q, err := g.provider.FetchQuotes(fetchCtx, syms)
		if err != nil {
			return nil, err
		}
		if len(q) == 0 {
			return nil, ErrNoQuotes
		}
		return q, nil
	})
	if err == nil {
		return quotes, nil
	}

	g.logger.WithError(err).WithField("symbols", syms).Warn("Quote fetch failed, falling back to chart")
	return g.fallbackQuotes(ctx, syms, err)
}

// FetchQuote returns the quote of a single symbol.
// A response that does not contain the symbol is a QuoteUnavailableError.
func (g *Gateway) FetchQuote(ctx context.Context, symbol string) (*contracts.Quote, error) {
	quotes, err := g.FetchQuotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}

	want := g.Display(g.Normalize(symbol))
	for i := range quotes {
		if strings.EqualFold(quotes[i].Symbol, want) {
			return &quotes[i], nil
		}
	}
	return nil, &contracts.QuoteUnavailableError{Symbols: []string{want}, Err: ErrSymbolMissing}
}

func (g *Gateway) fallbackQuotes(ctx context.Context, syms []string, primaryErr error) ([]contracts.Quote, error) {
	quotes := make([]contracts.Quote, 0, len(syms))
	for _, sym := range syms {
		series, err := g.FetchSeries(ctx, sym, "5d", "1d")
		if err != nil {
			g.logger.WithError(err).WithField("symbol", sym).Error("Quote fallback failed")
			return nil, &contracts.QuoteUnavailableError{
				Symbols: displayAll(syms, g.suffix),
				Err:     errors.Join(primaryErr, err),
			}
		}

		q, err := quoteFromSeries(series, g.Display(sym))
		if err != nil {
			return nil, &contracts.QuoteUnavailableError{
				Symbols: displayAll(syms, g.suffix),
				Err:     errors.Join(primaryErr, err),
			}
		}
		quotes = append(quotes, q)
	}
	return quotes, nil
}

// quoteFromSeries builds a minimal quote from the last bars of a short chart
func quoteFromSeries(series *contracts.PriceSeries, display string) (contracts.Quote, error) {
	last, ok := series.Last()
	if !ok {
		return contracts.Quote{}, fmt.Errorf("no bars for %s", series.Symbol)
	}

	q := contracts.Quote{
		Symbol:    display,
		Name:      display,
		Source:    contracts.QuoteSourceFallback,
		Price:     series.RegularMarketPrice,
		Volume:    null.FloatFrom(float64(last.Volume)),
		AvgVolume: null.FloatFrom(stat.Mean(series.Volumes(), nil)),
		Open:      null.FloatFrom(last.Open),
		DayHigh:   null.FloatFrom(last.High),
		DayLow:    null.FloatFrom(last.Low),
	}
	if !q.Price.Valid {
		q.Price = null.FloatFrom(last.Close)
	}

	if n := series.Len(); n >= 2 {
		prev := series.Bars[n-2].Close
		change := q.Price.Float64 - prev
		q.Change = null.FloatFrom(change)
		if prev != 0 {
			q.ChangePercent = null.FloatFrom(change / prev * 100)
		}
	}
	return q, nil
}

func (g *Gateway) saveToArchive(ctx context.Context, series *contracts.PriceSeries) {
	if g.archive == nil {
		return
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := g.archive.SaveSeries(saveCtx, series); err != nil {
		g.logger.WithError(err).WithField("symbol", series.Symbol).Warn("Failed to archive bars")
	}
}

func displayAll(syms []string, suffix string) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = Display(s, suffix)
	}
	return out
}
