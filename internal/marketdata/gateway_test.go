package marketdata

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/idxscreen/internal/cache"
	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/pkg/config"
	"github.com/wonny/idxscreen/pkg/logger"
)

type fakeProvider struct {
	mu         sync.Mutex
	chartCalls map[string]int
	quoteCalls int

	charts   map[string]*contracts.PriceSeries
	quotes   []contracts.Quote
	quoteErr error
	delay    time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		chartCalls: make(map[string]int),
		charts:     make(map[string]*contracts.PriceSeries),
	}
}

func (f *fakeProvider) FetchChart(ctx context.Context, symbol, rng, interval string) (*contracts.PriceSeries, error) {
	f.mu.Lock()
	f.chartCalls[symbol]++
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s, ok := f.charts[symbol]
	if !ok {
		return nil, errors.New("no data found")
	}
	cp := *s
	cp.Range = rng
	cp.Interval = interval
	return &cp, nil
}

func (f *fakeProvider) FetchQuotes(ctx context.Context, symbols []string) ([]contracts.Quote, error) {
	f.mu.Lock()
	f.quoteCalls++
	f.mu.Unlock()

	if f.quoteErr != nil {
		return nil, f.quoteErr
	}
	return f.quotes, nil
}

type fakeArchive struct {
	saved []string
	err   error
}

func (a *fakeArchive) SaveSeries(ctx context.Context, s *contracts.PriceSeries) error {
	a.saved = append(a.saved, s.Symbol)
	return a.err
}

func testConfig() *config.Config {
	return &config.Config{
		Yahoo:  config.YahooConfig{Timeout: time.Second},
		Market: config.MarketConfig{ExchangeSuffix: ".JK", DefaultRange: "6mo", DefaultInterval: "1d", BatchConcurrency: 2},
		Cache:  config.CacheConfig{Backend: "memory", PriceTTL: 5 * time.Minute, OrderBookTTL: time.Minute, BrokerTTL: 5 * time.Minute},
	}
}

func newTestGateway(p Provider) *Gateway {
	log := logger.Nop()
	loader := cache.NewLoader(cache.NewMemoryStore(cache.SystemClock{}, log), false, log)
	return NewGateway(p, loader, testConfig(), log)
}

func dailySeries(symbol string, closes ...float64) *contracts.PriceSeries {
	s := &contracts.PriceSeries{Symbol: symbol, Currency: "IDR"}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		d := start.AddDate(0, 0, i)
		s.Bars = append(s.Bars, contracts.PriceBar{
			Date:      d.Format("2006-01-02"),
			Timestamp: d.Unix(),
			Open:      c,
			High:      c + 10,
			Low:       c - 10,
			Close:     c,
			Volume:    int64(100 * (i + 1)),
		})
	}
	return s
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"bbca", "BBCA.JK"},
		{"  tlkm ", "TLKM.JK"},
		{"BBCA.JK", "BBCA.JK"},
		{"bbca.jk", "BBCA.JK"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Normalize(tt.in, ".JK")
			assert.Equal(t, tt.want, got)
			// idempotent
			assert.Equal(t, got, Normalize(got, ".JK"))
		})
	}
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "BBCA", Display("BBCA.JK", ".JK"))
	assert.Equal(t, "BBCA", Display("bbca", ".JK"))
}

func TestValidateRange(t *testing.T) {
	assert.NoError(t, ValidateRange("6mo", "1d"))
	assert.NoError(t, ValidateRange("1y", "1wk"))

	var verr *contracts.ValidationError
	require.ErrorAs(t, ValidateRange("7mo", "1d"), &verr)
	assert.Equal(t, "range", verr.Field)
	require.ErrorAs(t, ValidateRange("1y", "2d"), &verr)
	assert.Equal(t, "interval", verr.Field)
}

func TestGateway_FetchSeries_CachesAndNormalizes(t *testing.T) {
	p := newFakeProvider()
	p.charts["BBCA.JK"] = dailySeries("BBCA.JK", 100, 101, 102)
	g := newTestGateway(p)

	ctx := context.Background()
	s1, err := g.FetchSeries(ctx, "bbca", "", "")
	require.NoError(t, err)
	assert.Equal(t, 3, s1.Len())
	assert.Equal(t, "6mo", s1.Range)

	_, err = g.FetchSeries(ctx, "BBCA.JK", "6mo", "1d")
	require.NoError(t, err)

	assert.Equal(t, 1, p.chartCalls["BBCA.JK"])
}

func TestGateway_FetchSeries_UpstreamError(t *testing.T) {
	p := newFakeProvider()
	g := newTestGateway(p)

	_, err := g.FetchSeries(context.Background(), "NOPE", "1mo", "1d")
	require.Error(t, err)

	var uerr *contracts.UpstreamFetchError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, "NOPE.JK", uerr.Symbol)
	assert.Contains(t, err.Error(), "NOPE.JK")

	// errors are not cached
	_, _ = g.FetchSeries(context.Background(), "NOPE", "1mo", "1d")
	assert.Equal(t, 2, p.chartCalls["NOPE.JK"])
}

func TestGateway_FetchSeries_Validation(t *testing.T) {
	p := newFakeProvider()
	g := newTestGateway(p)

	var verr *contracts.ValidationError
	_, err := g.FetchSeries(context.Background(), " ", "1mo", "1d")
	require.ErrorAs(t, err, &verr)

	_, err = g.FetchSeries(context.Background(), "BBCA", "forever", "1d")
	require.ErrorAs(t, err, &verr)

	assert.Empty(t, p.chartCalls)
}

func TestGateway_FetchSeries_Timeout(t *testing.T) {
	p := newFakeProvider()
	p.charts["SLOW.JK"] = dailySeries("SLOW.JK", 1)
	p.delay = 5 * time.Second

	g := newTestGateway(p)
	g.timeout = 20 * time.Millisecond

	start := time.Now()
	_, err := g.FetchSeries(context.Background(), "SLOW", "1mo", "1d")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)

	var uerr *contracts.UpstreamFetchError
	require.ErrorAs(t, err, &uerr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGateway_FetchSeries_Archive(t *testing.T) {
	p := newFakeProvider()
	p.charts["BBCA.JK"] = dailySeries("BBCA.JK", 100)
	arch := &fakeArchive{err: errors.New("db down")}
	g := newTestGateway(p).WithArchive(arch)

	// archive failures are logged, not returned
	_, err := g.FetchSeries(context.Background(), "BBCA", "1mo", "1d")
	require.NoError(t, err)
	assert.Equal(t, []string{"BBCA.JK"}, arch.saved)
}

func TestGateway_FetchQuotes_Primary(t *testing.T) {
	p := newFakeProvider()
	p.quotes = []contracts.Quote{
		{Symbol: "BBCA", Source: contracts.QuoteSourceQuote, Price: null.FloatFrom(9500)},
		{Symbol: "TLKM", Source: contracts.QuoteSourceQuote, Price: null.FloatFrom(3500)},
	}
	g := newTestGateway(p)

	quotes, err := g.FetchQuotes(context.Background(), []string{"tlkm", "bbca"})
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	// order-insensitive cache key
	_, err = g.FetchQuotes(context.Background(), []string{"BBCA.JK", "TLKM"})
	require.NoError(t, err)
	assert.Equal(t, 1, p.quoteCalls)

	q, err := g.FetchQuote(context.Background(), "tlkm")
	require.NoError(t, err)
	assert.Equal(t, "TLKM", q.Symbol)
}

func TestGateway_FetchQuotes_Fallback(t *testing.T) {
	p := newFakeProvider()
	p.quoteErr = errors.New("401 unauthorized")
	p.charts["BBCA.JK"] = dailySeries("BBCA.JK", 100, 110)

	g := newTestGateway(p)
	quotes, err := g.FetchQuotes(context.Background(), []string{"BBCA"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)

	q := quotes[0]
	assert.Equal(t, "BBCA", q.Symbol)
	assert.Equal(t, contracts.QuoteSourceFallback, q.Source)
	assert.Equal(t, 110.0, q.Price.Float64)
	assert.Equal(t, 200.0, q.Volume.Float64)
	assert.Equal(t, 150.0, q.AvgVolume.Float64)
	assert.InDelta(t, 10.0, q.Change.Float64, 1e-9)
	assert.InDelta(t, 10.0, q.ChangePercent.Float64, 1e-9)
	assert.Equal(t, 110.0, q.Open.Float64)
	assert.Equal(t, 120.0, q.DayHigh.Float64)
	assert.Equal(t, 100.0, q.DayLow.Float64)
	assert.False(t, q.Bid.Valid)

	// fallback result is not cached: the next call retries the quote endpoint
	_, err = g.FetchQuotes(context.Background(), []string{"BBCA"})
	require.NoError(t, err)
	assert.Equal(t, 2, p.quoteCalls)
}

func TestGateway_FetchQuotes_FallbackPrefersMarketPrice(t *testing.T) {
	p := newFakeProvider()
	p.quoteErr = errors.New("boom")
	s := dailySeries("BBCA.JK", 100)
	s.RegularMarketPrice = null.FloatFrom(105)
	p.charts["BBCA.JK"] = s

	quotes, err := newTestGateway(p).FetchQuotes(context.Background(), []string{"BBCA"})
	require.NoError(t, err)
	assert.Equal(t, 105.0, quotes[0].Price.Float64)
	assert.False(t, quotes[0].Change.Valid)
}

func TestGateway_FetchQuotes_BothFail(t *testing.T) {
	p := newFakeProvider()
	p.quoteErr = errors.New("boom")

	_, err := newTestGateway(p).FetchQuotes(context.Background(), []string{"BBCA", "TLKM"})
	require.Error(t, err)

	var qerr *contracts.QuoteUnavailableError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, []string{"BBCA", "TLKM"}, qerr.Symbols)
}

func TestGateway_FetchQuotes_EmptyResultFallsBack(t *testing.T) {
	p := newFakeProvider()
	p.charts["BBCA.JK"] = dailySeries("BBCA.JK", 100)

	quotes, err := newTestGateway(p).FetchQuotes(context.Background(), []string{"BBCA"})
	require.NoError(t, err)
	assert.Equal(t, contracts.QuoteSourceFallback, quotes[0].Source)
}

func TestGateway_FetchQuote_SymbolMissing(t *testing.T) {
	p := newFakeProvider()
	p.quotes = []contracts.Quote{
		{Symbol: "BBRI", Source: contracts.QuoteSourceQuote, Price: null.FloatFrom(4800)},
	}

	q, err := newTestGateway(p).FetchQuote(context.Background(), "bbca")
	assert.Nil(t, q)

	var qerr *contracts.QuoteUnavailableError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, []string{"BBCA"}, qerr.Symbols)
	assert.ErrorIs(t, err, ErrSymbolMissing)
}

func TestGateway_FetchQuotes_Validation(t *testing.T) {
	g := newTestGateway(newFakeProvider())

	var verr *contracts.ValidationError
	_, err := g.FetchQuotes(context.Background(), nil)
	require.ErrorAs(t, err, &verr)
	_, err = g.FetchQuotes(context.Background(), []string{"BBCA", ""})
	require.ErrorAs(t, err, &verr)
}
