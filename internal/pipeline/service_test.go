package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/idxscreen/internal/cache"
	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/internal/depth"
	"github.com/wonny/idxscreen/internal/indicator"
	"github.com/wonny/idxscreen/internal/marketdata"
	"github.com/wonny/idxscreen/internal/strategyconfig"
	"github.com/wonny/idxscreen/pkg/config"
	"github.com/wonny/idxscreen/pkg/logger"
)

const suffix = ".JK"

// fakeMarket serves canned series and quotes keyed by display symbol
type fakeMarket struct {
	mu         sync.Mutex
	series     map[string]*contracts.PriceSeries
	quotes     map[string]contracts.Quote
	quoteErr   error
	quoteCalls int
}

func newFakeMarket() *fakeMarket {
	return &fakeMarket{
		series: make(map[string]*contracts.PriceSeries),
		quotes: make(map[string]contracts.Quote),
	}
}

func (f *fakeMarket) Normalize(symbol string) string { return marketdata.Normalize(symbol, suffix) }
func (f *fakeMarket) Display(symbol string) string   { return marketdata.Display(symbol, suffix) }

func (f *fakeMarket) FetchResampled(_ context.Context, symbol, _, _ string) (*contracts.PriceSeries, error) {
	key := f.Display(f.Normalize(symbol))
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.series[key]
	if !ok {
		return nil, &contracts.UpstreamFetchError{Symbol: key + suffix, Err: errors.New("boom")}
	}
	return s, nil
}

func (f *fakeMarket) FetchQuotes(ctx context.Context, symbols []string) ([]contracts.Quote, error) {
	out := make([]contracts.Quote, 0, len(symbols))
	for _, sym := range symbols {
		q, err := f.FetchQuote(ctx, sym)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, nil
}

func (f *fakeMarket) FetchQuote(_ context.Context, symbol string) (*contracts.Quote, error) {
	key := f.Display(f.Normalize(symbol))
	f.mu.Lock()
	defer f.mu.Unlock()

	f.quoteCalls++
	if f.quoteErr != nil {
		return nil, &contracts.QuoteUnavailableError{Symbols: []string{key}, Err: f.quoteErr}
	}
	q, ok := f.quotes[key]
	if !ok {
		return nil, &contracts.QuoteUnavailableError{Symbols: []string{key}}
	}
	return &q, nil
}

func (f *fakeMarket) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quoteCalls
}

type fakeDepthSource struct {
	book *contracts.OrderBook
	err  error
}

func (f *fakeDepthSource) Fetch(_ context.Context, symbol string) (*contracts.OrderBook, error) {
	if f.err != nil {
		return nil, f.err
	}
	book := *f.book
	book.Symbol = symbol
	return &book, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Market: config.MarketConfig{ExchangeSuffix: suffix, BatchConcurrency: 2},
		Cache: config.CacheConfig{
			PriceTTL:     time.Minute,
			OrderBookTTL: time.Minute,
			BrokerTTL:    time.Minute,
		},
	}
}

func newTestService(m *fakeMarket) *Service {
	log := logger.Nop()
	loader := cache.NewLoader(cache.NewMemoryStore(cache.SystemClock{}, log), false, log)
	gen := depth.NewGenerator(rand.New(rand.NewPCG(1, 2)))
	return NewService(m, indicator.NewEngine(log), gen, loader, testConfig(), log)
}

// wave builds n consecutive daily bars from 2024-01-01 around base
func wave(symbol string, n int, base float64) *contracts.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &contracts.PriceSeries{Symbol: symbol + suffix, Range: "1y", Interval: "1d"}
	for i := 0; i < n; i++ {
		c := base + base*0.05*math.Sin(float64(i)/4) + float64(i)
		s.Bars = append(s.Bars, contracts.PriceBar{
			Date:   start.AddDate(0, 0, i).Format("2006-01-02"),
			Open:   c - 2,
			High:   c + 6,
			Low:    c - 6,
			Close:  c,
			Volume: int64(1000 + 37*(i%11)),
		})
	}
	return s
}

func quoteFor(symbol string, price float64) contracts.Quote {
	return contracts.Quote{
		Symbol:      symbol,
		Name:        symbol + " Tbk",
		Source:      contracts.QuoteSourceQuote,
		Price:       null.FloatFrom(price),
		Volume:      null.FloatFrom(2_000_000),
		AvgVolume:   null.FloatFrom(1_000_000),
		TrailingPE:  null.FloatFrom(10),
		PriceToBook: null.FloatFrom(1.5),
	}
}

func TestScreen_IsolatesFailures(t *testing.T) {
	m := newFakeMarket()
	m.series["AAA"] = wave("AAA", 100, 1000)
	m.quotes["AAA"] = quoteFor("AAA", 1100)
	svc := newTestService(m)

	out, err := svc.Screen(context.Background(), ScreenRequest{
		Symbols:  []string{"BBB", "AAA"},
		Criteria: contracts.ScreeningCriteria{contracts.CriterionPrice500to2000: true, contracts.CriterionLowPE: true},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, "AAA", out[0].Symbol)
	require.NotNil(t, out[0].ScreenItem)
	assert.Empty(t, out[0].Error)
	assert.Equal(t, 100.0, out[0].Screening.Score)
	assert.Equal(t, 2, out[0].Screening.TotalConditions)
	assert.NotNil(t, out[0].Fundamentals)

	assert.Equal(t, "BBB", out[1].Symbol)
	assert.Nil(t, out[1].ScreenItem)
	assert.Contains(t, out[1].Error, "BBB")
	assert.Equal(t, 0.0, out[1].Score())
}

func TestScreen_SortsByScore(t *testing.T) {
	m := newFakeMarket()
	m.series["LOW"] = wave("LOW", 100, 300)
	m.series["MID"] = wave("MID", 100, 1000)
	m.quotes["LOW"] = quoteFor("LOW", 300)
	m.quotes["MID"] = quoteFor("MID", 1000)
	svc := newTestService(m)

	out, err := svc.Screen(context.Background(), ScreenRequest{
		Symbols:  []string{"LOW", "MID"},
		Criteria: contracts.ScreeningCriteria{contracts.CriterionPrice500to2000: true},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "MID", out[0].Symbol)
	assert.Equal(t, 100.0, out[0].Score())
	assert.Equal(t, "LOW", out[1].Symbol)
	assert.Equal(t, 0.0, out[1].Score())
}

func TestScreen_MissingFundamentals(t *testing.T) {
	m := newFakeMarket()
	m.series["AAA"] = wave("AAA", 100, 1000)
	m.quoteErr = errors.New("quote down")
	svc := newTestService(m)

	out, err := svc.Screen(context.Background(), ScreenRequest{
		Symbols:  []string{"AAA"},
		Criteria: contracts.ScreeningCriteria{contracts.CriterionLowPE: true, contracts.CriterionPrice500to2000: true},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.NotNil(t, out[0].ScreenItem)
	assert.Nil(t, out[0].Fundamentals)
	// lowPE has no input and drops out
	assert.Equal(t, 1, out[0].Screening.TotalConditions)
	assert.NotContains(t, out[0].Screening.Results, contracts.CriterionLowPE)
}

func TestScreen_Validation(t *testing.T) {
	m := newFakeMarket()
	svc := newTestService(m)
	var ve *contracts.ValidationError

	_, err := svc.Screen(context.Background(), ScreenRequest{})
	assert.ErrorAs(t, err, &ve)

	_, err = svc.Screen(context.Background(), ScreenRequest{
		Symbols:  []string{"AAA"},
		Criteria: contracts.ScreeningCriteria{"moonshot": true},
	})
	assert.ErrorAs(t, err, &ve)

	_, err = svc.Screen(context.Background(), ScreenRequest{Symbols: []string{" "}})
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, m.calls())
}

func TestScreen_Strategy(t *testing.T) {
	strategies, err := strategyconfig.Parse([]byte(`
meta:
  version: "1"
strategies:
  - id: mid-band
    criteria: [price500to2000, lowPE]
    min_score: 60
`))
	require.NoError(t, err)

	m := newFakeMarket()
	m.series["LOW"] = wave("LOW", 100, 300)
	m.series["MID"] = wave("MID", 100, 1000)
	m.quotes["LOW"] = quoteFor("LOW", 300)
	m.quotes["MID"] = quoteFor("MID", 1000)
	svc := newTestService(m).WithStrategies(strategies)

	// LOW scores 50 (lowPE only) and falls under min_score; the failed slot stays
	out, err := svc.Screen(context.Background(), ScreenRequest{
		Symbols:  []string{"LOW", "BBB", "MID"},
		Strategy: "mid-band",
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "MID", out[0].Symbol)
	assert.Equal(t, 100.0, out[0].Score())
	assert.Equal(t, 2, out[0].Screening.TotalConditions)
	assert.Equal(t, "BBB", out[1].Symbol)
	assert.NotEmpty(t, out[1].Error)

	// explicit criteria override the strategy
	out, err = svc.Screen(context.Background(), ScreenRequest{
		Symbols:  []string{"MID"},
		Strategy: "mid-band",
		Criteria: contracts.ScreeningCriteria{contracts.CriterionLowPE: false},
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 1, out[0].Screening.TotalConditions)

	var ve *contracts.ValidationError
	_, err = svc.Screen(context.Background(), ScreenRequest{Symbols: []string{"MID"}, Strategy: "nope"})
	assert.ErrorAs(t, err, &ve)

	require.Len(t, svc.Strategies(), 1)
	assert.Empty(t, newTestService(m).Strategies())
}

func TestBatch_KeepsRequestOrder(t *testing.T) {
	m := newFakeMarket()
	for _, sym := range []string{"CCC", "AAA", "DDD"} {
		m.series[sym] = wave(sym, 60, 1000)
	}
	svc := newTestService(m)

	out, err := svc.Batch(context.Background(), []string{"ccc", "AAA", "BBB", "DDD"}, "", "")
	require.NoError(t, err)
	require.Len(t, out, 4)

	for i, want := range []string{"CCC", "AAA", "BBB", "DDD"} {
		assert.Equal(t, want, out[i].Symbol)
	}
	assert.NotEmpty(t, out[2].Error)
	assert.Nil(t, out[2].Indicators)
	for _, i := range []int{0, 1, 3} {
		assert.Empty(t, out[i].Error)
		require.NotNil(t, out[i].Indicators)
		assert.Equal(t, 60, out[i].Bars)
		assert.True(t, out[i].Price.Valid)
	}
}

func TestAnalyze(t *testing.T) {
	m := newFakeMarket()
	m.series["AAA"] = wave("AAA", 80, 1000)
	svc := newTestService(m)

	report, err := svc.Analyze(context.Background(), "aaa", "6mo", "1d")
	require.NoError(t, err)
	assert.Equal(t, "AAA", report.Symbol)
	assert.Len(t, report.Indicators.Series.RSI, 80)
	assert.NotNil(t, report.Signals)

	_, err = svc.Analyze(context.Background(), "ZZZ", "6mo", "1d")
	var upstream *contracts.UpstreamFetchError
	assert.ErrorAs(t, err, &upstream)
}

func TestCompare(t *testing.T) {
	m := newFakeMarket()
	m.series["AAA"] = &contracts.PriceSeries{Symbol: "AAA.JK", Bars: []contracts.PriceBar{
		{Date: "2024-01-01", Open: 100, High: 101, Low: 99, Close: 100},
		{Date: "2024-01-02", Open: 100, High: 112, Low: 100, Close: 110},
		{Date: "2024-01-03", Open: 110, High: 111, Low: 95, Close: 99},
	}}
	m.series["BBB"] = wave("BBB", 40, 1000)
	svc := newTestService(m)

	_, err := svc.Compare(context.Background(), []string{"AAA"}, "3mo")
	var ve *contracts.ValidationError
	require.ErrorAs(t, err, &ve)

	out, err := svc.Compare(context.Background(), []string{"AAA", "BBB", "CCC"}, "3mo")
	require.NoError(t, err)
	require.Len(t, out, 3)

	perf := out[0].Performance
	require.NotNil(t, perf)
	assert.InDelta(t, -1.0, perf.ReturnPercent, 1e-9)
	assert.Equal(t, 112.0, perf.High)
	assert.Equal(t, 95.0, perf.Low)
	assert.Equal(t, 3, perf.Bars)
	// daily returns +10% and -10%
	assert.InDelta(t, math.Sqrt2*10, perf.Volatility.Float64, 1e-9)
	assert.Nil(t, perf.Risk, "too few returns for risk metrics")

	require.NotNil(t, out[1].Performance)
	require.NotNil(t, out[1].Performance.Risk)
	assert.Equal(t, 39, out[1].Performance.Risk.Samples)
	assert.GreaterOrEqual(t, out[1].Performance.Risk.CVaR, out[1].Performance.Risk.VaR)
	assert.NotEmpty(t, out[2].Error)
}

func TestOrderBook_SyntheticAndCached(t *testing.T) {
	m := newFakeMarket()
	m.quotes["BBCA"] = quoteFor("BBCA", 9000)
	svc := newTestService(m)

	book, err := svc.OrderBook(context.Background(), "bbca")
	require.NoError(t, err)
	assert.Equal(t, "BBCA", book.Symbol)
	assert.True(t, book.Simulated)
	assert.Equal(t, depth.SourceSimulated, book.Source)
	assert.Len(t, book.Bids, depth.Levels)
	assert.Len(t, book.Asks, depth.Levels)

	again, err := svc.OrderBook(context.Background(), "BBCA.JK")
	require.NoError(t, err)
	assert.Equal(t, book.TotalBidVolume, again.TotalBidVolume)
	assert.Equal(t, 1, m.calls())
}

func TestOrderBook_DepthSource(t *testing.T) {
	m := newFakeMarket()
	m.quotes["BBCA"] = quoteFor("BBCA", 9000)

	scraped := &contracts.OrderBook{
		Bids:   []contracts.DepthLevel{{Price: 8975, Volume: 100}},
		Asks:   []contracts.DepthLevel{{Price: 9000, Volume: 200}},
		Source: "Broker page",
	}
	svc := newTestService(m).WithDepthSource(&fakeDepthSource{book: scraped})

	book, err := svc.OrderBook(context.Background(), "BBCA")
	require.NoError(t, err)
	assert.Equal(t, "Broker page", book.Source)
	assert.False(t, book.Simulated)
	assert.Equal(t, "BBCA", book.Symbol)
	assert.Equal(t, 0, m.calls())

	fallback := newTestService(m).WithDepthSource(&fakeDepthSource{err: errors.New("no table")})
	book, err = fallback.OrderBook(context.Background(), "BBCA")
	require.NoError(t, err)
	assert.True(t, book.Simulated)
}

func TestOrderBook_NoPrice(t *testing.T) {
	m := newFakeMarket()
	m.quoteErr = errors.New("quote down")
	svc := newTestService(m)

	_, err := svc.OrderBook(context.Background(), "BBCA")
	var de *contracts.DepthUnavailableError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "BBCA", de.Symbol)

	_, err = svc.OrderBook(context.Background(), "")
	var ve *contracts.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestBroker_Cached(t *testing.T) {
	m := newFakeMarket()
	m.quotes["TLKM"] = quoteFor("TLKM", 3500)
	svc := newTestService(m)

	first, err := svc.Broker(context.Background(), "TLKM")
	require.NoError(t, err)
	assert.True(t, first.Simulated)
	assert.Len(t, first.TopBuyers, 5)
	assert.Len(t, first.TopSellers, 5)

	second, err := svc.Broker(context.Background(), "tlkm")
	require.NoError(t, err)
	assert.Equal(t, first.NetForeignFlow, second.NetForeignFlow)
	assert.Equal(t, 1, m.calls())
}

func TestRegressionData(t *testing.T) {
	m := newFakeMarket()
	m.series["BBB"] = wave("BBB", 120, 1000)
	m.series["AAA"] = wave("AAA", 120, 2000)
	m.series["SHORT"] = wave("SHORT", 30, 1000)
	svc := newTestService(m)

	ds, err := svc.RegressionData(context.Background(), DatasetRequest{
		Symbols: []string{"BBB", "SHORT", "AAA", "NONE"},
		Options: contracts.DatasetOptions{UpThreshold: 1, DownThreshold: -0.5, IncludeNeutral: true},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"BBB", "AAA"}, ds.Summary.SymbolsProcessed)
	require.Len(t, ds.Summary.SymbolsFailed, 2)
	assert.Equal(t, "SHORT", ds.Summary.SymbolsFailed[0].Symbol)
	assert.Contains(t, ds.Summary.SymbolsFailed[0].Error, "not enough historical data")
	assert.Equal(t, "NONE", ds.Summary.SymbolsFailed[1].Symbol)

	require.NotEmpty(t, ds.Rows)
	assert.Equal(t, len(ds.Rows), ds.Summary.TotalRows)
	assert.Equal(t, "AAA", ds.Rows[0].Symbol)
	assert.Equal(t, "BBB", ds.Rows[len(ds.Rows)-1].Symbol)
	for i := 1; i < len(ds.Rows); i++ {
		prev, cur := ds.Rows[i-1], ds.Rows[i]
		if prev.Symbol == cur.Symbol {
			assert.Less(t, prev.Date, cur.Date)
		}
	}
}

func TestRegressionData_Validation(t *testing.T) {
	svc := newTestService(newFakeMarket())
	var ve *contracts.ValidationError

	_, err := svc.RegressionData(context.Background(), DatasetRequest{})
	assert.ErrorAs(t, err, &ve)

	_, err = svc.RegressionData(context.Background(), DatasetRequest{
		Symbols: []string{"AAA"},
		Options: contracts.DatasetOptions{StartDate: "yesterday"},
	})
	assert.ErrorAs(t, err, &ve)
}

func TestFeatures(t *testing.T) {
	m := newFakeMarket()
	m.series["AAA"] = wave("AAA", 100, 1000)
	m.series["SHORT"] = wave("SHORT", 30, 1000)
	svc := newTestService(m)
	last := m.series["AAA"].Bars[99]

	snap, err := svc.Features(context.Background(), FeatureRequest{Symbol: "AAA", Date: "2030-01-01", Timeframe: 1})
	require.NoError(t, err)
	assert.True(t, snap.IsFutureDate)
	assert.Equal(t, "AAA", snap.Symbol)
	assert.Equal(t, last.Date, snap.IndicatorDate)
	assert.Equal(t, 1, snap.Timeframe)

	snap, err = svc.Features(context.Background(), FeatureRequest{Symbol: "AAA", Date: "2024-03-01", Timeframe: 1})
	require.NoError(t, err)
	assert.False(t, snap.IsFutureDate)
	assert.Equal(t, "2024-02-29", snap.IndicatorDate)
	require.NotNil(t, snap.Actual)

	weekly, err := svc.Features(context.Background(), FeatureRequest{Symbol: "AAA", Date: "2030-01-01", Timeframe: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, weekly.Timeframe)
	assert.Equal(t, last.Date, weekly.IndicatorDate)

	_, err = svc.Features(context.Background(), FeatureRequest{Symbol: "SHORT", Date: "2030-01-01", Timeframe: 1})
	assert.ErrorIs(t, err, contracts.ErrInsufficientHistory)

	_, err = svc.Features(context.Background(), FeatureRequest{Symbol: "AAA", Timeframe: 1})
	var ve *contracts.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestFeatures_RealtimeMergesTodayQuote(t *testing.T) {
	m := newFakeMarket()
	m.series["AAA"] = wave("AAA", 100, 1000) // last bar 2024-04-09
	m.quotes["AAA"] = contracts.Quote{
		Symbol: "AAA",
		Price:  null.FloatFrom(1150),
		Open:   null.FloatFrom(1120),
		Volume: null.FloatFrom(5000),
	}
	svc := newTestService(m)
	// 10:00 WIB on 2024-04-10
	svc.now = func() time.Time { return time.Date(2024, 4, 10, 3, 0, 0, 0, time.UTC) }

	snap, err := svc.Features(context.Background(), FeatureRequest{Symbol: "AAA", Date: "2024-04-10", Realtime: true})
	require.NoError(t, err)
	assert.True(t, snap.Realtime)
	assert.False(t, snap.IsFutureDate)
	assert.Equal(t, "2024-04-09", snap.IndicatorDate)
	require.NotNil(t, snap.Actual)
	assert.Equal(t, 1150.0, snap.Actual.Close)
	assert.Equal(t, 1120.0, snap.Actual.Open)
	assert.Equal(t, int64(5000), snap.Actual.Volume)
	assert.Len(t, m.series["AAA"].Bars, 100, "cached history must not grow")

	// without the flag today is still in the future
	snap, err = svc.Features(context.Background(), FeatureRequest{Symbol: "AAA", Date: "2024-04-10"})
	require.NoError(t, err)
	assert.False(t, snap.Realtime)
	assert.True(t, snap.IsFutureDate)

	// only today's date consults the quote
	calls := m.calls()
	snap, err = svc.Features(context.Background(), FeatureRequest{Symbol: "AAA", Date: "2024-03-01", Realtime: true})
	require.NoError(t, err)
	assert.False(t, snap.Realtime)
	assert.Equal(t, calls, m.calls())
}

func TestFeatures_RealtimeQuoteFailureFallsBack(t *testing.T) {
	m := newFakeMarket()
	m.series["AAA"] = wave("AAA", 100, 1000)
	m.quoteErr = errors.New("quote down")
	svc := newTestService(m)
	svc.now = func() time.Time { return time.Date(2024, 4, 10, 3, 0, 0, 0, time.UTC) }

	snap, err := svc.Features(context.Background(), FeatureRequest{Symbol: "AAA", Date: "2024-04-10", Realtime: true})
	require.NoError(t, err)
	assert.False(t, snap.Realtime)
	assert.True(t, snap.IsFutureDate)
	assert.Equal(t, "2024-04-09", snap.IndicatorDate)
}

func TestPopular(t *testing.T) {
	svc := newTestService(newFakeMarket())
	list := svc.Popular()
	require.Len(t, list, 30)
	assert.Equal(t, "BBCA", list[0].Symbol)

	list[0].Symbol = "XXXX"
	assert.Equal(t, "BBCA", svc.Popular()[0].Symbol)
}

func TestCriteria(t *testing.T) {
	svc := newTestService(newFakeMarket())
	defs := svc.Criteria()
	require.Len(t, defs, 40)
	assert.Equal(t, contracts.CriterionPriceGainToday, defs[0].Name)
}

func ExampleService_Popular() {
	svc := newTestService(newFakeMarket())
	for _, s := range svc.Popular()[:3] {
		fmt.Println(s.Symbol, s.Name)
	}
	// Output:
	// BBCA Bank Central Asia
	// BBRI Bank Rakyat Indonesia
	// BMRI Bank Mandiri
}
