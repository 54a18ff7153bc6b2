package depth

import (
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/guregu/null/v6"

	"github.com/wonny/idxscreen/internal/contracts"
)

// Levels is the ladder depth per side
const Levels = 10

const (
	defaultAvgVolume = 1_000_000

	SourceSimulated = "Simulated (based on Yahoo Finance)"
	SourceBroker    = "Simulated"

	noteOrderBook = "Order book disimulasikan berdasarkan harga terkini. Data real order book memerlukan akses ke broker API."
	noteBroker    = "Data broker summary disimulasikan. Data real memerlukan akses ke RTI atau broker API."
)

var (
	buyerBrokers  = []string{"YP", "CC", "MS", "GR", "KK"}
	sellerBrokers = []string{"BK", "RX", "PD", "AI", "NI"}
)

// ErrNoPrice is the cause of a DepthUnavailableError when the quote has no usable price
var ErrNoPrice = errors.New("could not get current price")

// Generator fabricates order books and broker summaries from a quote.
// Output is approximate and always labelled simulated.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator creates a generator drawing from rng
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng, now: time.Now}
}

// NewSeededGenerator creates a generator with a time-seeded PCG source
func NewSeededGenerator() *Generator {
	seed := uint64(time.Now().UnixNano())
	return NewGenerator(rand.New(rand.NewPCG(seed, seed>>1|1)))
}

// uniform draws from [lo, hi)
func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// OrderBook builds a 10-level ladder around the quote price.
// Bid levels at or below zero are left out, so prices within 10 ticks of zero get a shorter bid side.
func (g *Generator) OrderBook(symbol string, quote *contracts.Quote) (*contracts.OrderBook, error) {
	if quote == nil || !quote.Price.Valid || quote.Price.Float64 <= 0 {
		return nil, &contracts.DepthUnavailableError{Symbol: symbol, Err: ErrNoPrice}
	}

	price := quote.Price.Float64
	tick := TickSize(price)
	avgVolume := avgVolumeOf(quote)

	g.mu.Lock()
	defer g.mu.Unlock()

	book := &contracts.OrderBook{
		Symbol:       symbol,
		Timestamp:    g.now(),
		CurrentPrice: null.FloatFrom(price),
		TickSize:     tick,
		Bids:         make([]contracts.DepthLevel, 0, Levels),
		Asks:         make([]contracts.DepthLevel, 0, Levels),
		Source:       SourceSimulated,
		Simulated:    true,
		Note:         noteOrderBook,
	}

	for i := 0; i < Levels; i++ {
		base := math.Floor(avgVolume / 100 * math.Max(0.1, 1-0.1*float64(i)))
		offset := tick * float64(i+1)

		if bid := price - offset; bid > 0 {
			book.Bids = append(book.Bids, g.level(bid, base))
		}
		book.Asks = append(book.Asks, g.level(price+offset, base))
	}

	for _, b := range book.Bids {
		book.TotalBidVolume += b.Volume
	}
	for _, a := range book.Asks {
		book.TotalAskVolume += a.Volume
	}
	return book, nil
}

func (g *Generator) level(price, base float64) contracts.DepthLevel {
	return contracts.DepthLevel{
		Price:  price,
		Volume: int64(math.Floor(base * g.uniform(0.5, 1.5))),
		Lot:    int64(math.Floor(base / 100 * g.uniform(0.5, 1.5))),
	}
}

// BrokerSummary fabricates the top five buying and selling brokers.
// A quote without price yields zero values.
func (g *Generator) BrokerSummary(symbol string, quote *contracts.Quote) *contracts.BrokerSummary {
	avgVolume := avgVolumeOf(quote)
	var price float64
	if quote != nil && quote.Price.Valid {
		price = quote.Price.Float64
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	summary := &contracts.BrokerSummary{
		Symbol:     symbol,
		Timestamp:  g.now(),
		TopBuyers:  g.brokers(buyerBrokers, avgVolume, price),
		TopSellers: g.brokers(sellerBrokers, avgVolume, price),
		Source:     SourceBroker,
		Simulated:  true,
		Note:       noteBroker,
	}

	for _, b := range summary.TopBuyers {
		summary.TotalBuyValue += b.Value
	}
	for _, s := range summary.TopSellers {
		summary.TotalSellValue += s.Value
	}
	summary.NetValue = summary.TotalBuyValue - summary.TotalSellValue
	summary.NetForeignFlow = int64(math.Floor((g.rng.Float64() - 0.5) * avgVolume * 0.2))
	return summary
}

func (g *Generator) brokers(codes []string, avgVolume, price float64) []contracts.BrokerActivity {
	out := make([]contracts.BrokerActivity, len(codes))
	for i, code := range codes {
		rank := float64(i)
		volume := int64(math.Floor(avgVolume / 10 * (1 - rank*0.15) * g.uniform(0.8, 1.2)))
		out[i] = contracts.BrokerActivity{
			Broker:    code,
			Volume:    volume,
			Value:     float64(volume) * price,
			Frequency: int64(math.Floor(50 * (1 - rank*0.1) * g.uniform(0.8, 1.2))),
		}
	}
	return out
}

func avgVolumeOf(quote *contracts.Quote) float64 {
	if quote != nil && quote.AvgVolume.Valid && quote.AvgVolume.Float64 > 0 {
		return quote.AvgVolume.Float64
	}
	return defaultAvgVolume
}
