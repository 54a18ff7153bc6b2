package depth

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/idxscreen/internal/contracts"
	"github.com/wonny/idxscreen/pkg/httputil"
	"github.com/wonny/idxscreen/pkg/logger"
)

const (
	bidRows = "table.orderbook-bid tr, table.bid-table tr"
	askRows = "table.orderbook-ask tr, table.ask-table tr"
)

// PageScraper reads a real order book from a broker web page
type PageScraper struct {
	httpClient  *httputil.Client
	urlTemplate string // contains {symbol}
	source      string
	logger      *logger.Logger
}

// NewPageScraper creates a scraper for urlTemplate
func NewPageScraper(httpClient *httputil.Client, urlTemplate, source string, log *logger.Logger) *PageScraper {
	return &PageScraper{
		httpClient:  httpClient,
		urlTemplate: urlTemplate,
		source:      source,
		logger:      log,
	}
}

// Fetch returns the scraped ladder, or an error when the page is unreachable
// or holds no levels on either side. symbol is the display ticker (no suffix).
func (s *PageScraper) Fetch(ctx context.Context, symbol string) (*contracts.OrderBook, error) {
	url := strings.ReplaceAll(s.urlTemplate, "{symbol}", strings.ToUpper(symbol))

	resp, err := s.httpClient.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch depth page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &httputil.StatusError{StatusCode: resp.StatusCode, URL: url, Body: string(body)}
	}

	book, err := parseDepthPage(resp.Body)
	if err != nil {
		return nil, err
	}
	book.Symbol = strings.ToUpper(symbol)
	book.Timestamp = time.Now()
	book.Source = s.source

	s.logger.WithFields(map[string]interface{}{
		"symbol": book.Symbol,
		"bids":   len(book.Bids),
		"asks":   len(book.Asks),
	}).Debug("Scraped order book")

	return book, nil
}

// parseDepthPage reads bid/ask tables; the first row of each table set is a header
func parseDepthPage(r io.Reader) (*contracts.OrderBook, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse depth page: %w", err)
	}

	book := &contracts.OrderBook{
		Bids: parseLevels(doc.Find(bidRows)),
		Asks: parseLevels(doc.Find(askRows)),
	}
	if len(book.Bids) == 0 && len(book.Asks) == 0 {
		return nil, fmt.Errorf("depth page has no order book rows")
	}

	for _, b := range book.Bids {
		book.TotalBidVolume += b.Volume
	}
	for _, a := range book.Asks {
		book.TotalAskVolume += a.Volume
	}
	return book, nil
}

func parseLevels(rows *goquery.Selection) []contracts.DepthLevel {
	levels := make([]contracts.DepthLevel, 0, Levels)

	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 || len(levels) >= Levels {
			return
		}
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}
		levels = append(levels, contracts.DepthLevel{
			Price:  float64(parseNum(cells.Eq(0).Text())),
			Volume: parseNum(cells.Eq(1).Text()),
			Count:  parseNum(cells.Eq(2).Text()),
		})
	})
	return levels
}

// parseNum strips thousands separators; unparsable cells become 0
func parseNum(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, ".", "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
