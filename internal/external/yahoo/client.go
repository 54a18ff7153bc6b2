package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/idxscreen/pkg/config"
	"github.com/wonny/idxscreen/pkg/httputil"
	"github.com/wonny/idxscreen/pkg/logger"
)

// Client handles communication with the Yahoo Finance chart and quote endpoints
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	chartURL   string
	quoteURL   string
	suffix     string
}

// NewClient creates a new Yahoo Finance client
func NewClient(httpClient *httputil.Client, cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		chartURL:   strings.TrimRight(cfg.Yahoo.ChartURL, "/"),
		quoteURL:   cfg.Yahoo.QuoteURL,
		suffix:     cfg.Market.ExchangeSuffix,
	}
}

// chartEndpoint builds the v8 chart URL for one symbol
func (c *Client) chartEndpoint(symbol, rng, interval string) string {
	params := url.Values{}
	params.Set("range", rng)
	params.Set("interval", interval)
	params.Set("includePrePost", "false")
	params.Set("events", "div,split")
	return fmt.Sprintf("%s/%s?%s", c.chartURL, url.PathEscape(symbol), params.Encode())
}

// quoteEndpoint builds the v7 quote URL for a symbol batch
func (c *Client) quoteEndpoint(symbols []string) string {
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	return fmt.Sprintf("%s?%s", c.quoteURL, params.Encode())
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	return c.httpClient.GetJSON(ctx, endpoint, dest)
}
