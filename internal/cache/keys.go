package cache

import (
	"fmt"
	"sort"
	"strings"
)

// SeriesKey identifies a chart fetch
func SeriesKey(symbol, rng, interval string) string {
	return fmt.Sprintf("series:%s:%s:%s", symbol, rng, interval)
}

// QuotesKey identifies a batched quote fetch; symbol order does not matter
func QuotesKey(symbols []string) string {
	sorted := append([]string(nil), symbols...)
	sort.Strings(sorted)
	return "quotes:" + strings.Join(sorted, ",")
}

// OrderBookKey identifies an order book
func OrderBookKey(symbol string) string {
	return "orderbook:" + symbol
}

// BrokerKey identifies a broker summary
func BrokerKey(symbol string) string {
	return "broker:" + symbol
}
