package contracts

import (
	"time"

	"github.com/guregu/null/v6"
)

// DepthLevel is one price level of an order book ladder
type DepthLevel struct {
	Price  float64 `json:"price"`
	Volume int64   `json:"volume"`
	Lot    int64   `json:"lot,omitempty"`
	Count  int64   `json:"count,omitempty"`
}

// OrderBook is a bid/ask ladder. Simulated books are derived from the last
// price and must never be presented as real market depth.
type OrderBook struct {
	Symbol         string       `json:"symbol"`
	Timestamp      time.Time    `json:"timestamp"`
	CurrentPrice   null.Float   `json:"currentPrice"`
	TickSize       float64      `json:"tickSize,omitempty"`
	Bids           []DepthLevel `json:"bids"`
	Asks           []DepthLevel `json:"asks"`
	TotalBidVolume int64        `json:"totalBidVolume"`
	TotalAskVolume int64        `json:"totalAskVolume"`
	Source         string       `json:"source"`
	Simulated      bool         `json:"simulated"`
	Note           string       `json:"note,omitempty"`
}

// BrokerActivity is one broker's side of the daily flow
type BrokerActivity struct {
	Broker    string  `json:"broker"`
	Volume    int64   `json:"volume"`
	Value     float64 `json:"value"`
	Frequency int64   `json:"frequency"`
}

// BrokerSummary lists top buying and selling brokers (always simulated)
type BrokerSummary struct {
	Symbol         string           `json:"symbol"`
	Timestamp      time.Time        `json:"timestamp"`
	TopBuyers      []BrokerActivity `json:"topBuyers"`
	TopSellers     []BrokerActivity `json:"topSellers"`
	TotalBuyValue  float64          `json:"totalBuyValue"`
	TotalSellValue float64          `json:"totalSellValue"`
	NetValue       float64          `json:"netValue"`
	NetForeignFlow int64            `json:"netForeignFlow"`
	Source         string           `json:"source"`
	Simulated      bool             `json:"simulated"`
	Note           string           `json:"note,omitempty"`
}
