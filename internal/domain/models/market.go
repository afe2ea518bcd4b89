package models

import (
	"encoding/json"
	"time"
)

// Ticker is the OKX market ticker for one instrument.
type Ticker struct {
	InstType  string `json:"instType"`
	InstID    string `json:"instId"`
	Last      string `json:"last"`
	LastSz    string `json:"lastSz"`
	AskPx     string `json:"askPx"`
	AskSz     string `json:"askSz"`
	BidPx     string `json:"bidPx"`
	BidSz     string `json:"bidSz"`
	Open24h   string `json:"open24h"`
	High24h   string `json:"high24h"`
	Low24h    string `json:"low24h"`
	VolCcy24h string `json:"volCcy24h"`
	Vol24h    string `json:"vol24h"`
	Ts        string `json:"ts"`
	SodUtc0   string `json:"sodUtc0"`
	SodUtc8   string `json:"sodUtc8"`
}

// OrderBook levels are [price, size, deprecated, orders] string tuples.
type OrderBook struct {
	Asks [][]string `json:"asks"`
	Bids [][]string `json:"bids"`
	Ts   string     `json:"ts"`
}

// Instruments holds a page of instruments, passed through as received.
type Instruments struct {
	Data       []json.RawMessage `json:"data"`
	TotalCount int               `json:"total_count"`
}

// SystemStatus reports connectivity to OKX.
type SystemStatus struct {
	OKXTime   string    `json:"okex_time"`
	LocalTime time.Time `json:"local_time"`
	Status    string    `json:"status"`
}

// TradingPair is a condensed ticker for the popular pairs listing.
type TradingPair struct {
	Symbol    string `json:"symbol"`
	Price     string `json:"price"`
	Change24h string `json:"change_24h"` // 24h open price, as OKX reports it
	Volume24h string `json:"volume_24h"`
	High24h   string `json:"high_24h"`
	Low24h    string `json:"low_24h"`
}
