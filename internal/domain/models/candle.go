package models

import "time"

// Candle is the stored form of one OHLCV bar. (Symbol, Timestamp) is unique.
type Candle struct {
	Symbol              string    `bson:"symbol" json:"symbol"`
	Timestamp           int64     `bson:"timestamp" json:"timestamp"` // bar open, epoch ms
	Datetime            time.Time `bson:"datetime" json:"datetime"`
	Open                float64   `bson:"open" json:"open"`
	High                float64   `bson:"high" json:"high"`
	Low                 float64   `bson:"low" json:"low"`
	Close               float64   `bson:"close" json:"close"`
	Volume              float64   `bson:"volume" json:"volume"`
	VolumeCurrency      float64   `bson:"volume_currency" json:"volume_currency"`
	VolumeCurrencyQuote float64   `bson:"volume_currency_quote" json:"volume_currency_quote"`
	Confirmed           int       `bson:"confirmed" json:"confirmed"`
	InsertedAt          time.Time `bson:"inserted_at" json:"inserted_at"`
}

// CandleView is the candle shape returned by query endpoints.
type CandleView struct {
	Timestamp int64   `json:"timestamp"`
	Datetime  string  `json:"datetime"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

func (c Candle) View() CandleView {
	return CandleView{
		Timestamp: c.Timestamp,
		Datetime:  c.Datetime.UTC().Format(time.RFC3339),
		Open:      c.Open,
		High:      c.High,
		Low:       c.Low,
		Close:     c.Close,
		Volume:    c.Volume,
	}
}

// Views converts candles preserving order.
func Views(candles []Candle) []CandleView {
	out := make([]CandleView, len(candles))
	for i, c := range candles {
		out[i] = c.View()
	}
	return out
}

// RawRow is one candle row as OKX sends it:
// [ts, open, high, low, close, vol, volCcy, volCcyQuote, confirm].
// Elements are usually strings; trailing elements may be missing.
type RawRow []interface{}

// CandleFetch is the result of one upstream candle request.
type CandleFetch struct {
	Symbol    string
	Bar       string
	Rows      []RawRow // most recent first, as received
	FetchedAt time.Time
}

// DefaultCandleLimit applies when a range query names no limit.
const DefaultCandleLimit = 100

// CandleQuery selects candles of one symbol. Nil bounds are open; both are inclusive.
type CandleQuery struct {
	Symbol  string
	Limit   int
	StartTs *int64
	EndTs   *int64
}

// UpsertResult reports a batch upsert. Inserted+Replaced+Failed == Total.
type UpsertResult struct {
	Total    int `json:"total"`
	Inserted int `json:"inserted"`
	Replaced int `json:"replaced"`
	Matched  int `json:"matched"`
	Modified int `json:"modified"`
	Failed   int `json:"failed"`
}
