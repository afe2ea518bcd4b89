package models

import "time"

// IngestResult summarises one fetch-normalize-upsert run for a symbol.
type IngestResult struct {
	Symbol       string    `json:"symbol"`
	Bar          string    `json:"bar"`
	TotalCandles int       `json:"total_candles"`
	SkippedRows  int       `json:"skipped_rows"`
	Saved        int       `json:"candles_saved"`
	Replaced     int       `json:"candles_replaced"`
	Modified     int       `json:"candles_modified"`
	Matched      int       `json:"matched_count"`
	Failed       int       `json:"failed_count"`
	Timestamp    time.Time `json:"timestamp"`
}

// CollectionResult is the per-symbol outcome inside a bulk ingestion.
// A partially written batch carries its counts next to the error.
type CollectionResult struct {
	Symbol          string `json:"symbol"`
	Success         bool   `json:"success"`
	CandlesSaved    *int   `json:"candles_saved,omitempty"`
	CandlesModified *int   `json:"candles_modified,omitempty"`
	CandlesFailed   *int   `json:"candles_failed,omitempty"`
	Error           string `json:"error,omitempty"`
}

// BulkIngestResult keeps results in request order.
type BulkIngestResult struct {
	Success          bool               `json:"success"`
	Results          []CollectionResult `json:"results"`
	ProcessedSymbols int                `json:"processed_symbols"`
	Bar              string             `json:"bar"`
	Limit            int                `json:"limit"`
}

// IngestEvent is published after candles for a symbol were written.
type IngestEvent struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"` // rest, stream or kafka
	Symbol    string    `json:"symbol"`
	Bar       string    `json:"bar"`
	FirstTs   int64     `json:"first_ts"`
	LastTs    int64     `json:"last_ts"`
	Inserted  int       `json:"inserted"`
	Replaced  int       `json:"replaced"`
	Modified  int       `json:"modified"`
	Timestamp time.Time `json:"timestamp"`
}

// IngestRequest is the payload accepted on the collect topic.
type IngestRequest struct {
	Symbol string `json:"symbol" validate:"required"`
	Bar    string `json:"bar" default:"1h" validate:"required,bar"`
	Limit  int    `json:"limit" default:"100" validate:"gte=1,lte=300"`
}
