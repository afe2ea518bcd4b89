package models

// CandleRequest asks for one symbol's candles to be collected.
type CandleRequest struct {
	Symbol string `json:"symbol" param:"symbol" validate:"required"`
	Bar    string `json:"bar" default:"1h" validate:"required,bar"`
	Limit  int    `json:"limit" default:"100" validate:"gte=1,lte=300"`
}

// BulkCandleRequest asks for several symbols to be collected with the same bar and limit.
type BulkCandleRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=50,dive,required"`
	Bar     string   `json:"bar" default:"1h" validate:"required,bar"`
	Limit   int      `json:"limit" default:"100" validate:"gte=1,lte=300"`
}
