package repository

import "fmt"

// Bar is an OKX candle granularity in its wire form (1m, 1H, 1D, ...).
type Bar string

const (
	Bar1m  Bar = "1m"
	Bar3m  Bar = "3m"
	Bar5m  Bar = "5m"
	Bar15m Bar = "15m"
	Bar30m Bar = "30m"
	Bar1H  Bar = "1H"
	Bar2H  Bar = "2H"
	Bar4H  Bar = "4H"
	Bar6H  Bar = "6H"
	Bar12H Bar = "12H"
	Bar1D  Bar = "1D"
	Bar1W  Bar = "1W"
	Bar1M  Bar = "1M"
	Bar3M  Bar = "3M"
)

// Minutes and months differ only by case, so lookups are case-sensitive.
var bars = map[string]Bar{
	"1m": Bar1m, "3m": Bar3m, "5m": Bar5m, "15m": Bar15m, "30m": Bar30m,
	"1h": Bar1H, "1H": Bar1H,
	"2h": Bar2H, "2H": Bar2H,
	"4h": Bar4H, "4H": Bar4H,
	"6h": Bar6H, "6H": Bar6H,
	"12h": Bar12H, "12H": Bar12H,
	"1d": Bar1D, "1D": Bar1D,
	"1w": Bar1W, "1W": Bar1W,
	"1M": Bar1M,
	"3M": Bar3M,
}

// DefaultBar is used when a request omits the bar.
const DefaultBar = Bar1H

// ParseBar accepts both lower-case hour/day/week aliases and the OKX forms.
func ParseBar(s string) (Bar, error) {
	if b, ok := bars[s]; ok {
		return b, nil
	}
	return "", fmt.Errorf("unsupported bar %q", s)
}

// IsValidBar returns true if s is a supported bar.
func IsValidBar(s string) bool {
	_, ok := bars[s]
	return ok
}

func (b Bar) String() string { return string(b) }
