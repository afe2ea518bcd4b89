package okx

import (
	"time"

	"TransWatcher/pkg/logger"
)

const (
	DefaultBaseURL   = "https://www.okx.com"
	DefaultStreamURL = "wss://ws.okx.com:8443/ws/v5/business"
)

// DefaultPopularPairs are the instruments reported by PopularPairs.
var DefaultPopularPairs = []string{"BTC-USDT", "ETH-USDT", "BNB-USDT", "ADA-USDT", "SOL-USDT"}

// Option configures Client.
type Option func(*Config)

// Config holds REST client configuration.
type Config struct {
	BaseURL      string
	Flag         string        // 0: production, 1: demo trading
	Timeout      time.Duration // 0 leaves deadlines to the request context
	RateLimit    float64       // requests per second, <= 0 disables pacing
	Burst        int
	PopularPairs []string
	Logger       *logger.Logger
}

func WithBaseURL(u string) Option {
	return func(c *Config) { c.BaseURL = u }
}

// WithFlag selects production ("0") or demo trading ("1").
func WithFlag(flag string) Option {
	return func(c *Config) { c.Flag = flag }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

// WithRateLimit paces outbound requests with a token bucket.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Config) {
		c.RateLimit = rps
		c.Burst = burst
	}
}

func WithPopularPairs(pairs []string) Option {
	return func(c *Config) { c.PopularPairs = pairs }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
