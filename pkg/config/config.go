package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" env:"APP_ENV"`
	Server      struct {
		Port            int           `yaml:"port" default:"8000" env:"PORT"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info" env:"LOG_LEVEL"`
		Format string `yaml:"format" default:"console" env:"LOG_FORMAT"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Store struct {
		Backend string `yaml:"backend" default:"mongo" env:"STORE_BACKEND"`
	} `yaml:"store"`
	Mongo struct {
		URI            string        `yaml:"uri" default:"mongodb://localhost:27017/" env:"MONGO_URI"`
		Database       string        `yaml:"database" default:"okex_data" env:"MONGO_DATABASE"`
		Collection     string        `yaml:"collection" default:"candles"`
		ConnectTimeout time.Duration `yaml:"connect_timeout" default:"10s"`
		MaxPoolSize    uint64        `yaml:"max_pool_size" default:"50"`
	} `yaml:"mongo"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost" env:"CLICKHOUSE_HOST"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"okex_data"`
		Table            string        `yaml:"table" default:"candles"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password" env:"CLICKHOUSE_PASSWORD"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	OKX struct {
		BaseURL      string        `yaml:"base_url" default:"https://www.okx.com" env:"OKX_BASE_URL"`
		Flag         string        `yaml:"flag" default:"0" env:"OKX_FLAG"` // 0: production, 1: demo trading
		Timeout      time.Duration `yaml:"timeout"`                         // 0: bounded only by the request context
		RateLimit    float64       `yaml:"rate_limit" default:"10"`         // requests per second
		Burst        int           `yaml:"burst" default:"10"`
		PopularPairs []string      `yaml:"popular_pairs" env:"OKX_POPULAR_PAIRS"`
	} `yaml:"okx"`
	Ingest struct {
		BulkConcurrency int `yaml:"bulk_concurrency" default:"1"`
	} `yaml:"ingest"`
	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED"`
		Addr     string `yaml:"addr" default:"localhost:6379" env:"REDIS_ADDR"`
		Password string `yaml:"password" env:"REDIS_PASSWORD"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"transwatcher"`
		Pool     struct {
			Size         int           `yaml:"size" default:"10"`
			MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
			Timeout      time.Duration `yaml:"timeout" default:"30s"`
		} `yaml:"pool"`
	} `yaml:"redis"`
	RateLimit struct {
		InfoRequests int           `yaml:"info_requests" default:"2"`
		InfoWindow   time.Duration `yaml:"info_window" default:"5s"`
	} `yaml:"rate_limit"`
	Cache struct {
		TickerTTL      time.Duration `yaml:"ticker_ttl" default:"2s"`
		InstrumentsTTL time.Duration `yaml:"instruments_ttl" default:"60s"`
		MemoryMaxSize  int           `yaml:"memory_max_size" default:"1000"`
		MemoryCleanup  time.Duration `yaml:"memory_cleanup" default:"1m"`
	} `yaml:"cache"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled" env:"KAFKA_ENABLED"`
		Brokers      []string      `yaml:"brokers" env:"KAFKA_BROKERS"`
		EventsTopic  string        `yaml:"events_topic" default:"candles.ingested"`
		CollectTopic string        `yaml:"collect_topic" default:"candles.collect"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Consumer     struct {
			GroupID    string        `yaml:"group_id" default:"trans-watcher"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"64"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Stream struct {
		Enabled        bool          `yaml:"enabled" env:"STREAM_ENABLED"`
		URL            string        `yaml:"url" default:"wss://ws.okx.com:8443/ws/v5/business"`
		Symbols        []string      `yaml:"symbols" env:"STREAM_SYMBOLS"`
		Bar            string        `yaml:"bar" default:"1m"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"25s"`
	} `yaml:"stream"`
}

// Load reads a YAML configuration file on top of the struct defaults.
// A missing file is not an error: defaults and environment still apply.
func Load(path string) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML, then a local .env file (if any),
// then overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Store.Backend {
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required for the mongo backend")
		}
	case "clickhouse":
		if c.ClickHouse.Host == "" {
			return fmt.Errorf("clickhouse.host is required for the clickhouse backend")
		}
	case "memory":
	default:
		return fmt.Errorf("store.backend must be 'mongo', 'clickhouse' or 'memory', got '%s'", c.Store.Backend)
	}
	if c.OKX.BaseURL == "" {
		return fmt.Errorf("okx.base_url is required")
	}
	if c.OKX.Flag != "0" && c.OKX.Flag != "1" {
		return fmt.Errorf("okx.flag must be '0' or '1', got '%s'", c.OKX.Flag)
	}
	if c.Ingest.BulkConcurrency < 1 {
		return fmt.Errorf("ingest.bulk_concurrency must be >= 1")
	}
	if c.Cache.MemoryCleanup <= 0 {
		return fmt.Errorf("cache.memory_cleanup must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Stream.Enabled && len(c.Stream.Symbols) == 0 {
		return fmt.Errorf("stream.symbols cannot be empty when stream is enabled")
	}
	return nil
}
