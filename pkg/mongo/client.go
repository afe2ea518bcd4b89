package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ErrNotConnected is returned by accessors used before Connect.
var ErrNotConnected = errors.New("mongo: not connected")

// Client owns one driver client for the process lifetime.
type Client struct {
	cfg ClientConfig

	mu     sync.Mutex
	client *mongo.Client
}

// NewClient validates options; no connection is made until Connect.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := ClientConfig{
		URI:            "mongodb://localhost:27017/",
		Database:       "okex_data",
		AppName:        "trans-watcher",
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    50,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.URI == "" {
		return nil, fmt.Errorf("uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}
	return &Client{cfg: cfg}, nil
}

// Connect dials and pings the server. Concurrent and repeated calls are safe;
// after the first success the rest return nil. A failed attempt can be retried.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return nil
	}

	opts := options.Client().
		ApplyURI(c.cfg.URI).
		SetAppName(c.cfg.AppName).
		SetMaxPoolSize(c.cfg.MaxPoolSize).
		SetConnectTimeout(c.cfg.ConnectTimeout).
		SetServerSelectionTimeout(c.cfg.ConnectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("mongo ping: %w", err)
	}

	c.client = client
	return nil
}

// Collection returns a handle on name in the configured database.
func (c *Client) Collection(name string) (*mongo.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, ErrNotConnected
	}
	return c.client.Database(c.cfg.Database).Collection(name), nil
}

// Health pings the primary.
func (c *Client) Health(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.mu.Unlock()
	if client == nil {
		return ErrNotConnected
	}
	return client.Ping(ctx, readpref.Primary())
}

// Close disconnects. Safe to call when never connected.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	if err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	return nil
}
