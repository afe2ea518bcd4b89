package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient()
	require.Error(t, err)
}

func TestOptions(t *testing.T) {
	c, err := NewClient(
		WithHost("ch.local"),
		WithPort(8123),
		WithDatabase("okex_data"),
		WithCredentials("reader", "secret"),
		WithHTTP(true),
		WithMaxExecutionTime(30*time.Second),
	)
	require.NoError(t, err)

	opts := options(c.cfg)
	assert.Equal(t, []string{"ch.local:8123"}, opts.Addr)
	assert.Equal(t, "okex_data", opts.Auth.Database)
	assert.Equal(t, "reader", opts.Auth.Username)
	assert.Equal(t, clickhouse.HTTP, opts.Protocol)
	assert.Equal(t, 30, opts.Settings["max_execution_time"])
	assert.Nil(t, c.DB())
}
