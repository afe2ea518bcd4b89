package okx

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TransWatcher/pkg/cache"
)

func TestCachedMarketDataTicker(t *testing.T) {
	var calls int32
	upstream := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"code":"0","data":[{"instId":"BTC-USDT","last":"42000.1"}]}`)
	})
	mc := cache.NewMemoryCache()
	defer mc.Close()

	md := NewCachedMarketData(upstream, mc, time.Minute, time.Minute, nil)
	for i := 0; i < 3; i++ {
		tk, err := md.Ticker(context.Background(), "BTC-USDT")
		require.NoError(t, err)
		assert.Equal(t, "42000.1", tk.Last)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCachedMarketDataDoesNotCacheFailures(t *testing.T) {
	var calls int32
	upstream := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"code":"51001","msg":"Instrument ID does not exist","data":[]}`)
	})
	mc := cache.NewMemoryCache()
	defer mc.Close()

	md := NewCachedMarketData(upstream, mc, time.Minute, time.Minute, nil)
	_, err := md.Instruments(context.Background(), "SPOT")
	require.Error(t, err)
	_, err = md.Instruments(context.Background(), "SPOT")
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestCachedMarketDataPopularPairsUseTickerCache(t *testing.T) {
	var calls int32
	upstream := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, pathTicker, r.URL.Path)
		fmt.Fprintf(w, `{"code":"0","data":[{"instId":%q,"last":"7"}]}`, r.URL.Query().Get("instId"))
	}, WithPopularPairs([]string{"BTC-USDT", "ETH-USDT"}))
	mc := cache.NewMemoryCache()
	defer mc.Close()

	md := NewCachedMarketData(upstream, mc, time.Minute, time.Minute, nil)
	_, err := md.Ticker(context.Background(), "BTC-USDT")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		pairs, err := md.PopularPairs(context.Background())
		require.NoError(t, err)
		require.Len(t, pairs, 2)
		assert.Equal(t, "ETH-USDT", pairs[1].Symbol)
		assert.Equal(t, "7", pairs[1].Price)
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "one upstream ticker per pair")
}
