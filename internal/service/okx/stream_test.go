package okx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/domain/repository"
)

type pushedRow struct {
	symbol string
	bar    repository.Bar
	row    models.RawRow
}

func TestStreamDeliversCandleRows(t *testing.T) {
	subscribed := make(chan wsRequest, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		subscribed <- req
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"subscribe","arg":{"channel":"candle1m","instId":"BTC-USDT"}}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"arg":{"channel":"candle1m","instId":"BTC-USDT"},"data":[["1700000000000","1","2","0.5","1.5","10","11","12","0"]]}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	stream := NewStream(url, []string{"BTC-USDT"}, repository.Bar1m, 10*time.Millisecond, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	rows := make(chan pushedRow, 4)
	done := make(chan error, 1)
	go func() {
		done <- stream.Run(ctx, func(symbol string, bar repository.Bar, row models.RawRow) {
			rows <- pushedRow{symbol: symbol, bar: bar, row: row}
		})
	}()

	select {
	case req := <-subscribed:
		assert.Equal(t, "subscribe", req.Op)
		assert.Equal(t, []wsArg{{Channel: "candle1m", InstID: "BTC-USDT"}}, req.Args)
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription received")
	}

	select {
	case got := <-rows:
		assert.Equal(t, "BTC-USDT", got.symbol)
		assert.Equal(t, repository.Bar1m, got.bar)
		require.Len(t, got.row, 9)
		assert.Equal(t, "1700000000000", got.row[0])
	case <-time.After(2 * time.Second):
		t.Fatal("no candle row delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop")
	}
}
