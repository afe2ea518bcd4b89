package okx

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"TransWatcher/internal/domain/models"
	"TransWatcher/internal/domain/repository"
	"TransWatcher/pkg/logger"
)

// Stream subscribes to OKX candle channels over WebSocket and reconnects on failure.
type Stream struct {
	url            string
	symbols        []string
	bar            repository.Bar
	reconnectDelay time.Duration
	pingInterval   time.Duration
	l              *logger.Logger

	mu     sync.Mutex // guards conn and serializes writes
	conn   *websocket.Conn
	closed bool
}

var _ repository.CandleStream = (*Stream)(nil)

// NewStream creates a candle stream for symbols at bar granularity.
func NewStream(url string, symbols []string, bar repository.Bar, reconnectDelay, pingInterval time.Duration, l *logger.Logger) *Stream {
	if url == "" {
		url = DefaultStreamURL
	}
	if l == nil {
		l = logger.Nop()
	}
	return &Stream{
		url:            url,
		symbols:        symbols,
		bar:            bar,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		l:              l,
	}
}

type wsArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type wsRequest struct {
	Op   string  `json:"op"`
	Args []wsArg `json:"args"`
}

type wsMessage struct {
	Event string          `json:"event"`
	Code  string          `json:"code"`
	Msg   string          `json:"msg"`
	Arg   wsArg           `json:"arg"`
	Data  []models.RawRow `json:"data"`
}

func (s *Stream) channel() string { return "candle" + s.bar.String() }

// Run delivers every pushed candle row to onRow until ctx is done or Close is called.
func (s *Stream) Run(ctx context.Context, onRow func(symbol string, bar repository.Bar, row models.RawRow)) error {
	for {
		err := s.session(ctx, onRow)
		if ctx.Err() != nil || s.isClosed() {
			return nil
		}
		s.l.Warn("okx stream disconnected",
			logger.Error(err),
			logger.Duration("reconnect_in_ms", s.reconnectDelay),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.reconnectDelay):
		}
	}
}

func (s *Stream) session(ctx context.Context, onRow func(string, repository.Bar, models.RawRow)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("okx stream connect: %w", err)
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	s.conn = conn
	s.mu.Unlock()
	defer s.drop(conn)

	if err := s.subscribe(); err != nil {
		return err
	}
	s.l.Info("okx stream subscribed",
		logger.String("channel", s.channel()),
		logger.Strings("symbols", s.symbols),
	)

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.keepalive(sessCtx, conn)

	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("okx stream read: %w", err)
		}
		if string(b) == "pong" {
			continue
		}
		var m wsMessage
		if err := json.Unmarshal(b, &m); err != nil {
			s.l.Debug("okx stream: skip frame", logger.Error(err))
			continue
		}
		if m.Event == "error" {
			s.l.Error("okx stream error event", logger.String("code", m.Code), logger.String("msg", m.Msg))
			continue
		}
		if m.Event != "" || m.Arg.Channel != s.channel() {
			continue
		}
		for _, row := range m.Data {
			onRow(m.Arg.InstID, s.bar, row)
		}
	}
}

func (s *Stream) subscribe() error {
	req := wsRequest{Op: "subscribe", Args: make([]wsArg, 0, len(s.symbols))}
	for _, sym := range s.symbols {
		req.Args = append(req.Args, wsArg{Channel: s.channel(), InstID: sym})
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("okx stream not connected")
	}
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("okx stream subscribe: %w", err)
	}
	return nil
}

// keepalive sends the text "ping" OKX expects and unblocks the reader when ctx ends.
func (s *Stream) keepalive(ctx context.Context, conn *websocket.Conn) {
	interval := s.pingInterval
	if interval <= 0 {
		interval = 25 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return
		case <-ticker.C:
			s.mu.Lock()
			err := conn.WriteMessage(websocket.TextMessage, []byte("ping"))
			s.mu.Unlock()
			if err != nil {
				s.l.Debug("okx stream ping failed", logger.Error(err))
			}
		}
	}
}

func (s *Stream) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	_ = conn.Close()
}

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops the stream; a running Run returns shortly after.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
