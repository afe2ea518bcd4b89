package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TransWatcher/internal/domain/models"
	domrepo "TransWatcher/internal/domain/repository"
	"TransWatcher/internal/repository"
)

type scriptedStream struct {
	rows   []models.RawRow
	closed chan struct{}
}

func (s *scriptedStream) Run(ctx context.Context, onRow func(string, domrepo.Bar, models.RawRow)) error {
	for _, r := range s.rows {
		onRow("BTC-USDT", domrepo.Bar1m, r)
	}
	select {
	case <-ctx.Done():
	case <-s.closed:
	}
	return nil
}

func (s *scriptedStream) Close() error {
	close(s.closed)
	return nil
}

func TestCandleStreamCollector(t *testing.T) {
	inProgress := models.RawRow{"60000", "1", "2", "0.5", "1.2", "10", "100", "1000", "0"}
	final := models.RawRow{"60000", "1", "2", "0.5", "1.4", "12", "120", "1200", "1"}
	stream := &scriptedStream{
		rows:   []models.RawRow{inProgress, {"bad"}, final},
		closed: make(chan struct{}),
	}
	store := repository.NewMemoryCandleStore()
	pub := &recordingPublisher{}
	c := NewCandleStreamCollector(stream, store, pub, nil, nil)

	c.Start(context.Background())
	require.Eventually(t, func() bool { return len(pub.Events()) == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, c.Stop())

	latest, err := store.Latest(context.Background(), "BTC-USDT")
	require.NoError(t, err)
	assert.Equal(t, 1.4, latest.Close)
	assert.Equal(t, 1, latest.Confirmed)

	ev := pub.Events()[0]
	assert.Equal(t, "stream", ev.Source)
	assert.Equal(t, "1m", ev.Bar)
	assert.Equal(t, 1, ev.Replaced)
}
