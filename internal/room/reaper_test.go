package room

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReaperSweepsOnInterval(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.ReapInterval = 10 * time.Millisecond
	h := newHarness(cfg)

	a, _ := h.connect()
	h.join(t, a, "room-1", "Alice")
	rm := h.coordinator.getRoom("room-1")
	require.NotNil(t, rm)
	rm.lastActivity.Store(time.Now().Add(-3 * time.Hour).UnixNano())

	reaper := NewReaper(h.coordinator, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		reaper.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return h.coordinator.RoomCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestReaperDefaultsInterval(t *testing.T) {
	cfg := defaultTestConfig()
	cfg.ReapInterval = 0
	h := newHarness(cfg)

	reaper := NewReaper(h.coordinator, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Equal(t, 30*time.Minute, reaper.interval)
}
