package natsstream

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/pkg/api"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func receive(t *testing.T, ch <-chan models.PullStreamItem) models.PullStreamItem {
	t.Helper()
	select {
	case item, ok := <-ch:
		require.True(t, ok, "stream closed")
		return item
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for stream item")
	}
	return models.PullStreamItem{}
}

func assertSilent(t *testing.T, ch <-chan models.PullStreamItem) {
	t.Helper()
	select {
	case item := <-ch:
		t.Fatalf("unexpected stream item: %+v", item)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestParseNotification(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "batch", data: `{"type":"batch","checkpoint":{"seq":3},"documents":[{"id":"a"}]}`},
		{name: "resync", data: `{"type":"resync"}`},
		{name: "unknown type", data: `{"type":"hello"}`, wantErr: true},
		{name: "not json", data: `seq=3`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseNotification([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestForward_InitialResyncAndCoalescing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifications := make(chan struct{}, 1)
	reconnects := make(chan struct{})
	out := make(chan models.PullStreamItem)

	done := make(chan struct{})
	go func() {
		defer close(done)
		forward(ctx, notifications, reconnects, out)
	}()

	assert.True(t, receive(t, out).Resync)
	assertSilent(t, out)

	// три уведомления без чтения потока дают один RESYNC
	for i := 0; i < 3; i++ {
		signal(notifications)
		time.Sleep(10 * time.Millisecond)
	}
	assert.True(t, receive(t, out).Resync)
	assertSilent(t, out)

	reconnects <- struct{}{}
	assert.True(t, receive(t, out).Resync)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("forward did not stop")
	}
}

func TestForward_StopsWhenConnectionClosed(t *testing.T) {
	reconnects := make(chan struct{})
	out := make(chan models.PullStreamItem)

	done := make(chan struct{})
	go func() {
		defer close(done)
		forward(context.Background(), make(chan struct{}), reconnects, out)
	}()

	receive(t, out)
	close(reconnects)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("forward did not stop")
	}
}

func TestConnect_Error(t *testing.T) {
	orig := connector
	t.Cleanup(func() { connector = orig })
	connector = func(string, ...nats.Option) (*nats.Conn, error) {
		return nil, nats.ErrNoServers
	}

	_, err := Connect("nats://127.0.0.1:1", "notes", setupTestLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, nats.ErrNoServers))
}

// TestStreamer_NATS требует запущенный сервер NATS (NATS_URL)
func TestStreamer_NATS(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}

	streamer, err := Connect(url, "notes", setupTestLogger(), nats.Timeout(time.Second))
	if err != nil {
		t.Skipf("NATS not reachable: %v", err)
	}
	defer streamer.Close()

	publisher, err := nats.Connect(url)
	require.NoError(t, err)
	defer publisher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items, err := streamer.Stream(ctx)
	require.NoError(t, err)
	assert.True(t, receive(t, items).Resync)
	require.NoError(t, streamer.conn.Flush())

	require.NoError(t, publisher.Publish(api.NotifySubject("notes"), []byte(`{"type":"batch","checkpoint":{"seq":1}}`)))
	require.NoError(t, publisher.Publish(api.NotifySubject("tasks"), []byte(`{"type":"batch","checkpoint":{"seq":1}}`)))
	require.NoError(t, publisher.Flush())

	assert.True(t, receive(t, items).Resync)
	assertSilent(t, items)

	streamer.Close()
	select {
	case _, ok := <-items:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed after connection close")
	}

	_, err = streamer.Stream(ctx)
	assert.ErrorIs(t, err, ErrConnectionClosed)
}
