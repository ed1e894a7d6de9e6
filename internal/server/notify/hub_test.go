package notify

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

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

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	err  error
	msgs []published
	mu   sync.Mutex
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{subject: subject, data: data})
	return p.err
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "gophsync.notes.changes", Subject("notes"))
}

func TestHub_PublishByCollection(t *testing.T) {
	hub := NewHub(setupTestLogger(), nil)
	defer hub.Close()

	notes, unsubNotes := hub.Subscribe("notes")
	defer unsubNotes()
	tasks, unsubTasks := hub.Subscribe("tasks")
	defer unsubTasks()

	hub.Publish(Event{Collection: "notes", Checkpoint: models.NewSeqCheckpoint(1)})
	hub.Publish(Event{Collection: "tasks", Checkpoint: models.NewSeqCheckpoint(7)})

	ev := receive(t, notes)
	assert.Equal(t, "notes", ev.Collection)
	assert.JSONEq(t, `{"seq":1}`, string(ev.Checkpoint))

	ev = receive(t, tasks)
	assert.Equal(t, "tasks", ev.Collection)

	select {
	case ev := <-notes:
		t.Fatalf("unexpected event for notes: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_MirrorsToPublisher(t *testing.T) {
	publisher := &fakePublisher{}
	hub := NewHub(setupTestLogger(), publisher)
	defer hub.Close()

	hub.Publish(Event{
		Collection: "notes",
		Checkpoint: models.NewSeqCheckpoint(3),
		Documents:  []*models.Document{{ID: "a", Data: json.RawMessage(`1`)}},
	})

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	require.Len(t, publisher.msgs, 1)
	assert.Equal(t, "gophsync.notes.changes", publisher.msgs[0].subject)

	var msg api.StreamMessage
	require.NoError(t, json.Unmarshal(publisher.msgs[0].data, &msg))
	assert.Equal(t, api.StreamMessageBatch, msg.Type)
	assert.JSONEq(t, `{"seq":3}`, string(msg.Checkpoint))
	require.Len(t, msg.Documents, 1)
	assert.Equal(t, "a", msg.Documents[0].ID)
}

func TestHub_PublisherErrorDoesNotBlockLocal(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("nats down")}
	hub := NewHub(setupTestLogger(), publisher)
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe("notes")
	defer unsubscribe()

	hub.Publish(Event{Collection: "notes"})
	receive(t, ch)
}

func TestHub_Close(t *testing.T) {
	hub := NewHub(setupTestLogger(), nil)
	ch, unsubscribe := hub.Subscribe("notes")
	defer unsubscribe()

	hub.Close()
	hub.Close()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed")
	}

	// после Close публикация игнорируется, подписка сразу закрыта
	hub.Publish(Event{Collection: "notes"})
	late, _ := hub.Subscribe("notes")
	_, ok := <-late
	assert.False(t, ok)
}
