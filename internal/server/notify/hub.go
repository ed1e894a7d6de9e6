// Package notify рассылает события записи в master подписчикам live-потока
// и, если подключена шина NATS, публикует их в subject коллекции.
package notify

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/pubsub"
	"github.com/iudanet/gophsync/pkg/api"
)

// Subject возвращает NATS subject коллекции
func Subject(collection string) string {
	return api.NotifySubject(collection)
}

// Event событие записи в коллекцию master
type Event struct {
	Collection string
	Checkpoint models.Checkpoint
	Documents  []*models.Document
}

// Publisher внешняя шина уведомлений (*nats.Conn)
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Hub in-process рассылка событий по коллекциям
type Hub struct {
	logger    *slog.Logger
	publisher Publisher
	topics    map[string]*pubsub.Broadcaster[Event]
	mu        sync.Mutex
	closed    bool
}

// NewHub создает hub. publisher может быть nil.
func NewHub(logger *slog.Logger, publisher Publisher) *Hub {
	return &Hub{
		logger:    logger,
		publisher: publisher,
		topics:    make(map[string]*pubsub.Broadcaster[Event]),
	}
}

// Publish рассылает событие подписчикам коллекции
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	topic := h.topic(ev.Collection)
	h.mu.Unlock()

	topic.Publish(ev)

	if h.publisher == nil {
		return
	}
	data, err := json.Marshal(api.StreamMessage{
		Type:       api.StreamMessageBatch,
		Checkpoint: ev.Checkpoint,
		Documents:  ev.Documents,
	})
	if err != nil {
		h.logger.Error("Failed to marshal change notification", "collection", ev.Collection, "error", err)
		return
	}
	if err := h.publisher.Publish(Subject(ev.Collection), data); err != nil {
		// live-поток только ускоряет доставку: клиенты догонят через pull
		h.logger.Warn("Failed to publish change notification", "collection", ev.Collection, "error", err)
	}
}

// Subscribe подписывает на события коллекции.
// После Close канал закрывается.
func (h *Hub) Subscribe(collection string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		ch := make(chan Event)
		close(ch)
		return ch, func() {}
	}
	return h.topic(collection).Subscribe()
}

// Close закрывает все подписки
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, topic := range h.topics {
		topic.Close()
	}
}

// topic вызывается под h.mu
func (h *Hub) topic(collection string) *pubsub.Broadcaster[Event] {
	topic, ok := h.topics[collection]
	if !ok {
		topic = pubsub.New[Event](false)
		h.topics[collection] = topic
	}
	return topic
}
