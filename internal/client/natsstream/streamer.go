// Package natsstream live-поток изменений master через шину NATS.
//
// Сервер публикует каждый принятый push в subject коллекции. Уведомления
// могут теряться (core NATS без хранения), поэтому поток не передает пакеты
// как есть, а превращает любое уведомление в RESYNC: репликация перечитает
// изменения через pull с сохраненного checkpoint.
package natsstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/pubsub"
	"github.com/iudanet/gophsync/internal/replication"
	"github.com/iudanet/gophsync/pkg/api"
)

// ErrConnectionClosed соединение с NATS закрыто
var ErrConnectionClosed = errors.New("nats connection closed")

// connector подменяется в тестах
var connector = nats.Connect

// Streamer PullStreamer поверх подписки NATS
type Streamer struct {
	conn       *nats.Conn
	logger     *slog.Logger
	reconnects *pubsub.Broadcaster[struct{}]
	collection string
}

var _ replication.PullStreamer = (*Streamer)(nil)

// Connect подключается к NATS и возвращает поток уведомлений коллекции.
// Streamer владеет соединением, закрывается через Close.
func Connect(url, collection string, logger *slog.Logger, opts ...nats.Option) (*Streamer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Streamer{
		logger:     logger,
		collection: collection,
		reconnects: pubsub.New[struct{}](false),
	}

	options := []nats.Option{
		nats.Name("gophsync-client"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
			// за время разрыва уведомления могли потеряться
			s.reconnects.Publish(struct{}{})
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			s.reconnects.Close()
		}),
	}
	options = append(options, opts...)

	nc, err := connector(url, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	s.conn = nc

	logger.Info("Connected to NATS", "url", nc.ConnectedUrl(), "subject", api.NotifySubject(collection))
	return s, nil
}

// Stream подписывается на subject коллекции. Первым элементом всегда идет RESYNC,
// затем RESYNC после каждого уведомления и переподключения.
// Канал закрывается при отмене ctx или закрытии соединения.
func (s *Streamer) Stream(ctx context.Context) (<-chan models.PullStreamItem, error) {
	if s.conn.IsClosed() {
		return nil, ErrConnectionClosed
	}

	notifications := make(chan struct{}, 1)
	sub, err := s.conn.Subscribe(api.NotifySubject(s.collection), func(msg *nats.Msg) {
		if err := parseNotification(msg.Data); err != nil {
			s.logger.Warn("Invalid change notification", "subject", msg.Subject, "error", err)
			return
		}
		signal(notifications)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	reconnects, unsubscribe := s.reconnects.Subscribe()

	out := make(chan models.PullStreamItem)
	go func() {
		defer close(out)
		defer unsubscribe()
		defer func() {
			if err := sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				s.logger.Debug("Failed to unsubscribe", "error", err)
			}
		}()
		forward(ctx, notifications, reconnects, out)
	}()

	return out, nil
}

// Close закрывает соединение, открытые потоки завершаются
func (s *Streamer) Close() {
	s.conn.Close()
}

// forward превращает уведомления и переподключения в RESYNC.
// Несколько уведомлений, пришедших пока потребитель занят, схлопываются в одно.
func forward(ctx context.Context, notifications <-chan struct{}, reconnects <-chan struct{}, out chan<- models.PullStreamItem) {
	pending := true
	for {
		if pending {
			select {
			case out <- models.ResyncItem():
				pending = false
			case <-ctx.Done():
				return
			case _, ok := <-reconnects:
				if !ok {
					return
				}
			case <-notifications:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case _, ok := <-reconnects:
			if !ok {
				return
			}
			pending = true
		case <-notifications:
			pending = true
		}
	}
}

func signal(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// parseNotification проверяет, что сообщение является уведомлением потока
func parseNotification(data []byte) error {
	var msg api.StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	switch msg.Type {
	case api.StreamMessageBatch, api.StreamMessageResync:
		return nil
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}
