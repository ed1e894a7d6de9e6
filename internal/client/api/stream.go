package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/pkg/api"
)

const (
	// streamReadTimeout сервер шлет ping чаще, иначе соединение считается потерянным
	streamReadTimeout = 60 * time.Second
	streamWriteWait   = 10 * time.Second
	handshakeTimeout  = 10 * time.Second
)

// Stream открывает websocket live-поток изменений коллекции.
// Канал закрывается при отмене ctx или обрыве соединения.
func (c *Client) Stream(ctx context.Context) (<-chan models.PullStreamItem, error) {
	header := http.Header{}
	c.setHeaders(header)

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, c.streamURL(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("stream handshake failed: %w", statusError(resp.StatusCode, nil))
		}
		return nil, fmt.Errorf("failed to dial stream: %w", err)
	}

	out := make(chan models.PullStreamItem)
	done := make(chan struct{})

	// закрытие соединения прерывает ReadMessage
	go func() {
		select {
		case <-ctx.Done():
			deadline := time.Now().Add(streamWriteWait)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			_ = conn.Close()
		case <-done:
		}
	}()

	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(streamWriteWait))
	})

	go func() {
		defer close(out)
		defer close(done)
		defer conn.Close()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(streamReadTimeout))
			messageType, message, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					c.logger.Warn("Replication stream closed", "collection", c.collection, "error", err)
				}
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}

			item, ok := c.decodeStreamMessage(message)
			if !ok {
				continue
			}

			select {
			case out <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (c *Client) decodeStreamMessage(message []byte) (models.PullStreamItem, bool) {
	var msg api.StreamMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("Invalid stream message", "error", err)
		return models.PullStreamItem{}, false
	}

	switch msg.Type {
	case api.StreamMessageResync:
		return models.ResyncItem(), true
	case api.StreamMessageBatch:
		return models.PullStreamItem{Batch: &models.DocumentsWithCheckpoint{
			Checkpoint: msg.Checkpoint,
			Documents:  msg.Documents,
		}}, true
	default:
		c.logger.Debug("Unknown stream message type", "type", msg.Type)
		return models.PullStreamItem{}, false
	}
}

// streamURL меняет схему http(s) на ws(s)
func (c *Client) streamURL() string {
	base := c.baseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + api.ReplicationPath(c.collection, "stream")
}
