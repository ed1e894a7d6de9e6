package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/iudanet/gophsync/internal/metrics"
	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/replication"
	"github.com/iudanet/gophsync/internal/server/notify"
	"github.com/iudanet/gophsync/internal/server/storage"
	"github.com/iudanet/gophsync/internal/validation"
	"github.com/iudanet/gophsync/pkg/api"
)

const (
	// MaxPullLimit верхняя граница размера пакета pull
	MaxPullLimit = 1000
	// MaxPushBodySize ограничение тела push запроса
	MaxPushBodySize = 16 << 20

	// DefaultPingInterval период ping в live-потоке, должен быть меньше таймаута чтения клиента
	DefaultPingInterval = 30 * time.Second
	streamWriteWait     = 10 * time.Second
)

// ReplicationHandler обслуживает master сторону протокола репликации
type ReplicationHandler struct {
	logger   *slog.Logger
	storage  storage.DocumentStorage
	hub      *notify.Hub
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
	// PingInterval можно уменьшить в тестах
	PingInterval time.Duration
}

// NewReplicationHandler создает handler репликации
func NewReplicationHandler(logger *slog.Logger, docs storage.DocumentStorage, hub *notify.Hub, m *metrics.Metrics) *ReplicationHandler {
	return &ReplicationHandler{
		logger:  logger,
		storage: docs,
		hub:     hub,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// клиенты репликации не браузеры, Origin не проверяем
			CheckOrigin: func(*http.Request) bool { return true },
		},
		PingInterval: DefaultPingInterval,
	}
}

// Pull обрабатывает GET /api/v1/replication/{collection}/pull?checkpoint=<json>&limit=N
func (h *ReplicationHandler) Pull(w http.ResponseWriter, r *http.Request) {
	collection, ok := h.authorize(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()

	var checkpoint models.Checkpoint
	if raw := query.Get("checkpoint"); raw != "" {
		checkpoint = models.Checkpoint(raw)
		if _, err := models.ParseSeqCheckpoint(checkpoint); err != nil {
			h.logger.Warn("Invalid checkpoint", "collection", collection, "error", err)
			h.sendError(w, "invalid checkpoint", http.StatusBadRequest)
			return
		}
	}

	limit := replication.DefaultBatchSize
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.sendError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, MaxPullLimit)
	}

	result, err := h.storage.ChangesSince(r.Context(), collection, checkpoint, limit)
	if err != nil {
		h.logger.Error("Failed to read changes", "collection", collection, "error", err)
		h.sendError(w, "failed to read changes", http.StatusInternalServerError)
		return
	}

	h.metrics.PulledDocuments.WithLabelValues(collection).Add(float64(len(result.Documents)))
	h.logger.Debug("Pull served", "collection", collection, "count", len(result.Documents))

	documents := result.Documents
	if documents == nil {
		documents = []*models.Document{}
	}
	h.sendJSON(w, api.PullResponse{
		Checkpoint: json.RawMessage(result.Checkpoint),
		Documents:  documents,
	}, http.StatusOK)
}

// Push обрабатывает POST /api/v1/replication/{collection}/push.
// Принятые строки рассылаются подписчикам live-потока коллекции.
func (h *ReplicationHandler) Push(w http.ResponseWriter, r *http.Request) {
	collection, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req api.PushRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxPushBodySize)).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode push request", "collection", collection, "error", err)
		h.sendError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	for _, row := range req.Rows {
		if err := validateRow(row); err != nil {
			h.logger.Warn("Invalid push row", "collection", collection, "error", err)
			h.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	result, err := h.storage.MasterWrite(r.Context(), collection, req.Rows)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidRow) {
			h.sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to write push rows", "collection", collection, "error", err)
		h.sendError(w, "failed to write documents", http.StatusInternalServerError)
		return
	}

	h.metrics.PushedRows.WithLabelValues(collection).Add(float64(len(req.Rows)))
	h.metrics.PushConflicts.WithLabelValues(collection).Add(float64(len(result.Conflicts)))

	if len(result.Written) > 0 {
		h.hub.Publish(notify.Event{
			Collection: collection,
			Checkpoint: result.Checkpoint,
			Documents:  result.Written,
		})
	}

	h.logger.Info("Push applied",
		"collection", collection,
		"rows", len(req.Rows),
		"written", len(result.Written),
		"conflicts", len(result.Conflicts))

	conflicts := result.Conflicts
	if conflicts == nil {
		conflicts = []*models.Document{}
	}
	h.sendJSON(w, api.PushResponse{Conflicts: conflicts}, http.StatusOK)
}

// Stream обрабатывает GET /api/v1/replication/{collection}/stream (websocket).
// Сразу после подключения отправляется resync, затем пакеты записанных документов.
func (h *ReplicationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	collection, ok := h.authorize(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.Warn("Websocket upgrade failed", "collection", collection, "error", err)
		return
	}
	defer conn.Close()

	// подписка до resync, чтобы не потерять записи между ними
	events, unsubscribe := h.hub.Subscribe(collection)
	defer unsubscribe()

	gauge := h.metrics.StreamClients.WithLabelValues(collection)
	gauge.Inc()
	defer gauge.Dec()

	h.logger.Info("Stream client connected", "collection", collection, "remote_addr", r.RemoteAddr)
	defer h.logger.Info("Stream client disconnected", "collection", collection, "remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// входящие сообщения не ожидаются, читаем только ради close/pong
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := h.writeMessage(conn, api.StreamMessage{Type: api.StreamMessageResync}); err != nil {
		return
	}

	ticker := time.NewTicker(h.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(streamWriteWait))
			return
		case ev, ok := <-events:
			if !ok {
				// hub закрыт при остановке сервера
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(streamWriteWait))
				return
			}
			msg := api.StreamMessage{
				Type:       api.StreamMessageBatch,
				Checkpoint: json.RawMessage(ev.Checkpoint),
				Documents:  ev.Documents,
			}
			if err := h.writeMessage(conn, msg); err != nil {
				h.logger.Debug("Failed to write stream message", "collection", collection, "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

func (h *ReplicationHandler) writeMessage(conn *websocket.Conn, msg api.StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}

// authorize проверяет имя коллекции и права токена на нее
func (h *ReplicationHandler) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	collection := r.PathValue("collection")
	if err := validation.ValidateCollection(collection); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}

	claims, ok := GetClaims(r.Context())
	if !ok {
		h.logger.Error("Claims not found in context")
		h.sendError(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	if !claims.AllowsCollection(collection) {
		h.logger.Warn("Collection access denied", "subject", claims.Subject, "collection", collection)
		h.sendError(w, "access to collection denied", http.StatusForbidden)
		return "", false
	}

	return collection, true
}

func validateRow(row models.WriteRow) error {
	doc := row.NewDocumentState
	if doc == nil {
		return errors.New("row without new document state")
	}
	if err := validation.ValidateDocumentID(doc.ID); err != nil {
		return err
	}
	if row.AssumedMasterState != nil && row.AssumedMasterState.ID != doc.ID {
		return errors.New("assumed master state belongs to another document")
	}
	return nil
}

// sendJSON отправляет JSON ответ
func (h *ReplicationHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// sendError отправляет JSON ответ с ошибкой
func (h *ReplicationHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	resp := api.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	h.sendJSON(w, resp, statusCode)
}
