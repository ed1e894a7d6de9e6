// Package api описывает HTTP протокол репликации между клиентом и сервером.
package api

import (
	"encoding/json"

	"github.com/iudanet/gophsync/internal/models"
)

const (
	// ProtocolVersion версия протокола репликации.
	// Клиент и сервер с разными версиями не могут реплицироваться.
	ProtocolVersion = "1"

	// ProtocolHeader заголовок с версией протокола в каждом запросе репликации
	ProtocolHeader = "X-Replication-Protocol"
)

// Пути API
const (
	PathHealth      = "/api/v1/health"
	PathReplication = "/api/v1/replication/"
	PathMetrics     = "/metrics"
)

// PullResponse ответ на GET /api/v1/replication/{collection}/pull
type PullResponse struct {
	Checkpoint json.RawMessage    `json:"checkpoint"` // checkpoint, до которого продвигает пакет
	Documents  []*models.Document `json:"documents"`  // документы после checkpoint запроса
}

// PushRequest запрос POST /api/v1/replication/{collection}/push
type PushRequest struct {
	Rows []models.WriteRow `json:"rows"`
}

// PushResponse ответ на push: текущие состояния master для конфликтующих строк
type PushResponse struct {
	Conflicts []*models.Document `json:"conflicts"`
}

// Типы сообщений live-потока
const (
	StreamMessageResync = "resync" // что-то изменилось, перечитайте с checkpoint
	StreamMessageBatch  = "batch"  // пакет документов с checkpoint
)

// StreamMessage сообщение websocket потока /api/v1/replication/{collection}/stream
type StreamMessage struct {
	Type       string             `json:"type"`
	Checkpoint json.RawMessage    `json:"checkpoint,omitempty"`
	Documents  []*models.Document `json:"documents,omitempty"`
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version,omitempty"`
	Protocol string `json:"protocol"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// ReplicationPath возвращает путь операции репликации коллекции
func ReplicationPath(collection, op string) string {
	return PathReplication + collection + "/" + op
}

// PathCollections корень read API коллекций master
const PathCollections = "/api/v1/collections"

// CollectionsResponse ответ GET /api/v1/collections
type CollectionsResponse struct {
	Collections []string `json:"collections"`
}

// DocumentsResponse ответ GET /api/v1/collections/{collection}/documents
type DocumentsResponse struct {
	Documents []*models.Document `json:"documents"`
}

// NotifySubjectPrefix префикс NATS subject уведомлений об изменениях
const NotifySubjectPrefix = "gophsync."

// NotifySubject возвращает NATS subject коллекции: gophsync.<collection>.changes
func NotifySubject(collection string) string {
	return NotifySubjectPrefix + collection + ".changes"
}
