// Package data локальный сервис документов: запись и удаление с отметкой
// Lamport clock и идентификатором узла, чтение и выборка.
package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/crdt"
	"github.com/iudanet/gophsync/internal/crypto"
	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/validation"
)

// maxWriteAttempts сколько раз Put повторяет запись при конфликте ревизий
const maxWriteAttempts = 5

//go:generate moq -out service_mock.go . Service

// Service определяет интерфейс для клиентского сервиса документов
type Service interface {
	// Put создает или заменяет документ. Пустой ID заменяется на UUID.
	Put(ctx context.Context, doc *models.Document) (*models.Document, error)
	// Delete помечает документ удаленным (tombstone)
	Delete(ctx context.Context, id string) (*models.Document, error)
	// Get возвращает документ. Удаленный документ считается отсутствующим.
	Get(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, opts storage.ListOptions) ([]*models.Document, error)
	NodeID() string
}

// Option настраивает сервис
type Option func(*service)

// WithSealer включает шифрование содержимого документов
func WithSealer(sealer *crypto.Sealer) Option {
	return func(s *service) {
		s.sealer = sealer
	}
}

// WithLogger задает logger сервиса
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// service handles client-side document operations
type service struct {
	docs   storage.DocumentStorage
	clock  *crdt.LamportClock
	sealer *crypto.Sealer
	logger *slog.Logger
}

// NewService creates a new data service.
// Идентификатор узла берется из metadata (создается при первом запуске),
// часы продолжают счет с максимального timestamp локального хранилища.
func NewService(ctx context.Context, docs storage.DocumentStorage, meta storage.MetadataStorage, opts ...Option) (Service, error) {
	s := &service{docs: docs, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	nodeID, err := meta.GetNodeID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get node id: %w", err)
	}
	if nodeID == "" {
		nodeID = uuid.New().String()
		if err := meta.SaveNodeID(ctx, nodeID); err != nil {
			return nil, fmt.Errorf("failed to save node id: %w", err)
		}
		s.logger.Info("Generated node id", "node_id", nodeID)
	}

	maxTimestamp, err := docs.MaxTimestamp(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get max timestamp: %w", err)
	}

	s.clock = crdt.NewLamportClock(nodeID)
	s.clock.Observe(maxTimestamp)

	return s, nil
}

func (s *service) NodeID() string {
	return s.clock.NodeID()
}

// Put stores a new document state
func (s *service) Put(ctx context.Context, doc *models.Document) (*models.Document, error) {
	next := doc.Clone()

	// Генерируем ID если не задан
	if next.ID == "" {
		next.ID = uuid.New().String()
	}
	if err := validation.ValidateDocumentID(next.ID); err != nil {
		return nil, err
	}
	if err := validation.ValidateType(next.Type); err != nil {
		return nil, err
	}
	if err := validation.ValidateData(next.Data); err != nil {
		return nil, err
	}

	// Шифруем данные
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(next.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to seal document: %w", err)
		}
		next.Data = sealed
	}

	next.Deleted = false
	saved, err := s.write(ctx, next)
	if err != nil {
		return nil, err
	}
	return s.open(saved)
}

// Delete writes a tombstone for the document
func (s *service) Delete(ctx context.Context, id string) (*models.Document, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil || current.Deleted {
		return nil, storage.ErrDocumentNotFound
	}

	tombstone := current.Clone()
	tombstone.Deleted = true

	saved, err := s.write(ctx, tombstone)
	if err != nil {
		return nil, err
	}
	return s.open(saved)
}

// Get retrieves a live document by ID
func (s *service) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	// Проверяем что не удалено
	if doc == nil || doc.Deleted {
		return nil, storage.ErrDocumentNotFound
	}
	return s.open(doc)
}

// List returns documents, sealed payloads are decrypted when a key is set
func (s *service) List(ctx context.Context, opts storage.ListOptions) ([]*models.Document, error) {
	docs, err := s.docs.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	result := make([]*models.Document, 0, len(docs))
	for _, doc := range docs {
		opened, err := s.open(doc)
		if err != nil {
			// Пропускаем поврежденные записи
			s.logger.Warn("Skipping document that cannot be decrypted", "id", doc.ID, "error", err)
			continue
		}
		result = append(result, opened)
	}
	return result, nil
}

// write пишет новое состояние поверх текущего, повторяя при конфликте ревизий
func (s *service) write(ctx context.Context, doc *models.Document) (*models.Document, error) {
	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		current, err := s.find(ctx, doc.ID)
		if err != nil {
			return nil, err
		}

		next := doc.Clone()
		s.clock.Stamp(next, current)

		result, err := s.docs.BulkWrite(ctx, []models.BulkWriteRow{{Previous: current, Document: next}})
		if err != nil {
			return nil, fmt.Errorf("failed to save document: %w", err)
		}
		if len(result.Errors) == 0 {
			if len(result.Success) == 0 {
				return nil, fmt.Errorf("failed to save document: empty write result")
			}
			return result.Success[0], nil
		}

		writeErr := result.Errors[0]
		if !writeErr.IsConflict() {
			return nil, fmt.Errorf("failed to save document: %w", writeErr)
		}
		// документ изменился параллельно (например, pull репликации)
		s.logger.Debug("Retrying document write after conflict", "id", doc.ID, "attempt", attempt+1)
	}

	return nil, fmt.Errorf("failed to save document %s: %w", doc.ID, storage.ErrConflict)
}

func (s *service) find(ctx context.Context, id string) (*models.Document, error) {
	found, err := s.docs.FindByIDs(ctx, []string{id})
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return found[id], nil
}

// open расшифровывает содержимое документа, если задан ключ
func (s *service) open(doc *models.Document) (*models.Document, error) {
	if s.sealer == nil || !crypto.IsSealed(doc.Data) {
		return doc, nil
	}

	opened, err := s.sealer.Open(doc.Data)
	if err != nil {
		if errors.Is(err, crypto.ErrNotSealed) {
			return doc, nil
		}
		return nil, fmt.Errorf("failed to decrypt document %s: %w", doc.ID, err)
	}

	out := doc.Clone()
	out.Data = opened
	return out, nil
}
