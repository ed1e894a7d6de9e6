package storage

//go:generate moq -out storage_mock.go . DocumentStorage TokenStorage

import (
	"context"

	"github.com/iudanet/gophsync/internal/models"
)

// MasterWriteResult результат записи push в master
type MasterWriteResult struct {
	// Checkpoint позиция последней записи (пустой, если ничего не записано)
	Checkpoint models.Checkpoint
	// Written записанные состояния в порядке записи
	Written []*models.Document
	// Conflicts текущие состояния master для отклоненных строк
	Conflicts []*models.Document
}

// DocumentStorage defines interface for master document persistence.
// Документы разделены по коллекциям, у каждой коллекции свой журнал изменений.
type DocumentStorage interface {
	// ChangesSince returns documents changed after checkpoint ordered by change sequence
	ChangesSince(ctx context.Context, collection string, checkpoint models.Checkpoint, limit int) (*models.DocumentsWithCheckpoint, error)

	// MasterWrite applies push rows in one transaction.
	// Строка записывается, только если ее AssumedMasterState совпадает с master.
	MasterWrite(ctx context.Context, collection string, rows []models.WriteRow) (*MasterWriteResult, error)

	// GetDocument retrieves a single document (including deleted)
	// Returns ErrDocumentNotFound if document doesn't exist
	GetDocument(ctx context.Context, collection, id string) (*models.Document, error)

	// ListDocuments returns documents of a collection ordered by ID
	ListDocuments(ctx context.Context, collection string, includeDeleted bool) ([]*models.Document, error)

	// Collections returns names of collections that have documents
	Collections(ctx context.Context) ([]string, error)
}
