package storage

import (
	"context"

	"github.com/iudanet/gophsync/internal/models"
)

//go:generate moq -out documents_mock.go . DocumentStorage

// ListOptions фильтр выборки документов
type ListOptions struct {
	// Type пустая строка означает любой тип
	Type           string
	IncludeDeleted bool
}

// DocumentStorage defines interface for local document storage (fork)
type DocumentStorage interface {
	// BulkWrite атомарно записывает строки с проверкой ревизии Previous
	BulkWrite(ctx context.Context, rows []models.BulkWriteRow) (*models.BulkWriteResult, error)

	// FindByIDs returns current states (including deleted ones)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.Document, error)

	// List returns documents ordered by ID
	List(ctx context.Context, opts ListOptions) ([]*models.Document, error)

	// MaxTimestamp returns the maximum Lamport timestamp in the local store
	// Used to restore the clock after restart
	MaxTimestamp(ctx context.Context) (int64, error)
}
