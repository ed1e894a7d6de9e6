package replication

import (
	"context"

	"github.com/iudanet/gophsync/internal/models"
)

//go:generate moq -out interfaces_mock.go . ForkStorage MetaStorage PullHandler PushHandler PullStreamer Leadership

// ForkStorage локальное хранилище, которое реплицируется (fork).
type ForkStorage interface {
	// BulkWrite атомарно записывает строки. Строка, у которой Previous не совпадает
	// с текущим состоянием в хранилище, возвращается в ошибках со StatusConflict.
	BulkWrite(ctx context.Context, rows []models.BulkWriteRow) (*models.BulkWriteResult, error)

	// FindByIDs возвращает текущие состояния документов (включая удаленные).
	// Отсутствующие id в результат не попадают.
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.Document, error)

	// ChangesSince возвращает следующий пакет измененных документов после checkpoint.
	// Пакет короче limit означает "пока больше ничего нет".
	ChangesSince(ctx context.Context, checkpoint models.Checkpoint, limit int) (*models.DocumentsWithCheckpoint, error)

	// Subscribe подписывает на события записи. Вызов функции отписки закрывает канал.
	Subscribe() (<-chan models.ChangeEvent, func())
}

// MetaStorage хранилище служебных данных репликации (meta instance).
// Все данные разделены по идентификатору репликации.
type MetaStorage interface {
	// GetAssumedMasterStates возвращает состояния, которые репликация считает текущими на master
	GetAssumedMasterStates(ctx context.Context, replicationID string, ids []string) (map[string]*models.Document, error)

	// SaveAssumedMasterStates сохраняет состояния master для документов
	SaveAssumedMasterStates(ctx context.Context, replicationID string, docs []*models.Document) error

	// GetCheckpoint возвращает последний обработанный checkpoint направления (nil если его нет)
	GetCheckpoint(ctx context.Context, replicationID string, direction models.Direction) (models.Checkpoint, error)

	// SaveCheckpoint сохраняет checkpoint направления
	SaveCheckpoint(ctx context.Context, replicationID string, direction models.Direction, checkpoint models.Checkpoint) error
}

// PullHandler читает изменения master пакетами.
type PullHandler interface {
	Pull(ctx context.Context, checkpoint models.Checkpoint, batchSize int) (*models.DocumentsWithCheckpoint, error)
}

// PushHandler пишет строки в master и возвращает текущие состояния master
// для строк, которые конфликтуют (AssumedMasterState не совпал с master).
type PushHandler interface {
	Push(ctx context.Context, rows []models.WriteRow) ([]*models.Document, error)
}

// PullStreamer live-поток изменений master.
// Канал закрывается, когда ctx отменен или поток завершен.
type PullStreamer interface {
	Stream(ctx context.Context) (<-chan models.PullStreamItem, error)
}

// Leadership дает сигнал, что текущий процесс может вести сетевую репликацию.
type Leadership interface {
	AwaitLeadership(ctx context.Context) error
}

// PullHandlerFunc адаптер функции к PullHandler
type PullHandlerFunc func(ctx context.Context, checkpoint models.Checkpoint, batchSize int) (*models.DocumentsWithCheckpoint, error)

// Pull вызывает f(ctx, checkpoint, batchSize)
func (f PullHandlerFunc) Pull(ctx context.Context, checkpoint models.Checkpoint, batchSize int) (*models.DocumentsWithCheckpoint, error) {
	return f(ctx, checkpoint, batchSize)
}

// PushHandlerFunc адаптер функции к PushHandler
type PushHandlerFunc func(ctx context.Context, rows []models.WriteRow) ([]*models.Document, error)

// Push вызывает f(ctx, rows)
func (f PushHandlerFunc) Push(ctx context.Context, rows []models.WriteRow) ([]*models.Document, error) {
	return f(ctx, rows)
}
