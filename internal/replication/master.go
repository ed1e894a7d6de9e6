package replication

import (
	"context"
	"fmt"

	"github.com/iudanet/gophsync/internal/crdt"
	"github.com/iudanet/gophsync/internal/models"
)

// CheckMasterWrite решает, можно ли применить строку к текущему состоянию master.
// Правило одинаково для всех адаптеров master:
//   - документа на master нет: запись разрешена
//   - документ есть, а реплика считает его новым: конфликт
//   - AssumedMasterState совпадает с master по содержимому: запись разрешена
//   - иначе конфликт
func CheckMasterWrite(handler crdt.ConflictHandler, row models.WriteRow, master *models.Document) bool {
	if master == nil {
		return true
	}
	if row.AssumedMasterState == nil {
		return false
	}
	return handler.IsEqual(row.AssumedMasterState, master)
}

// StorageHandler представляет любое ForkStorage как master.
// Позволяет реплицировать одно локальное хранилище с другим.
type StorageHandler struct {
	storage ForkStorage
	handler crdt.ConflictHandler
}

var (
	_ PullHandler  = (*StorageHandler)(nil)
	_ PushHandler  = (*StorageHandler)(nil)
	_ PullStreamer = (*StorageHandler)(nil)
)

// NewStorageHandler создает master-обработчик поверх хранилища
func NewStorageHandler(storage ForkStorage, handler crdt.ConflictHandler) *StorageHandler {
	if handler == nil {
		handler = crdt.LWWHandler{}
	}
	return &StorageHandler{storage: storage, handler: handler}
}

// Pull возвращает изменения хранилища после checkpoint
func (h *StorageHandler) Pull(ctx context.Context, checkpoint models.Checkpoint, batchSize int) (*models.DocumentsWithCheckpoint, error) {
	result, err := h.storage.ChangesSince(ctx, checkpoint, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read master changes: %w", err)
	}
	if len(result.Documents) == 0 {
		result.Checkpoint = checkpoint
	}
	return result, nil
}

// Push применяет строки к хранилищу и возвращает конфликтующие состояния master
func (h *StorageHandler) Push(ctx context.Context, rows []models.WriteRow) ([]*models.Document, error) {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.NewDocumentState.ID)
	}

	masterState, err := h.storage.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read master state: %w", err)
	}

	var conflicts []*models.Document
	writeRows := make([]models.BulkWriteRow, 0, len(rows))
	for _, row := range rows {
		master := masterState[row.NewDocumentState.ID]
		if !CheckMasterWrite(h.handler, row, master) {
			conflicts = append(conflicts, master.Clone())
			continue
		}
		writeRows = append(writeRows, models.BulkWriteRow{
			Previous: master,
			Document: row.NewDocumentState.Clone(),
		})
	}

	if len(writeRows) == 0 {
		return conflicts, nil
	}

	result, err := h.storage.BulkWrite(ctx, writeRows)
	if err != nil {
		return nil, fmt.Errorf("failed to write to master: %w", err)
	}
	for _, writeErr := range result.Errors {
		if !writeErr.IsConflict() {
			return nil, fmt.Errorf("non conflict error on master write: %w", writeErr)
		}
		conflicts = append(conflicts, writeErr.DocumentInDB)
	}

	return conflicts, nil
}

// Stream транслирует события записи хранилища в live-поток
func (h *StorageHandler) Stream(ctx context.Context) (<-chan models.PullStreamItem, error) {
	events, unsubscribe := h.storage.Subscribe()
	out := make(chan models.PullStreamItem)

	go func() {
		defer close(out)
		defer unsubscribe()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				item := models.PullStreamItem{Batch: &models.DocumentsWithCheckpoint{
					Documents:  ev.Documents,
					Checkpoint: ev.Checkpoint,
				}}
				select {
				case out <- item:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
