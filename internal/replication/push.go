package replication

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/gophsync/internal/crdt"
	"github.com/iudanet/gophsync/internal/models"
)

func (r *Replication) runPush(ctx context.Context) {
	events, unsubscribe := r.cfg.Fork.Subscribe()
	defer unsubscribe()

	r.triggerPush()

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
		case <-r.pushTrigger:
		}

		if r.paused.Load() {
			continue
		}

		if err := r.pushSync(ctx); err != nil {
			if !errors.Is(err, ErrCancelled) {
				r.logger.Debug("Push loop finished", "error", err)
			}
			return
		}
	}
}

// pushSync отправляет в master все изменения fork после checkpoint push
func (r *Replication) pushSync(ctx context.Context) error {
	r.setActive(models.DirectionPush, true)
	defer r.setActive(models.DirectionPush, false)

	checkpoint, err := r.loadCheckpoint(ctx, models.DirectionPush)
	if err != nil {
		return err
	}

	for {
		if r.isStopped() {
			return ErrCancelled
		}

		var changes *models.DocumentsWithCheckpoint
		err := r.retry(ctx, models.DirectionPush, nil, func(hctx context.Context) error {
			var err error
			changes, err = r.cfg.Fork.ChangesSince(hctx, checkpoint, r.cfg.PushBatchSize)
			if err != nil {
				return fmt.Errorf("failed to read fork changes: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if len(changes.Documents) == 0 {
			break
		}

		rewritten, err := r.pushChanges(ctx, changes.Documents, changes.Checkpoint)
		if err != nil {
			return err
		}
		checkpoint = changes.Checkpoint

		// записи разрешенных конфликтов попадают в конец журнала изменений fork
		if len(changes.Documents) < r.cfg.PushBatchSize && !rewritten {
			break
		}
	}

	r.markFirstSync(models.DirectionPush)
	return nil
}

// pushChanges отправляет пакет изменений fork и обрабатывает ответ master.
// Возвращает true, если fork был перезаписан результатом разрешения конфликта.
func (r *Replication) pushChanges(ctx context.Context, docs []*models.Document, checkpoint models.Checkpoint) (bool, error) {
	var rows []models.WriteRow
	err := r.retry(ctx, models.DirectionPush, docs, func(hctx context.Context) error {
		var err error
		rows, err = r.buildPushRows(hctx, docs)
		return err
	})
	if err != nil {
		return false, err
	}

	conflicts := make(map[string]*models.Document)
	for start := 0; start < len(rows); start += r.cfg.PushBatchSize {
		end := min(start+r.cfg.PushBatchSize, len(rows))
		chunk := rows[start:end]

		err := r.retry(ctx, models.DirectionPush, rowDocuments(chunk), func(hctx context.Context) error {
			prepared, err := r.preparePush(hctx, chunk)
			if err != nil {
				return err
			}
			result, err := r.cfg.Push.Push(hctx, prepared)
			if err != nil {
				return fmt.Errorf("failed to push to master: %w", err)
			}
			for _, doc := range result {
				if doc == nil || doc.ID == "" {
					return fmt.Errorf("%w: conflict without document id", ErrInvalidResult)
				}
				conflicts[doc.ID] = doc
			}
			return nil
		})
		if err != nil {
			return false, err
		}
		// репликация остановлена, пока запрос был в полете: результат отбрасываем
		if r.isStopped() {
			return false, ErrCancelled
		}
		r.stats.PushCycles.Add(1)
	}

	var (
		sent      []*models.Document
		resolved  []ResolvedConflict
		rewritten bool
	)
	err = r.retry(ctx, models.DirectionPush, docs, func(hctx context.Context) error {
		var err error
		sent, resolved, rewritten, err = r.persistToMaster(hctx, rows, conflicts, checkpoint)
		return err
	})
	if err != nil {
		return false, err
	}

	r.stats.Sent.Add(int64(len(sent)))
	for _, doc := range sent {
		r.sent.Publish(doc)
	}
	r.publishResolved(resolved)

	return rewritten, nil
}

// buildPushRows собирает строки записи. Документы, чье состояние совпадает
// с известным состоянием master, не отправляются.
func (r *Replication) buildPushRows(ctx context.Context, docs []*models.Document) ([]models.WriteRow, error) {
	r.docMu.Lock()
	defer r.docMu.Unlock()

	byID, ids := dedupe(docs)
	assumedState, err := r.cfg.Meta.GetAssumedMasterStates(ctx, r.cfg.Identifier, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read assumed master state: %w", err)
	}

	rows := make([]models.WriteRow, 0, len(ids))
	for _, id := range ids {
		doc := byID[id]
		assumed := assumedState[id]
		if assumed != nil && r.handler.IsEqual(assumed, doc) {
			continue
		}
		rows = append(rows, models.WriteRow{
			AssumedMasterState: assumed,
			NewDocumentState:   doc,
		})
	}
	return rows, nil
}

func (r *Replication) preparePush(ctx context.Context, rows []models.WriteRow) ([]models.WriteRow, error) {
	if r.cfg.PreparePush == nil {
		return rows, nil
	}
	prepared := make([]models.WriteRow, 0, len(rows))
	for _, row := range rows {
		p, err := r.cfg.PreparePush(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare push row %s: %w", row.NewDocumentState.ID, err)
		}
		prepared = append(prepared, p)
	}
	return prepared, nil
}

// persistToMaster фиксирует результат push: обновляет assumed master state
// принятых строк, разрешает конфликты и продвигает checkpoint push.
func (r *Replication) persistToMaster(
	ctx context.Context,
	rows []models.WriteRow,
	conflicts map[string]*models.Document,
	checkpoint models.Checkpoint,
) ([]*models.Document, []ResolvedConflict, bool, error) {
	r.docMu.Lock()
	defer r.docMu.Unlock()

	if r.isStopped() {
		return nil, nil, false, ErrCancelled
	}

	var (
		sent        []*models.Document
		resolved    []ResolvedConflict
		metaUpdates []*models.Document
		forkRows    []models.BulkWriteRow
		metaOnWrite = make(map[string]*models.Document)
	)

	for _, row := range rows {
		doc := row.NewDocumentState
		master, conflicted := conflicts[doc.ID]
		if !conflicted {
			metaUpdates = append(metaUpdates, doc)
			sent = append(sent, doc)
			continue
		}

		if r.handler.IsEqual(doc, master) {
			// master уже содержит это состояние
			metaUpdates = append(metaUpdates, master)
			continue
		}

		input := crdt.ConflictInput{
			NewDocumentState:   doc,
			RealMasterState:    master,
			AssumedMasterState: row.AssumedMasterState,
		}
		output, err := r.handler.Resolve(ctx, input)
		if err != nil {
			return nil, nil, false, fmt.Errorf("failed to resolve conflict for %s: %w", doc.ID, err)
		}
		if r.handler.IsEqual(output, master) {
			output = master.Clone()
		}
		resolved = append(resolved, ResolvedConflict{Input: input, Output: output, Direction: models.DirectionPush})

		forkRows = append(forkRows, models.BulkWriteRow{Previous: doc, Document: output})
		metaOnWrite[doc.ID] = master
	}

	if len(metaUpdates) > 0 {
		if err := r.cfg.Meta.SaveAssumedMasterStates(ctx, r.cfg.Identifier, metaUpdates); err != nil {
			return nil, nil, false, fmt.Errorf("failed to save assumed master state: %w", err)
		}
		metaUpdates = metaUpdates[:0]
	}

	rewritten := false
	if len(forkRows) > 0 {
		result, err := r.cfg.Fork.BulkWrite(ctx, forkRows)
		if err != nil {
			return nil, nil, false, fmt.Errorf("failed to write resolved conflicts to fork: %w", err)
		}
		for _, writeErr := range result.Errors {
			if !writeErr.IsConflict() {
				return nil, nil, false, fmt.Errorf("failed to write resolved conflict to fork: %w", writeErr)
			}
			// локальная запись новее: она будет отправлена следующим циклом
			r.logger.Debug("Skipping conflict resolution for locally changed document", "id", writeErr.ID)
		}
		for _, doc := range result.Success {
			if master, ok := metaOnWrite[doc.ID]; ok {
				metaUpdates = append(metaUpdates, master)
			}
		}
		rewritten = len(result.Success) > 0
	}

	if len(metaUpdates) > 0 {
		if err := r.cfg.Meta.SaveAssumedMasterStates(ctx, r.cfg.Identifier, metaUpdates); err != nil {
			return nil, nil, false, fmt.Errorf("failed to save assumed master state: %w", err)
		}
	}
	if err := r.cfg.Meta.SaveCheckpoint(ctx, r.cfg.Identifier, models.DirectionPush, checkpoint); err != nil {
		return nil, nil, false, fmt.Errorf("failed to save push checkpoint: %w", err)
	}

	return sent, resolved, rewritten, nil
}

func rowDocuments(rows []models.WriteRow) []*models.Document {
	docs := make([]*models.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.NewDocumentState)
	}
	return docs
}
