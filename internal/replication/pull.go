package replication

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iudanet/gophsync/internal/crdt"
	"github.com/iudanet/gophsync/internal/models"
)

type pullTask struct {
	item models.PullStreamItem
	time int64
}

// taskQueue очередь задач pull: RESYNC и пакеты live-потока.
// Пакеты, пришедшие до последнего запроса к master, отбрасываются:
// их содержимое уже покрыто ответом на этот запрос.
type taskQueue struct {
	notify        chan struct{}
	tasks         []pullTask
	clock         int64
	lastRequested int64
	mu            sync.Mutex
}

func newTaskQueue() *taskQueue {
	return &taskQueue{notify: make(chan struct{}, 1)}
}

func (q *taskQueue) Add(item models.PullStreamItem) {
	q.mu.Lock()
	q.clock++
	q.tasks = append(q.tasks, pullTask{item: item, time: q.clock})
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// markRequested фиксирует момент запроса к master
func (q *taskQueue) markRequested() {
	q.mu.Lock()
	q.clock++
	q.lastRequested = q.clock
	q.mu.Unlock()
}

// take забирает следующую порцию задач: либо один RESYNC,
// либо подряд идущие пакеты до ближайшего RESYNC.
func (q *taskQueue) take() []pullTask {
	q.mu.Lock()
	defer q.mu.Unlock()

	var taken []pullTask
	i := 0
	for ; i < len(q.tasks); i++ {
		task := q.tasks[i]
		if task.time < q.lastRequested {
			continue
		}
		if task.item.Resync {
			if len(taken) == 0 {
				taken = append(taken, task)
				i++
			}
			break
		}
		taken = append(taken, task)
	}
	q.tasks = append(q.tasks[:0], q.tasks[i:]...)
	return taken
}

func (r *Replication) runPull(ctx context.Context) {
	r.pullQueue.Add(models.ResyncItem())

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.pullQueue.notify:
		}

		if err := r.drainPullQueue(ctx); err != nil {
			if !errors.Is(err, ErrCancelled) {
				r.logger.Debug("Pull loop finished", "error", err)
			}
			return
		}
	}
}

func (r *Replication) drainPullQueue(ctx context.Context) error {
	r.setActive(models.DirectionPull, true)
	defer r.setActive(models.DirectionPull, false)

	for !r.isStopped() && !r.paused.Load() {
		tasks := r.pullQueue.take()
		if len(tasks) == 0 {
			return nil
		}

		var err error
		if tasks[0].item.Resync {
			err = r.pullResync(ctx)
		} else {
			err = r.pullStreamBatches(ctx, tasks)
		}
		if err != nil {
			return err
		}
	}

	if r.isStopped() {
		return ErrCancelled
	}
	return nil
}

// pullResync читает master от сохраненного checkpoint, пока не придет неполный пакет
func (r *Replication) pullResync(ctx context.Context) error {
	checkpoint, err := r.loadCheckpoint(ctx, models.DirectionPull)
	if err != nil {
		return err
	}

	for {
		r.pullQueue.markRequested()

		var result *models.DocumentsWithCheckpoint
		err := r.retry(ctx, models.DirectionPull, nil, func(hctx context.Context) error {
			res, err := r.cfg.Pull.Pull(hctx, checkpoint, r.cfg.PullBatchSize)
			if err != nil {
				return fmt.Errorf("failed to pull from master: %w", err)
			}
			if err := validatePullResult(res); err != nil {
				return err
			}
			result = res
			return nil
		})
		if err != nil {
			return err
		}
		if r.isStopped() {
			return ErrCancelled
		}

		r.stats.PullCycles.Add(1)

		if len(result.Documents) > 0 {
			if err := r.applyMasterDocuments(ctx, result.Documents, result.Checkpoint); err != nil {
				return err
			}
			checkpoint = result.Checkpoint
		}

		if len(result.Documents) < r.cfg.PullBatchSize {
			break
		}
	}

	r.markFirstSync(models.DirectionPull)
	r.logger.Debug("Pull resync finished")
	return nil
}

// pullStreamBatches применяет пакеты live-потока, checkpoint берется у последнего
func (r *Replication) pullStreamBatches(ctx context.Context, tasks []pullTask) error {
	var (
		docs       []*models.Document
		checkpoint models.Checkpoint
	)
	for _, task := range tasks {
		batch := task.item.Batch
		if batch == nil {
			continue
		}
		docs = append(docs, batch.Documents...)
		if len(batch.Checkpoint) > 0 {
			checkpoint = batch.Checkpoint
		}
	}
	if len(docs) == 0 {
		return nil
	}
	if len(checkpoint) == 0 {
		// без checkpoint пакет применить нельзя, перечитываем master
		r.pullQueue.Add(models.ResyncItem())
		return nil
	}

	return r.applyMasterDocuments(ctx, docs, checkpoint)
}

func (r *Replication) applyMasterDocuments(ctx context.Context, docs []*models.Document, checkpoint models.Checkpoint) error {
	var received []*models.Document
	err := r.retry(ctx, models.DirectionPull, docs, func(hctx context.Context) error {
		var err error
		received, err = r.persistFromMaster(hctx, docs, checkpoint)
		return err
	})
	if err != nil {
		return err
	}

	r.stats.Received.Add(int64(len(received)))
	for _, doc := range received {
		r.received.Publish(doc)
	}
	return nil
}

// persistFromMaster применяет состояния master к fork и продвигает checkpoint pull.
// Checkpoint сохраняется только после записи fork и meta.
func (r *Replication) persistFromMaster(ctx context.Context, docs []*models.Document, checkpoint models.Checkpoint) ([]*models.Document, error) {
	r.docMu.Lock()
	defer r.docMu.Unlock()

	if r.isStopped() {
		return nil, nil
	}

	masterByID, ids := dedupe(docs)

	forkState, err := r.cfg.Fork.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read fork state: %w", err)
	}
	assumedState, err := r.cfg.Meta.GetAssumedMasterStates(ctx, r.cfg.Identifier, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to read assumed master state: %w", err)
	}

	var (
		forkRows    []models.BulkWriteRow
		metaUpdates []*models.Document
		resolved    []ResolvedConflict
		fromMaster  = make(map[string]bool)
		metaOnWrite = make(map[string]*models.Document)
	)

	for _, id := range ids {
		master := masterByID[id]
		fork := forkState[id]
		assumed := assumedState[id]

		// в fork есть локальное изменение, которое еще не дошло до master
		if fork != nil && (assumed == nil || !r.handler.IsEqual(assumed, fork)) {
			if r.handler.IsEqual(fork, master) {
				metaUpdates = append(metaUpdates, master)
				continue
			}

			input := crdt.ConflictInput{
				NewDocumentState:   fork,
				RealMasterState:    master,
				AssumedMasterState: assumed,
			}
			output, err := r.handler.Resolve(ctx, input)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve conflict for %s: %w", id, err)
			}
			resolved = append(resolved, ResolvedConflict{Input: input, Output: output, Direction: models.DirectionPull})

			if r.handler.IsEqual(output, fork) {
				// победило локальное состояние: push отправит его с новым assumed
				metaUpdates = append(metaUpdates, master)
				continue
			}
			if r.handler.IsEqual(output, master) {
				output = master.Clone()
				fromMaster[id] = true
			}
			forkRows = append(forkRows, models.BulkWriteRow{Previous: fork, Document: output})
			metaOnWrite[id] = master
			continue
		}

		if fork != nil && r.handler.IsEqual(fork, master) {
			// состояние уже применено (повтор пакета)
			continue
		}

		forkRows = append(forkRows, models.BulkWriteRow{Previous: fork, Document: master.Clone()})
		metaOnWrite[id] = master
		fromMaster[id] = true
	}

	var received []*models.Document
	if len(forkRows) > 0 {
		result, err := r.cfg.Fork.BulkWrite(ctx, forkRows)
		if err != nil {
			return nil, fmt.Errorf("failed to write master state to fork: %w", err)
		}
		for _, writeErr := range result.Errors {
			if !writeErr.IsConflict() {
				return nil, fmt.Errorf("failed to write master state to fork: %w", writeErr)
			}
			// fork изменился между чтением и записью, документ обработает следующий цикл
			r.logger.Debug("Skipping document changed during pull", "id", writeErr.ID)
		}
		for _, doc := range result.Success {
			if master, ok := metaOnWrite[doc.ID]; ok {
				metaUpdates = append(metaUpdates, master)
			}
			if fromMaster[doc.ID] {
				received = append(received, doc)
			}
		}
	}

	if len(metaUpdates) > 0 {
		if err := r.cfg.Meta.SaveAssumedMasterStates(ctx, r.cfg.Identifier, metaUpdates); err != nil {
			return nil, fmt.Errorf("failed to save assumed master state: %w", err)
		}
	}
	if err := r.cfg.Meta.SaveCheckpoint(ctx, r.cfg.Identifier, models.DirectionPull, checkpoint); err != nil {
		return nil, fmt.Errorf("failed to save pull checkpoint: %w", err)
	}

	r.publishResolved(resolved)
	return received, nil
}

func (r *Replication) publishResolved(resolved []ResolvedConflict) {
	for _, rc := range resolved {
		r.stats.Conflicts.Add(1)
		r.conflicts.Publish(rc)
	}
}

func (r *Replication) runStream(ctx context.Context) {
	for {
		var items <-chan models.PullStreamItem
		err := r.retry(ctx, models.DirectionPull, nil, func(context.Context) error {
			var err error
			items, err = r.cfg.Stream.Stream(ctx)
			if err != nil {
				return fmt.Errorf("failed to open master stream: %w", err)
			}
			return nil
		})
		if err != nil {
			return
		}

		// записи master между первым pull и подпиской на поток в поток не попали
		if !r.paused.Load() {
			r.pullQueue.Add(models.ResyncItem())
		}

		for item := range items {
			r.stats.StreamEvents.Add(1)
			if r.paused.Load() {
				continue
			}
			r.pullQueue.Add(item)
			if item.Resync {
				r.triggerPush()
			}
		}

		if ctx.Err() != nil || r.isStopped() {
			return
		}

		// поток оборвался: события могли потеряться
		r.logger.Warn("Master stream closed, reconnecting")
		r.pullQueue.Add(models.ResyncItem())
		if !r.sleep(ctx, r.cfg.RetryTime) {
			return
		}
	}
}

func validatePullResult(res *models.DocumentsWithCheckpoint) error {
	if res == nil {
		return fmt.Errorf("%w: nil pull result", ErrInvalidResult)
	}
	if len(res.Documents) > 0 && len(res.Checkpoint) == 0 {
		return fmt.Errorf("%w: pull result without checkpoint", ErrInvalidResult)
	}
	for _, doc := range res.Documents {
		if doc == nil || doc.ID == "" {
			return fmt.Errorf("%w: document without id", ErrInvalidResult)
		}
	}
	return nil
}

// dedupe оставляет последнее состояние каждого документа, сохраняя порядок id
func dedupe(docs []*models.Document) (map[string]*models.Document, []string) {
	byID := make(map[string]*models.Document, len(docs))
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		if _, ok := byID[doc.ID]; !ok {
			ids = append(ids, doc.ID)
		}
		byID[doc.ID] = doc
	}
	return byID, ids
}
