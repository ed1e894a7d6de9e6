// Package replication реализует протокол репликации fork <-> master:
// инкрементальная синхронизация по checkpoint, разрешение конфликтов
// и машина состояний с повтором упавших шагов.
package replication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/iudanet/gophsync/internal/crdt"
	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/pubsub"
)

const (
	// DefaultBatchSize размер пакета pull/push по умолчанию
	DefaultBatchSize = 100
	// DefaultRetryTime пауза перед повтором упавшего шага по умолчанию
	DefaultRetryTime = 5 * time.Second
	// DefaultLiveInterval период принудительного RESYNC в live режиме
	DefaultLiveInterval = 10 * time.Second
)

// Status состояние машины репликации
type Status int

const (
	StatusCreated Status = iota
	StatusStarting
	StatusActive
	StatusRetryWait
	StatusPaused
	StatusCancelled
	StatusErrored
)

func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusStarting:
		return "starting"
	case StatusActive:
		return "active"
	case StatusRetryWait:
		return "retry_wait"
	case StatusPaused:
		return "paused"
	case StatusCancelled:
		return "cancelled"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Config параметры репликации
type Config struct {
	Fork ForkStorage
	Meta MetaStorage

	// Pull и Push опциональны, но хотя бы один должен быть задан
	Pull   PullHandler
	Push   PushHandler
	Stream PullStreamer

	// ConflictHandler по умолчанию crdt.LWWHandler
	ConflictHandler crdt.ConflictHandler
	Leadership      Leadership

	// Backoff создает политику ожидания перед повтором.
	// По умолчанию постоянная пауза RetryTime.
	Backoff func() backoff.BackOff

	// PreparePush вызывается для каждой строки перед отправкой в master
	// (например, чтобы дочитать данные вложений).
	PreparePush func(ctx context.Context, row models.WriteRow) (models.WriteRow, error)

	Logger *slog.Logger

	// Identifier уникальный идентификатор репликации (пространство имен в MetaStorage)
	Identifier string

	PullBatchSize int
	PushBatchSize int
	RetryTime     time.Duration

	// LiveInterval период принудительного RESYNC в live режиме, 0 отключает
	LiveInterval time.Duration

	// Live=false выполняет один полный проход pull+push и останавливается
	Live bool
}

// Replication машина состояний репликации одной коллекции
type Replication struct {
	cfg     Config
	handler crdt.ConflictHandler
	logger  *slog.Logger

	ctx        context.Context
	cancel     context.CancelFunc
	handlerCtx context.Context

	active    *pubsub.Broadcaster[bool]
	errs      *pubsub.Broadcaster[*Error]
	sent      *pubsub.Broadcaster[*models.Document]
	received  *pubsub.Broadcaster[*models.Document]
	conflicts *pubsub.Broadcaster[ResolvedConflict]

	pullQueue   *taskQueue
	pushTrigger chan struct{}

	stopped       chan struct{}
	done          chan struct{}
	firstPullDone chan struct{}
	firstPushDone chan struct{}

	stats Stats
	wg    sync.WaitGroup

	stopOnce      sync.Once
	firstPullOnce sync.Once
	firstPushOnce sync.Once

	// docMu сериализует секции чтение-решение-запись pull и push
	docMu sync.Mutex

	mu     sync.Mutex
	status Status

	retrying   atomic.Int32
	pullActive atomic.Bool
	pushActive atomic.Bool
	paused     atomic.Bool
}

// New создает репликацию. Запуск выполняется методом Start.
func New(cfg Config) (*Replication, error) {
	if cfg.Identifier == "" {
		return nil, errors.New("replication identifier is required")
	}
	if cfg.Fork == nil || cfg.Meta == nil {
		return nil, errors.New("fork and meta storage are required")
	}
	if cfg.Pull == nil && cfg.Push == nil {
		return nil, errors.New("at least one of pull or push handler is required")
	}
	if cfg.Stream != nil && cfg.Pull == nil {
		return nil, errors.New("stream handler requires a pull handler")
	}
	if cfg.PullBatchSize <= 0 {
		cfg.PullBatchSize = DefaultBatchSize
	}
	if cfg.PushBatchSize <= 0 {
		cfg.PushBatchSize = DefaultBatchSize
	}
	if cfg.RetryTime <= 0 {
		cfg.RetryTime = DefaultRetryTime
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	handler := cfg.ConflictHandler
	if handler == nil {
		handler = crdt.LWWHandler{}
	}

	r := &Replication{
		cfg:           cfg,
		handler:       handler,
		logger:        cfg.Logger.With("replication", cfg.Identifier),
		active:        pubsub.New[bool](true),
		errs:          pubsub.New[*Error](false),
		sent:          pubsub.New[*models.Document](false),
		received:      pubsub.New[*models.Document](false),
		conflicts:     pubsub.New[ResolvedConflict](false),
		pullQueue:     newTaskQueue(),
		pushTrigger:   make(chan struct{}, 1),
		stopped:       make(chan struct{}),
		done:          make(chan struct{}),
		firstPullDone: make(chan struct{}),
		firstPushDone: make(chan struct{}),
		status:        StatusCreated,
	}
	r.active.Publish(false)

	if cfg.Pull == nil {
		r.markFirstSync(models.DirectionPull)
	}
	if cfg.Push == nil {
		r.markFirstSync(models.DirectionPush)
	}

	return r, nil
}

// Identifier возвращает идентификатор репликации
func (r *Replication) Identifier() string {
	return r.cfg.Identifier
}

// Start запускает репликацию. Никогда не возвращает ошибки обработчиков:
// все сбои публикуются в потоке Errors().
func (r *Replication) Start(ctx context.Context) {
	r.mu.Lock()
	if r.status != StatusCreated {
		r.mu.Unlock()
		return
	}
	r.status = StatusStarting
	r.ctx, r.cancel = context.WithCancel(ctx)
	// вызовы обработчиков не прерываются при Cancel: запрос в полете завершается,
	// а его результат отбрасывается
	r.handlerCtx = context.WithoutCancel(ctx)
	r.mu.Unlock()

	r.logger.Info("Starting replication",
		"live", r.cfg.Live,
		"pull", r.cfg.Pull != nil,
		"push", r.cfg.Push != nil)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run()
	}()

	go func() {
		<-r.stopped
		r.wg.Wait()
		r.active.Publish(false)
		r.active.Close()
		r.errs.Close()
		r.sent.Close()
		r.received.Close()
		r.conflicts.Close()
		close(r.done)
	}()
}

func (r *Replication) run() {
	if r.cfg.Leadership != nil {
		r.logger.Debug("Waiting for leadership")
		err := r.retry(r.ctx, models.DirectionPull, nil, func(context.Context) error {
			if err := r.cfg.Leadership.AwaitLeadership(r.ctx); err != nil {
				return fmt.Errorf("failed to acquire leadership: %w", err)
			}
			return nil
		})
		if err != nil {
			// фатальную ошибку retry уже зафиксировал
			if r.isStopped() || r.ctx.Err() != nil {
				r.stop(StatusCancelled)
			}
			return
		}
	}

	r.mu.Lock()
	if r.status != StatusStarting {
		r.mu.Unlock()
		return
	}
	r.status = StatusActive
	r.mu.Unlock()

	if r.cfg.Pull != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.runPull(r.ctx)
		}()
	}
	if r.cfg.Push != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.runPush(r.ctx)
		}()
	}
	if r.cfg.Stream != nil {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.runStream(r.ctx)
		}()
	}

	if !r.cfg.Live {
		// однократная синхронизация: после первого полного прохода останавливаемся
		go func() {
			if err := r.AwaitInitialReplication(r.ctx); err == nil {
				r.logger.Info("One-shot replication finished")
				r.Cancel()
			}
		}()
		return
	}

	if r.cfg.LiveInterval > 0 {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.runLiveInterval(r.ctx)
		}()
	}
}

func (r *Replication) runLiveInterval(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.LiveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.ReSync()
		}
	}
}

// Cancel останавливает репликацию. Новые шаги не планируются,
// вызовы обработчиков в полете завершаются, их результат отбрасывается.
func (r *Replication) Cancel() {
	r.mu.Lock()
	started := r.cancel != nil
	r.mu.Unlock()

	r.stop(StatusCancelled)

	if !started {
		r.closeUnstarted()
		return
	}
	<-r.done
}

func (r *Replication) closeUnstarted() {
	r.mu.Lock()
	defer r.mu.Unlock()

	select {
	case <-r.done:
	default:
		r.active.Close()
		r.errs.Close()
		r.sent.Close()
		r.received.Close()
		r.conflicts.Close()
		close(r.done)
	}
}

// stop переводит машину в терминальное состояние (первое победившее сохраняется)
func (r *Replication) stop(status Status) {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.status = status
		cancel := r.cancel
		r.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		close(r.stopped)
		r.logger.Info("Replication stopped", "status", status.String())
	})
}

// fail публикует фатальную ошибку и переводит машину в StatusErrored
func (r *Replication) fail(err *Error) {
	err.Fatal = true
	r.stats.Errors.Add(1)
	r.errs.Publish(err)
	r.logger.Error("Replication halted by fatal error", "direction", err.Direction, "error", err)
	r.stop(StatusErrored)
}

// ReSync принудительно запускает дополнительный проход pull (и push)
// независимо от состояния таймера.
func (r *Replication) ReSync() {
	if r.isStopped() {
		return
	}
	r.pullQueue.Add(models.ResyncItem())
	r.triggerPush()
}

// Pause приостанавливает планирование новых шагов
func (r *Replication) Pause() {
	if r.isStopped() {
		return
	}
	r.paused.Store(true)
	r.logger.Info("Replication paused")
}

// Resume снимает паузу и запускает RESYNC в обоих направлениях
func (r *Replication) Resume() {
	if r.isStopped() || !r.paused.Swap(false) {
		return
	}
	r.logger.Info("Replication resumed")
	r.ReSync()
}

// Status возвращает текущее состояние машины
func (r *Replication) Status() Status {
	r.mu.Lock()
	status := r.status
	r.mu.Unlock()

	if status != StatusActive {
		return status
	}
	if r.paused.Load() {
		return StatusPaused
	}
	if r.retrying.Load() > 0 {
		return StatusRetryWait
	}
	return StatusActive
}

// AwaitInitialReplication ждет завершения первого полного прохода pull и push
func (r *Replication) AwaitInitialReplication(ctx context.Context) error {
	for _, ch := range []chan struct{}{r.firstPullDone, r.firstPushDone} {
		select {
		case <-ch:
		case <-r.stopped:
			select {
			case <-ch:
			default:
				return ErrCancelled
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// AwaitInSync ждет первой синхронизации и момента, когда обе стороны простаивают
func (r *Replication) AwaitInSync(ctx context.Context) error {
	if err := r.AwaitInitialReplication(ctx); err != nil {
		return err
	}

	activity, unsubscribe := r.active.Subscribe()
	defer unsubscribe()

	for {
		if !r.isActive() && r.pullQueue.Len() == 0 && len(r.pushTrigger) == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stopped:
			return ErrCancelled
		case _, ok := <-activity:
			if !ok {
				return ErrCancelled
			}
		}
	}
}

// Active подписка на признак активности. Новый подписчик сразу получает текущее значение.
func (r *Replication) Active() (<-chan bool, func()) {
	return r.active.Subscribe()
}

// Errors подписка на ошибки репликации
func (r *Replication) Errors() (<-chan *Error, func()) {
	return r.errs.Subscribe()
}

// Sent подписка на документы, принятые master
func (r *Replication) Sent() (<-chan *models.Document, func()) {
	return r.sent.Subscribe()
}

// Received подписка на документы, записанные в fork из master
func (r *Replication) Received() (<-chan *models.Document, func()) {
	return r.received.Subscribe()
}

// ResolvedConflicts подписка на разрешенные конфликты
func (r *Replication) ResolvedConflicts() (<-chan ResolvedConflict, func()) {
	return r.conflicts.Subscribe()
}

// Stats возвращает снимок счетчиков
func (r *Replication) Stats() StatsSnapshot {
	return r.stats.Snapshot()
}

func (r *Replication) isStopped() bool {
	select {
	case <-r.stopped:
		return true
	default:
		return false
	}
}

func (r *Replication) isActive() bool {
	return r.pullActive.Load() || r.pushActive.Load()
}

func (r *Replication) setActive(direction models.Direction, active bool) {
	before := r.isActive()
	if direction == models.DirectionPull {
		r.pullActive.Store(active)
	} else {
		r.pushActive.Store(active)
	}
	if after := r.isActive(); after != before {
		r.active.Publish(after)
	}
}

func (r *Replication) markFirstSync(direction models.Direction) {
	if direction == models.DirectionPull {
		r.firstPullOnce.Do(func() { close(r.firstPullDone) })
		return
	}
	r.firstPushOnce.Do(func() { close(r.firstPushDone) })
}

func (r *Replication) triggerPush() {
	select {
	case r.pushTrigger <- struct{}{}:
	default:
	}
}

func (r *Replication) newBackoff() backoff.BackOff {
	if r.cfg.Backoff != nil {
		return r.cfg.Backoff()
	}
	return backoff.NewConstantBackOff(r.cfg.RetryTime)
}

// retry выполняет шаг цикла до успеха. Каждый сбой публикуется в Errors(),
// после чего шаг повторяется через паузу политики backoff. Фатальная ошибка
// останавливает репликацию. Возвращает nil при успехе, иначе ErrCancelled
// или фатальную ошибку.
func (r *Replication) retry(ctx context.Context, direction models.Direction, docs []*models.Document, op func(ctx context.Context) error) error {
	policy := r.newBackoff()
	policy.Reset()

	for {
		if r.isStopped() {
			return ErrCancelled
		}

		err := op(r.handlerCtx)
		if err == nil {
			return nil
		}
		if r.isStopped() || ctx.Err() != nil {
			return ErrCancelled
		}

		replErr := newError(direction, err, docs)
		if replErr.Fatal {
			r.fail(replErr)
			return err
		}

		wait := policy.NextBackOff()
		if wait == backoff.Stop {
			r.fail(replErr)
			return err
		}

		r.stats.Errors.Add(1)
		r.errs.Publish(replErr)
		r.logger.Warn("Replication step failed, retrying",
			"direction", direction,
			"retry_in", wait,
			"error", err)

		if !r.sleep(ctx, wait) {
			return ErrCancelled
		}
	}
}

func (r *Replication) sleep(ctx context.Context, d time.Duration) bool {
	r.retrying.Add(1)
	defer r.retrying.Add(-1)

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-r.stopped:
		return false
	case <-timer.C:
		return true
	}
}

func (r *Replication) loadCheckpoint(ctx context.Context, direction models.Direction) (models.Checkpoint, error) {
	var checkpoint models.Checkpoint
	err := r.retry(ctx, direction, nil, func(hctx context.Context) error {
		var err error
		checkpoint, err = r.cfg.Meta.GetCheckpoint(hctx, r.cfg.Identifier, direction)
		if err != nil {
			return fmt.Errorf("failed to load %s checkpoint: %w", direction, err)
		}
		return nil
	})
	return checkpoint, err
}
