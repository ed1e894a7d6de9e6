// Package sync запускает репликацию локального хранилища с master:
// однократную синхронизацию и постоянный live режим.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	gosync "sync"
	"time"

	"github.com/iudanet/gophsync/internal/crdt"
	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/replication"
)

//go:generate moq -out service_mock.go . Service

// Service определяет интерфейс для sync.Service
type Service interface {
	// Sync выполняет один полный проход pull и push
	Sync(ctx context.Context) (*SyncResult, error)

	// Watch ведет live репликацию до отмены ctx или фатальной ошибки.
	// observe вызывается с репликацией до ее запуска (метрики, логирование).
	Watch(ctx context.Context, observe func(*replication.Replication)) error

	// PendingCount возвращает количество документов, еще не принятых master
	PendingCount(ctx context.Context) (int, error)

	// Reset удаляет checkpoints и assumed states репликации.
	// Следующая синхронизация перечитает master с начала и заново отправит все локальные документы.
	Reset(ctx context.Context) error
}

// Storage локальное хранилище: fork и meta одновременно (boltdb.Storage)
type Storage interface {
	replication.ForkStorage
	replication.MetaStorage
	DropReplication(ctx context.Context, replicationID string) error
}

// Master обработчики master стороны. Stream опционален.
type Master struct {
	Pull   replication.PullHandler
	Push   replication.PushHandler
	Stream replication.PullStreamer
}

// Options параметры репликации
type Options struct {
	ConflictHandler crdt.ConflictHandler
	Leadership      replication.Leadership
	// Registry не дает запустить две репликации с одним Identifier в процессе
	Registry *replication.Registry
	// Identifier пространство имен checkpoint и assumed states в локальном хранилище
	Identifier    string
	PullBatchSize int
	PushBatchSize int
	RetryTime     time.Duration
	LiveInterval  time.Duration
}

// SyncResult contains sync operation results
type SyncResult struct {
	Pushed    int64 // документов принято master
	Pulled    int64 // документов записано локально из master
	Conflicts int64 // разрешенных конфликтов
	Errors    int64 // ошибок, после которых шаг повторялся
}

type service struct {
	store  Storage
	master Master
	logger *slog.Logger
	opts   Options
}

// NewService creates a new sync service
func NewService(store Storage, master Master, opts Options, logger *slog.Logger) (Service, error) {
	if opts.Identifier == "" {
		return nil, errors.New("replication identifier is required")
	}
	if master.Pull == nil && master.Push == nil {
		return nil, errors.New("master has neither pull nor push handler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		store:  store,
		master: master,
		opts:   opts,
		logger: logger.With("replication", opts.Identifier),
	}, nil
}

func (s *service) newReplication(live bool) (*replication.Replication, error) {
	cfg := replication.Config{
		Identifier:      s.opts.Identifier,
		Fork:            s.store,
		Meta:            s.store,
		Pull:            s.master.Pull,
		Push:            s.master.Push,
		ConflictHandler: s.opts.ConflictHandler,
		Leadership:      s.opts.Leadership,
		Logger:          s.logger,
		PullBatchSize:   s.opts.PullBatchSize,
		PushBatchSize:   s.opts.PushBatchSize,
		RetryTime:       s.opts.RetryTime,
		Live:            live,
	}
	if live && s.master.Pull != nil {
		cfg.Stream = s.master.Stream
		cfg.LiveInterval = s.opts.LiveInterval
	}
	rep, err := replication.New(cfg)
	if err != nil {
		return nil, err
	}
	if s.opts.Registry != nil {
		if err := s.opts.Registry.Register(rep); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

// release снимает репликацию с регистрации и останавливает ее
func (s *service) release(rep *replication.Replication) {
	if s.opts.Registry == nil || !s.opts.Registry.Remove(rep.Identifier()) {
		rep.Cancel()
	}
}

// Sync performs one full pull and push pass.
// Ошибки повторяются, пока ctx не отменен; фатальная ошибка прерывает синхронизацию сразу.
func (s *service) Sync(ctx context.Context) (*SyncResult, error) {
	rep, err := s.newReplication(false)
	if err != nil {
		return nil, err
	}

	errs, unsubscribe := rep.Errors()
	defer unsubscribe()

	var (
		lastErr error
		mu      gosync.Mutex
	)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for replErr := range errs {
			s.logger.Warn("Synchronization step failed", "direction", replErr.Direction, "fatal", replErr.Fatal, "error", replErr)
			mu.Lock()
			lastErr = replErr
			mu.Unlock()
		}
	}()

	s.logger.Info("Starting synchronization")
	rep.Start(ctx)
	waitErr := rep.AwaitInitialReplication(ctx)
	s.release(rep)
	<-collected

	stats := rep.Stats()
	result := &SyncResult{
		Pushed:    stats.Sent,
		Pulled:    stats.Received,
		Conflicts: stats.Conflicts,
		Errors:    stats.Errors,
	}

	if waitErr != nil {
		mu.Lock()
		defer mu.Unlock()
		if lastErr != nil {
			return result, fmt.Errorf("synchronization failed: %w", lastErr)
		}
		return result, fmt.Errorf("synchronization failed: %w", waitErr)
	}

	s.logger.Info("Synchronization completed",
		"pushed", result.Pushed,
		"pulled", result.Pulled,
		"conflicts", result.Conflicts)
	return result, nil
}

// Watch runs live replication
func (s *service) Watch(ctx context.Context, observe func(*replication.Replication)) error {
	rep, err := s.newReplication(true)
	if err != nil {
		return err
	}
	defer s.release(rep)

	errs, unsubscribe := rep.Errors()
	defer unsubscribe()

	if observe != nil {
		observe(rep)
	}

	s.logger.Info("Starting live replication")
	rep.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case replErr, ok := <-errs:
			if !ok {
				return nil
			}
			if replErr.Fatal {
				return fmt.Errorf("replication stopped: %w", replErr)
			}
			s.logger.Warn("Replication step failed, retrying", "direction", replErr.Direction, "error", replErr)
		}
	}
}

// PendingCount считает документы после push checkpoint, которые отличаются
// от состояния, известного master
func (s *service) PendingCount(ctx context.Context) (int, error) {
	checkpoint, err := s.store.GetCheckpoint(ctx, s.opts.Identifier, models.DirectionPush)
	if err != nil {
		return 0, fmt.Errorf("failed to get push checkpoint: %w", err)
	}

	batchSize := s.opts.PushBatchSize
	if batchSize <= 0 {
		batchSize = replication.DefaultBatchSize
	}

	pending := 0
	for {
		batch, err := s.store.ChangesSince(ctx, checkpoint, batchSize)
		if err != nil {
			return 0, fmt.Errorf("failed to read local changes: %w", err)
		}
		if len(batch.Documents) == 0 {
			return pending, nil
		}

		ids := make([]string, 0, len(batch.Documents))
		for _, doc := range batch.Documents {
			ids = append(ids, doc.ID)
		}
		assumed, err := s.store.GetAssumedMasterStates(ctx, s.opts.Identifier, ids)
		if err != nil {
			return 0, fmt.Errorf("failed to get assumed master states: %w", err)
		}
		for _, doc := range batch.Documents {
			if !doc.ContentEqual(assumed[doc.ID]) {
				pending++
			}
		}

		if len(batch.Documents) < batchSize {
			return pending, nil
		}
		checkpoint = batch.Checkpoint
	}
}

// Reset удаляет служебные данные репликации
func (s *service) Reset(ctx context.Context) error {
	if s.opts.Registry != nil {
		if _, running := s.opts.Registry.Get(s.opts.Identifier); running {
			return fmt.Errorf("replication %s is running", s.opts.Identifier)
		}
	}
	if err := s.store.DropReplication(ctx, s.opts.Identifier); err != nil {
		return fmt.Errorf("failed to reset replication: %w", err)
	}
	s.logger.Info("Replication state dropped")
	return nil
}
