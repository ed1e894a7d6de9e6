// Package leader выбирает единственный процесс, который ведет сетевую репликацию.
// Лидер держит эксклюзивную блокировку файла bbolt; остальные ждут ее освобождения.
package leader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

// DefaultPollInterval как долго одна попытка ждет блокировку файла
const DefaultPollInterval = 500 * time.Millisecond

var bucketLeader = []byte("leader")

// Lock лидерство на основе файла-блокировки
type Lock struct {
	logger    *slog.Logger
	db        *bbolt.DB
	path      string
	interval  time.Duration
	acquireMu sync.Mutex // сериализует попытки стать лидером
	mu        sync.Mutex // защищает db
}

// New создает блокировку. Файл создается при первой попытке стать лидером.
func New(path string, interval time.Duration, logger *slog.Logger) *Lock {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Lock{path: path, interval: interval, logger: logger}
}

// AwaitLeadership блокируется, пока процесс не станет лидером или ctx не будет отменен
func (l *Lock) AwaitLeadership(ctx context.Context) error {
	l.acquireMu.Lock()
	defer l.acquireMu.Unlock()

	if l.IsLeader() {
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		db, err := bbolt.Open(l.path, 0600, &bbolt.Options{Timeout: l.interval})
		if err == nil {
			if err := markLeader(db); err != nil {
				db.Close()
				return err
			}
			l.mu.Lock()
			l.db = db
			l.mu.Unlock()
			l.logger.Info("Leadership acquired", "path", l.path)
			return nil
		}
		if !errors.Is(err, berrors.ErrTimeout) {
			return fmt.Errorf("failed to open leader lock: %w", err)
		}
		// файл держит другой процесс, пробуем снова
		l.logger.Debug("Waiting for leadership", "path", l.path)
	}
}

// IsLeader сообщает, удерживает ли процесс блокировку
func (l *Lock) IsLeader() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db != nil
}

// Release освобождает лидерство
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return nil
	}
	err := l.db.Close()
	l.db = nil
	if err != nil {
		return fmt.Errorf("failed to release leader lock: %w", err)
	}
	l.logger.Info("Leadership released", "path", l.path)
	return nil
}

// markLeader записывает время получения лидерства (для диагностики)
func markLeader(db *bbolt.DB) error {
	return db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(bucketLeader)
		if err != nil {
			return fmt.Errorf("failed to create leader bucket: %w", err)
		}
		return bucket.Put([]byte("acquired_at"), []byte(time.Now().UTC().Format(time.RFC3339Nano)))
	})
}
