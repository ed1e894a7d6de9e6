// Package boltdb локальное хранилище клиента в одном файле BoltDB:
// документы fork, журнал изменений, служебные данные репликаций и метаданные узла.
package boltdb

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/pubsub"
)

// FormatVersion версия раскладки buckets. Файл с другой версией не открывается.
const FormatVersion = 1

var (
	bucketMetadata     = []byte("metadata")
	bucketDocuments    = []byte("documents")
	bucketChanges      = []byte("changes")
	bucketChangeIndex  = []byte("change_index")
	bucketReplications = []byte("replications")

	keyFormat = []byte("format_version")
)

// Storage реализует replication.ForkStorage, replication.MetaStorage
// и клиентские интерфейсы storage.
type Storage struct {
	db      *bbolt.DB
	changes *pubsub.Broadcaster[models.ChangeEvent]
	writeMu sync.Mutex
}

// New открывает (или создает) файл хранилища dbPath
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{
		db:      db,
		changes: pubsub.New[models.ChangeEvent](false),
	}
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	return s, nil
}

// Close закрывает файл и завершает подписки на изменения. Повторный вызов ничего не делает.
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	s.changes.Close()
	err := s.db.Close()
	s.db = nil
	return err
}

// initBuckets создает buckets и проверяет версию формата файла
func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{
			bucketMetadata,
			bucketDocuments,
			bucketChanges,
			bucketChangeIndex,
			bucketReplications,
		} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}

		meta := tx.Bucket(bucketMetadata)
		raw := meta.Get(keyFormat)
		if raw == nil {
			return meta.Put(keyFormat, []byte(strconv.Itoa(FormatVersion)))
		}
		version, err := strconv.Atoi(string(raw))
		if err != nil || version != FormatVersion {
			return fmt.Errorf("unsupported storage format %q, expected %d", raw, FormatVersion)
		}
		return nil
	})
}

// viewMetadata и updateMetadata выполняют транзакцию над bucket метаданных
func (s *Storage) viewMetadata(fn func(bucket *bbolt.Bucket) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}
		return fn(bucket)
	})
}

func (s *Storage) updateMetadata(fn func(bucket *bbolt.Bucket) error) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}
		return fn(bucket)
	})
}
