package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/models"
)

var (
	bucketAssumed     = []byte("assumed")
	bucketCheckpoints = []byte("checkpoints")
)

// replicationBucket возвращает bucket служебных данных репликации.
// В read-only транзакции отсутствующий bucket возвращается как nil.
func replicationBucket(tx *bbolt.Tx, replicationID string, name []byte) (*bbolt.Bucket, error) {
	root := tx.Bucket(bucketReplications)
	if root == nil {
		return nil, fmt.Errorf("replications bucket not found")
	}

	if !tx.Writable() {
		rep := root.Bucket([]byte(replicationID))
		if rep == nil {
			return nil, nil
		}
		return rep.Bucket(name), nil
	}

	rep, err := root.CreateBucketIfNotExists([]byte(replicationID))
	if err != nil {
		return nil, fmt.Errorf("failed to create replication bucket: %w", err)
	}
	bucket, err := rep.CreateBucketIfNotExists(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s bucket: %w", name, err)
	}
	return bucket, nil
}

// GetAssumedMasterStates возвращает состояния master, известные репликации
func (s *Storage) GetAssumedMasterStates(ctx context.Context, replicationID string, ids []string) (map[string]*models.Document, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	states := make(map[string]*models.Document, len(ids))
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := replicationBucket(tx, replicationID, bucketAssumed)
		if err != nil || bucket == nil {
			return err
		}
		for _, id := range ids {
			doc, err := decodeDocument(bucket.Get([]byte(id)))
			if err != nil {
				return err
			}
			if doc != nil {
				states[id] = doc
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get assumed master states: %w", err)
	}

	return states, nil
}

// SaveAssumedMasterStates сохраняет состояния master одной транзакцией
func (s *Storage) SaveAssumedMasterStates(ctx context.Context, replicationID string, docs []*models.Document) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := replicationBucket(tx, replicationID, bucketAssumed)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			data, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to marshal assumed state: %w", err)
			}
			if err := bucket.Put([]byte(doc.ID), data); err != nil {
				return fmt.Errorf("failed to save assumed state: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save assumed master states: %w", err)
	}

	return nil
}

// GetCheckpoint возвращает checkpoint направления, nil если его еще нет
func (s *Storage) GetCheckpoint(ctx context.Context, replicationID string, direction models.Direction) (models.Checkpoint, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var checkpoint models.Checkpoint
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket, err := replicationBucket(tx, replicationID, bucketCheckpoints)
		if err != nil || bucket == nil {
			return err
		}
		if data := bucket.Get([]byte(direction)); data != nil {
			// значение bbolt живет только внутри транзакции
			checkpoint = append(models.Checkpoint(nil), data...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s checkpoint: %w", direction, err)
	}

	return checkpoint, nil
}

// SaveCheckpoint сохраняет checkpoint направления
func (s *Storage) SaveCheckpoint(ctx context.Context, replicationID string, direction models.Direction, checkpoint models.Checkpoint) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := replicationBucket(tx, replicationID, bucketCheckpoints)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(direction), checkpoint)
	})
	if err != nil {
		return fmt.Errorf("failed to save %s checkpoint: %w", direction, err)
	}

	return nil
}

// DropReplication удаляет служебные данные репликации (следующий запуск начнется с нуля)
func (s *Storage) DropReplication(ctx context.Context, replicationID string) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		err := tx.Bucket(bucketReplications).DeleteBucket([]byte(replicationID))
		if err != nil && err != bbolt.ErrBucketNotFound {
			return fmt.Errorf("failed to drop replication %s: %w", replicationID, err)
		}
		return nil
	})
}
