package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophsync/internal/client/storage"
)

// keyAuth токен доступа хранится рядом с остальными метаданными узла
var keyAuth = []byte("auth")

// SaveAuth заменяет сохраненный токен
func (s *Storage) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	data, err := json.Marshal(auth)
	if err != nil {
		return fmt.Errorf("failed to marshal auth data: %w", err)
	}
	err = s.updateMetadata(func(bucket *bbolt.Bucket) error {
		return bucket.Put(keyAuth, data)
	})
	if err != nil {
		return fmt.Errorf("failed to save auth data: %w", err)
	}
	return nil
}

// GetAuth возвращает сохраненный токен или storage.ErrAuthNotFound
func (s *Storage) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	var auth *storage.AuthData
	err := s.viewMetadata(func(bucket *bbolt.Bucket) error {
		data := bucket.Get(keyAuth)
		if data == nil {
			return storage.ErrAuthNotFound
		}
		auth = &storage.AuthData{}
		if err := json.Unmarshal(data, auth); err != nil {
			return fmt.Errorf("failed to unmarshal auth data: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return auth, nil
}

// DeleteAuth удаляет токен. Документы и состояние репликаций не затрагиваются.
func (s *Storage) DeleteAuth(ctx context.Context) error {
	return s.updateMetadata(func(bucket *bbolt.Bucket) error {
		if bucket.Get(keyAuth) == nil {
			return storage.ErrAuthNotFound
		}
		return bucket.Delete(keyAuth)
	})
}
