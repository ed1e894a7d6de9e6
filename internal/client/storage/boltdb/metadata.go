package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var keyNodeID = []byte("node_id")

// SaveNodeID сохраняет идентификатор узла. Он участвует в LWW как tie-break,
// поэтому после первого сохранения не должен меняться.
func (s *Storage) SaveNodeID(ctx context.Context, nodeID string) error {
	err := s.updateMetadata(func(bucket *bbolt.Bucket) error {
		return bucket.Put(keyNodeID, []byte(nodeID))
	})
	if err != nil {
		return fmt.Errorf("failed to save node id: %w", err)
	}
	return nil
}

// GetNodeID возвращает идентификатор узла или пустую строку, если он еще не создан
func (s *Storage) GetNodeID(ctx context.Context) (string, error) {
	var nodeID string
	err := s.viewMetadata(func(bucket *bbolt.Bucket) error {
		nodeID = string(bucket.Get(keyNodeID))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get node id: %w", err)
	}
	return nodeID, nil
}
