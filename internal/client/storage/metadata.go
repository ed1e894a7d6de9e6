package storage

import "context"

//go:generate moq -out metadata_mock.go . MetadataStorage

// MetadataStorage defines interface for storing client metadata
type MetadataStorage interface {
	// SaveNodeID saves the identifier of this client node
	SaveNodeID(ctx context.Context, nodeID string) error

	// GetNodeID retrieves the node identifier
	// Returns empty string if it was not generated yet
	GetNodeID(ctx context.Context) (string, error)
}
