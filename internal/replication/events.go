package replication

import (
	"github.com/iudanet/gophsync/internal/crdt"
	"github.com/iudanet/gophsync/internal/models"
)

// ResolvedConflict событие разрешенного конфликта
type ResolvedConflict struct {
	Output    *models.Document
	Input     crdt.ConflictInput
	Direction models.Direction
}
