package crdt

import (
	"sync"

	"github.com/iudanet/gophsync/internal/models"
)

// LamportClock выдает last-write-time локальным записям узла.
// Новая запись всегда новее любого состояния, которое узел уже видел.
type LamportClock struct {
	nodeID  string
	counter int64
	mu      sync.Mutex
}

// NewLamportClock создает часы узла nodeID
func NewLamportClock(nodeID string) *LamportClock {
	return &LamportClock{nodeID: nodeID}
}

// Observe учитывает увиденный timestamp, не создавая нового события
func (lc *LamportClock) Observe(timestamp int64) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	lc.counter = max(lc.counter, timestamp)
}

// Timestamp последнее выданное или увиденное значение
func (lc *LamportClock) Timestamp() int64 {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	return lc.counter
}

func (lc *LamportClock) NodeID() string {
	return lc.nodeID
}

// Stamp выставляет doc следующий timestamp и NodeID узла.
// previous: заменяемое состояние документа, может быть nil.
func (lc *LamportClock) Stamp(doc, previous *models.Document) {
	lc.mu.Lock()
	defer lc.mu.Unlock()

	if previous != nil {
		lc.counter = max(lc.counter, previous.Timestamp)
	}
	lc.counter++
	doc.Timestamp = lc.counter
	doc.NodeID = lc.nodeID
}
