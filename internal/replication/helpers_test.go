package replication

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/pubsub"
)

var errInjected = errors.New("injected failure")

// memoryStorage хранилище в памяти: fork (или master через StorageHandler) и meta одновременно
type memoryStorage struct {
	docs        map[string]*models.Document
	seqOf       map[string]int64
	assumed     map[string]map[string]*models.Document
	checkpoints map[string]models.Checkpoint
	events      *pubsub.Broadcaster[models.ChangeEvent]

	// failBulkWrites количество следующих BulkWrite, которые завершатся ошибкой
	failBulkWrites int
	seq            int64
	mu             sync.Mutex
}

func newMemoryStorage() *memoryStorage {
	return &memoryStorage{
		docs:        make(map[string]*models.Document),
		seqOf:       make(map[string]int64),
		assumed:     make(map[string]map[string]*models.Document),
		checkpoints: make(map[string]models.Checkpoint),
		events:      pubsub.New[models.ChangeEvent](false),
	}
}

func (m *memoryStorage) BulkWrite(_ context.Context, rows []models.BulkWriteRow) (*models.BulkWriteResult, error) {
	m.mu.Lock()
	if m.failBulkWrites > 0 {
		m.failBulkWrites--
		m.mu.Unlock()
		return nil, errInjected
	}

	result := &models.BulkWriteResult{}
	for _, row := range rows {
		current := m.docs[row.Document.ID]
		sameRevision := (row.Previous == nil && current == nil) ||
			(row.Previous != nil && current != nil && row.Previous.Version == current.Version)
		if !sameRevision {
			result.Errors = append(result.Errors, &models.WriteError{
				ID:           row.Document.ID,
				Status:       models.StatusConflict,
				DocumentInDB: current.Clone(),
			})
			continue
		}

		doc := row.Document.Clone()
		doc.Version = 1
		if current != nil {
			doc.Version = current.Version + 1
		}
		m.seq++
		m.docs[doc.ID] = doc
		m.seqOf[doc.ID] = m.seq
		result.Success = append(result.Success, doc.Clone())
	}
	if len(result.Success) > 0 {
		m.events.Publish(models.ChangeEvent{
			Checkpoint: models.NewSeqCheckpoint(m.seq),
			Documents:  result.Success,
		})
	}
	m.mu.Unlock()

	return result, nil
}

func (m *memoryStorage) FindByIDs(_ context.Context, ids []string) (map[string]*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := make(map[string]*models.Document)
	for _, id := range ids {
		if doc, ok := m.docs[id]; ok {
			found[id] = doc.Clone()
		}
	}
	return found, nil
}

func (m *memoryStorage) ChangesSince(_ context.Context, checkpoint models.Checkpoint, limit int) (*models.DocumentsWithCheckpoint, error) {
	since, err := models.ParseSeqCheckpoint(checkpoint)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0)
	for id, seq := range m.seqOf {
		if seq > since {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return m.seqOf[ids[i]] < m.seqOf[ids[j]] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}

	result := &models.DocumentsWithCheckpoint{Documents: []*models.Document{}}
	last := since
	for _, id := range ids {
		result.Documents = append(result.Documents, m.docs[id].Clone())
		last = m.seqOf[id]
	}
	result.Checkpoint = models.NewSeqCheckpoint(last)
	return result, nil
}

func (m *memoryStorage) Subscribe() (<-chan models.ChangeEvent, func()) {
	return m.events.Subscribe()
}

func (m *memoryStorage) GetAssumedMasterStates(_ context.Context, replicationID string, ids []string) (map[string]*models.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := make(map[string]*models.Document)
	for _, id := range ids {
		if doc, ok := m.assumed[replicationID][id]; ok {
			found[id] = doc.Clone()
		}
	}
	return found, nil
}

func (m *memoryStorage) SaveAssumedMasterStates(_ context.Context, replicationID string, docs []*models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.assumed[replicationID] == nil {
		m.assumed[replicationID] = make(map[string]*models.Document)
	}
	for _, doc := range docs {
		m.assumed[replicationID][doc.ID] = doc.Clone()
	}
	return nil
}

func (m *memoryStorage) GetCheckpoint(_ context.Context, replicationID string, direction models.Direction) (models.Checkpoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.checkpoints[replicationID+"/"+string(direction)], nil
}

func (m *memoryStorage) SaveCheckpoint(_ context.Context, replicationID string, direction models.Direction, checkpoint models.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkpoints[replicationID+"/"+string(direction)] = checkpoint
	return nil
}

// put записывает документ так, как это делает локальный пользователь
func (m *memoryStorage) put(t *testing.T, id, data string, timestamp int64, nodeID string) {
	t.Helper()
	current, err := m.FindByIDs(context.Background(), []string{id})
	require.NoError(t, err)

	result, err := m.BulkWrite(context.Background(), []models.BulkWriteRow{{
		Previous: current[id],
		Document: &models.Document{
			ID:        id,
			Type:      "note",
			Data:      json.RawMessage(data),
			Timestamp: timestamp,
			NodeID:    nodeID,
		},
	}})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
}

func (m *memoryStorage) get(id string) *models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id].Clone()
}

func (m *memoryStorage) snapshot() map[string]*models.Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*models.Document, len(m.docs))
	for id, doc := range m.docs {
		out[id] = doc.Clone()
	}
	return out
}

func (m *memoryStorage) checkpoint(replicationID string, direction models.Direction) models.Checkpoint {
	cp, _ := m.GetCheckpoint(context.Background(), replicationID, direction)
	return cp
}

func sameContent(a, b map[string]*models.Document) bool {
	if len(a) != len(b) {
		return false
	}
	for id, doc := range a {
		if !doc.ContentEqual(b[id]) {
			return false
		}
	}
	return true
}

// setupTestLogger creates a logger for tests
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func fastBackoff() backoff.BackOff {
	return backoff.NewConstantBackOff(5 * time.Millisecond)
}

// newTestReplication создает репликацию fork <-> master поверх хранилищ в памяти
func newTestReplication(t *testing.T, id string, fork, master *memoryStorage, mutate func(*Config)) *Replication {
	t.Helper()

	handler := NewStorageHandler(master, nil)
	cfg := Config{
		Identifier: id,
		Fork:       fork,
		Meta:       fork,
		Pull:       handler,
		Push:       handler,
		Stream:     handler,
		Live:       true,
		Backoff:    fastBackoff,
		Logger:     setupTestLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	rep, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(rep.Cancel)
	return rep
}

func await[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	var zero T
	return zero
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
