package data

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/crypto"
	"github.com/iudanet/gophsync/internal/models"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// newDocumentStorage mock с документами в памяти и проверкой ревизий
func newDocumentStorage(initial ...*models.Document) *storage.DocumentStorageMock {
	docs := make(map[string]*models.Document)
	for _, doc := range initial {
		docs[doc.ID] = doc.Clone()
	}

	return &storage.DocumentStorageMock{
		BulkWriteFunc: func(ctx context.Context, rows []models.BulkWriteRow) (*models.BulkWriteResult, error) {
			result := &models.BulkWriteResult{}
			for _, row := range rows {
				current := docs[row.Document.ID]
				if (row.Previous == nil) != (current == nil) ||
					(current != nil && row.Previous.Version != current.Version) {
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
				docs[doc.ID] = doc
				result.Success = append(result.Success, doc.Clone())
			}
			return result, nil
		},
		FindByIDsFunc: func(ctx context.Context, ids []string) (map[string]*models.Document, error) {
			found := make(map[string]*models.Document)
			for _, id := range ids {
				if doc, ok := docs[id]; ok {
					found[id] = doc.Clone()
				}
			}
			return found, nil
		},
		ListFunc: func(ctx context.Context, opts storage.ListOptions) ([]*models.Document, error) {
			var out []*models.Document
			for _, doc := range docs {
				if doc.Deleted && !opts.IncludeDeleted {
					continue
				}
				if opts.Type != "" && doc.Type != opts.Type {
					continue
				}
				out = append(out, doc.Clone())
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
			return out, nil
		},
		MaxTimestampFunc: func(ctx context.Context) (int64, error) {
			var maxTimestamp int64
			for _, doc := range docs {
				if doc.Timestamp > maxTimestamp {
					maxTimestamp = doc.Timestamp
				}
			}
			return maxTimestamp, nil
		},
	}
}

func newMetadataStorage(nodeID string) *storage.MetadataStorageMock {
	return &storage.MetadataStorageMock{
		GetNodeIDFunc: func(ctx context.Context) (string, error) {
			return nodeID, nil
		},
		SaveNodeIDFunc: func(ctx context.Context, id string) error {
			nodeID = id
			return nil
		},
	}
}

func newTestService(t *testing.T, docs storage.DocumentStorage, opts ...Option) Service {
	t.Helper()
	opts = append([]Option{WithLogger(setupTestLogger())}, opts...)
	svc, err := NewService(context.Background(), docs, newMetadataStorage("node-a"), opts...)
	require.NoError(t, err)
	return svc
}

func TestNewService(t *testing.T) {
	t.Run("restores node id and clock", func(t *testing.T) {
		docs := newDocumentStorage(&models.Document{ID: "a", Data: json.RawMessage(`1`), Timestamp: 41, Version: 1})
		svc := newTestService(t, docs)
		assert.Equal(t, "node-a", svc.NodeID())

		saved, err := svc.Put(context.Background(), &models.Document{ID: "b", Data: json.RawMessage(`2`)})
		require.NoError(t, err)
		assert.Equal(t, int64(42), saved.Timestamp, "clock continues from max timestamp")
	})

	t.Run("generates node id on first start", func(t *testing.T) {
		meta := newMetadataStorage("")
		svc, err := NewService(context.Background(), newDocumentStorage(), meta, WithLogger(setupTestLogger()))
		require.NoError(t, err)

		require.Len(t, meta.SaveNodeIDCalls(), 1)
		assert.NotEmpty(t, svc.NodeID())
		assert.Equal(t, meta.SaveNodeIDCalls()[0].NodeID, svc.NodeID())
	})

	t.Run("metadata error", func(t *testing.T) {
		meta := &storage.MetadataStorageMock{
			GetNodeIDFunc: func(ctx context.Context) (string, error) {
				return "", errors.New("boom")
			},
		}
		_, err := NewService(context.Background(), newDocumentStorage(), meta)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get node id")
	})
}

func TestPut_CreatesDocument(t *testing.T) {
	svc := newTestService(t, newDocumentStorage())

	saved, err := svc.Put(context.Background(), &models.Document{
		Type: "note",
		Data: json.RawMessage(`{"title":"hello"}`),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID, "id is generated")
	assert.Equal(t, "node-a", saved.NodeID)
	assert.Equal(t, int64(1), saved.Timestamp)
	assert.Equal(t, int64(1), saved.Version)
	assert.False(t, saved.Deleted)

	got, err := svc.Get(context.Background(), saved.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"hello"}`, string(got.Data))
}

func TestPut_UpdateAdvancesTimestamp(t *testing.T) {
	// документ получен от другого узла с большим timestamp
	docs := newDocumentStorage()
	svc := newTestService(t, docs)

	_, err := docs.BulkWrite(context.Background(), []models.BulkWriteRow{{
		Document: &models.Document{ID: "a", Data: json.RawMessage(`1`), Timestamp: 100, NodeID: "node-z"},
	}})
	require.NoError(t, err)

	saved, err := svc.Put(context.Background(), &models.Document{ID: "a", Data: json.RawMessage(`2`)})
	require.NoError(t, err)
	assert.Equal(t, int64(101), saved.Timestamp, "local write must be newer than what it replaces")
	assert.Equal(t, "node-a", saved.NodeID)
	assert.Equal(t, int64(2), saved.Version)
}

func TestPut_Validation(t *testing.T) {
	svc := newTestService(t, newDocumentStorage())

	tests := []struct {
		doc    *models.Document
		name   string
		errMsg string
	}{
		{name: "empty data", doc: &models.Document{ID: "a"}, errMsg: "document data cannot be empty"},
		{name: "invalid json", doc: &models.Document{ID: "a", Data: json.RawMessage(`{`)}, errMsg: "must be valid JSON"},
		{name: "control chars in id", doc: &models.Document{ID: "a\tb", Data: json.RawMessage(`1`)}, errMsg: "control characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Put(context.Background(), tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPut_RetriesOnConflict(t *testing.T) {
	docs := newDocumentStorage()
	inner := docs.BulkWriteFunc
	conflicts := 2
	docs.BulkWriteFunc = func(ctx context.Context, rows []models.BulkWriteRow) (*models.BulkWriteResult, error) {
		if conflicts > 0 {
			conflicts--
			return &models.BulkWriteResult{Errors: []*models.WriteError{{
				ID:     rows[0].Document.ID,
				Status: models.StatusConflict,
			}}}, nil
		}
		return inner(ctx, rows)
	}
	svc := newTestService(t, docs)

	saved, err := svc.Put(context.Background(), &models.Document{ID: "a", Data: json.RawMessage(`1`)})
	require.NoError(t, err)
	assert.Equal(t, "a", saved.ID)
	assert.Len(t, docs.BulkWriteCalls(), 3)
}

func TestPut_GivesUpAfterConflicts(t *testing.T) {
	docs := newDocumentStorage()
	docs.BulkWriteFunc = func(ctx context.Context, rows []models.BulkWriteRow) (*models.BulkWriteResult, error) {
		return &models.BulkWriteResult{Errors: []*models.WriteError{{
			ID:     rows[0].Document.ID,
			Status: models.StatusConflict,
		}}}, nil
	}
	svc := newTestService(t, docs)

	_, err := svc.Put(context.Background(), &models.Document{ID: "a", Data: json.RawMessage(`1`)})
	require.ErrorIs(t, err, storage.ErrConflict)
	assert.Len(t, docs.BulkWriteCalls(), maxWriteAttempts)
}

func TestPut_StorageError(t *testing.T) {
	docs := newDocumentStorage()
	docs.BulkWriteFunc = func(ctx context.Context, rows []models.BulkWriteRow) (*models.BulkWriteResult, error) {
		return nil, errors.New("disk full")
	}
	svc := newTestService(t, docs)

	_, err := svc.Put(context.Background(), &models.Document{ID: "a", Data: json.RawMessage(`1`)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save document")
}

func TestDelete(t *testing.T) {
	svc := newTestService(t, newDocumentStorage())
	ctx := context.Background()

	saved, err := svc.Put(ctx, &models.Document{ID: "a", Type: "note", Data: json.RawMessage(`1`)})
	require.NoError(t, err)

	tombstone, err := svc.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, tombstone.Deleted)
	assert.Equal(t, "note", tombstone.Type)
	assert.Greater(t, tombstone.Timestamp, saved.Timestamp)

	_, err = svc.Get(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)

	// повторное удаление
	_, err = svc.Delete(ctx, "a")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)

	_, err = svc.Delete(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)

	// запись поверх tombstone воскрешает документ
	revived, err := svc.Put(ctx, &models.Document{ID: "a", Data: json.RawMessage(`2`)})
	require.NoError(t, err)
	assert.False(t, revived.Deleted)
	assert.Greater(t, revived.Timestamp, tombstone.Timestamp)
}

func TestList(t *testing.T) {
	svc := newTestService(t, newDocumentStorage())
	ctx := context.Background()

	for _, doc := range []*models.Document{
		{ID: "a", Type: "note", Data: json.RawMessage(`1`)},
		{ID: "b", Type: "task", Data: json.RawMessage(`2`)},
		{ID: "c", Type: "note", Data: json.RawMessage(`3`)},
	} {
		_, err := svc.Put(ctx, doc)
		require.NoError(t, err)
	}
	_, err := svc.Delete(ctx, "c")
	require.NoError(t, err)

	tests := []struct {
		name string
		opts storage.ListOptions
		want []string
	}{
		{name: "live documents", want: []string{"a", "b"}},
		{name: "with deleted", opts: storage.ListOptions{IncludeDeleted: true}, want: []string{"a", "b", "c"}},
		{name: "by type", opts: storage.ListOptions{Type: "note"}, want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := svc.List(ctx, tt.opts)
			require.NoError(t, err)
			ids := make([]string, 0, len(docs))
			for _, doc := range docs {
				ids = append(ids, doc.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestService_Sealed(t *testing.T) {
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	sealer, err := crypto.NewSealer(key)
	require.NoError(t, err)

	docs := newDocumentStorage()
	svc := newTestService(t, docs, WithSealer(sealer))
	ctx := context.Background()

	saved, err := svc.Put(ctx, &models.Document{ID: "a", Data: json.RawMessage(`{"secret":"value"}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"secret":"value"}`, string(saved.Data), "caller sees plaintext")

	// в хранилище лежит только шифротекст
	stored, err := docs.FindByIDs(ctx, []string{"a"})
	require.NoError(t, err)
	assert.True(t, crypto.IsSealed(stored["a"].Data))
	assert.NotContains(t, string(stored["a"].Data), "secret")

	got, err := svc.Get(ctx, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"secret":"value"}`, string(got.Data))

	// сервис без ключа видит зашифрованный payload как есть
	plain := newTestService(t, docs)
	raw, err := plain.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, crypto.IsSealed(raw.Data))
}

func TestList_SkipsUndecryptable(t *testing.T) {
	key := make([]byte, 32)
	_, _ = rand.Read(key)
	sealer, err := crypto.NewSealer(key)
	require.NoError(t, err)

	docs := newDocumentStorage(
		&models.Document{ID: "broken", Data: json.RawMessage(`{"sealed":"AAAAAAAAAAAAAAAAAAAAAAAAAAAA"}`), Version: 1},
		&models.Document{ID: "plain", Data: json.RawMessage(`{"a":1}`), Version: 1},
	)
	svc := newTestService(t, docs, WithSealer(sealer))

	list, err := svc.List(context.Background(), storage.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "plain", list[0].ID)

	_, err = svc.Get(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decrypt")
}
