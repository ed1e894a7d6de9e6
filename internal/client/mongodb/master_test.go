package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/client/storage/boltdb"
	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/replication"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// setupMaster требует MongoDB replica set (MONGO_URI), иначе тест пропускается
func setupMaster(t *testing.T) *Master {
	t.Helper()

	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := Connect(ctx, uri)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	db := client.Database(fmt.Sprintf("gophsync_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	m := New(db, "notes", nil, setupTestLogger())
	require.NoError(t, m.EnsureIndexes(ctx))
	return m
}

func newDoc(id, data string, timestamp int64) *models.Document {
	return &models.Document{
		ID:        id,
		Type:      "note",
		NodeID:    "node-a",
		Data:      json.RawMessage(data),
		Timestamp: timestamp,
	}
}

func TestRecordRoundTrip(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	doc := &models.Document{
		ID:        "a",
		Type:      "note",
		NodeID:    "node-a",
		Data:      json.RawMessage(`{"title":"x"}`),
		Metadata:  []byte("meta"),
		Version:   3,
		Timestamp: 7,
		Deleted:   true,
		CreatedAt: created,
		UpdatedAt: created,
	}

	rec := toRecord(doc)
	assert.Equal(t, `{"title":"x"}`, rec.Data)
	assert.Equal(t, doc, rec.document())

	empty := toRecord(&models.Document{ID: "b"})
	assert.Nil(t, empty.document().Data)
}

func TestMaster_PushPull(t *testing.T) {
	m := setupMaster(t)
	ctx := context.Background()

	conflicts, err := m.Push(ctx, []models.WriteRow{
		{NewDocumentState: newDoc("a", `1`, 1)},
		{NewDocumentState: newDoc("b", `2`, 1)},
	})
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	batch, err := m.Pull(ctx, nil, 1)
	require.NoError(t, err)
	require.Len(t, batch.Documents, 1)
	assert.Equal(t, "a", batch.Documents[0].ID)
	assert.Equal(t, int64(1), batch.Documents[0].Version)
	assert.JSONEq(t, `{"seq":1}`, string(batch.Checkpoint))

	batch, err = m.Pull(ctx, batch.Checkpoint, 10)
	require.NoError(t, err)
	require.Len(t, batch.Documents, 1)
	assert.Equal(t, "b", batch.Documents[0].ID)

	// пустой пакет не сдвигает checkpoint
	cp := batch.Checkpoint
	batch, err = m.Pull(ctx, cp, 10)
	require.NoError(t, err)
	assert.Empty(t, batch.Documents)
	assert.JSONEq(t, string(cp), string(batch.Checkpoint))
}

func TestMaster_PushConflicts(t *testing.T) {
	m := setupMaster(t)
	ctx := context.Background()

	_, err := m.Push(ctx, []models.WriteRow{{NewDocumentState: newDoc("a", `1`, 1)}})
	require.NoError(t, err)

	batch, err := m.Pull(ctx, nil, 10)
	require.NoError(t, err)
	master := batch.Documents[0]

	tests := []struct {
		name         string
		row          models.WriteRow
		wantConflict bool
	}{
		{
			name:         "new document but master has one",
			row:          models.WriteRow{NewDocumentState: newDoc("a", `2`, 2)},
			wantConflict: true,
		},
		{
			name: "stale assumed state",
			row: models.WriteRow{
				AssumedMasterState: newDoc("a", `0`, 0),
				NewDocumentState:   newDoc("a", `2`, 2),
			},
			wantConflict: true,
		},
		{
			name: "assumed state matches",
			row: models.WriteRow{
				AssumedMasterState: master,
				NewDocumentState:   newDoc("a", `3`, 3),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conflicts, err := m.Push(ctx, []models.WriteRow{tt.row})
			require.NoError(t, err)
			if tt.wantConflict {
				require.Len(t, conflicts, 1)
				assert.Equal(t, "a", conflicts[0].ID)
				return
			}
			assert.Empty(t, conflicts)
		})
	}

	batch, err = m.Pull(ctx, batch.Checkpoint, 10)
	require.NoError(t, err)
	require.Len(t, batch.Documents, 1)
	assert.JSONEq(t, `3`, string(batch.Documents[0].Data))
	assert.Equal(t, int64(2), batch.Documents[0].Version)
}

func TestMaster_StreamResync(t *testing.T) {
	m := setupMaster(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	items, err := m.Stream(ctx)
	if err != nil {
		t.Skipf("change streams not supported: %v", err)
	}

	receive := func() models.PullStreamItem {
		select {
		case item, ok := <-items:
			require.True(t, ok, "stream closed")
			return item
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for stream item")
		}
		return models.PullStreamItem{}
	}

	assert.True(t, receive().Resync)

	_, err = m.Push(ctx, []models.WriteRow{{NewDocumentState: newDoc("a", `1`, 1)}})
	require.NoError(t, err)
	assert.True(t, receive().Resync)

	cancel()
	require.Eventually(t, func() bool {
		_, ok := <-items
		return !ok
	}, 5*time.Second, 10*time.Millisecond)
}

func TestMaster_Replication(t *testing.T) {
	m := setupMaster(t)

	fork, err := boltdb.New(context.Background(), t.TempDir()+"/fork.db")
	require.NoError(t, err)
	defer fork.Close()

	rep, err := replication.New(replication.Config{
		Identifier: "mongo-notes",
		Fork:       fork,
		Meta:       fork,
		Pull:       m,
		Push:       m,
		Stream:     m,
		Live:       true,
		Logger:     setupTestLogger(),
	})
	require.NoError(t, err)
	defer rep.Cancel()

	_, err = m.Push(context.Background(), []models.WriteRow{{NewDocumentState: newDoc("remote", `"m"`, 1)}})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rep.Start(ctx)
	require.NoError(t, rep.AwaitInitialReplication(ctx))

	docs, err := fork.FindByIDs(ctx, []string{"remote"})
	require.NoError(t, err)
	require.Contains(t, docs, "remote")
	assert.JSONEq(t, `"m"`, string(docs["remote"].Data))
}
