package cli

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/client/data"
	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/models"
)

func savingDataService() *data.ServiceMock {
	return &data.ServiceMock{
		PutFunc: func(ctx context.Context, doc *models.Document) (*models.Document, error) {
			saved := doc.Clone()
			if saved.ID == "" {
				saved.ID = "generated-id"
			}
			saved.Timestamp = 7
			return saved, nil
		},
	}
}

func TestCli_runPut(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(dataFile, []byte("{\"from\":\"file\"}\n"), 0o600))

	tests := []struct {
		name     string
		args     []string
		inputs   []string
		wantID   string
		wantType string
		wantData string
		wantErr  bool
	}{
		{
			name:     "data argument",
			args:     []string{"-type", "note", `{"title":"hello"}`},
			wantID:   "generated-id",
			wantType: "note",
			wantData: `{"title":"hello"}`,
		},
		{
			name:     "explicit id and file",
			args:     []string{"-id", "settings", "-file", dataFile},
			wantID:   "settings",
			wantData: `{"from":"file"}`,
		},
		{
			name:     "interactive input",
			inputs:   []string{`[1,2,3]`},
			wantID:   "generated-id",
			wantData: `[1,2,3]`,
		},
		{
			name:    "invalid json",
			args:    []string{`{broken`},
			wantErr: true,
		},
		{
			name:    "empty interactive input",
			inputs:  []string{""},
			wantErr: true,
		},
		{
			name:    "file and argument",
			args:    []string{"-file", dataFile, `{}`},
			wantErr: true,
		},
		{
			name:    "missing file",
			args:    []string{"-file", filepath.Join(t.TempDir(), "nope.json")},
			wantErr: true,
		},
		{
			name:    "unknown flag",
			args:    []string{"-name", "x", `{}`},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &output{}
			mockData := savingDataService()
			cli := newTestCli(newMockIO(out, tt.inputs...), mockData, nil, nil)

			err := cli.Run(context.Background(), "put", tt.args)
			if tt.wantErr {
				require.Error(t, err)
				assert.Empty(t, mockData.PutCalls())
				return
			}

			require.NoError(t, err)
			require.Len(t, mockData.PutCalls(), 1)
			doc := mockData.PutCalls()[0].Doc
			assert.Equal(t, tt.wantType, doc.Type)
			assert.JSONEq(t, tt.wantData, string(doc.Data))
			assert.Contains(t, out.String(), "✓ Document saved!")
			assert.Contains(t, out.String(), tt.wantID)
		})
	}
}

func TestCli_runGet(t *testing.T) {
	doc := &models.Document{
		ID:        "doc-1",
		Type:      "note",
		NodeID:    "node-a",
		Data:      json.RawMessage(`{"title":"hello","tags":["a"]}`),
		Timestamp: 12,
		UpdatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	mockData := &data.ServiceMock{
		GetFunc: func(ctx context.Context, id string) (*models.Document, error) {
			if id == doc.ID {
				return doc, nil
			}
			return nil, storage.ErrDocumentNotFound
		},
	}

	t.Run("found", func(t *testing.T) {
		out := &output{}
		cli := newTestCli(newMockIO(out), mockData, nil, nil)

		require.NoError(t, cli.Run(context.Background(), "get", []string{"doc-1"}))
		assert.Contains(t, out.String(), "ID:        doc-1")
		assert.Contains(t, out.String(), "Type:      note")
		assert.Contains(t, out.String(), "Timestamp: 12")
		assert.Contains(t, out.String(), "\"title\": \"hello\"")
	})

	t.Run("not found", func(t *testing.T) {
		out := &output{}
		cli := newTestCli(newMockIO(out), mockData, nil, nil)

		err := cli.Run(context.Background(), "get", []string{"missing"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "document not found")
	})

	t.Run("missing id", func(t *testing.T) {
		out := &output{}
		cli := newTestCli(newMockIO(out), mockData, nil, nil)
		assert.Error(t, cli.Run(context.Background(), "get", nil))
	})
}

func TestCli_runList(t *testing.T) {
	docs := []*models.Document{
		{ID: "a", Type: "note", Data: json.RawMessage(`{"title":"first"}`)},
		{ID: "b", Data: json.RawMessage(`"second"`), Deleted: true},
	}

	t.Run("with documents", func(t *testing.T) {
		out := &output{}
		mockData := &data.ServiceMock{
			ListFunc: func(ctx context.Context, opts storage.ListOptions) ([]*models.Document, error) {
				return docs, nil
			},
		}
		cli := newTestCli(newMockIO(out), mockData, nil, nil)

		require.NoError(t, cli.Run(context.Background(), "list", []string{"-type", "note", "-deleted"}))
		require.Len(t, mockData.ListCalls(), 1)
		assert.Equal(t, storage.ListOptions{Type: "note", IncludeDeleted: true}, mockData.ListCalls()[0].Opts)
		assert.Contains(t, out.String(), "Found 2 document(s)")
		assert.Contains(t, out.String(), `{"title":"first"}`)
		assert.Contains(t, out.String(), "(deleted)")
	})

	t.Run("empty", func(t *testing.T) {
		out := &output{}
		mockData := &data.ServiceMock{
			ListFunc: func(ctx context.Context, opts storage.ListOptions) ([]*models.Document, error) {
				return nil, nil
			},
		}
		cli := newTestCli(newMockIO(out), mockData, nil, nil)

		require.NoError(t, cli.Run(context.Background(), "list", nil))
		assert.Equal(t, storage.ListOptions{}, mockData.ListCalls()[0].Opts)
		assert.Contains(t, out.String(), "No documents found.")
	})
}

func TestPreview(t *testing.T) {
	assert.Equal(t, `{"a":1}`, preview(json.RawMessage("{\n  \"a\": 1\n}"), 20))
	assert.Equal(t, `"abcde...`, preview(json.RawMessage(`"abcdefghij"`), 6))
}

func TestCli_runDelete(t *testing.T) {
	doc := &models.Document{ID: "doc-1", Type: "note", Data: json.RawMessage(`"x"`)}

	tests := []struct {
		name        string
		args        []string
		inputs      []string
		wantDeleted bool
		wantErr     bool
	}{
		{name: "confirmed", args: []string{"doc-1"}, inputs: []string{"yes"}, wantDeleted: true},
		{name: "confirmed short", args: []string{"doc-1"}, inputs: []string{"Y"}, wantDeleted: true},
		{name: "cancelled", args: []string{"doc-1"}, inputs: []string{"no"}},
		{name: "without confirmation", args: []string{"-yes", "doc-1"}, wantDeleted: true},
		{name: "not found", args: []string{"-yes", "missing"}, wantErr: true},
		{name: "missing id", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &output{}
			mockData := &data.ServiceMock{
				GetFunc: func(ctx context.Context, id string) (*models.Document, error) {
					if id == doc.ID {
						return doc, nil
					}
					return nil, storage.ErrDocumentNotFound
				},
				DeleteFunc: func(ctx context.Context, id string) (*models.Document, error) {
					deleted := doc.Clone()
					deleted.Deleted = true
					return deleted, nil
				},
			}
			cli := newTestCli(newMockIO(out, tt.inputs...), mockData, nil, nil)

			err := cli.Run(context.Background(), "delete", tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantDeleted {
				require.Len(t, mockData.DeleteCalls(), 1)
				assert.Contains(t, out.String(), "✓ Document deleted!")
			} else {
				assert.Empty(t, mockData.DeleteCalls())
			}
		})
	}
}
