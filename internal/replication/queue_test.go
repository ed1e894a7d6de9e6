package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/models"
)

func batchItem(id string) models.PullStreamItem {
	return models.PullStreamItem{Batch: &models.DocumentsWithCheckpoint{
		Documents:  []*models.Document{{ID: id}},
		Checkpoint: models.Checkpoint(`{"seq":1}`),
	}}
}

func TestTaskQueue_Take(t *testing.T) {
	q := newTaskQueue()

	q.Add(batchItem("a"))
	q.Add(batchItem("b"))
	q.Add(models.ResyncItem())
	q.Add(batchItem("c"))

	// пакеты до ближайшего RESYNC
	tasks := q.take()
	require.Len(t, tasks, 2)
	assert.Equal(t, "a", tasks[0].item.Batch.Documents[0].ID)
	assert.Equal(t, "b", tasks[1].item.Batch.Documents[0].ID)

	// RESYNC забирается отдельно
	tasks = q.take()
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].item.Resync)

	tasks = q.take()
	require.Len(t, tasks, 1)
	assert.Equal(t, "c", tasks[0].item.Batch.Documents[0].ID)

	assert.Empty(t, q.take())
	assert.Zero(t, q.Len())
}

func TestTaskQueue_DropsTasksBeforeRequest(t *testing.T) {
	q := newTaskQueue()

	q.Add(batchItem("old"))
	q.Add(models.ResyncItem())
	q.markRequested()
	q.Add(batchItem("new"))

	tasks := q.take()
	require.Len(t, tasks, 1)
	assert.Equal(t, "new", tasks[0].item.Batch.Documents[0].ID)
	assert.Zero(t, q.Len())
}

func TestValidatePullResult(t *testing.T) {
	tests := []struct {
		res     *models.DocumentsWithCheckpoint
		name    string
		wantErr bool
	}{
		{name: "nil result", res: nil, wantErr: true},
		{name: "empty batch without checkpoint", res: &models.DocumentsWithCheckpoint{}, wantErr: false},
		{
			name:    "documents without checkpoint",
			res:     &models.DocumentsWithCheckpoint{Documents: []*models.Document{{ID: "a"}}},
			wantErr: true,
		},
		{
			name: "document without id",
			res: &models.DocumentsWithCheckpoint{
				Documents:  []*models.Document{{}},
				Checkpoint: models.Checkpoint(`{}`),
			},
			wantErr: true,
		},
		{
			name: "valid",
			res: &models.DocumentsWithCheckpoint{
				Documents:  []*models.Document{{ID: "a"}},
				Checkpoint: models.Checkpoint(`{}`),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePullResult(tt.res)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidResult)
				return
			}
			assert.NoError(t, err)
		})
	}
}
