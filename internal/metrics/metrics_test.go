package metrics

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/client/storage/boltdb"
	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/replication"
)

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/replication/{collection}/pull", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := m.Middleware(mux)

	for _, path := range []string{"/api/v1/replication/notes/pull", "/api/v1/replication/todo/pull", "/missing"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	route := "GET /api/v1/replication/{collection}/pull"
	assert.Equal(t, 2, testutil.CollectAndCount(m.HTTPRequests))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", route, "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.PushConflicts.WithLabelValues("notes").Add(2)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gophsync_master_push_conflicts_total{collection="notes"} 2`)
}

func TestObserve_CountsReplicationEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dir := t.TempDir()
	fork, err := boltdb.New(ctx, filepath.Join(dir, "fork.db"))
	require.NoError(t, err)
	defer fork.Close()
	master, err := boltdb.New(ctx, filepath.Join(dir, "master.db"))
	require.NoError(t, err)
	defer master.Close()

	for _, id := range []string{"a", "b"} {
		_, err := fork.BulkWrite(ctx, []models.BulkWriteRow{{Document: &models.Document{
			ID: id, Type: "note", Data: json.RawMessage(`{"v":1}`), Timestamp: 1, NodeID: "fork",
		}}})
		require.NoError(t, err)
	}
	_, err = master.BulkWrite(ctx, []models.BulkWriteRow{{Document: &models.Document{
		ID: "c", Type: "note", Data: json.RawMessage(`{"v":2}`), Timestamp: 1, NodeID: "master",
	}}})
	require.NoError(t, err)

	handler := replication.NewStorageHandler(master, nil)
	rep, err := replication.New(replication.Config{
		Identifier: "metrics-test",
		Fork:       fork,
		Meta:       fork,
		Pull:       handler,
		Push:       handler,
		RetryTime:  10 * time.Millisecond,
	})
	require.NoError(t, err)
	defer rep.Cancel()

	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Observe(ctx, rep)

	rep.Start(ctx)
	require.NoError(t, rep.AwaitInitialReplication(ctx))

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.DocumentsSent.WithLabelValues("metrics-test")) == 2 &&
			testutil.ToFloat64(m.DocumentsRecv.WithLabelValues("metrics-test")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	out, err := testutil.GatherAndCount(reg, "gophsync_replication_documents_sent_total")
	require.NoError(t, err)
	assert.Equal(t, 1, out)
}
