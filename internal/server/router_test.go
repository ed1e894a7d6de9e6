package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/client/api"
	"github.com/iudanet/gophsync/internal/client/storage/boltdb"
	"github.com/iudanet/gophsync/internal/metrics"
	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/replication"
	"github.com/iudanet/gophsync/internal/server/handlers"
	"github.com/iudanet/gophsync/internal/server/notify"
	"github.com/iudanet/gophsync/internal/server/storage"
	"github.com/iudanet/gophsync/internal/server/storage/sqlite"
	pkgapi "github.com/iudanet/gophsync/pkg/api"
)

var testJWT = handlers.JWTConfig{
	Secret:   []byte("router-test-secret-router-test-secret"),
	TokenTTL: time.Hour,
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testServer struct {
	*httptest.Server
	store *sqlite.Storage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()

	store, err := sqlite.New(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hub := notify.NewHub(setupTestLogger(), nil)
	t.Cleanup(hub.Close)

	router := NewRouter(Deps{
		Logger:    setupTestLogger(),
		Documents: store,
		Tokens:    store,
		Hub:       hub,
		Metrics:   metrics.New(prometheus.NewRegistry()),
		DB:        store,
		Version:   "test",
		JWT:       testJWT,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: store}
}

func (s *testServer) token(t *testing.T, collections ...string) (string, *handlers.CustomClaims) {
	t.Helper()
	token, claims, err := handlers.GenerateAccessToken(testJWT, "test-client", collections)
	require.NoError(t, err)
	return token, claims
}

type testFork struct {
	store *boltdb.Storage
	rep   *replication.Replication
}

func newTestFork(t *testing.T, srv *testServer, name, token string) *testFork {
	t.Helper()

	store, err := boltdb.New(context.Background(), filepath.Join(t.TempDir(), name+".db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	client := api.NewClient(srv.URL, "notes", token, setupTestLogger())
	rep, err := replication.New(replication.Config{
		Identifier:    name,
		Fork:          store,
		Meta:          store,
		Pull:          client,
		Push:          client,
		Stream:        client,
		Live:          true,
		RetryTime:     20 * time.Millisecond,
		PullBatchSize: 2,
		Logger:        setupTestLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(rep.Cancel)

	return &testFork{store: store, rep: rep}
}

func (f *testFork) put(t *testing.T, id, data string, ts int64) {
	t.Helper()
	ctx := context.Background()
	current, err := f.store.FindByIDs(ctx, []string{id})
	require.NoError(t, err)

	result, err := f.store.BulkWrite(ctx, []models.BulkWriteRow{{
		Previous: current[id],
		Document: &models.Document{ID: id, Type: "note", Data: json.RawMessage(data), Timestamp: ts, NodeID: "n"},
	}})
	require.NoError(t, err)
	require.Empty(t, result.Errors)
}

func (f *testFork) get(t *testing.T, id string) *models.Document {
	t.Helper()
	docs, err := f.store.FindByIDs(context.Background(), []string{id})
	require.NoError(t, err)
	return docs[id]
}

func TestRouter_LiveReplicationBetweenForks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	srv := newTestServer(t)
	token, _ := srv.token(t, "notes")

	a := newTestFork(t, srv, "fork-a", token)
	b := newTestFork(t, srv, "fork-b", token)

	// несколько пакетов pull при PullBatchSize=2
	for i, id := range []string{"d1", "d2", "d3"} {
		a.put(t, id, `{"from":"a"}`, int64(i+1))
	}

	a.rep.Start(ctx)
	require.NoError(t, a.rep.AwaitInSync(ctx))

	b.rep.Start(ctx)
	require.NoError(t, b.rep.AwaitInitialReplication(ctx))
	for _, id := range []string{"d1", "d2", "d3"} {
		require.NotNil(t, b.get(t, id), id)
	}

	// live: запись в b доходит до a через websocket поток
	b.put(t, "d1", `{"from":"b"}`, 10)
	assert.Eventually(t, func() bool {
		doc := a.get(t, "d1")
		return doc != nil && string(doc.Data) == `{"from":"b"}`
	}, 5*time.Second, 20*time.Millisecond)

	master, err := srv.store.GetDocument(ctx, "notes", "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), master.Timestamp)
}

func TestRouter_UnauthorizedReplicationIsFatal(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	srv := newTestServer(t)
	token, _ := srv.token(t, "todo")

	fork := newTestFork(t, srv, "fork", token)
	errs, unsubscribe := fork.rep.Errors()
	defer unsubscribe()

	fork.rep.Start(ctx)

	select {
	case err := <-errs:
		require.NotNil(t, err)
		assert.True(t, err.Fatal)
	case <-ctx.Done():
		t.Fatal("expected fatal replication error")
	}
	assert.Eventually(t, func() bool {
		return fork.rep.Status() == replication.StatusErrored
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRouter_RevokedToken(t *testing.T) {
	srv := newTestServer(t)
	token, claims := srv.token(t, "notes")

	pull := func() int {
		req, err := http.NewRequest(http.MethodGet, srv.URL+pkgapi.ReplicationPath("notes", "pull"), nil)
		require.NoError(t, err)
		req.Header.Set(pkgapi.ProtocolHeader, pkgapi.ProtocolVersion)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, pull())

	require.NoError(t, srv.store.RevokeToken(context.Background(), &storage.RevokedToken{
		ID:        claims.ID,
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}))
	assert.Equal(t, http.StatusUnauthorized, pull())
}

func TestRouter_ProtocolMismatch(t *testing.T) {
	srv := newTestServer(t)
	token, _ := srv.token(t, "notes")

	req, err := http.NewRequest(http.MethodGet, srv.URL+pkgapi.ReplicationPath("notes", "pull"), nil)
	require.NoError(t, err)
	req.Header.Set(pkgapi.ProtocolHeader, "999")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
	assert.Equal(t, pkgapi.ProtocolVersion, resp.Header.Get(pkgapi.ProtocolHeader))
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	client := api.NewClient(srv.URL, "notes", "", setupTestLogger())
	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Version)

	resp, err := http.Get(srv.URL + pkgapi.PathMetrics)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "gophsync_http_requests_total")
}
