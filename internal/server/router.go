// Package server собирает HTTP API master: маршруты, middleware и метрики.
package server

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/gophsync/internal/metrics"
	"github.com/iudanet/gophsync/internal/server/handlers"
	"github.com/iudanet/gophsync/internal/server/middleware"
	"github.com/iudanet/gophsync/internal/server/notify"
	"github.com/iudanet/gophsync/internal/server/storage"
	"github.com/iudanet/gophsync/pkg/api"
)

// Deps зависимости HTTP API
type Deps struct {
	Logger    *slog.Logger
	Documents storage.DocumentStorage
	Tokens    storage.TokenStorage
	Hub       *notify.Hub
	Metrics   *metrics.Metrics
	Limiter   *middleware.RateLimiter
	// DB опционален, используется health check
	DB      handlers.Pinger
	Version string
	JWT     handlers.JWTConfig
}

// NewRouter создает http.Handler сервера репликации
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger

	health := handlers.NewHealthHandler(logger, deps.DB, deps.Version)
	replication := handlers.NewReplicationHandler(logger, deps.Documents, deps.Hub, deps.Metrics)
	documents := handlers.NewDocumentsHandler(logger, deps.Documents)

	auth := middleware.AuthMiddleware(logger, deps.JWT, deps.Tokens)
	limit := func(next http.Handler) http.Handler { return next }
	if deps.Limiter != nil {
		limit = middleware.RateLimitMiddleware(deps.Limiter)
	}
	protocol := middleware.ProtocolMiddleware(logger)

	// порядок: версия протокола, токен, лимит по subject
	replicationRoute := func(h http.HandlerFunc) http.Handler {
		return protocol(auth(limit(h)))
	}
	readRoute := func(h http.HandlerFunc) http.Handler {
		return auth(limit(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+api.PathHealth, health.Health)
	mux.Handle("GET "+api.PathMetrics, deps.Metrics.Handler())

	mux.Handle("GET "+api.PathReplication+"{collection}/pull", replicationRoute(replication.Pull))
	mux.Handle("POST "+api.PathReplication+"{collection}/push", replicationRoute(replication.Push))
	mux.Handle("GET "+api.PathReplication+"{collection}/stream", replicationRoute(replication.Stream))

	mux.Handle("GET "+api.PathCollections, readRoute(documents.Collections))
	mux.Handle("GET "+api.PathCollections+"/{collection}/documents", readRoute(documents.List))
	mux.Handle("GET "+api.PathCollections+"/{collection}/documents/{id}", readRoute(documents.Get))

	var handler http.Handler = mux
	handler = deps.Metrics.Middleware(handler)
	handler = middleware.LoggingWithSkip(logger, []string{api.PathHealth, api.PathMetrics})(handler)
	handler = middleware.RecoveryMiddleware(logger)(handler)
	return handler
}
