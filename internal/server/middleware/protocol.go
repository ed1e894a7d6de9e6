package middleware

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/gophsync/pkg/api"
)

// ProtocolMiddleware отклоняет запросы репликации другой версии протокола
// с 426 Upgrade Required. Клиент считает такой ответ фатальной ошибкой.
func ProtocolMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(api.ProtocolHeader, api.ProtocolVersion)

			if got := r.Header.Get(api.ProtocolHeader); got != api.ProtocolVersion {
				logger.Warn("Replication protocol mismatch",
					"client_protocol", got,
					"server_protocol", api.ProtocolVersion,
					"remote_addr", r.RemoteAddr,
				)
				writeError(w, http.StatusUpgradeRequired, "replication protocol "+api.ProtocolVersion+" required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
