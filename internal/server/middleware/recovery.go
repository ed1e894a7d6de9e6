package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RecoveryMiddleware перехватывает panic обработчика, логирует стек и отвечает 500.
// http.ErrAbortHandler пробрасывается дальше: так обработчик намеренно обрывает ответ.
// Если ответ уже начат (батч pull, hijack live-потока), ошибка только логируется.
func RecoveryMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tracked := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logger.Error("Panic recovered",
					"error", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"response_started", tracked.started,
					"stack", string(debug.Stack()),
				)

				if !tracked.started {
					// детали паники клиенту не раскрываем
					writeError(w, http.StatusInternalServerError, "internal error")
				}
			}()

			next.ServeHTTP(tracked, r)
		})
	}
}
