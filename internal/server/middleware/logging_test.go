package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/server/handlers"
)

func TestLoggingMiddleware(t *testing.T) {
	tests := []struct {
		handler        http.HandlerFunc
		name           string
		method         string
		path           string
		wantLevel      string
		expectedStatus int
	}{
		{
			name:   "pull with 200 OK",
			method: http.MethodGet,
			path:   "/api/v1/replication/notes/pull",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("{}"))
			},
			wantLevel:      "INFO",
			expectedStatus: http.StatusOK,
		},
		{
			name:   "push with 400",
			method: http.MethodPost,
			path:   "/api/v1/replication/notes/push",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			wantLevel:      "WARN",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "push with 500",
			method: http.MethodPost,
			path:   "/api/v1/replication/notes/push",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantLevel:      "ERROR",
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logBuf strings.Builder
			logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}))

			mux := http.NewServeMux()
			mux.HandleFunc("/api/v1/replication/{collection}/{op}", tt.handler)
			handler := LoggingMiddleware(logger)(mux)

			req := httptest.NewRequest(tt.method, tt.path+`?checkpoint={"seq":42}`, nil)
			req.RemoteAddr = "192.168.1.1:12345"
			req.Header.Set("User-Agent", "TestAgent/1.0")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			logOutput := logBuf.String()
			assert.Contains(t, logOutput, "HTTP request")
			assert.Contains(t, logOutput, tt.method)
			assert.Contains(t, logOutput, tt.path)
			assert.Contains(t, logOutput, "192.168.1.1:12345")
			assert.Contains(t, logOutput, "TestAgent/1.0")
			assert.Contains(t, logOutput, "collection=notes")
			assert.Contains(t, logOutput, "level="+tt.wantLevel)
			assert.NotContains(t, logOutput, "seq", "query must not be logged")
		})
	}
}

func TestLoggingMiddleware_LogsSubjectAndSize(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	inner := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(5 * time.Millisecond)
		_, _ = w.Write([]byte("Hello, World!")) // 13 bytes
	}))
	// claims появляются в контексте до логирования
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := &handlers.CustomClaims{}
		claims.Subject = "laptop"
		inner.ServeHTTP(w, r.WithContext(handlers.WithClaims(r.Context(), claims)))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	logOutput := logBuf.String()
	assert.Contains(t, logOutput, "duration_ms")
	assert.Contains(t, logOutput, "bytes_written=13")
	assert.Contains(t, logOutput, "status=200")
	assert.Contains(t, logOutput, "subject=laptop")
}

func TestLoggingWithSkip(t *testing.T) {
	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	handler := LoggingWithSkip(logger, []string{"/metrics", "/api/v1/health"})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	for _, path := range []string{"/metrics", "/api/v1/health"} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.Empty(t, logBuf.String())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/replication/notes/pull", nil))
	assert.Contains(t, logBuf.String(), "/api/v1/replication/notes/pull")
}

func TestResponseWriter_CapturesStatusAndBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	assert.False(t, rw.started)

	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusTeapot) // повторный вызов статус не меняет
	n, err := rw.Write([]byte("abc"))
	require.NoError(t, err)
	rw.Flush()

	assert.Equal(t, 3, n)
	assert.True(t, rw.started)
	assert.True(t, rec.Flushed)
	assert.Equal(t, http.StatusAccepted, rw.statusCode)
	assert.Equal(t, int64(3), rw.written)
	assert.Same(t, rec, rw.Unwrap())
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

	_, _, err := rw.Hijack()
	assert.Error(t, err)
}
