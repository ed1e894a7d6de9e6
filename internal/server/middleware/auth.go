package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/gophsync/internal/server/handlers"
	"github.com/iudanet/gophsync/internal/server/storage"
)

// accessTokenParam query параметр с токеном для websocket клиентов,
// которые не умеют передавать заголовки при upgrade
const accessTokenParam = "access_token"

var (
	errMissingToken = errors.New("missing token")
	errTokenFormat  = errors.New("invalid token format")
)

// AuthMiddleware проверяет JWT токен и кладет claims в контекст запроса.
// Если revocations не nil, отозванные токены отклоняются.
func AuthMiddleware(logger *slog.Logger, jwtConfig handlers.JWTConfig, revocations storage.TokenStorage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				// заголовок не логируем: там может быть секрет
				logger.Warn("Request without valid credentials", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, token)
			if err != nil {
				logger.Warn("Invalid access token", "path", r.URL.Path, "error", err)
				message := "invalid token"
				if errors.Is(err, jwt.ErrTokenExpired) {
					message = "token expired"
				}
				writeError(w, http.StatusUnauthorized, message)
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(r.Context(), claims.ID)
				switch {
				case err != nil:
					logger.Error("Failed to check token revocation", "token_id", claims.ID, "error", err)
					writeError(w, http.StatusServiceUnavailable, "token check unavailable")
					return
				case revoked:
					logger.Warn("Revoked token used", "token_id", claims.ID, "subject", claims.Subject)
					writeError(w, http.StatusUnauthorized, "token revoked")
					return
				}
			}

			logger.Debug("Client authenticated", "subject", claims.Subject, "token_id", claims.ID)

			next.ServeHTTP(w, r.WithContext(handlers.WithClaims(r.Context(), claims)))
		})
	}
}

// bearerToken достает токен из Authorization: Bearer или, для websocket upgrade, из query
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if isWebsocketUpgrade(r) {
			if token := r.URL.Query().Get(accessTokenParam); token != "" {
				return token, nil
			}
		}
		return "", errMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errTokenFormat
	}
	return strings.TrimSpace(token), nil
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
