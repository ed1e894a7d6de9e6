package storage

import "context"

//go:generate moq -out auth_mock.go . AuthStorage

// AuthStorage хранит на клиенте один токен доступа к серверу репликации.
// Срок действия проверяет auth.Service, хранилище его не интерпретирует.
type AuthStorage interface {
	SaveAuth(ctx context.Context, auth *AuthData) error
	// GetAuth возвращает ErrAuthNotFound, если токен не сохранен
	GetAuth(ctx context.Context) (*AuthData, error)
	DeleteAuth(ctx context.Context) error
}

// AuthData сохраненные параметры доступа к серверу репликации
type AuthData struct {
	ServerURL   string `json:"server_url"`
	AccessToken string `json:"access_token"`
	// ExpiresAt unix time, 0 означает бессрочный токен
	ExpiresAt int64 `json:"expires_at"`
}
