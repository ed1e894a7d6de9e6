package storage

import (
	"context"
	"time"
)

// RevokedToken отозванный токен доступа
type RevokedToken struct {
	ExpiresAt time.Time // после истечения срока запись можно удалить
	RevokedAt time.Time
	ID        string // jti токена
	Subject   string
}

// TokenStorage defines interface for access token revocation list
type TokenStorage interface {
	// RevokeToken adds token to the revocation list
	// Repeated revocation of the same token is not an error
	RevokeToken(ctx context.Context, token *RevokedToken) error

	// IsRevoked checks whether token with given id was revoked
	IsRevoked(ctx context.Context, id string) (bool, error)

	// ListRevoked returns revoked tokens ordered by revocation time
	ListRevoked(ctx context.Context) ([]*RevokedToken, error)

	// DeleteExpiredRevocations removes revocations of already expired tokens
	// Returns number of deleted records
	DeleteExpiredRevocations(ctx context.Context) (int, error)
}
