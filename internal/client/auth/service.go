// Package auth хранит на клиенте токен доступа к серверу репликации.
// Токены выпускает оператор сервера, клиент только проверяет и сохраняет их.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/gophsync/internal/client/storage"
)

var (
	// ErrNotAuthenticated нет сохраненного токена
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrTokenExpired срок действия сохраненного токена истек
	ErrTokenExpired = errors.New("access token has expired")
)

// Checker проверяет, что сервер принимает токен
type Checker interface {
	Check(ctx context.Context, serverURL, token string) error
}

// CheckerFunc адаптер функции к Checker
type CheckerFunc func(ctx context.Context, serverURL, token string) error

// Check вызывает f(ctx, serverURL, token)
func (f CheckerFunc) Check(ctx context.Context, serverURL, token string) error {
	return f(ctx, serverURL, token)
}

// TokenInfo данные токена, видимые клиенту без секрета сервера
type TokenInfo struct {
	ExpiresAt   time.Time
	ID          string
	Subject     string
	Collections []string
}

type tokenClaims struct {
	Collections []string `json:"collections"`
	jwt.RegisteredClaims
}

// ParseToken разбирает claims токена без проверки подписи
func ParseToken(token string) (*TokenInfo, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	info := &TokenInfo{
		ID:          claims.ID,
		Subject:     claims.Subject,
		Collections: claims.Collections,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// Service управляет сохраненным токеном
type Service struct {
	store   storage.AuthStorage
	checker Checker
	now     func() time.Time
}

// NewService создает сервис. checker может быть nil, тогда токен не проверяется на сервере.
func NewService(store storage.AuthStorage, checker Checker) *Service {
	return &Service{store: store, checker: checker, now: time.Now}
}

// Login проверяет токен и сохраняет его вместе с адресом сервера
func (s *Service) Login(ctx context.Context, serverURL, token string) (*storage.AuthData, error) {
	token = strings.TrimSpace(token)
	if serverURL == "" {
		return nil, errors.New("server URL is required")
	}
	if token == "" {
		return nil, errors.New("token is required")
	}

	info, err := ParseToken(token)
	if err != nil {
		return nil, err
	}
	if !info.ExpiresAt.IsZero() && !s.now().Before(info.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	if s.checker != nil {
		if err := s.checker.Check(ctx, serverURL, token); err != nil {
			return nil, fmt.Errorf("server rejected token: %w", err)
		}
	}

	authData := &storage.AuthData{
		ServerURL:   serverURL,
		AccessToken: token,
	}
	if !info.ExpiresAt.IsZero() {
		authData.ExpiresAt = info.ExpiresAt.Unix()
	}

	if err := s.store.SaveAuth(ctx, authData); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}
	return authData, nil
}

// Current возвращает действующий сохраненный токен
func (s *Service) Current(ctx context.Context) (*storage.AuthData, error) {
	authData, err := s.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to get auth data: %w", err)
	}
	if authData.ExpiresAt > 0 && s.now().Unix() >= authData.ExpiresAt {
		return authData, ErrTokenExpired
	}
	return authData, nil
}

// Logout удаляет сохраненный токен
func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.DeleteAuth(ctx); err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return ErrNotAuthenticated
		}
		return fmt.Errorf("failed to delete auth data: %w", err)
	}
	return nil
}
