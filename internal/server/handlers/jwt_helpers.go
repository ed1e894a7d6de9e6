package handlers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer значение iss в токенах доступа
const TokenIssuer = "gophsync"

// AllCollections разрешает доступ ко всем коллекциям
const AllCollections = "*"

// CustomClaims представляет JWT claims токена доступа к репликации
type CustomClaims struct {
	Collections []string `json:"collections"`
	jwt.RegisteredClaims
}

// AllowsCollection проверяет, что токен дает доступ к коллекции
func (c *CustomClaims) AllowsCollection(collection string) bool {
	return slices.Contains(c.Collections, AllCollections) || slices.Contains(c.Collections, collection)
}

// JWTConfig содержит конфигурацию для JWT
type JWTConfig struct {
	Secret   []byte
	TokenTTL time.Duration
}

// GenerateAccessToken создает новый JWT токен доступа для subject.
// Токен выпускается оператором сервера, у каждого токена уникальный jti для отзыва.
func GenerateAccessToken(cfg JWTConfig, subject string, collections []string) (string, *CustomClaims, error) {
	if subject == "" {
		return "", nil, errors.New("token subject is required")
	}
	if len(collections) == 0 {
		return "", nil, errors.New("at least one collection is required")
	}

	now := time.Now()
	claims := &CustomClaims{
		Collections: collections,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
		},
	}
	if cfg.TokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(cfg.TokenTTL))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, claims, nil
}

// ValidateAccessToken валидирует и парсит JWT access token
func ValidateAccessToken(cfg JWTConfig, tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// Проверяем что используется правильный алгоритм подписи
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	}, jwt.WithIssuer(TokenIssuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		if claims.ID == "" {
			return nil, errors.New("token without id")
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// contextKey тип для ключей контекста
type contextKey string

// ClaimsKey ключ для хранения claims в контексте
const ClaimsKey contextKey = "claims"

// WithClaims кладет claims в контекст запроса (используется AuthMiddleware)
func WithClaims(ctx context.Context, claims *CustomClaims) context.Context {
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetClaims извлекает claims из контекста запроса
func GetClaims(ctx context.Context) (*CustomClaims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*CustomClaims)
	return claims, ok && claims != nil
}
