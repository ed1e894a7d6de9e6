package main

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/server/handlers"
)

const testSecret = "cmd-test-secret-cmd-test-secret-cmd"

func TestParseCollections(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "single", raw: "notes", want: []string{"notes"}},
		{name: "list with spaces", raw: "notes, todo ,", want: []string{"notes", "todo"}},
		{name: "wildcard", raw: "*", want: []string{"*"}},
		{name: "empty", raw: " , ", wantErr: true},
		{name: "invalid name", raw: "notes,bad name", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCollections(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseForRevocation(t *testing.T) {
	token, issued, err := handlers.GenerateAccessToken(handlers.JWTConfig{Secret: []byte(testSecret), TokenTTL: time.Hour}, "laptop", []string{"notes"})
	require.NoError(t, err)

	claims, err := parseForRevocation(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, claims.ID)

	_, err = parseForRevocation("another-secret-another-secret-another", token)
	assert.Error(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, handlers.CustomClaims{
		Collections: []string{"notes"},
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "old",
			Issuer:    handlers.TokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = parseForRevocation(testSecret, expired)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already expired")
}
