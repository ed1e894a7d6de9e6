package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/gophsync/internal/server/storage"
)

// RevokeToken adds token to the revocation list
func (s *Storage) RevokeToken(ctx context.Context, token *storage.RevokedToken) error {
	if token.ID == "" {
		return fmt.Errorf("token id cannot be empty")
	}

	revokedAt := token.RevokedAt
	if revokedAt.IsZero() {
		revokedAt = time.Now().UTC()
	}

	// 0 означает бессрочный токен, такая запись не удаляется очисткой
	var expiresAt int64
	if !token.ExpiresAt.IsZero() {
		expiresAt = token.ExpiresAt.Unix()
	}

	query := `
		INSERT OR REPLACE INTO revoked_tokens (id, subject, expires_at, revoked_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		token.ID,
		token.Subject,
		expiresAt,
		revokedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsRevoked checks whether token with given id was revoked
func (s *Storage) IsRevoked(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM revoked_tokens WHERE id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return count > 0, nil
}

// ListRevoked returns revoked tokens ordered by revocation time
func (s *Storage) ListRevoked(ctx context.Context) ([]*storage.RevokedToken, error) {
	query := `
		SELECT id, subject, expires_at, revoked_at
		FROM revoked_tokens
		ORDER BY revoked_at DESC, id
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query revoked tokens: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var tokens []*storage.RevokedToken

	for rows.Next() {
		token := &storage.RevokedToken{}
		var expiresAt, revokedAt int64
		if err := rows.Scan(
			&token.ID,
			&token.Subject,
			&expiresAt,
			&revokedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		if expiresAt > 0 {
			token.ExpiresAt = time.Unix(expiresAt, 0).UTC()
		}
		token.RevokedAt = time.Unix(revokedAt, 0).UTC()
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tokens, nil
}

// DeleteExpiredRevocations removes revocations of already expired tokens
func (s *Storage) DeleteExpiredRevocations(ctx context.Context) (int, error) {
	query := `DELETE FROM revoked_tokens WHERE expires_at > 0 AND expires_at < ?`

	result, err := s.db.ExecContext(ctx, query, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired revocations: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rows), nil
}
