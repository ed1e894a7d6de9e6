package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/gophsync/internal/config"
	"github.com/iudanet/gophsync/internal/server/handlers"
	"github.com/iudanet/gophsync/internal/server/storage"
	"github.com/iudanet/gophsync/internal/server/storage/sqlite"
	"github.com/iudanet/gophsync/internal/validation"
)

// runToken выпускает токен доступа к коллекциям
func runToken(args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	cfg := config.RegisterServerFlags(fs)
	subject := fs.String("subject", "", "Token subject (client name)")
	collections := fs.String("collections", "", "Comma separated collections, * for all")
	ttl := fs.Duration("ttl", 30*24*time.Hour, "Token lifetime, 0 for no expiry")
	if err := config.Parse(fs, args); err != nil {
		return err
	}
	if len(cfg.JWTSecret) < 32 {
		return errors.New("jwt secret must be at least 32 characters")
	}

	names, err := parseCollections(*collections)
	if err != nil {
		return err
	}

	token, claims, err := handlers.GenerateAccessToken(handlers.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		TokenTTL: *ttl,
	}, *subject, names)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Token id: %s\n", claims.ID)
	if claims.ExpiresAt != nil {
		fmt.Fprintf(os.Stderr, "Expires:  %s\n", claims.ExpiresAt.Format(time.RFC3339))
	}
	fmt.Println(token)
	return nil
}

// runRevoke добавляет токен в список отзыва
func runRevoke(args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ExitOnError)
	cfg := config.RegisterServerFlags(fs)
	tokenString := fs.String("token", "", "Token to revoke")
	tokenID := fs.String("id", "", "Token id to revoke (when the token itself is lost)")
	if err := config.Parse(fs, args); err != nil {
		return err
	}

	revoked := &storage.RevokedToken{ID: *tokenID}
	if *tokenString != "" {
		claims, err := parseForRevocation(cfg.JWTSecret, *tokenString)
		if err != nil {
			return err
		}
		revoked.ID = claims.ID
		revoked.Subject = claims.Subject
		if claims.ExpiresAt != nil {
			revoked.ExpiresAt = claims.ExpiresAt.Time
		}
	}
	if revoked.ID == "" {
		return errors.New("either -token or -id is required")
	}

	ctx := context.Background()
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	if err := store.RevokeToken(ctx, revoked); err != nil {
		return err
	}
	fmt.Printf("Token %s revoked\n", revoked.ID)
	return nil
}

// runRevocations печатает список отозванных токенов
func runRevocations(args []string) error {
	fs := flag.NewFlagSet("revocations", flag.ExitOnError)
	cfg := config.RegisterServerFlags(fs)
	if err := config.Parse(fs, args); err != nil {
		return err
	}

	ctx := context.Background()
	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	tokens, err := store.ListRevoked(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSUBJECT\tREVOKED\tEXPIRES")
	for _, t := range tokens {
		expires := "never"
		if !t.ExpiresAt.IsZero() {
			expires = t.ExpiresAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Subject, t.RevokedAt.Format(time.RFC3339), expires)
	}
	return w.Flush()
}

// parseForRevocation проверяет подпись, но принимает и истекшие токены
func parseForRevocation(secret, tokenString string) (*handlers.CustomClaims, error) {
	claims, err := handlers.ValidateAccessToken(handlers.JWTConfig{Secret: []byte(secret)}, tokenString)
	if err == nil {
		return claims, nil
	}
	if !errors.Is(err, jwt.ErrTokenExpired) {
		return nil, err
	}
	return nil, errors.New("token already expired, nothing to revoke")
}

func parseCollections(raw string) ([]string, error) {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if name != handlers.AllCollections {
			if err := validation.ValidateCollection(name); err != nil {
				return nil, err
			}
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, errors.New("at least one collection is required")
	}
	return names, nil
}
