package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/gophsync/internal/client/auth"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Status ===")
	c.io.Println()

	c.io.Printf("Collection: %s\n", c.collection)
	c.io.Printf("Node ID:    %s\n", c.dataService.NodeID())
	c.io.Println()

	authenticated, err := c.printAuthStatus(ctx)
	if err != nil {
		return err
	}
	if !authenticated && c.newSync == nil {
		return nil
	}

	syncService, err := c.syncService(ctx)
	if err != nil {
		// Не прерываем выполнение, статус локальных данных уже выведен
		c.io.Printf("\nWarning: synchronization is not available: %v\n", err)
		return nil
	}

	pendingCount, err := syncService.PendingCount(ctx)
	if err != nil {
		c.io.Printf("\nWarning: Failed to get pending sync count: %v\n", err)
		return nil
	}

	c.io.Println()
	if pendingCount > 0 {
		c.io.Printf("⚠️  Pending sync: %d document(s) waiting to be synchronized\n", pendingCount)
		c.io.Println("Run 'gophsync sync' to synchronize with master.")
	} else {
		c.io.Println("✓ All data synchronized with master")
	}
	return nil
}

func (c *Cli) printAuthStatus(ctx context.Context) (bool, error) {
	authData, err := c.authService.Current(ctx)
	switch {
	case errors.Is(err, auth.ErrNotAuthenticated):
		c.io.Println("Status: Not authenticated")
		c.io.Println("Run 'gophsync login' to authenticate.")
		return false, nil
	case errors.Is(err, auth.ErrTokenExpired):
		c.io.Println("Status: Authenticated")
		c.io.Printf("Server: %s\n", authData.ServerURL)
		c.io.Println("⚠️  Token has expired. Please login again.")
		return false, nil
	case err != nil:
		return false, fmt.Errorf("failed to check authentication: %w", err)
	}

	c.io.Println("Status: Authenticated")
	c.io.Printf("Server: %s\n", authData.ServerURL)

	if info, err := auth.ParseToken(authData.AccessToken); err == nil {
		if info.Subject != "" {
			c.io.Printf("Subject: %s\n", info.Subject)
		}
		if len(info.Collections) > 0 {
			c.io.Printf("Collections: %s\n", strings.Join(info.Collections, ", "))
		}
	}

	if authData.ExpiresAt == 0 {
		c.io.Println("Token expires: never")
		return true, nil
	}
	expiresAt := time.Unix(authData.ExpiresAt, 0)
	c.io.Printf("Token expires: %s\n", expiresAt.Format(time.RFC3339))
	c.io.Printf("Time remaining: %s\n", time.Until(expiresAt).Round(time.Second))
	return true, nil
}
