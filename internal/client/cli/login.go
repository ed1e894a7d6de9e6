package cli

import (
	"context"
	"fmt"
	"time"
)

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("too many arguments. Usage: gophsync login [token]")
	}

	c.io.Println("=== Login ===")
	c.io.Println()
	c.io.Printf("Server: %s\n", c.serverURL)

	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		var err error
		token, err = c.io.ReadPassword("Access token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}

	c.io.Println()
	c.io.Println("Checking token...")

	authData, err := c.authService.Login(ctx, c.serverURL, token)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Login successful!")
	if authData.ExpiresAt > 0 {
		c.io.Printf("Access token expires: %s\n", time.Unix(authData.ExpiresAt, 0).Format(time.RFC3339))
	}
	c.io.Println()
	c.io.Println("Your token has been saved.")
	return nil
}
