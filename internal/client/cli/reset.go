package cli

import (
	"context"
	"fmt"
	"strings"
)

// runReset забывает состояние репликации: checkpoints и известные состояния master.
// Локальные документы не удаляются.
func (c *Cli) runReset(ctx context.Context, args []string) error {
	fs := c.newFlagSet("reset")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.io.Println("=== Reset Replication ===")
	c.io.Println()

	syncService, err := c.syncService(ctx)
	if err != nil {
		return err
	}

	if !*yes {
		c.io.Println("The next sync will read the whole collection from master")
		c.io.Println("and send every local document again.")
		confirm, err := c.io.ReadInput("Continue? (yes/no): ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if confirm = strings.ToLower(confirm); confirm != "yes" && confirm != "y" {
			c.io.Println("Reset cancelled.")
			return nil
		}
	}

	if err := syncService.Reset(ctx); err != nil {
		return err
	}

	c.io.Println("✓ Replication state cleared.")
	return nil
}
