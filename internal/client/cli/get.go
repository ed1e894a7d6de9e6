package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/iudanet/gophsync/internal/client/storage"
)

func (c *Cli) runGet(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("missing document ID. Usage: gophsync get <id>")
	}
	id := args[0]

	doc, err := c.dataService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			return fmt.Errorf("document not found with ID: %s", id)
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	c.io.Println("=== Document Details ===")
	c.io.Println()
	c.io.Printf("ID:        %s\n", doc.ID)
	c.io.Printf("Type:      %s\n", typeOrDash(doc))
	c.io.Printf("Node:      %s\n", doc.NodeID)
	c.io.Printf("Timestamp: %d\n", doc.Timestamp)
	c.io.Printf("Updated:   %s\n", formatTime(doc.UpdatedAt))
	c.io.Println("Data:")
	c.io.Println(formatData(doc.Data))
	return nil
}
