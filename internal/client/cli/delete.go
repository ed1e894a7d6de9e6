package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iudanet/gophsync/internal/client/storage"
)

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	fs := c.newFlagSet("delete")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("missing document ID. Usage: gophsync delete [-yes] <id>")
	}
	id := fs.Arg(0)

	c.io.Println("=== Delete Document ===")
	c.io.Println()

	// Сначала показываем, что будет удалено
	doc, err := c.dataService.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			return fmt.Errorf("document not found with ID: %s", id)
		}
		return fmt.Errorf("failed to get document: %w", err)
	}

	c.io.Printf("ID:   %s\n", doc.ID)
	c.io.Printf("Type: %s\n", typeOrDash(doc))
	c.io.Printf("Data: %s\n", preview(doc.Data, previewLength))
	c.io.Println()

	if !*yes {
		confirm, err := c.io.ReadInput("Are you sure you want to delete this document? (yes/no): ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if confirm = strings.ToLower(confirm); confirm != "yes" && confirm != "y" {
			c.io.Println("Deletion cancelled.")
			return nil
		}
	}

	if _, err := c.dataService.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Document deleted!")
	c.io.Println("Run 'gophsync sync' to propagate the deletion to the server.")
	return nil
}
