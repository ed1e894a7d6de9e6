package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/iudanet/gophsync/internal/client/storage"
)

const previewLength = 48

func (c *Cli) runList(ctx context.Context, args []string) error {
	fs := c.newFlagSet("list")
	docType := fs.String("type", "", "Show only documents of this type")
	deleted := fs.Bool("deleted", false, "Include deleted documents")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	docs, err := c.dataService.List(ctx, storage.ListOptions{
		Type:           *docType,
		IncludeDeleted: *deleted,
	})
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	c.io.Println("=== Documents ===")
	c.io.Println()

	if len(docs) == 0 {
		c.io.Println("No documents found.")
		c.io.Println()
		c.io.Println("Use 'gophsync put' to add your first document.")
		return nil
	}

	c.io.Printf("Found %d document(s):\n", len(docs))
	c.io.Println()

	w := tabwriter.NewWriter(c.io, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTYPE\tUPDATED\tDATA")
	for _, doc := range docs {
		data := preview(doc.Data, previewLength)
		if doc.Deleted {
			data = "(deleted)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", doc.ID, typeOrDash(doc), formatTime(doc.UpdatedAt), data)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write list: %w", err)
	}

	c.io.Println()
	c.io.Println("Use 'gophsync get <id>' to view full document.")
	return nil
}
