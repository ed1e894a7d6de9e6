package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/validation"
)

func (c *Cli) runPut(ctx context.Context, args []string) error {
	fs := c.newFlagSet("put")
	id := fs.String("id", "", "Document ID (generated when empty)")
	docType := fs.String("type", "", "Document type")
	file := fs.String("file", "", "Read JSON data from file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.io.Println("=== Put Document ===")
	c.io.Println()

	raw, err := c.readData(*file, fs.Args())
	if err != nil {
		return err
	}

	if *id != "" {
		if err := validation.ValidateDocumentID(*id); err != nil {
			return fmt.Errorf("invalid id: %w", err)
		}
	}
	if err := validation.ValidateType(*docType); err != nil {
		return fmt.Errorf("invalid type: %w", err)
	}
	if err := validation.ValidateData(raw); err != nil {
		return fmt.Errorf("invalid data: %w", err)
	}

	doc, err := c.dataService.Put(ctx, &models.Document{
		ID:   *id,
		Type: *docType,
		Data: raw,
	})
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	c.io.Println("✓ Document saved!")
	c.io.Printf("ID:        %s\n", doc.ID)
	c.io.Printf("Timestamp: %d\n", doc.Timestamp)
	c.io.Println()
	c.io.Println("Run 'gophsync sync' to send it to the server.")
	return nil
}

// readData берет данные из файла, из аргумента или спрашивает интерактивно
func (c *Cli) readData(file string, args []string) (json.RawMessage, error) {
	switch {
	case file != "" && len(args) > 0:
		return nil, errors.New("use either -file or data argument, not both")
	case file != "":
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read data file: %w", err)
		}
		return json.RawMessage(strings.TrimSpace(string(content))), nil
	case len(args) > 1:
		return nil, errors.New("too many arguments. Usage: gophsync put [-id ID] [-type TYPE] [json]")
	case len(args) == 1:
		return json.RawMessage(strings.TrimSpace(args[0])), nil
	}

	input, err := c.io.ReadInput("Data (JSON): ")
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	if input == "" {
		return nil, errors.New("data cannot be empty")
	}
	return json.RawMessage(input), nil
}
