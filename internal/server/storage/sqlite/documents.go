package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/replication"
	"github.com/iudanet/gophsync/internal/server/storage"
)

const documentColumns = `id, type, data, metadata, node_id, version, timestamp, deleted, created_at, updated_at`

// ChangesSince returns documents changed after checkpoint ordered by seq.
// Checkpoint имеет вид {"seq":N}; пустой пакет возвращает тот же checkpoint.
func (s *Storage) ChangesSince(ctx context.Context, collection string, checkpoint models.Checkpoint, limit int) (*models.DocumentsWithCheckpoint, error) {
	since, err := models.ParseSeqCheckpoint(checkpoint)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1 // без ограничения
	}

	query := `
		SELECT ` + documentColumns + `, seq
		FROM documents
		WHERE collection = ? AND seq > ?
		ORDER BY seq
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, collection, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := &models.DocumentsWithCheckpoint{Documents: []*models.Document{}}
	last := since

	for rows.Next() {
		var seq int64
		doc, err := scanDocument(rows, &seq)
		if err != nil {
			return nil, err
		}
		result.Documents = append(result.Documents, doc)
		last = seq
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	result.Checkpoint = models.NewSeqCheckpoint(last)
	return result, nil
}

// MasterWrite applies push rows in one transaction
func (s *Storage) MasterWrite(ctx context.Context, collection string, rows []models.WriteRow) (*storage.MasterWriteResult, error) {
	for _, row := range rows {
		if row.NewDocumentState == nil || row.NewDocumentState.ID == "" {
			return nil, storage.ErrInvalidRow
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	result := &storage.MasterWriteResult{}
	var lastSeq int64
	now := time.Now().UTC()

	for _, row := range rows {
		master, err := getDocument(ctx, tx, collection, row.NewDocumentState.ID)
		if err != nil && !errors.Is(err, storage.ErrDocumentNotFound) {
			return nil, err
		}

		if !replication.CheckMasterWrite(s.handler, row, master) {
			result.Conflicts = append(result.Conflicts, master)
			continue
		}

		seq, err := nextSeq(ctx, tx, collection)
		if err != nil {
			return nil, err
		}

		doc := row.NewDocumentState.Clone()
		doc.UpdatedAt = now
		if master != nil {
			doc.Version = master.Version + 1
			doc.CreatedAt = master.CreatedAt
		} else {
			doc.Version = 1
			doc.CreatedAt = now
		}

		query := `
			INSERT INTO documents (
				collection, ` + documentColumns + `, seq
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (collection, id) DO UPDATE SET
				type = excluded.type, data = excluded.data, metadata = excluded.metadata,
				node_id = excluded.node_id, version = excluded.version,
				timestamp = excluded.timestamp, deleted = excluded.deleted,
				updated_at = excluded.updated_at, seq = excluded.seq
		`
		_, err = tx.ExecContext(ctx, query,
			collection,
			doc.ID,
			doc.Type,
			[]byte(doc.Data),
			doc.Metadata,
			doc.NodeID,
			doc.Version,
			doc.Timestamp,
			boolToInt(doc.Deleted),
			doc.CreatedAt.UnixNano(),
			doc.UpdatedAt.UnixNano(),
			seq,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to save document: %w", err)
		}

		lastSeq = seq
		result.Written = append(result.Written, doc)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if len(result.Written) > 0 {
		result.Checkpoint = models.NewSeqCheckpoint(lastSeq)
	}
	return result, nil
}

// GetDocument retrieves a single document (including deleted)
func (s *Storage) GetDocument(ctx context.Context, collection, id string) (*models.Document, error) {
	return getDocument(ctx, s.db, collection, id)
}

// ListDocuments returns documents of a collection ordered by ID
func (s *Storage) ListDocuments(ctx context.Context, collection string, includeDeleted bool) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE collection = ? AND (? OR deleted = 0)
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, collection, includeDeleted)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	docs := make([]*models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return docs, nil
}

// Collections returns names of collections that have documents
func (s *Storage) Collections(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, fmt.Errorf("failed to query collections: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan collection: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return names, nil
}

// queryer общий интерфейс *sql.DB и *sql.Tx
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getDocument(ctx context.Context, q queryer, collection, id string) (*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE collection = ? AND id = ?
	`

	doc, err := scanDocument(q.QueryRowContext(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// nextSeq выдает следующий номер изменения коллекции
func nextSeq(ctx context.Context, tx *sql.Tx, collection string) (int64, error) {
	query := `
		INSERT INTO collection_sequences (collection, seq) VALUES (?, 1)
		ON CONFLICT (collection) DO UPDATE SET seq = seq + 1
		RETURNING seq
	`

	var seq int64
	if err := tx.QueryRowContext(ctx, query, collection).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to allocate change sequence: %w", err)
	}
	return seq, nil
}

// scanner общий интерфейс *sql.Row и *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

// scanDocument читает колонки documentColumns и, если передан, seq
func scanDocument(row scanner, extra ...any) (*models.Document, error) {
	doc := &models.Document{}
	var (
		data                 []byte
		deleted              int
		createdAt, updatedAt int64
	)

	dest := []any{
		&doc.ID,
		&doc.Type,
		&data,
		&doc.Metadata,
		&doc.NodeID,
		&doc.Version,
		&doc.Timestamp,
		&deleted,
		&createdAt,
		&updatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	if data != nil {
		doc.Data = data
	}
	doc.Deleted = intToBool(deleted)
	doc.CreatedAt = time.Unix(0, createdAt).UTC()
	doc.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return doc, nil
}

// Helper functions for bool/int conversion
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}
