package boltdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophsync/internal/client/storage"
	"github.com/iudanet/gophsync/internal/models"
)

// BulkWrite атомарно записывает строки одной транзакцией.
// Строка применяется, только если Previous совпадает с текущей ревизией документа
// (Previous == nil означает, что документа быть не должно). Иначе строка
// попадает в Errors со StatusConflict и текущим состоянием документа.
func (s *Storage) BulkWrite(ctx context.Context, rows []models.BulkWriteRow) (*models.BulkWriteResult, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	// порядок событий совпадает с порядком транзакций
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	result := &models.BulkWriteResult{}
	var lastSeq uint64

	err := s.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		changes := tx.Bucket(bucketChanges)
		index := tx.Bucket(bucketChangeIndex)

		now := time.Now().UTC()
		for _, row := range rows {
			if row.Document == nil || row.Document.ID == "" {
				return fmt.Errorf("document without id")
			}
			key := []byte(row.Document.ID)

			current, err := decodeDocument(docs.Get(key))
			if err != nil {
				return err
			}
			if !sameRevision(row.Previous, current) {
				result.Errors = append(result.Errors, &models.WriteError{
					ID:           row.Document.ID,
					Status:       models.StatusConflict,
					Err:          storage.ErrConflict,
					DocumentInDB: current,
				})
				continue
			}

			doc := row.Document.Clone()
			doc.UpdatedAt = now
			if current != nil {
				doc.Version = current.Version + 1
				doc.CreatedAt = current.CreatedAt
			} else {
				doc.Version = 1
				if doc.CreatedAt.IsZero() {
					doc.CreatedAt = now
				}
			}

			data, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to marshal document: %w", err)
			}
			if err := docs.Put(key, data); err != nil {
				return fmt.Errorf("failed to save document: %w", err)
			}

			// в журнале изменений у документа одна запись: последняя
			if old := index.Get(key); old != nil {
				if err := changes.Delete(old); err != nil {
					return fmt.Errorf("failed to delete change entry: %w", err)
				}
			}
			seq, err := changes.NextSequence()
			if err != nil {
				return fmt.Errorf("failed to allocate change sequence: %w", err)
			}
			seqKey := encodeSeq(seq)
			if err := changes.Put(seqKey, key); err != nil {
				return fmt.Errorf("failed to save change entry: %w", err)
			}
			if err := index.Put(key, seqKey); err != nil {
				return fmt.Errorf("failed to save change index: %w", err)
			}

			lastSeq = seq
			result.Success = append(result.Success, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk write transaction failed: %w", err)
	}

	if len(result.Success) > 0 {
		s.changes.Publish(models.ChangeEvent{
			Checkpoint: models.NewSeqCheckpoint(int64(lastSeq)),
			Documents:  cloneAll(result.Success),
		})
	}

	return result, nil
}

// FindByIDs returns current document states (including deleted ones)
func (s *Storage) FindByIDs(ctx context.Context, ids []string) (map[string]*models.Document, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	found := make(map[string]*models.Document, len(ids))
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketDocuments)
		for _, id := range ids {
			doc, err := decodeDocument(bucket.Get([]byte(id)))
			if err != nil {
				return err
			}
			if doc != nil {
				found[id] = doc
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}

	return found, nil
}

// Get retrieves a document by ID
func (s *Storage) Get(ctx context.Context, id string) (*models.Document, error) {
	found, err := s.FindByIDs(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	doc, ok := found[id]
	if !ok {
		return nil, storage.ErrDocumentNotFound
	}
	return doc, nil
}

// List returns documents ordered by ID
func (s *Storage) List(ctx context.Context, opts storage.ListOptions) ([]*models.Document, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	var docs []*models.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			doc, err := decodeDocument(v)
			if err != nil {
				return err
			}
			// Фильтруем deleted и тип
			if doc.Deleted && !opts.IncludeDeleted {
				return nil
			}
			if opts.Type != "" && doc.Type != opts.Type {
				return nil
			}
			docs = append(docs, doc)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	return docs, nil
}

// MaxTimestamp returns the maximum Lamport timestamp in the local store
func (s *Storage) MaxTimestamp(ctx context.Context) (int64, error) {
	if s.db == nil {
		return 0, storage.ErrStorageClosed
	}

	var maxTimestamp int64
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocuments).ForEach(func(k, v []byte) error {
			doc, err := decodeDocument(v)
			if err != nil {
				return err
			}
			if doc.Timestamp > maxTimestamp {
				maxTimestamp = doc.Timestamp
			}
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get max timestamp: %w", err)
	}

	return maxTimestamp, nil
}

// ChangesSince returns documents changed after checkpoint in change order.
// Checkpoint имеет вид {"seq":N}, где N номер записи журнала изменений.
func (s *Storage) ChangesSince(ctx context.Context, checkpoint models.Checkpoint, limit int) (*models.DocumentsWithCheckpoint, error) {
	if s.db == nil {
		return nil, storage.ErrStorageClosed
	}

	since, err := models.ParseSeqCheckpoint(checkpoint)
	if err != nil {
		return nil, err
	}

	result := &models.DocumentsWithCheckpoint{Documents: []*models.Document{}}
	last := since

	err = s.db.View(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		cursor := tx.Bucket(bucketChanges).Cursor()

		for k, v := cursor.Seek(encodeSeq(uint64(since) + 1)); k != nil; k, v = cursor.Next() {
			if limit > 0 && len(result.Documents) >= limit {
				break
			}
			doc, err := decodeDocument(docs.Get(v))
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}
			result.Documents = append(result.Documents, doc)
			last = int64(binary.BigEndian.Uint64(k))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read changes: %w", err)
	}

	result.Checkpoint = models.NewSeqCheckpoint(last)
	return result, nil
}

// Subscribe подписывает на события записи документов
func (s *Storage) Subscribe() (<-chan models.ChangeEvent, func()) {
	return s.changes.Subscribe()
}

// Clear removes all documents and the change log
func (s *Storage) Clear(ctx context.Context) error {
	if s.db == nil {
		return storage.ErrStorageClosed
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketDocuments, bucketChanges, bucketChangeIndex} {
			// Удаляем bucket полностью
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return fmt.Errorf("failed to delete bucket: %w", err)
			}
			// Создаем заново пустой bucket
			if _, err := tx.CreateBucket(name); err != nil {
				return fmt.Errorf("failed to create bucket: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clear transaction failed: %w", err)
	}

	return nil
}

func sameRevision(previous, current *models.Document) bool {
	if previous == nil || current == nil {
		return previous == nil && current == nil
	}
	return previous.Version == current.Version
}

func decodeDocument(data []byte) (*models.Document, error) {
	if data == nil {
		return nil, nil
	}
	doc := &models.Document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return doc, nil
}

func encodeSeq(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}

func cloneAll(docs []*models.Document) []*models.Document {
	out := make([]*models.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Clone())
	}
	return out
}
