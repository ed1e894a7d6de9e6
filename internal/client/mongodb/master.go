// Package mongodb master репликации поверх коллекции MongoDB.
//
// Каждая реплицируемая коллекция хранится в одноименной коллекции MongoDB,
// журнал изменений задается полем seq, которое выдается счетчиком коллекции
// внутри транзакции. Транзакции и change streams требуют replica set.
package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iudanet/gophsync/internal/crdt"
	"github.com/iudanet/gophsync/internal/models"
	"github.com/iudanet/gophsync/internal/replication"
)

// CountersCollection коллекция счетчиков seq
const CountersCollection = "gophsync_counters"

// Master Pull/Push/Stream обработчики репликации с MongoDB в роли master
type Master struct {
	client   *mongo.Client
	docs     *mongo.Collection
	counters *mongo.Collection
	handler  crdt.ConflictHandler
	logger   *slog.Logger
	name     string
}

var (
	_ replication.PullHandler  = (*Master)(nil)
	_ replication.PushHandler  = (*Master)(nil)
	_ replication.PullStreamer = (*Master)(nil)
)

type record struct {
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
	ID        string    `bson:"_id"`
	Type      string    `bson:"type"`
	NodeID    string    `bson:"node_id"`
	Data      string    `bson:"data"`
	Metadata  []byte    `bson:"metadata,omitempty"`
	Version   int64     `bson:"version"`
	Timestamp int64     `bson:"timestamp"`
	Seq       int64     `bson:"seq"`
	Deleted   bool      `bson:"deleted"`
}

type counter struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

// Connect подключается к MongoDB и проверяет соединение
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	return client, nil
}

// New создает master для коллекции name базы db. handler может быть nil (LWW).
func New(db *mongo.Database, name string, handler crdt.ConflictHandler, logger *slog.Logger) *Master {
	if handler == nil {
		handler = crdt.LWWHandler{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Master{
		client:   db.Client(),
		docs:     db.Collection(name),
		counters: db.Collection(CountersCollection),
		handler:  handler,
		logger:   logger,
		name:     name,
	}
}

// EnsureIndexes создает индекс журнала изменений
func (m *Master) EnsureIndexes(ctx context.Context) error {
	_, err := m.docs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create seq index: %w", err)
	}
	return nil
}

// Pull возвращает документы, измененные после checkpoint, в порядке seq
func (m *Master) Pull(ctx context.Context, checkpoint models.Checkpoint, batchSize int) (*models.DocumentsWithCheckpoint, error) {
	since, err := models.ParseSeqCheckpoint(checkpoint)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	if batchSize > 0 {
		opts.SetLimit(int64(batchSize))
	}

	cursor, err := m.docs.Find(ctx, bson.M{"seq": bson.M{"$gt": since}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query changes: %w", err)
	}
	defer cursor.Close(ctx)

	var records []record
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode changes: %w", err)
	}

	result := &models.DocumentsWithCheckpoint{
		Checkpoint: checkpoint,
		Documents:  make([]*models.Document, 0, len(records)),
	}
	for i := range records {
		result.Documents = append(result.Documents, records[i].document())
	}
	if len(records) > 0 {
		result.Checkpoint = models.NewSeqCheckpoint(records[len(records)-1].Seq)
	}
	return result, nil
}

// Push записывает строки в одной транзакции и возвращает текущие
// состояния master для конфликтующих строк
func (m *Master) Push(ctx context.Context, rows []models.WriteRow) ([]*models.Document, error) {
	for _, row := range rows {
		if row.NewDocumentState == nil || row.NewDocumentState.ID == "" {
			return nil, errors.New("row without new document state")
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	session, err := m.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	var conflicts []*models.Document
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// транзакция может повторяться, результат собирается заново
		conflicts = nil
		for _, row := range rows {
			conflict, err := m.writeRow(sc, row)
			if err != nil {
				return nil, err
			}
			if conflict != nil {
				conflicts = append(conflicts, conflict)
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to write rows: %w", err)
	}

	m.logger.Debug("Push applied to mongodb", "collection", m.name, "rows", len(rows), "conflicts", len(conflicts))
	return conflicts, nil
}

// writeRow возвращает состояние master, если строка конфликтует
func (m *Master) writeRow(sc mongo.SessionContext, row models.WriteRow) (*models.Document, error) {
	id := row.NewDocumentState.ID

	master, err := m.find(sc, id)
	if err != nil {
		return nil, err
	}
	if !replication.CheckMasterWrite(m.handler, row, master) {
		return master, nil
	}

	seq, err := m.nextSeq(sc)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := toRecord(row.NewDocumentState)
	rec.Seq = seq
	rec.UpdatedAt = now

	if master == nil {
		rec.Version = 1
		rec.CreatedAt = now
		if _, err := m.docs.InsertOne(sc, rec); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return m.find(sc, id)
			}
			return nil, fmt.Errorf("failed to insert document: %w", err)
		}
		return nil, nil
	}

	rec.Version = master.Version + 1
	rec.CreatedAt = master.CreatedAt
	res, err := m.docs.ReplaceOne(sc, bson.M{"_id": id, "version": master.Version}, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to replace document: %w", err)
	}
	if res.MatchedCount == 0 {
		return m.find(sc, id)
	}
	return nil, nil
}

func (m *Master) find(ctx context.Context, id string) (*models.Document, error) {
	var rec record
	err := m.docs.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return rec.document(), nil
}

func (m *Master) nextSeq(ctx context.Context) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var c counter
	err := m.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": m.name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate seq: %w", err)
	}
	return c.Seq, nil
}

// Stream следит за коллекцией через change stream. Первым идет RESYNC,
// затем RESYNC после изменений; изменения, пришедшие пока поток не читают,
// схлопываются. Канал закрывается при отмене ctx или ошибке change stream.
func (m *Master) Stream(ctx context.Context) (<-chan models.PullStreamItem, error) {
	cs, err := m.docs.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("failed to open change stream: %w", err)
	}

	changes := make(chan struct{}, 1)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		defer cs.Close(context.Background())
		for cs.Next(ctx) {
			select {
			case changes <- struct{}{}:
			default:
			}
		}
		if err := cs.Err(); err != nil && ctx.Err() == nil {
			m.logger.Warn("Change stream closed", "collection", m.name, "error", err)
		}
	}()

	out := make(chan models.PullStreamItem)
	go func() {
		defer close(out)
		pending := true
		for {
			var send chan<- models.PullStreamItem
			if pending {
				send = out
			}
			select {
			case send <- models.ResyncItem():
				pending = false
			case <-changes:
				pending = true
			case <-watchDone:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func toRecord(doc *models.Document) record {
	return record{
		ID:        doc.ID,
		Type:      doc.Type,
		NodeID:    doc.NodeID,
		Data:      string(doc.Data),
		Metadata:  doc.Metadata,
		Version:   doc.Version,
		Timestamp: doc.Timestamp,
		Deleted:   doc.Deleted,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (r *record) document() *models.Document {
	var data json.RawMessage
	if r.Data != "" {
		data = json.RawMessage(r.Data)
	}
	return &models.Document{
		ID:        r.ID,
		Type:      r.Type,
		NodeID:    r.NodeID,
		Data:      data,
		Metadata:  r.Metadata,
		Version:   r.Version,
		Timestamp: r.Timestamp,
		Deleted:   r.Deleted,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}
