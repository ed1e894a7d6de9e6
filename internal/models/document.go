package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Document представляет одно состояние документа коллекции.
// Удаление выражается флагом Deleted: удаленный документ остается документом (tombstone).
type Document struct {
	CreatedAt time.Time       `json:"created_at"` // CreatedAt время создания (для информации)
	UpdatedAt time.Time       `json:"updated_at"` // UpdatedAt время последней записи (для информации)
	ID        string          `json:"id"`         // ID первичный ключ документа
	Type      string          `json:"type"`       // Type произвольный тип документа
	NodeID    string          `json:"node_id"`    // NodeID узел, создавший эту версию (tie-break для LWW)
	Data      json.RawMessage `json:"data"`       // Data содержимое документа
	Metadata  []byte          `json:"metadata"`   // Metadata произвольные метаданные
	Version   int64           `json:"version"`    // Version ревизия в конкретном хранилище (служебное поле)
	Timestamp int64           `json:"timestamp"`  // Timestamp Lamport timestamp последней записи (lwt)
	Deleted   bool            `json:"deleted"`    // Deleted флаг soft delete
}

// IsNewerThan сравнивает две версии документа по правилу LWW:
// 1. больший Timestamp выигрывает
// 2. при равных Timestamp выигрывает больший NodeID
// 3. дальше по очереди сравниваются Data, Type, Deleted и Metadata
// Последние правила делают порядок полным на всех полях ContentEqual:
// если документы различаются по содержимому, ровно один из них новее.
func (d *Document) IsNewerThan(other *Document) bool {
	if d.Timestamp != other.Timestamp {
		return d.Timestamp > other.Timestamp
	}
	if d.NodeID != other.NodeID {
		return d.NodeID > other.NodeID
	}
	if c := bytes.Compare(d.Data, other.Data); c != 0 {
		return c > 0
	}
	if d.Type != other.Type {
		return d.Type > other.Type
	}
	if d.Deleted != other.Deleted {
		// tombstone побеждает при полном равенстве
		return d.Deleted
	}
	return bytes.Compare(d.Metadata, other.Metadata) > 0
}

// ContentEqual сравнивает содержимое документов без служебных полей
// (Version, Timestamp, NodeID, CreatedAt, UpdatedAt).
func (d *Document) ContentEqual(other *Document) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.ID == other.ID &&
		d.Type == other.Type &&
		d.Deleted == other.Deleted &&
		jsonEqual(d.Data, other.Data) &&
		bytes.Equal(d.Metadata, other.Metadata)
}

// Clone создает глубокую копию документа
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	var data json.RawMessage
	if d.Data != nil {
		data = make(json.RawMessage, len(d.Data))
		copy(data, d.Data)
	}

	var metadata []byte
	if d.Metadata != nil {
		metadata = make([]byte, len(d.Metadata))
		copy(metadata, d.Metadata)
	}

	return &Document{
		ID:        d.ID,
		Type:      d.Type,
		NodeID:    d.NodeID,
		Data:      data,
		Metadata:  metadata,
		Version:   d.Version,
		Timestamp: d.Timestamp,
		Deleted:   d.Deleted,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// jsonEqual compares two JSON payloads ignoring insignificant whitespace.
func jsonEqual(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	if len(a) == 0 || len(b) == 0 {
		return isJSONNull(a) && isJSONNull(b)
	}

	var ca, cb bytes.Buffer
	if err := json.Compact(&ca, a); err != nil {
		return false
	}
	if err := json.Compact(&cb, b); err != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

func isJSONNull(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}
