package models

import (
	"encoding/json"
	"fmt"
)

// Checkpoint непрозрачный курсор репликации.
// Ядро репликации никогда не разбирает его содержимое: значение создается
// стороной-владельцем (fork storage или master handler) и только сохраняется.
// Пустой checkpoint означает "с самого начала".
type Checkpoint = json.RawMessage

// Direction направление репликации
type Direction string

const (
	DirectionPull Direction = "pull" // master -> fork
	DirectionPush Direction = "push" // fork -> master
)

// StatusConflict код ошибки записи при несовпадении ожидаемой ревизии
const StatusConflict = 409

// DocumentsWithCheckpoint пакет документов вместе с checkpoint,
// до которого (включительно) этот пакет продвигает курсор.
type DocumentsWithCheckpoint struct {
	Checkpoint Checkpoint  `json:"checkpoint"`
	Documents  []*Document `json:"documents"`
}

// WriteRow строка записи в master: новое состояние документа
// и состояние, которое реплика считает текущим на master.
// AssumedMasterState == nil означает, что документ считается новым.
type WriteRow struct {
	AssumedMasterState *Document `json:"assumed_master_state,omitempty"`
	NewDocumentState   *Document `json:"new_document_state"`
}

// PullStreamItem элемент live-потока изменений master.
// Либо пакет документов, либо сигнал Resync ("что-то изменилось, перечитай с checkpoint").
type PullStreamItem struct {
	Batch  *DocumentsWithCheckpoint
	Resync bool
}

// ResyncItem возвращает элемент потока с сигналом RESYNC
func ResyncItem() PullStreamItem {
	return PullStreamItem{Resync: true}
}

// BulkWriteRow строка пакетной записи в хранилище.
// Previous: состояние, которое пишущий считает текущим (nil для нового документа);
// хранилище отклоняет запись с StatusConflict, если текущая ревизия отличается.
type BulkWriteRow struct {
	Previous *Document
	Document *Document
}

// WriteError ошибка записи одной строки
type WriteError struct {
	Err          error
	DocumentInDB *Document
	ID           string
	Status       int
}

func (e *WriteError) Error() string {
	if e.Err != nil {
		return e.ID + ": " + e.Err.Error()
	}
	return e.ID + ": write conflict"
}

// IsConflict сообщает, что запись отклонена из-за конфликта ревизий
func (e *WriteError) IsConflict() bool {
	return e.Status == StatusConflict
}

// BulkWriteResult результат пакетной записи: успешно записанные документы и ошибки по строкам
type BulkWriteResult struct {
	Success []*Document
	Errors  []*WriteError
}

// ChangeEvent событие записи в хранилище
type ChangeEvent struct {
	Checkpoint Checkpoint
	Documents  []*Document
}

// SeqCheckpoint checkpoint хранилищ с монотонным счетчиком изменений
type SeqCheckpoint struct {
	Seq int64 `json:"seq"`
}

// NewSeqCheckpoint кодирует счетчик изменений в checkpoint
func NewSeqCheckpoint(seq int64) Checkpoint {
	data, _ := json.Marshal(SeqCheckpoint{Seq: seq})
	return data
}

// ParseSeqCheckpoint декодирует checkpoint. Пустой checkpoint означает начало журнала.
func ParseSeqCheckpoint(cp Checkpoint) (int64, error) {
	if len(cp) == 0 || isJSONNull(cp) {
		return 0, nil
	}
	var seq SeqCheckpoint
	if err := json.Unmarshal(cp, &seq); err != nil {
		return 0, fmt.Errorf("invalid checkpoint %q: %w", string(cp), err)
	}
	if seq.Seq < 0 {
		return 0, fmt.Errorf("invalid checkpoint %q: negative seq", string(cp))
	}
	return seq.Seq, nil
}
