package crdt

import (
	"context"
	"errors"

	"github.com/iudanet/gophsync/internal/models"
)

// ErrNilState возвращается, если обработчику конфликта передано пустое состояние.
var ErrNilState = errors.New("conflict handler: nil document state")

// ConflictInput два состояния одного документа, каждое из которых претендует
// на роль "истинного", и (опционально) состояние, которое реплика считала текущим на master.
type ConflictInput struct {
	NewDocumentState   *models.Document
	RealMasterState    *models.Document
	AssumedMasterState *models.Document
}

// ConflictHandler разрешает конфликты между состояниями документа.
// Реализация обязана быть чистой функцией: одинаковый вход дает одинаковый
// результат при любом количестве вызовов и на любой стороне репликации.
type ConflictHandler interface {
	// IsEqual сравнивает содержимое двух состояний без служебных полей
	IsEqual(a, b *models.Document) bool

	// Resolve возвращает состояние, которое должно стать общим для fork и master
	Resolve(ctx context.Context, input ConflictInput) (*models.Document, error)
}

// LWWHandler обработчик конфликтов по умолчанию: Last-Write-Wins.
// Побеждает состояние с большим Timestamp, затем с большим NodeID,
// затем с большим содержимым (см. Document.IsNewerThan). Порядок полный,
// поэтому Resolve(a, b) и Resolve(b, a) дают побайтно одинаковый результат.
type LWWHandler struct{}

var _ ConflictHandler = LWWHandler{}

// IsEqual сравнивает содержимое документов
func (LWWHandler) IsEqual(a, b *models.Document) bool {
	return a.ContentEqual(b)
}

// Resolve выбирает победителя по правилу LWW
func (LWWHandler) Resolve(_ context.Context, input ConflictInput) (*models.Document, error) {
	local, master := input.NewDocumentState, input.RealMasterState
	if local == nil || master == nil {
		return nil, ErrNilState
	}

	if local.IsNewerThan(master) {
		return local.Clone(), nil
	}
	return master.Clone(), nil
}

// HandlerFuncs собирает ConflictHandler из функций.
// Если Equal не задан, используется сравнение содержимого;
// если Merge не задан, используется LWW.
type HandlerFuncs struct {
	Equal func(a, b *models.Document) bool
	Merge func(ctx context.Context, input ConflictInput) (*models.Document, error)
}

var _ ConflictHandler = HandlerFuncs{}

// IsEqual вызывает Equal или сравнивает содержимое
func (h HandlerFuncs) IsEqual(a, b *models.Document) bool {
	if h.Equal != nil {
		return h.Equal(a, b)
	}
	return LWWHandler{}.IsEqual(a, b)
}

// Resolve вызывает Merge или LWW
func (h HandlerFuncs) Resolve(ctx context.Context, input ConflictInput) (*models.Document, error) {
	if h.Merge != nil {
		return h.Merge(ctx, input)
	}
	return LWWHandler{}.Resolve(ctx, input)
}
