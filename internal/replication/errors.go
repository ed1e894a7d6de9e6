package replication

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/iudanet/gophsync/internal/models"
)

var (
	// ErrProtocolMismatch удаленная сторона говорит на несовместимой версии протокола.
	// Ошибка фатальная: репликация переходит в StatusErrored и не повторяет попытки.
	ErrProtocolMismatch = errors.New("replication protocol mismatch")

	// ErrCancelled репликация остановлена
	ErrCancelled = errors.New("replication cancelled")

	// ErrInvalidResult обработчик вернул результат, нарушающий контракт
	ErrInvalidResult = errors.New("replication handler returned invalid result")
)

// Error ошибка цикла репликации, публикуется в потоке ошибок.
type Error struct {
	Direction        models.Direction
	Errors           []error
	DocumentsInError []*models.Document
	Fatal            bool
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("replication %s error: %s", e.Direction, strings.Join(msgs, "; "))
}

// Unwrap позволяет использовать errors.Is/As по вложенным ошибкам
func (e *Error) Unwrap() []error {
	return e.Errors
}

// IsFatal сообщает, что ошибку нельзя повторять
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrProtocolMismatch) {
		return true
	}
	var permanent *backoff.PermanentError
	return errors.As(err, &permanent)
}

func newError(direction models.Direction, err error, docs []*models.Document) *Error {
	return &Error{
		Direction:        direction,
		Errors:           []error{err},
		DocumentsInError: docs,
		Fatal:            IsFatal(err),
	}
}
