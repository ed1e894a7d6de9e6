package storage

import "errors"

var (
	// ErrAuthNotFound клиент не выполнял login
	ErrAuthNotFound = errors.New("authentication data not found")

	// ErrDocumentNotFound документа нет в локальном хранилище
	ErrDocumentNotFound = errors.New("document not found")

	// ErrConflict сохраненная ревизия отличается от ожидаемой
	ErrConflict = errors.New("document revision conflict")

	// ErrStorageClosed хранилище уже закрыто
	ErrStorageClosed = errors.New("storage is closed")
)
