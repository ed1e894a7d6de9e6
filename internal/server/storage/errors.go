package storage

import "errors"

var (
	// ErrDocumentNotFound документа нет в коллекции
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidRow строка push не проходит проверку
	ErrInvalidRow = errors.New("invalid write row")
)
