package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"unicode"
)

// CollectionPattern определяет допустимое имя коллекции.
// Имя попадает в URL и в NATS subject, поэтому точки и пробелы запрещены.
var CollectionPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

const (
	// MaxDocumentIDLen максимальная длина id документа
	MaxDocumentIDLen = 256
	// MaxTypeLen максимальная длина типа документа
	MaxTypeLen = 64
	// MinPassphraseLen минимальная длина passphrase шифрования
	MinPassphraseLen = 12
)

// ValidateCollection проверяет имя коллекции
// Формат: латинские буквы, цифры, '_' и '-', длина 1-64 символа
func ValidateCollection(name string) error {
	if name == "" {
		return fmt.Errorf("collection cannot be empty")
	}

	if !CollectionPattern.MatchString(name) {
		return fmt.Errorf("collection can only contain letters, numbers, '_' and '-' (max 64 characters)")
	}

	return nil
}

// ValidateDocumentID проверяет первичный ключ документа
func ValidateDocumentID(id string) error {
	if id == "" {
		return fmt.Errorf("document id cannot be empty")
	}

	if len(id) > MaxDocumentIDLen {
		return fmt.Errorf("document id must not exceed %d characters", MaxDocumentIDLen)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("document id cannot contain control characters")
		}
	}

	return nil
}

// ValidateType проверяет тип документа (пустой тип допустим)
func ValidateType(docType string) error {
	if len(docType) > MaxTypeLen {
		return fmt.Errorf("document type must not exceed %d characters", MaxTypeLen)
	}
	return nil
}

// ValidateData проверяет, что содержимое документа является JSON
func ValidateData(data json.RawMessage) error {
	if len(data) == 0 {
		return fmt.Errorf("document data cannot be empty")
	}

	if !json.Valid(data) {
		return fmt.Errorf("document data must be valid JSON")
	}

	return nil
}

// ValidatePassphrase проверяет минимальные требования к passphrase шифрования
// Минимум 12 символов
func ValidatePassphrase(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase cannot be empty")
	}

	if len(passphrase) < MinPassphraseLen {
		return fmt.Errorf("passphrase must be at least %d characters long", MinPassphraseLen)
	}

	return nil
}
