package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// NonceSize - размер nonce для AES-GCM (12 bytes стандартный размер)
	NonceSize = 12
)

// ErrNotSealed данные не являются зашифрованным payload
var ErrNotSealed = errors.New("payload is not sealed")

// sealedPayload формат зашифрованного содержимого документа.
// Результат остается валидным JSON, поэтому документ реплицируется как обычно.
type sealedPayload struct {
	Sealed string `json:"sealed"`
}

// Sealer шифрует содержимое документов AES-256-GCM
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer создает Sealer с ключом длиной 32 байта
func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
	}

	// Создаем AES cipher block
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	// Создаем GCM mode
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Sealer{aead: aead}, nil
}

// Seal шифрует JSON и возвращает {"sealed":"<base64>"}.
// Формат шифротекста: nonce (12 bytes) + ciphertext + auth_tag (16 bytes)
func (s *Sealer) Seal(data json.RawMessage) (json.RawMessage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("plaintext cannot be empty")
	}

	nonce := make([]byte, NonceSize, NonceSize+len(data)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	// GCM добавляет authentication tag в конец
	encrypted := s.aead.Seal(nonce, nonce, data, nil)

	out, err := json.Marshal(sealedPayload{Sealed: base64.StdEncoding.EncodeToString(encrypted)})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sealed payload: %w", err)
	}
	return out, nil
}

// Open расшифровывает payload, созданный Seal.
// Для незашифрованных данных возвращает ErrNotSealed.
func (s *Sealer) Open(data json.RawMessage) (json.RawMessage, error) {
	payload, ok := parseSealed(data)
	if !ok {
		return nil, ErrNotSealed
	}

	encrypted, err := base64.StdEncoding.DecodeString(payload.Sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	if len(encrypted) < NonceSize {
		return nil, fmt.Errorf("encrypted data too short")
	}

	// Дешифруем и проверяем authentication tag
	plaintext, err := s.aead.Open(nil, encrypted[:NonceSize], encrypted[NonceSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: authentication failed or corrupted data: %w", err)
	}

	return plaintext, nil
}

// IsSealed сообщает, что данные зашифрованы Seal
func IsSealed(data json.RawMessage) bool {
	_, ok := parseSealed(data)
	return ok
}

func parseSealed(data json.RawMessage) (sealedPayload, bool) {
	var payload sealedPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, false
	}
	return payload, payload.Sealed != ""
}
