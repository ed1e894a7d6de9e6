package crypto

import (
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id. Изменение любого из них меняет ключ,
// и ранее запечатанные документы перестают открываться.
const (
	Argon2Time    = 1
	Argon2Memory  = 64 * 1024 // KB
	Argon2Threads = 4
	Argon2KeyLen  = 32
)

// CollectionSalt детерминированная соль коллекции.
// Все узлы коллекции получают один и тот же ключ из одной passphrase,
// поэтому соль не хранится и не передается.
func CollectionSalt(collection string) []byte {
	sum := sha256.Sum256([]byte("gophsync/" + collection))
	return sum[:]
}

// DeriveKey получает ключ шифрования коллекции из passphrase (Argon2id)
func DeriveKey(passphrase, collection string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}
	if collection == "" {
		return nil, fmt.Errorf("collection cannot be empty")
	}

	key := argon2.IDKey([]byte(passphrase), CollectionSalt(collection),
		Argon2Time, Argon2Memory, Argon2Threads, Argon2KeyLen)
	return key, nil
}
