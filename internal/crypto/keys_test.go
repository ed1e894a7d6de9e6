package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name       string
		passphrase string
		collection string
		errMsg     string
		wantErr    bool
	}{
		{name: "valid", passphrase: "correct horse battery staple", collection: "notes"},
		{name: "empty passphrase", collection: "notes", wantErr: true, errMsg: "passphrase cannot be empty"},
		{name: "empty collection", passphrase: "secret", wantErr: true, errMsg: "collection cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveKey(tt.passphrase, tt.collection)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.Nil(t, key)
				return
			}
			require.NoError(t, err)
			assert.Len(t, key, Argon2KeyLen)
		})
	}
}

func TestDeriveKey_Determinism(t *testing.T) {
	first, err := DeriveKey("passphrase", "notes")
	require.NoError(t, err)
	second, err := DeriveKey("passphrase", "notes")
	require.NoError(t, err)

	// разные узлы получают один ключ
	assert.Equal(t, first, second)

	otherCollection, err := DeriveKey("passphrase", "tasks")
	require.NoError(t, err)
	assert.NotEqual(t, first, otherCollection)

	otherPassphrase, err := DeriveKey("passphrase2", "notes")
	require.NoError(t, err)
	assert.NotEqual(t, first, otherPassphrase)
}

func TestCollectionSalt(t *testing.T) {
	assert.Len(t, CollectionSalt("notes"), 32)
	assert.Equal(t, CollectionSalt("notes"), CollectionSalt("notes"))
	assert.NotEqual(t, CollectionSalt("notes"), CollectionSalt("tasks"))
}

func TestDeriveKey_WorksWithSealer(t *testing.T) {
	key, err := DeriveKey("passphrase", "notes")
	require.NoError(t, err)

	sealer, err := NewSealer(key)
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte(`{"a":1}`))
	require.NoError(t, err)
	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(opened))
}
