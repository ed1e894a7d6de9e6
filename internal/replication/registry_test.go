package replication

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	repA := newTestReplication(t, "rep-a", newMemoryStorage(), newMemoryStorage(), nil)
	repB := newTestReplication(t, "rep-b", newMemoryStorage(), newMemoryStorage(), nil)

	require.NoError(t, registry.Register(repB))
	require.NoError(t, registry.Register(repA))
	assert.ErrorIs(t, registry.Register(repA), ErrDuplicateReplication)

	assert.Equal(t, []string{"rep-a", "rep-b"}, registry.IDs())

	got, ok := registry.Get("rep-a")
	require.True(t, ok)
	assert.Same(t, repA, got)

	assert.True(t, registry.Remove("rep-a"))
	assert.False(t, registry.Remove("rep-a"))
	assert.Equal(t, StatusCancelled, repA.Status())

	registry.Close()
	registry.Close()
	assert.Equal(t, StatusCancelled, repB.Status())
	assert.Empty(t, registry.IDs())
	assert.ErrorIs(t, registry.Register(repA), ErrRegistryClosed)
}
