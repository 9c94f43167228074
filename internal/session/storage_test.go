package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "a", "1"))
	require.NoError(t, s.Set(ctx, "b", "2"))

	v, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	require.NoError(t, s.Delete(ctx, "a", "never-set"))
	_, ok, err = s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	v, _, _ = s.Get(ctx, "b")
	assert.Equal(t, "2", v)
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	exerciseStorage(t, NewFileStorage(path))

	t.Run("survives reopen", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, NewFileStorage(path).Set(ctx, "user", "amina"))

		v, ok, err := NewFileStorage(path).Get(ctx, "user")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "amina", v)
	})

	t.Run("corrupt file is an error", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte("{nope"), 0o600))

		_, _, err := NewFileStorage(bad).Get(context.Background(), "user")
		assert.Error(t, err)
	})
}

func TestNamespace(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryStorage()
	alice := Namespace(shared, "visitor:alice:")
	bob := Namespace(shared, "visitor:bob:")

	exerciseStorage(t, alice)

	require.NoError(t, alice.Set(ctx, KeyUser, "alice"))
	_, ok, _ := bob.Get(ctx, KeyUser)
	assert.False(t, ok)

	v, ok, _ := shared.Get(ctx, "visitor:alice:"+KeyUser)
	assert.True(t, ok)
	assert.Equal(t, "alice", v)

	require.NoError(t, alice.Delete(ctx, KeyUser))
	_, ok, _ = shared.Get(ctx, "visitor:alice:"+KeyUser)
	assert.False(t, ok)
}
