package tokenstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	token, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, token)

	require.NoError(t, store.Save(ctx, "tok-123"))
	token, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-123", token)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Clear(ctx))
	token, err = store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, token)
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store, err := NewFileStore(path)
	require.NoError(t, err)
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), "tok"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRedisStore(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	store := NewRedisStore(client, "")
	exerciseStore(t, store)

	require.NoError(t, store.Save(context.Background(), "shared"))
	value, err := mini.Get("classpilot:token")
	require.NoError(t, err)
	require.Equal(t, "shared", value)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(""))
}

func TestNewSelectsBackend(t *testing.T) {
	store, err := New(Options{Backend: "memory"})
	require.NoError(t, err)
	require.IsType(t, &MemoryStore{}, store)

	_, err = New(Options{Backend: "redis"})
	require.Error(t, err)

	_, err = New(Options{Backend: "carrier-pigeon"})
	require.Error(t, err)

	store, err = New(Options{FilePath: filepath.Join(t.TempDir(), "token")})
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, store)
}
