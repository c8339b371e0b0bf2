package badger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/linkdex/internal/db"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestStore_SetGetDel(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "k", []byte("v1")))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Set(ctx, "k", []byte("v2")))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)

	require.NoError(t, s.Del(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, db.ErrKeyNotFound)
	assert.NoError(t, s.Del(ctx, "k"))
}

func TestStore_SetWithTTL(t *testing.T) {
	ctx := context.Background()
	s := openInMemory(t)

	require.NoError(t, s.SetWithTTL(ctx, "k", []byte("v"), time.Hour))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestStore_OnDisk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(Config{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "persisted", []byte("yes")))
	s.Close()

	reopened, err := Open(Config{Path: dir})
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(ctx, "persisted")
	require.NoError(t, err)
	assert.Equal(t, []byte("yes"), got)
}

func TestStore_PingAfterClose(t *testing.T) {
	s, err := Open(Config{})
	require.NoError(t, err)
	require.NoError(t, s.WaitForReady(context.Background(), time.Second))

	s.Close()

	err = s.Ping(context.Background())
	assert.True(t, errors.Is(err, db.ErrClosed))
}
