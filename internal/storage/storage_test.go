package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exercisePersister(t *testing.T, p Persister) {
	t.Helper()
	ctx := context.Background()

	_, err := p.Load(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)

	require.NoError(t, p.Save(ctx, "retail_hub_products", []byte(`[{"id":"p1"}]`)))
	data, err := p.Load(ctx, "retail_hub_products")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p1"}]`, string(data))

	require.NoError(t, p.Save(ctx, "retail_hub_products", []byte(`[]`)))
	data, err = p.Load(ctx, "retail_hub_products")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	require.NoError(t, p.Delete(ctx, "retail_hub_products"))
	_, err = p.Load(ctx, "retail_hub_products")
	assert.True(t, errors.Is(err, ErrNotFound))

	// deleting twice is fine
	require.NoError(t, p.Delete(ctx, "retail_hub_products"))
}

func TestMemoryPersister(t *testing.T) {
	exercisePersister(t, NewMemoryPersister())
}

func TestMemoryPersister_CopiesBuffers(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryPersister()
	buf := []byte("abc")
	require.NoError(t, p.Save(ctx, "k", buf))
	buf[0] = 'x'
	got, err := p.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFilePersister(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	p, err := NewFilePersister(dir)
	require.NoError(t, err)
	exercisePersister(t, p)
}

func TestFilePersister_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	p, err := NewFilePersister(dir)
	require.NoError(t, err)
	require.NoError(t, p.Save(context.Background(), "a/b", []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a%2Fb.json", entries[0].Name())
}

func TestNewRedisPersister_BadURL(t *testing.T) {
	_, err := NewRedisPersister("://not-a-url")
	assert.Error(t, err)
}

func TestOpenMySQL_BadDSN(t *testing.T) {
	_, err := OpenMySQL("not a dsn")
	assert.Error(t, err)
}
