package storage

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore_PutGetRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	content := []byte("original bytes")
	require.NoError(t, store.Put("photos/a/b.jpg", bytes.NewReader(content)))

	r, err := store.Get("photos/a/b.jpg")
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, got)
	assert.True(t, store.Exists("photos/a/b.jpg"))
}

func TestLocalStore_GetMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get("nope.jpg")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, store.Exists("nope.jpg"))
}

func TestLocalStore_DeleteIsIdempotent(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put("x.bin", bytes.NewReader([]byte{1, 2, 3})))
	require.NoError(t, store.Delete("x.bin"))
	assert.False(t, store.Exists("x.bin"))

	// deleting again is not an error
	assert.NoError(t, store.Delete("x.bin"))
}

func TestLocalStore_OverwriteReplacesContent(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Put("x.bin", bytes.NewReader([]byte("first"))))
	require.NoError(t, store.Put("x.bin", bytes.NewReader([]byte("second"))))

	r, err := store.Get("x.bin")
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}
