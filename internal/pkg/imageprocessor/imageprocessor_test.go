package imageprocessor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreasMilants/gophotos/internal/pkg/storage"
)

func newTestStore(t *testing.T) *storage.LocalStore {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNewSizeCatalog(t *testing.T) {
	catalog := NewSizeCatalog(map[string]Size{
		"display": {Width: 500, Height: 500},
	})

	assert.Len(t, catalog, 2)
	assert.Equal(t, Size{Width: 500, Height: 500}, catalog["display"])
	assert.Equal(t, Size{Width: ThumbnailWidth, Height: ThumbnailHeight}, catalog[ThumbnailSizeName])
}

func TestNewSizeCatalog_ThumbnailNotOverridable(t *testing.T) {
	catalog := NewSizeCatalog(map[string]Size{
		ThumbnailSizeName: {Width: 900, Height: 900},
	})

	assert.Equal(t, Size{Width: ThumbnailWidth, Height: ThumbnailHeight}, catalog[ThumbnailSizeName])
}

func TestParseSizes(t *testing.T) {
	sizes, err := ParseSizes("display:500x500, hd:1920x1080")
	require.NoError(t, err)
	assert.Equal(t, map[string]Size{
		"display": {Width: 500, Height: 500},
		"hd":      {Width: 1920, Height: 1080},
	}, sizes)

	sizes, err = ParseSizes("")
	require.NoError(t, err)
	assert.Empty(t, sizes)

	_, err = ParseSizes("display=500x500")
	assert.Error(t, err)

	_, err = ParseSizes("display:500")
	assert.Error(t, err)

	_, err = ParseSizes("display:0x500")
	assert.Error(t, err)
}

func TestDerivativePath(t *testing.T) {
	p := New(newTestStore(t), NewSizeCatalog(DefaultSizes))

	assert.Equal(t, "photos/abc_100x100.png", p.DerivativePath("photos/abc.png", ThumbnailSizeName))
	assert.Equal(t, "photos/abc_1920x1080.png", p.DerivativePath("photos/abc.png", "hd"))
	assert.Equal(t, "", p.DerivativePath("photos/abc.png", "unknown"))
}

func TestDecodeVerify(t *testing.T) {
	w, h, err := DecodeVerify(pngBytes(t, 120, 80))
	require.NoError(t, err)
	assert.Equal(t, 120, w)
	assert.Equal(t, 80, h)

	_, _, err = DecodeVerify([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrImageDecode)
}

func TestCreateSizes(t *testing.T) {
	store := newTestStore(t)
	p := New(store, NewSizeCatalog(map[string]Size{
		"display": {Width: 500, Height: 500},
	}))

	original := "photos/orig.png"
	require.NoError(t, store.Put(original, bytes.NewReader(pngBytes(t, 800, 600))))

	w, h, err := p.CreateSizes(original)
	require.NoError(t, err)
	assert.Equal(t, 800, w)
	assert.Equal(t, 600, h)

	// thumbnail fits inside 100x100 keeping aspect ratio
	r, err := store.Get("photos/orig_100x100.png")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	r.Close()
	require.NoError(t, err)
	tw, th, err := DecodeVerify(data)
	require.NoError(t, err)
	assert.Equal(t, 100, tw)
	assert.Equal(t, 75, th)

	assert.True(t, store.Exists("photos/orig_500x500.png"))
}

func TestCreateSizes_NoUpscale(t *testing.T) {
	store := newTestStore(t)
	p := New(store, NewSizeCatalog(nil))

	original := "photos/small.png"
	require.NoError(t, store.Put(original, bytes.NewReader(pngBytes(t, 50, 40))))

	_, _, err := p.CreateSizes(original)
	require.NoError(t, err)

	r, err := store.Get("photos/small_100x100.png")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	r.Close()
	require.NoError(t, err)
	tw, th, err := DecodeVerify(data)
	require.NoError(t, err)
	assert.Equal(t, 50, tw)
	assert.Equal(t, 40, th)
}

func TestCreateSizes_CorruptOriginal(t *testing.T) {
	store := newTestStore(t)
	p := New(store, NewSizeCatalog(nil))

	require.NoError(t, store.Put("photos/bad.png", bytes.NewReader([]byte("not a png"))))

	_, _, err := p.CreateSizes("photos/bad.png")
	assert.ErrorIs(t, err, ErrImageDecode)
}

func TestCreateSizes_MissingOriginal(t *testing.T) {
	p := New(newTestStore(t), NewSizeCatalog(nil))

	_, _, err := p.CreateSizes("photos/missing.png")
	assert.Error(t, err)
}

// failingStore wraps a real store and fails Put after a number of successes.
type failingStore struct {
	*storage.LocalStore
	allowedPuts int
	puts        int
}

func (f *failingStore) Put(path string, r io.Reader) error {
	f.puts++
	if f.puts > f.allowedPuts {
		return fmt.Errorf("simulated write failure for %s", path)
	}
	return f.LocalStore.Put(path, r)
}

func TestCreateSizes_RollbackOnFailure(t *testing.T) {
	local := newTestStore(t)
	store := &failingStore{LocalStore: local, allowedPuts: 1}
	p := New(store, NewSizeCatalog(map[string]Size{
		"display": {Width: 500, Height: 500},
	}))

	original := "photos/orig.png"
	require.NoError(t, local.Put(original, bytes.NewReader(pngBytes(t, 800, 600))))
	store.puts = 0 // only count derivative writes

	_, _, err := p.CreateSizes(original)
	require.Error(t, err)

	// every derivative written before the failure was removed again
	for _, name := range p.Catalog().Names() {
		assert.False(t, local.Exists(p.DerivativePath(original, name)), "derivative %s should be rolled back", name)
	}
	assert.True(t, local.Exists(original))
}

func TestDeleteSizes_ToleratesMissing(t *testing.T) {
	store := newTestStore(t)
	p := New(store, NewSizeCatalog(DefaultSizes))

	// nothing was ever written; must not panic or error
	p.DeleteSizes("photos/never-existed.png")
}

func TestDeleteAllFiles(t *testing.T) {
	store := newTestStore(t)
	p := New(store, NewSizeCatalog(nil))

	original := "photos/orig.png"
	require.NoError(t, store.Put(original, bytes.NewReader(pngBytes(t, 300, 300))))
	_, _, err := p.CreateSizes(original)
	require.NoError(t, err)

	p.DeleteAllFiles(original)

	assert.False(t, store.Exists(original))
	assert.False(t, store.Exists(p.DerivativePath(original, ThumbnailSizeName)))
}
