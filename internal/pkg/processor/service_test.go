package processor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/AndreasMilants/gophotos/app/models"
	"github.com/AndreasMilants/gophotos/internal/pkg/imageprocessor"
	"github.com/AndreasMilants/gophotos/internal/pkg/storage"
)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Photo{},
		&models.Gallery{},
		&models.GalleryPhoto{},
		&models.UploadSession{},
		&models.DeferredImport{},
		&models.PendingArchive{},
	))
	return db
}

func newTestService(t *testing.T) (*Service, *storage.LocalStore) {
	t.Helper()

	db := newServiceDB(t)
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	images := imageprocessor.New(store, imageprocessor.NewSizeCatalog(nil))
	return NewService(db, store, images, "photos"), store
}

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func testZip(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func createGallery(t *testing.T, db *gorm.DB, title string) *models.Gallery {
	t.Helper()
	gallery := &models.Gallery{Title: title}
	require.NoError(t, db.Create(gallery).Error)
	return gallery
}

func TestCreatePhoto_Processed(t *testing.T) {
	svc, store := newTestService(t)
	uploadID := uuid.New()

	photo, err := svc.CreatePhoto("holiday.png", testPNG(t, 300, 200), uploadID, true)
	require.NoError(t, err)

	assert.True(t, photo.IsReady())
	assert.Equal(t, 300, photo.Width)
	assert.Equal(t, 200, photo.Height)
	assert.Equal(t, "holiday.png", photo.FileName)
	assert.Equal(t, "photos/"+photo.UUID+".png", photo.FilePath)

	// original and thumbnail are in the store
	assert.True(t, store.Exists(photo.FilePath))
	assert.True(t, store.Exists(svc.Images().DerivativePath(photo.FilePath, imageprocessor.ThumbnailSizeName)))

	// ledger row recorded under the token
	count, err := models.CountSessionsByUploadID(svc.DB(), uploadID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestCreatePhoto_Unprocessed(t *testing.T) {
	svc, store := newTestService(t)

	photo, err := svc.CreatePhoto("raw.png", testPNG(t, 100, 100), uuid.New(), false)
	require.NoError(t, err)

	assert.False(t, photo.IsReady())
	assert.Zero(t, photo.Width)
	assert.True(t, store.Exists(photo.FilePath))
	assert.False(t, store.Exists(svc.Images().DerivativePath(photo.FilePath, imageprocessor.ThumbnailSizeName)))
}

func newTestServiceAt(t *testing.T, dir string) *Service {
	t.Helper()
	store, err := storage.NewLocalStore(dir)
	require.NoError(t, err)
	images := imageprocessor.New(store, imageprocessor.NewSizeCatalog(nil))
	return NewService(newServiceDB(t), store, images, "photos")
}

func storedOriginals(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(dir, "photos"))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}

func TestCreatePhoto_DiscardsOriginalOnRecordFailure(t *testing.T) {
	dir := t.TempDir()
	svc := newTestServiceAt(t, dir)

	require.NoError(t, svc.DB().Migrator().DropTable(&models.Photo{}))

	_, err := svc.CreatePhoto("a.png", testPNG(t, 10, 10), uuid.New(), false)
	require.Error(t, err)
	assert.Empty(t, storedOriginals(t, dir))
}

func TestCreatePhoto_DiscardsOriginalOnLedgerFailure(t *testing.T) {
	dir := t.TempDir()
	svc := newTestServiceAt(t, dir)

	require.NoError(t, svc.DB().Migrator().DropTable(&models.UploadSession{}))

	_, err := svc.CreatePhoto("a.png", testPNG(t, 10, 10), uuid.New(), false)
	require.Error(t, err)
	assert.Empty(t, storedOriginals(t, dir))

	var count int64
	require.NoError(t, svc.DB().Model(&models.Photo{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestProcess_MarksReady(t *testing.T) {
	svc, _ := newTestService(t)

	photo, err := svc.CreatePhoto("later.png", testPNG(t, 120, 90), uuid.New(), false)
	require.NoError(t, err)
	require.False(t, photo.IsReady())

	require.NoError(t, svc.Process(photo))

	stored, err := models.FindPhotoByUUID(svc.DB(), photo.UUID)
	require.NoError(t, err)
	assert.True(t, stored.IsReady())
	assert.Equal(t, 120, stored.Width)
	assert.Equal(t, 90, stored.Height)
}

func TestDeletePhoto_RemovesEverything(t *testing.T) {
	svc, store := newTestService(t)
	uploadID := uuid.New()

	photo, err := svc.CreatePhoto("gone.png", testPNG(t, 200, 200), uploadID, true)
	require.NoError(t, err)

	gallery := createGallery(t, svc.DB(), "Holiday")
	require.NoError(t, gallery.AddPhoto(svc.DB(), photo.ID))

	require.NoError(t, svc.DeletePhoto(photo))

	assert.False(t, store.Exists(photo.FilePath))
	assert.False(t, store.Exists(svc.Images().DerivativePath(photo.FilePath, imageprocessor.ThumbnailSizeName)))

	_, err = models.FindPhotoByUUID(svc.DB(), photo.UUID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	count, err := models.CountSessionsByUploadID(svc.DB(), uploadID.String())
	require.NoError(t, err)
	assert.Zero(t, count)

	photos, err := svc.GalleryPhotos(gallery)
	require.NoError(t, err)
	assert.Empty(t, photos)
}

func TestDeletePhotos_Bulk(t *testing.T) {
	svc, store := newTestService(t)
	uploadID := uuid.New()

	a, err := svc.CreatePhoto("a.png", testPNG(t, 50, 50), uploadID, true)
	require.NoError(t, err)
	b, err := svc.CreatePhoto("b.png", testPNG(t, 60, 60), uploadID, true)
	require.NoError(t, err)

	require.NoError(t, svc.DeletePhotos([]models.Photo{*a, *b}))

	assert.False(t, store.Exists(a.FilePath))
	assert.False(t, store.Exists(b.FilePath))
	var count int64
	require.NoError(t, svc.DB().Model(&models.Photo{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReplace_ReprocessesUnderSameIdentity(t *testing.T) {
	svc, store := newTestService(t)

	photo, err := svc.CreatePhoto("old.png", testPNG(t, 100, 80), uuid.New(), true)
	require.NoError(t, err)
	oldPath := photo.FilePath
	oldThumb := svc.Images().DerivativePath(oldPath, imageprocessor.ThumbnailSizeName)

	require.NoError(t, svc.Replace(photo, "new.jpg", testJPEG(t, 640, 480)))

	assert.Equal(t, "new.jpg", photo.FileName)
	assert.Equal(t, "photos/"+photo.UUID+".jpg", photo.FilePath)
	assert.True(t, photo.IsReady())
	assert.Equal(t, 640, photo.Width)
	assert.Equal(t, 480, photo.Height)

	// old original and derivatives are gone, new ones exist
	assert.False(t, store.Exists(oldPath))
	assert.False(t, store.Exists(oldThumb))
	assert.True(t, store.Exists(photo.FilePath))
	assert.True(t, store.Exists(svc.Images().DerivativePath(photo.FilePath, imageprocessor.ThumbnailSizeName)))
}

func TestLinkSession(t *testing.T) {
	svc, _ := newTestService(t)
	uploadID := uuid.New()

	_, err := svc.CreatePhoto("a.png", testPNG(t, 40, 40), uploadID, true)
	require.NoError(t, err)
	_, err = svc.CreatePhoto("b.png", testPNG(t, 40, 40), uploadID, true)
	require.NoError(t, err)

	// nil gallery leaves the ledger untouched
	require.NoError(t, svc.LinkSession(uploadID, nil))
	count, err := models.CountSessionsByUploadID(svc.DB(), uploadID.String())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	gallery := createGallery(t, svc.DB(), "Trip")
	require.NoError(t, svc.LinkSession(uploadID, gallery))

	photos, err := svc.GalleryPhotos(gallery)
	require.NoError(t, err)
	assert.Len(t, photos, 2)

	count, err = models.CountSessionsByUploadID(svc.DB(), uploadID.String())
	require.NoError(t, err)
	assert.Zero(t, count)

	// linking a consumed token again is a no-op
	require.NoError(t, svc.LinkSession(uploadID, gallery))
	photos, err = svc.GalleryPhotos(gallery)
	require.NoError(t, err)
	assert.Len(t, photos, 2)
}

func TestLinkSession_AlreadyLinkedPhotoIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	uploadID := uuid.New()

	photo, err := svc.CreatePhoto("a.png", testPNG(t, 40, 40), uploadID, true)
	require.NoError(t, err)

	gallery := createGallery(t, svc.DB(), "Album")
	require.NoError(t, gallery.AddPhoto(svc.DB(), photo.ID))

	require.NoError(t, svc.LinkSession(uploadID, gallery))

	photos, err := svc.GalleryPhotos(gallery)
	require.NoError(t, err)
	assert.Len(t, photos, 1)
}

func TestFinalizeDeferred(t *testing.T) {
	svc, _ := newTestService(t)
	uploadID := uuid.New()

	gallery := createGallery(t, svc.DB(), "Deferred")
	require.NoError(t, models.UpsertDeferredImport(svc.DB(), uploadID.String(), &gallery.ID))

	_, err := svc.CreatePhoto("late.png", testPNG(t, 30, 30), uploadID, true)
	require.NoError(t, err)

	require.NoError(t, svc.FinalizeDeferred(uploadID))

	photos, err := svc.GalleryPhotos(gallery)
	require.NoError(t, err)
	assert.Len(t, photos, 1)

	count, err := models.CountSessionsByUploadID(svc.DB(), uploadID.String())
	require.NoError(t, err)
	assert.Zero(t, count)

	// the deferred row stays until the sweeper collects it
	deferred, err := models.FindDeferredImport(svc.DB(), uploadID.String())
	require.NoError(t, err)
	assert.NotNil(t, deferred)

	removed, err := svc.CleanupDeferred(0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}

func TestFinalizeDeferred_NoTarget(t *testing.T) {
	svc, _ := newTestService(t)
	uploadID := uuid.New()

	// no deferred record at all
	require.NoError(t, svc.FinalizeDeferred(uploadID))

	// deferred record without a gallery target
	require.NoError(t, models.UpsertDeferredImport(svc.DB(), uploadID.String(), nil))
	require.NoError(t, svc.FinalizeDeferred(uploadID))
}

func TestFinalizeDeferred_GalleryGone(t *testing.T) {
	svc, _ := newTestService(t)
	uploadID := uuid.New()

	gallery := createGallery(t, svc.DB(), "Doomed")
	require.NoError(t, models.UpsertDeferredImport(svc.DB(), uploadID.String(), &gallery.ID))
	require.NoError(t, svc.DB().Delete(gallery).Error)

	require.NoError(t, svc.FinalizeDeferred(uploadID))

	deferred, err := models.FindDeferredImport(svc.DB(), uploadID.String())
	require.NoError(t, err)
	assert.Nil(t, deferred)
}

func TestCleanupDeferred_KeepsActiveSessions(t *testing.T) {
	svc, _ := newTestService(t)
	uploadID := uuid.New()

	_, err := svc.CreatePhoto("waiting.png", testPNG(t, 20, 20), uploadID, false)
	require.NoError(t, err)
	require.NoError(t, models.UpsertDeferredImport(svc.DB(), uploadID.String(), nil))

	// ledger rows still exist, so even an aggressive cutoff keeps the row
	removed, err := svc.CleanupDeferred(0)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestImportArchive(t *testing.T) {
	svc, _ := newTestService(t)
	uploadID := uuid.New()

	data := testZip(t, map[string][]byte{
		"one.png":        testPNG(t, 80, 80),
		"two.png":        testPNG(t, 90, 90),
		"notes.txt":      []byte("not an image"),
		"nested/sub.png": testPNG(t, 70, 70),
	})

	count, err := svc.ImportArchive(data, uploadID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	sessions, err := models.FindSessionsByUploadID(svc.DB(), uploadID.String())
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for _, session := range sessions {
		assert.True(t, session.Photo.IsReady())
	}
}

func TestExpandPendingArchive(t *testing.T) {
	svc, store := newTestService(t)
	uploadID := uuid.New()

	gallery := createGallery(t, svc.DB(), "Archive Import")
	require.NoError(t, models.UpsertDeferredImport(svc.DB(), uploadID.String(), &gallery.ID))

	data := testZip(t, map[string][]byte{
		"one.png": testPNG(t, 64, 64),
		"two.png": testPNG(t, 64, 64),
	})
	pending, err := svc.StorePendingArchive(data)
	require.NoError(t, err)
	require.True(t, store.Exists(pending.StoredPath))

	count, err := svc.ExpandPendingArchive(pending.ID, uploadID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// the transient archive copy and its record are gone
	assert.False(t, store.Exists(pending.StoredPath))
	_, err = models.FindPendingArchiveByID(svc.DB(), pending.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// the deferred link was finalized
	photos, err := svc.GalleryPhotos(gallery)
	require.NoError(t, err)
	assert.Len(t, photos, 2)
}

func TestDeleteGallery_KeepsPhotosByDefault(t *testing.T) {
	svc, store := newTestService(t)
	uploadID := uuid.New()

	photo, err := svc.CreatePhoto("keep.png", testPNG(t, 32, 32), uploadID, true)
	require.NoError(t, err)
	gallery := createGallery(t, svc.DB(), "Ephemeral")
	require.NoError(t, svc.LinkSession(uploadID, gallery))

	require.NoError(t, svc.DeleteGallery(gallery, false))

	var galleryCount int64
	require.NoError(t, svc.DB().Model(&models.Gallery{}).Count(&galleryCount).Error)
	assert.Zero(t, galleryCount)

	stored, err := models.FindPhotoByUUID(svc.DB(), photo.UUID)
	require.NoError(t, err)
	assert.True(t, store.Exists(stored.FilePath))
}

func TestDeleteGallery_WithPhotos(t *testing.T) {
	svc, store := newTestService(t)
	uploadID := uuid.New()

	photo, err := svc.CreatePhoto("gone.png", testPNG(t, 32, 32), uploadID, true)
	require.NoError(t, err)
	gallery := createGallery(t, svc.DB(), "Scorched")
	require.NoError(t, svc.LinkSession(uploadID, gallery))

	require.NoError(t, svc.DeleteGallery(gallery, true))

	_, err = models.FindPhotoByUUID(svc.DB(), photo.UUID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.False(t, store.Exists(photo.FilePath))
}
