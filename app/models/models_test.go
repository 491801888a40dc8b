package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&Photo{},
		&Gallery{},
		&GalleryPhoto{},
		&UploadSession{},
		&DeferredImport{},
		&PendingArchive{},
	))
	return db
}

func TestPhoto_BeforeCreateAssignsUUID(t *testing.T) {
	db := newTestDB(t)

	photo := &Photo{FileName: "a.png", FilePath: "photos/a.png"}
	require.NoError(t, db.Create(photo).Error)

	_, err := uuid.Parse(photo.UUID)
	assert.NoError(t, err)

	stored, err := FindPhotoByUUID(db, photo.UUID)
	require.NoError(t, err)
	assert.Equal(t, PhotoStatusPending, stored.Status)
	assert.False(t, stored.IsReady())
}

func TestPhoto_MarkReady(t *testing.T) {
	db := newTestDB(t)

	photo := &Photo{FileName: "a.png", FilePath: "photos/a.png"}
	require.NoError(t, db.Create(photo).Error)
	require.False(t, photo.IsReady())

	require.NoError(t, photo.MarkReady(db, 800, 600))

	stored, err := FindPhotoByUUID(db, photo.UUID)
	require.NoError(t, err)
	assert.True(t, stored.IsReady())
	assert.Equal(t, 800, stored.Width)
	assert.Equal(t, 600, stored.Height)
}

func TestGallery_SlugFollowsTitle(t *testing.T) {
	db := newTestDB(t)

	gallery := &Gallery{Title: "Summer Holiday 2025"}
	require.NoError(t, db.Create(gallery).Error)
	assert.Equal(t, "summer-holiday-2025", gallery.Slug)

	gallery.Title = "Winter Holiday 2025"
	require.NoError(t, db.Save(gallery).Error)
	assert.Equal(t, "winter-holiday-2025", gallery.Slug)

	found, err := FindGalleryBySlug(db, "winter-holiday-2025")
	require.NoError(t, err)
	assert.Equal(t, gallery.ID, found.ID)
}

func TestGallery_Validate(t *testing.T) {
	assert.Error(t, (&Gallery{Title: ""}).Validate())
	assert.Error(t, (&Gallery{Title: "ab"}).Validate())
	assert.NoError(t, (&Gallery{Title: "abc"}).Validate())
}

func TestGallery_AddPhotoIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	gallery := &Gallery{Title: "Ducks"}
	require.NoError(t, db.Create(gallery).Error)
	photo := &Photo{FileName: "duck.png", FilePath: "photos/duck.png"}
	require.NoError(t, db.Create(photo).Error)

	require.NoError(t, gallery.AddPhoto(db, photo.ID))
	require.NoError(t, gallery.AddPhoto(db, photo.ID))

	var count int64
	require.NoError(t, db.Model(&GalleryPhoto{}).Where("gallery_id = ?", gallery.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	require.NoError(t, gallery.RemovePhoto(db, photo.ID))
	require.NoError(t, db.Model(&GalleryPhoto{}).Where("gallery_id = ?", gallery.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGallery_RandomPhoto(t *testing.T) {
	db := newTestDB(t)

	gallery := &Gallery{Title: "Random"}
	require.NoError(t, db.Create(gallery).Error)

	// empty gallery yields no photo and no error
	photo, err := gallery.RandomPhoto(db)
	require.NoError(t, err)
	assert.Nil(t, photo)

	member := &Photo{FileName: "one.png", FilePath: "photos/one.png"}
	require.NoError(t, db.Create(member).Error)
	require.NoError(t, gallery.AddPhoto(db, member.ID))

	photo, err = gallery.RandomPhoto(db)
	require.NoError(t, err)
	require.NotNil(t, photo)
	assert.Equal(t, member.ID, photo.ID)
}

func TestUploadSessionLedger(t *testing.T) {
	db := newTestDB(t)
	uploadID := uuid.New().String()

	for i := 0; i < 3; i++ {
		photo := &Photo{FileName: fmt.Sprintf("p%d.png", i), FilePath: fmt.Sprintf("photos/p%d.png", i)}
		require.NoError(t, db.Create(photo).Error)
		require.NoError(t, db.Create(&UploadSession{UploadID: uploadID, PhotoID: photo.ID}).Error)
	}

	count, err := CountSessionsByUploadID(db, uploadID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	sessions, err := FindSessionsByUploadID(db, uploadID)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.NotZero(t, sessions[0].Photo.ID)

	require.NoError(t, DeleteSessionsByUploadID(db, uploadID))
	count, err = CountSessionsByUploadID(db, uploadID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeferredImport_Upsert(t *testing.T) {
	db := newTestDB(t)
	uploadID := uuid.New().String()

	found, err := FindDeferredImport(db, uploadID)
	require.NoError(t, err)
	assert.Nil(t, found)

	require.NoError(t, UpsertDeferredImport(db, uploadID, nil))
	found, err = FindDeferredImport(db, uploadID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Nil(t, found.GalleryID)

	gallery := &Gallery{Title: "Target"}
	require.NoError(t, db.Create(gallery).Error)
	require.NoError(t, UpsertDeferredImport(db, uploadID, &gallery.ID))

	found, err = FindDeferredImport(db, uploadID)
	require.NoError(t, err)
	require.NotNil(t, found.GalleryID)
	assert.Equal(t, gallery.ID, *found.GalleryID)
}

func TestDeleteStaleDeferredImports(t *testing.T) {
	db := newTestDB(t)

	staleID := uuid.New().String()
	activeID := uuid.New().String()

	require.NoError(t, UpsertDeferredImport(db, staleID, nil))
	require.NoError(t, UpsertDeferredImport(db, activeID, nil))

	// the active token still has an unconsumed ledger row
	photo := &Photo{FileName: "p.png", FilePath: "photos/p.png"}
	require.NoError(t, db.Create(photo).Error)
	require.NoError(t, db.Create(&UploadSession{UploadID: activeID, PhotoID: photo.ID}).Error)

	removed, err := DeleteStaleDeferredImports(db, time.Now().Add(time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	found, err := FindDeferredImport(db, staleID)
	require.NoError(t, err)
	assert.Nil(t, found)

	found, err = FindDeferredImport(db, activeID)
	require.NoError(t, err)
	assert.NotNil(t, found)
}
