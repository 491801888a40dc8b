package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// DeferredImport records the gallery target for an upload token whose photos
// may still be under construction by queue workers. Workers consult it after
// finishing their part of a session so a late-expanding archive still gets
// its photos linked. Only used in asynchronous mode.
type DeferredImport struct {
	UploadID  string    `gorm:"type:char(36);primaryKey" json:"upload_id"`
	GalleryID *uint     `gorm:"index" json:"gallery_id"`
	Gallery   *Gallery  `gorm:"foreignKey:GalleryID" json:"gallery,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindDeferredImport returns the deferred gallery target for a token, or nil
// when none was recorded
func FindDeferredImport(db *gorm.DB, uploadID string) (*DeferredImport, error) {
	var deferred DeferredImport
	err := db.Where("upload_id = ?", uploadID).First(&deferred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &deferred, nil
}

// UpsertDeferredImport records or updates the gallery target for a token
func UpsertDeferredImport(db *gorm.DB, uploadID string, galleryID *uint) error {
	existing, err := FindDeferredImport(db, uploadID)
	if err != nil {
		return err
	}
	if existing == nil {
		return db.Create(&DeferredImport{UploadID: uploadID, GalleryID: galleryID}).Error
	}
	return db.Model(&DeferredImport{UploadID: uploadID}).Update("gallery_id", galleryID).Error
}

// DeleteStaleDeferredImports removes deferred targets older than the cutoff
// that no longer have unconsumed ledger rows
func DeleteStaleDeferredImports(db *gorm.DB, olderThan time.Time) (int64, error) {
	result := db.Where("updated_at < ?", olderThan).
		Where("upload_id NOT IN (?)", db.Model(&UploadSession{}).Select("upload_id")).
		Delete(&DeferredImport{})
	return result.RowsAffected, result.Error
}
