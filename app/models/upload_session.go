package models

import (
	"time"

	"gorm.io/gorm"
)

// UploadSession is a ledger row recording that a photo was produced under an
// upload token but has not yet been attached to a gallery. Several rows may
// share an upload ID, one per photo. Rows are consumed by the gallery linker.
//
// There is no expiry for sessions that are never linked or discarded; callers
// are expected to eventually link every session or delete its photos.
type UploadSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UploadID  string    `gorm:"type:char(36);index;not null" json:"upload_id"`
	PhotoID   uint      `gorm:"index;not null" json:"photo_id"`
	Photo     Photo     `gorm:"foreignKey:PhotoID" json:"photo,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// FindSessionsByUploadID returns all ledger rows for an upload token with
// their photos preloaded
func FindSessionsByUploadID(db *gorm.DB, uploadID string) ([]UploadSession, error) {
	var sessions []UploadSession
	result := db.Preload("Photo").Where("upload_id = ?", uploadID).Find(&sessions)
	return sessions, result.Error
}

// CountSessionsByUploadID returns the number of unconsumed ledger rows for a token
func CountSessionsByUploadID(db *gorm.DB, uploadID string) (int64, error) {
	var count int64
	err := db.Model(&UploadSession{}).Where("upload_id = ?", uploadID).Count(&count).Error
	return count, err
}

// DeleteSessionsByUploadID removes all ledger rows for an upload token
func DeleteSessionsByUploadID(db *gorm.DB, uploadID string) error {
	return db.Where("upload_id = ?", uploadID).Delete(&UploadSession{}).Error
}

// DeleteSessionsByPhotoID removes the ledger rows referencing a photo
func DeleteSessionsByPhotoID(db *gorm.DB, photoID uint) error {
	return db.Where("photo_id = ?", photoID).Delete(&UploadSession{}).Error
}
