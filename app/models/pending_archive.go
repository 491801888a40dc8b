package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PendingArchive is a transient copy of an uploaded zip archive waiting for a
// queue worker. The row and the stored file are removed once expansion completes.
type PendingArchive struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UUID       string    `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	StoredPath string    `gorm:"type:varchar(255);not null" json:"stored_path"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// BeforeCreate is called before inserting a new record
func (a *PendingArchive) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == "" {
		a.UUID = uuid.New().String()
	}
	return nil
}

// FindPendingArchiveByID finds a pending archive by its primary key
func FindPendingArchiveByID(db *gorm.DB, id uint) (*PendingArchive, error) {
	var archive PendingArchive
	result := db.First(&archive, id)
	return &archive, result.Error
}
