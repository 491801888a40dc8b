package models

import "time"

type GalleryPhoto struct {
	GalleryID uint      `gorm:"primaryKey;autoIncrement:false" json:"gallery_id"`
	PhotoID   uint      `gorm:"primaryKey;autoIncrement:false" json:"photo_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
