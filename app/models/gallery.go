package models

import (
	"math/rand"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type Gallery struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        string    `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	Title       string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"title" validate:"required,min=3,max=255"`
	Slug        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Photos      []Photo   `gorm:"many2many:gallery_photos;" json:"photos,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *Gallery) Validate() error {
	v := validator.New()
	return v.Struct(g)
}

// BeforeCreate is called before inserting a new record
func (g *Gallery) BeforeCreate(tx *gorm.DB) error {
	if g.UUID == "" {
		g.UUID = uuid.New().String()
	}
	return nil
}

// BeforeSave derives the slug from the title so it follows title changes
func (g *Gallery) BeforeSave(tx *gorm.DB) error {
	g.Slug = slug.Make(g.Title)
	return nil
}

// AddPhoto links a photo to the gallery. Adding an already linked photo is a no-op.
func (g *Gallery) AddPhoto(db *gorm.DB, photoID uint) error {
	var count int64
	err := db.Table("gallery_photos").
		Where("gallery_id = ? AND photo_id = ?", g.ID, photoID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return db.Exec("INSERT INTO gallery_photos (gallery_id, photo_id, created_at) VALUES (?, ?, ?)",
			g.ID, photoID, time.Now()).Error
	}
	return nil
}

// RemovePhoto unlinks a photo from the gallery
func (g *Gallery) RemovePhoto(db *gorm.DB, photoID uint) error {
	return db.Exec("DELETE FROM gallery_photos WHERE gallery_id = ? AND photo_id = ?", g.ID, photoID).Error
}

// RandomPhoto returns a random member photo, or nil for an empty gallery
func (g *Gallery) RandomPhoto(db *gorm.DB) (*Photo, error) {
	var count int64
	err := db.Table("gallery_photos").Where("gallery_id = ?", g.ID).Count(&count).Error
	if err != nil || count == 0 {
		return nil, err
	}
	var photo Photo
	err = db.Joins("JOIN gallery_photos ON photos.id = gallery_photos.photo_id").
		Where("gallery_photos.gallery_id = ?", g.ID).
		Offset(rand.Intn(int(count))).
		First(&photo).Error
	if err != nil {
		return nil, err
	}
	return &photo, nil
}

// FindGalleryBySlug finds a gallery by its slug
func FindGalleryBySlug(db *gorm.DB, slug string) (*Gallery, error) {
	var gallery Gallery
	result := db.Where("slug = ?", slug).First(&gallery)
	return &gallery, result.Error
}

// FindGalleryByTitle finds a gallery by its title
func FindGalleryByTitle(db *gorm.DB, title string) (*Gallery, error) {
	var gallery Gallery
	result := db.Where("title = ?", title).First(&gallery)
	return &gallery, result.Error
}
