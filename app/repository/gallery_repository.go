package repository

import (
	"gorm.io/gorm"

	"github.com/AndreasMilants/gophotos/app/models"
)

// galleryRepository implements the GalleryRepository interface
type galleryRepository struct {
	db *gorm.DB
}

// NewGalleryRepository creates a new gallery repository instance
func NewGalleryRepository(db *gorm.DB) GalleryRepository {
	return &galleryRepository{db: db}
}

// Create creates a new gallery in the database
func (r *galleryRepository) Create(gallery *models.Gallery) error {
	return r.db.Create(gallery).Error
}

// GetByID retrieves a gallery by its ID
func (r *galleryRepository) GetByID(id uint) (*models.Gallery, error) {
	var gallery models.Gallery
	if err := r.db.First(&gallery, id).Error; err != nil {
		return nil, err
	}
	return &gallery, nil
}

// GetBySlug retrieves a gallery by its URL slug
func (r *galleryRepository) GetBySlug(slug string) (*models.Gallery, error) {
	return models.FindGalleryBySlug(r.db, slug)
}

// GetByTitle retrieves a gallery by its unique title
func (r *galleryRepository) GetByTitle(title string) (*models.Gallery, error) {
	return models.FindGalleryByTitle(r.db, title)
}

// Update updates an existing gallery in the database
func (r *galleryRepository) Update(gallery *models.Gallery) error {
	return r.db.Save(gallery).Error
}

// Delete removes a gallery row and its photo links; the photos themselves
// stay in place
func (r *galleryRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gallery_id = ?", id).Delete(&models.GalleryPhoto{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Gallery{}, id).Error
	})
}

// List retrieves a paginated list of galleries
func (r *galleryRepository) List(offset, limit int) ([]models.Gallery, error) {
	var galleries []models.Gallery
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&galleries).Error
	return galleries, err
}

// Count returns the total number of galleries
func (r *galleryRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Gallery{}).Count(&count).Error
	return count, err
}

// GetPhotos retrieves all photos linked to a gallery
func (r *galleryRepository) GetPhotos(galleryID uint) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.Joins("JOIN gallery_photos ON gallery_photos.photo_id = photos.id").
		Where("gallery_photos.gallery_id = ?", galleryID).
		Order("photos.created_at ASC").Find(&photos).Error
	return photos, err
}

// CountPhotos returns the number of photos linked to a gallery
func (r *galleryRepository) CountPhotos(galleryID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.GalleryPhoto{}).Where("gallery_id = ?", galleryID).Count(&count).Error
	return count, err
}
