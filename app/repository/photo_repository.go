package repository

import (
	"gorm.io/gorm"

	"github.com/AndreasMilants/gophotos/app/models"
)

// photoRepository implements the PhotoRepository interface
type photoRepository struct {
	db *gorm.DB
}

// NewPhotoRepository creates a new photo repository instance
func NewPhotoRepository(db *gorm.DB) PhotoRepository {
	return &photoRepository{db: db}
}

// Create creates a new photo in the database
func (r *photoRepository) Create(photo *models.Photo) error {
	return r.db.Create(photo).Error
}

// GetByID retrieves a photo by its ID
func (r *photoRepository) GetByID(id uint) (*models.Photo, error) {
	var photo models.Photo
	if err := r.db.First(&photo, id).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// GetByUUID retrieves a photo by its UUID
func (r *photoRepository) GetByUUID(uuid string) (*models.Photo, error) {
	var photo models.Photo
	if err := r.db.Where("uuid = ?", uuid).First(&photo).Error; err != nil {
		return nil, err
	}
	return &photo, nil
}

// Update updates an existing photo in the database
func (r *photoRepository) Update(photo *models.Photo) error {
	return r.db.Save(photo).Error
}

// Delete removes a photo row together with its gallery links and ledger rows
func (r *photoRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("photo_id = ?", id).Delete(&models.UploadSession{}).Error; err != nil {
			return err
		}
		if err := tx.Where("photo_id = ?", id).Delete(&models.GalleryPhoto{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Photo{}, id).Error
	})
}

// List retrieves a paginated list of photos
func (r *photoRepository) List(offset, limit int) ([]models.Photo, error) {
	var photos []models.Photo
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&photos).Error
	return photos, err
}

// Count returns the total number of photos
func (r *photoRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Photo{}).Count(&count).Error
	return count, err
}
