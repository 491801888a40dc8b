package repository

import (
	"gorm.io/gorm"

	"github.com/AndreasMilants/gophotos/app/models"
)

// PhotoRepository defines the interface for photo-related database operations
type PhotoRepository interface {
	Create(photo *models.Photo) error
	GetByID(id uint) (*models.Photo, error)
	GetByUUID(uuid string) (*models.Photo, error)
	Update(photo *models.Photo) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Photo, error)
	Count() (int64, error)
}

// GalleryRepository defines the interface for gallery-related database operations
type GalleryRepository interface {
	Create(gallery *models.Gallery) error
	GetByID(id uint) (*models.Gallery, error)
	GetBySlug(slug string) (*models.Gallery, error)
	GetByTitle(title string) (*models.Gallery, error)
	Update(gallery *models.Gallery) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Gallery, error)
	Count() (int64, error)
	GetPhotos(galleryID uint) ([]models.Photo, error)
	CountPhotos(galleryID uint) (int64, error)
}

// UploadSessionRepository defines the interface for upload ledger operations
type UploadSessionRepository interface {
	Create(session *models.UploadSession) error
	GetByUploadID(uploadID string) ([]models.UploadSession, error)
	CountByUploadID(uploadID string) (int64, error)
	DeleteByUploadID(uploadID string) error
}

// Repositories struct holds all repository instances
type Repositories struct {
	Photo         PhotoRepository
	Gallery       GalleryRepository
	UploadSession UploadSessionRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Photo:         NewPhotoRepository(db),
		Gallery:       NewGalleryRepository(db),
		UploadSession: NewUploadSessionRepository(db),
	}
}
