package repository

import (
	"gorm.io/gorm"

	"github.com/AndreasMilants/gophotos/app/models"
)

// uploadSessionRepository implements the UploadSessionRepository interface
type uploadSessionRepository struct {
	db *gorm.DB
}

// NewUploadSessionRepository creates a new upload ledger repository instance
func NewUploadSessionRepository(db *gorm.DB) UploadSessionRepository {
	return &uploadSessionRepository{db: db}
}

// Create records a photo under an upload token
func (r *uploadSessionRepository) Create(session *models.UploadSession) error {
	return r.db.Create(session).Error
}

// GetByUploadID retrieves the ledger rows for a token with photos preloaded
func (r *uploadSessionRepository) GetByUploadID(uploadID string) ([]models.UploadSession, error) {
	return models.FindSessionsByUploadID(r.db, uploadID)
}

// CountByUploadID returns the number of ledger rows for a token
func (r *uploadSessionRepository) CountByUploadID(uploadID string) (int64, error) {
	return models.CountSessionsByUploadID(r.db, uploadID)
}

// DeleteByUploadID consumes every ledger row for a token
func (r *uploadSessionRepository) DeleteByUploadID(uploadID string) error {
	return models.DeleteSessionsByUploadID(r.db, uploadID)
}
