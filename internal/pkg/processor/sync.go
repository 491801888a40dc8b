package processor

import (
	"errors"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/AndreasMilants/gophotos/app/models"
	"github.com/AndreasMilants/gophotos/internal/pkg/imageprocessor"
)

// SyncProcessor runs every operation inline on the calling goroutine. The
// caller blocks until completion or failure.
type SyncProcessor struct {
	svc *Service
}

// NewSyncProcessor creates the synchronous processor.
func NewSyncProcessor(svc *Service) *SyncProcessor {
	return &SyncProcessor{svc: svc}
}

// HandleFile dispatches on the file extension: zip archives are expanded,
// everything else is a single photo upload.
func (p *SyncProcessor) HandleFile(name string, data []byte, uploadID uuid.UUID) error {
	if strings.ToLower(path.Ext(name)) == ".zip" {
		_, err := p.svc.ImportArchive(data, uploadID)
		return err
	}
	return p.handlePhoto(name, data, uploadID)
}

func (p *SyncProcessor) handlePhoto(name string, data []byte, uploadID uuid.UUID) error {
	if _, _, err := imageprocessor.DecodeVerify(data); err != nil {
		return &ProcessingError{Message: "The file is not a readable image", Err: err}
	}
	_, err := p.svc.CreatePhoto(name, data, uploadID, true)
	if errors.Is(err, imageprocessor.ErrImageDecode) {
		return &ProcessingError{Message: "The file is not a readable image", Err: err}
	}
	return err
}

// DeletePhoto removes the photo, its original and all derivatives inline.
func (p *SyncProcessor) DeletePhoto(photo *models.Photo) error {
	return p.svc.DeletePhoto(photo)
}

// DeletePhotos removes a batch of photos with per-photo file cleanup.
func (p *SyncProcessor) DeletePhotos(photos []models.Photo) error {
	return p.svc.DeletePhotos(photos)
}

// LinkSession links all session photos to the gallery and consumes the
// ledger. In synchronous mode every photo already exists by the time this is
// called, so no deferred record is needed.
func (p *SyncProcessor) LinkSession(uploadID uuid.UUID, gallery *models.Gallery) error {
	return p.svc.LinkSession(uploadID, gallery)
}
