package processor

import (
	"fmt"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/AndreasMilants/gophotos/app/models"
	"github.com/AndreasMilants/gophotos/internal/pkg/imageprocessor"
)

// AsyncProcessor defers derivative generation, archive expansion and file
// deletion to the job queue. Database rows are still written inline so the
// queue workers can coordinate through them.
type AsyncProcessor struct {
	svc   *Service
	queue Enqueuer
}

// NewAsyncProcessor creates the queue-backed processor.
func NewAsyncProcessor(svc *Service, queue Enqueuer) *AsyncProcessor {
	return &AsyncProcessor{svc: svc, queue: queue}
}

// HandleFile dispatches on the file extension, deferring the heavy work.
func (p *AsyncProcessor) HandleFile(name string, data []byte, uploadID uuid.UUID) error {
	if strings.ToLower(path.Ext(name)) == ".zip" {
		return p.handleZip(data, uploadID)
	}
	return p.handlePhoto(name, data, uploadID)
}

func (p *AsyncProcessor) handleZip(data []byte, uploadID uuid.UUID) error {
	pending, err := p.svc.StorePendingArchive(data)
	if err != nil {
		return err
	}
	if err := p.queue.EnqueueParseArchive(pending.ID, uploadID); err != nil {
		return fmt.Errorf("error enqueuing archive expansion: %w", err)
	}
	return nil
}

func (p *AsyncProcessor) handlePhoto(name string, data []byte, uploadID uuid.UUID) error {
	if _, _, err := imageprocessor.DecodeVerify(data); err != nil {
		return &ProcessingError{Message: "The file is not a readable image", Err: err}
	}
	photo, err := p.svc.CreatePhoto(name, data, uploadID, false)
	if err != nil {
		return err
	}
	if err := imageprocessor.SetPhotoStatus(photo.UUID, imageprocessor.STATUS_PENDING); err != nil {
		log.Debugf("[Photos] Couldn't cache pending status for %s: %v", photo.UUID, err)
	}
	if err := p.queue.EnqueueProcessPhoto(photo, uploadID); err != nil {
		return fmt.Errorf("error enqueuing photo processing: %w", err)
	}
	return nil
}

// DeletePhoto removes the database records inline and defers the file
// cleanup to the queue.
func (p *AsyncProcessor) DeletePhoto(photo *models.Photo) error {
	storedPath := photo.FilePath
	if err := p.svc.DeletePhotoRecord(photo); err != nil {
		return err
	}
	if err := p.queue.EnqueueDeletePhotoFiles(storedPath); err != nil {
		return fmt.Errorf("error enqueuing file cleanup: %w", err)
	}
	return nil
}

// DeletePhotos bulk-deletes the records and enqueues one file-cleanup job per
// photo.
func (p *AsyncProcessor) DeletePhotos(photos []models.Photo) error {
	paths := make([]string, len(photos))
	for i := range photos {
		paths[i] = photos[i].FilePath
	}
	if err := p.svc.DeletePhotoRecords(photos); err != nil {
		return err
	}
	for _, storedPath := range paths {
		if err := p.queue.EnqueueDeletePhotoFiles(storedPath); err != nil {
			return fmt.Errorf("error enqueuing file cleanup: %w", err)
		}
	}
	return nil
}

// LinkSession records the gallery target durably before linking, so a worker
// finishing after this call still finds the target and links its photos.
func (p *AsyncProcessor) LinkSession(uploadID uuid.UUID, gallery *models.Gallery) error {
	var galleryID *uint
	if gallery != nil {
		galleryID = &gallery.ID
	}
	if err := models.UpsertDeferredImport(p.svc.DB(), uploadID.String(), galleryID); err != nil {
		return fmt.Errorf("error recording deferred import: %w", err)
	}
	return p.svc.LinkSession(uploadID, gallery)
}
