package jobqueue

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AndreasMilants/gophotos/app/models"
)

// processPhotoJob generates the derivatives for a photo created by the async
// processor and marks it ready. When all photos of the upload are done, a
// deferred gallery link recorded for the token is finalized.
func (q *Queue) processPhotoJob(job *Job) error {
	payload, err := ProcessPhotoJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse process photo payload: %w", err)
	}

	photo, err := models.FindPhotoByUUID(q.svc.DB(), payload.PhotoUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Photo deleted before the worker got to it; nothing to do.
			log.Warnf("[JobQueue] Photo %s gone before processing, skipping", payload.PhotoUUID)
			return nil
		}
		return fmt.Errorf("failed to find photo %s: %w", payload.PhotoUUID, err)
	}

	if err := q.svc.Process(photo); err != nil {
		return err
	}

	uploadID, err := uuid.Parse(payload.UploadID)
	if err != nil {
		return fmt.Errorf("invalid upload id %q: %w", payload.UploadID, err)
	}
	if err := q.svc.FinalizeDeferred(uploadID); err != nil {
		return fmt.Errorf("failed to finalize deferred import %s: %w", payload.UploadID, err)
	}

	log.Infof("[JobQueue] Photo processing completed for %s", payload.PhotoUUID)
	return nil
}
