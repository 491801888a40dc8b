package jobqueue

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"
)

// processDeletePhotoFilesJob removes a photo's original file and every
// derivative from storage. The database rows were already deleted when the
// job was enqueued, so this is pure file cleanup and safe to retry.
func (q *Queue) processDeletePhotoFilesJob(job *Job) error {
	payload, err := DeletePhotoFilesJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse delete payload: %w", err)
	}
	if payload.StoredPath == "" {
		return fmt.Errorf("delete job %s has an empty stored path", job.ID)
	}

	q.svc.DeleteFiles(payload.StoredPath)
	log.Infof("[JobQueue] Removed files for %s", payload.StoredPath)
	return nil
}
