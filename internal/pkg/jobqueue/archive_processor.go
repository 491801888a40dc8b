package jobqueue

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
)

// processParseArchiveJob expands a previously stored zip archive into
// individual photos under the upload token. Each extracted photo is fully
// processed inside the same job; the archive file and its pending row are
// removed afterwards.
func (q *Queue) processParseArchiveJob(job *Job) error {
	payload, err := ParseArchiveJobPayloadFromMap(job.Payload)
	if err != nil {
		return fmt.Errorf("failed to parse archive payload: %w", err)
	}

	uploadID, err := uuid.Parse(payload.UploadID)
	if err != nil {
		return fmt.Errorf("invalid upload id %q: %w", payload.UploadID, err)
	}

	count, err := q.svc.ExpandPendingArchive(payload.ArchiveID, uploadID)
	if err != nil {
		return fmt.Errorf("failed to expand archive %d: %w", payload.ArchiveID, err)
	}

	log.Infof("[JobQueue] Archive %d expanded into %d photos", payload.ArchiveID, count)
	return nil
}
