package processor

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/AndreasMilants/gophotos/app/models"
)

// ProcessingError is a user-facing failure with a short message suitable for
// returning through the HTTP boundary.
type ProcessingError struct {
	Message string
	Err     error
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// PhotoProcessor is the capability interface for the two deployment modes.
// One implementation is selected at startup from configuration: SyncProcessor
// runs everything inline, AsyncProcessor defers work to the job queue. Both
// share the same entity contracts, so callers never branch on the mode.
type PhotoProcessor interface {
	// HandleFile processes an uploaded file under an upload token: zip
	// archives are expanded into individual photos, anything else is
	// treated as a single photo.
	HandleFile(name string, data []byte, uploadID uuid.UUID) error

	// DeletePhoto removes a photo, its original file and all derivatives.
	DeletePhoto(photo *models.Photo) error

	// DeletePhotos bulk-deletes photos; file cleanup still runs per photo.
	DeletePhotos(photos []models.Photo) error

	// LinkSession attaches every photo recorded under the token to the
	// gallery and consumes the ledger rows. A nil gallery leaves the
	// ledger untouched for a later call.
	LinkSession(uploadID uuid.UUID, gallery *models.Gallery) error
}

// Enqueuer is the slice of the job queue the asynchronous processor needs.
// The queue implements it; keeping the interface here avoids an import cycle
// between the processor and the queue's job handlers.
type Enqueuer interface {
	EnqueueProcessPhoto(photo *models.Photo, uploadID uuid.UUID) error
	EnqueueParseArchive(archiveID uint, uploadID uuid.UUID) error
	EnqueueDeletePhotoFiles(storedPath string) error
}
