package imageprocessor

import (
	"fmt"
	"time"

	"github.com/AndreasMilants/gophotos/internal/pkg/cache"
)

// Cache key format for photo processing status
const (
	PhotoStatusKeyFormat = "photo:status:%s" // photo:status:<uuid>
	photoStatusTTL       = 24 * time.Hour
)

// Transient processing states, kept in the cache so the upload endpoint can
// report progress without hitting the database.
const (
	STATUS_PENDING    = "pending"
	STATUS_PROCESSING = "processing"
	STATUS_COMPLETED  = "completed"
	STATUS_FAILED     = "failed"
)

// SetPhotoStatus sets the processing status of a photo in the cache
func SetPhotoStatus(photoUUID string, status string) error {
	return cache.Set(fmt.Sprintf(PhotoStatusKeyFormat, photoUUID), status, photoStatusTTL)
}

// GetPhotoStatus retrieves the processing status of a photo from the cache
func GetPhotoStatus(photoUUID string) (string, error) {
	return cache.Get(fmt.Sprintf(PhotoStatusKeyFormat, photoUUID))
}

// ClearPhotoStatus removes the cached status, e.g. after a photo is deleted
func ClearPhotoStatus(photoUUID string) error {
	return cache.Delete(fmt.Sprintf(PhotoStatusKeyFormat, photoUUID))
}
