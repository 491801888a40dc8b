package processor

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AndreasMilants/gophotos/app/models"
	"github.com/AndreasMilants/gophotos/internal/pkg/archive"
	"github.com/AndreasMilants/gophotos/internal/pkg/imageprocessor"
	"github.com/AndreasMilants/gophotos/internal/pkg/storage"
)

// Service implements the photo entity lifecycle, the archive import and the
// gallery linker on top of the object store and the database. Both processor
// modes and the queue workers drive it.
type Service struct {
	db         *gorm.DB
	store      storage.ObjectStore
	images     *imageprocessor.Processor
	importer   *archive.Importer
	uploadRoot string
}

// NewService wires the lifecycle service. uploadRoot is the store prefix for
// originals and derivatives.
func NewService(db *gorm.DB, store storage.ObjectStore, images *imageprocessor.Processor, uploadRoot string) *Service {
	s := &Service{
		db:         db,
		store:      store,
		images:     images,
		uploadRoot: uploadRoot,
	}
	s.importer = archive.NewImporter(s)
	return s
}

// DB returns the service's database handle.
func (s *Service) DB() *gorm.DB {
	return s.db
}

// Images returns the derivative processor.
func (s *Service) Images() *imageprocessor.Processor {
	return s.images
}

func (s *Service) storedPath(photoUUID, ext string) string {
	return path.Join(s.uploadRoot, photoUUID+ext)
}

// discardOriginal removes a stored original whose database records could not
// be written, so a failed create never orphans a file in the object store.
func (s *Service) discardOriginal(storedPath string) {
	if err := s.store.Delete(storedPath); err != nil {
		log.Warnf("[Photos] Couldn't discard original %s: %v", storedPath, err)
	}
}

// CreatePhoto stores the original, records the photo and its ledger row, and
// optionally generates derivatives inline. On processing failure the photo
// stays pending and the error is returned.
func (s *Service) CreatePhoto(name string, data []byte, uploadID uuid.UUID, process bool) (*models.Photo, error) {
	ext := strings.ToLower(path.Ext(name))
	photo := &models.Photo{
		UUID:     uuid.New().String(),
		FileName: path.Base(name),
		FileType: ext,
		FileSize: int64(len(data)),
		Status:   models.PhotoStatusPending,
	}
	photo.FilePath = s.storedPath(photo.UUID, ext)

	if err := imageprocessor.ExtractMetadata(photo, data); err != nil {
		log.Warnf("[Photos] Metadata extraction failed for %s: %v", photo.FileName, err)
	}

	if err := s.store.Put(photo.FilePath, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error storing original %s: %w", photo.FileName, err)
	}

	if err := s.db.Create(photo).Error; err != nil {
		s.discardOriginal(photo.FilePath)
		return nil, fmt.Errorf("error creating photo record: %w", err)
	}
	session := &models.UploadSession{UploadID: uploadID.String(), PhotoID: photo.ID}
	if err := s.db.Create(session).Error; err != nil {
		s.discardOriginal(photo.FilePath)
		if derr := s.db.Delete(photo).Error; derr != nil {
			log.Errorf("[Photos] Couldn't roll back photo record %s: %v", photo.UUID, derr)
		}
		return nil, fmt.Errorf("error creating upload session record: %w", err)
	}

	if process {
		if err := s.Process(photo); err != nil {
			return photo, err
		}
	}
	return photo, nil
}

// CreateFromArchive creates and fully processes a photo from an archive
// entry. A failure rolls the entry back so the batch count stays accurate.
func (s *Service) CreateFromArchive(name string, data []byte, uploadID uuid.UUID) (*models.Photo, error) {
	photo, err := s.CreatePhoto(name, data, uploadID, true)
	if err != nil {
		if photo != nil {
			if derr := s.DeletePhoto(photo); derr != nil {
				log.Errorf("[Photos] Couldn't roll back photo %s: %v", photo.UUID, derr)
			}
		}
		return nil, err
	}
	return photo, nil
}

// Process generates all derivatives for the photo and marks it ready. It
// never partially succeeds: on failure the photo remains pending.
func (s *Service) Process(photo *models.Photo) error {
	if err := imageprocessor.SetPhotoStatus(photo.UUID, imageprocessor.STATUS_PROCESSING); err != nil {
		log.Debugf("[Photos] Couldn't cache processing status for %s: %v", photo.UUID, err)
	}

	width, height, err := s.images.CreateSizes(photo.FilePath)
	if err != nil {
		if cErr := imageprocessor.SetPhotoStatus(photo.UUID, imageprocessor.STATUS_FAILED); cErr != nil {
			log.Debugf("[Photos] Couldn't cache failed status for %s: %v", photo.UUID, cErr)
		}
		return fmt.Errorf("processing photo %s: %w", photo.UUID, err)
	}

	if err := photo.MarkReady(s.db, width, height); err != nil {
		return fmt.Errorf("error marking photo %s ready: %w", photo.UUID, err)
	}
	if err := imageprocessor.SetPhotoStatus(photo.UUID, imageprocessor.STATUS_COMPLETED); err != nil {
		log.Debugf("[Photos] Couldn't cache completed status for %s: %v", photo.UUID, err)
	}
	return nil
}

// Replace swaps the photo's original for a new file, removing the old
// derivatives (and the old original if its path changes) before reprocessing
// under the same photo identity.
func (s *Service) Replace(photo *models.Photo, name string, data []byte) error {
	oldPath := photo.FilePath

	if photo.IsReady() {
		s.images.DeleteSizes(oldPath)
	}

	ext := strings.ToLower(path.Ext(name))
	newPath := s.storedPath(photo.UUID, ext)
	if newPath != oldPath {
		if err := s.store.Delete(oldPath); err != nil {
			log.Warnf("[Photos] Couldn't delete replaced original %s: %v", oldPath, err)
		}
	}

	photo.FileName = path.Base(name)
	photo.FilePath = newPath
	photo.FileType = ext
	photo.FileSize = int64(len(data))
	photo.Status = models.PhotoStatusPending
	photo.Width = 0
	photo.Height = 0

	if err := s.store.Put(newPath, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("error storing replacement original: %w", err)
	}
	if err := s.db.Save(photo).Error; err != nil {
		return fmt.Errorf("error updating photo record: %w", err)
	}
	return s.Process(photo)
}

// DeleteFiles removes the original and every derivative for a stored path,
// tolerating files that are already gone.
func (s *Service) DeleteFiles(storedPath string) {
	s.images.DeleteAllFiles(storedPath)
}

// DeletePhoto removes the photo's files and database records.
func (s *Service) DeletePhoto(photo *models.Photo) error {
	s.DeleteFiles(photo.FilePath)
	return s.DeletePhotoRecord(photo)
}

// DeletePhotoRecord removes only the database records of a photo: its ledger
// rows, gallery memberships and the photo row itself.
func (s *Service) DeletePhotoRecord(photo *models.Photo) error {
	if err := imageprocessor.ClearPhotoStatus(photo.UUID); err != nil {
		log.Debugf("[Photos] Couldn't clear cached status for %s: %v", photo.UUID, err)
	}
	if err := models.DeleteSessionsByPhotoID(s.db, photo.ID); err != nil {
		return fmt.Errorf("error deleting upload sessions for photo %s: %w", photo.UUID, err)
	}
	if err := s.db.Exec("DELETE FROM gallery_photos WHERE photo_id = ?", photo.ID).Error; err != nil {
		return fmt.Errorf("error deleting gallery memberships for photo %s: %w", photo.UUID, err)
	}
	if err := s.db.Delete(photo).Error; err != nil {
		return fmt.Errorf("error deleting photo record %s: %w", photo.UUID, err)
	}
	return nil
}

// DeletePhotos runs the per-photo file cleanup for a batch, then bulk
// deletes the rows. Bulk deletion must not skip file cleanup.
func (s *Service) DeletePhotos(photos []models.Photo) error {
	for i := range photos {
		s.DeleteFiles(photos[i].FilePath)
	}
	return s.DeletePhotoRecords(photos)
}

// DeletePhotoRecords bulk-deletes the database records for a batch of photos.
func (s *Service) DeletePhotoRecords(photos []models.Photo) error {
	if len(photos) == 0 {
		return nil
	}
	ids := make([]uint, len(photos))
	for i := range photos {
		ids[i] = photos[i].ID
		if err := imageprocessor.ClearPhotoStatus(photos[i].UUID); err != nil {
			log.Debugf("[Photos] Couldn't clear cached status for %s: %v", photos[i].UUID, err)
		}
	}
	if err := s.db.Where("photo_id IN ?", ids).Delete(&models.UploadSession{}).Error; err != nil {
		return fmt.Errorf("error deleting upload sessions: %w", err)
	}
	if err := s.db.Exec("DELETE FROM gallery_photos WHERE photo_id IN ?", ids).Error; err != nil {
		return fmt.Errorf("error deleting gallery memberships: %w", err)
	}
	if err := s.db.Delete(&models.Photo{}, ids).Error; err != nil {
		return fmt.Errorf("error deleting photo records: %w", err)
	}
	return nil
}

// ImportArchive expands a zip archive into photos registered under uploadID.
func (s *Service) ImportArchive(data []byte, uploadID uuid.UUID) (int, error) {
	return s.importer.Import(data, uploadID)
}

// StorePendingArchive stores a transient copy of an uploaded zip for a queue
// worker and records it.
func (s *Service) StorePendingArchive(data []byte) (*models.PendingArchive, error) {
	pending := &models.PendingArchive{UUID: uuid.New().String()}
	pending.StoredPath = path.Join(s.uploadRoot, "tmp", pending.UUID+".zip")

	if err := s.store.Put(pending.StoredPath, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error storing pending archive: %w", err)
	}
	if err := s.db.Create(pending).Error; err != nil {
		return nil, fmt.Errorf("error recording pending archive: %w", err)
	}
	return pending, nil
}

// ExpandPendingArchive expands a stored archive, removes the transient copy
// and finalizes any deferred gallery link for the session. All photos and
// ledger rows exist before the deferred check runs, which is what lets a
// late-finishing worker link the full batch.
func (s *Service) ExpandPendingArchive(archiveID uint, uploadID uuid.UUID) (int, error) {
	pending, err := models.FindPendingArchiveByID(s.db, archiveID)
	if err != nil {
		return 0, fmt.Errorf("error loading pending archive %d: %w", archiveID, err)
	}

	r, err := s.store.Get(pending.StoredPath)
	if err != nil {
		return 0, fmt.Errorf("error reading pending archive %s: %w", pending.StoredPath, err)
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return 0, fmt.Errorf("error reading pending archive %s: %w", pending.StoredPath, err)
	}

	count, err := s.ImportArchive(data, uploadID)
	if err != nil {
		return count, err
	}

	if err := s.store.Delete(pending.StoredPath); err != nil {
		log.Warnf("[Photos] Couldn't delete expanded archive %s: %v", pending.StoredPath, err)
	}
	if err := s.db.Delete(pending).Error; err != nil {
		log.Warnf("[Photos] Couldn't delete pending archive record %d: %v", pending.ID, err)
	}

	if err := s.FinalizeDeferred(uploadID); err != nil {
		return count, err
	}
	return count, nil
}

// LinkSession attaches all photos recorded under uploadID to the gallery and
// consumes the ledger rows. Adding an already linked photo is a no-op, so
// calling this twice for a consumed token does nothing. A nil gallery leaves
// the ledger untouched for a later call that carries a real target.
func (s *Service) LinkSession(uploadID uuid.UUID, gallery *models.Gallery) error {
	if gallery == nil {
		return nil
	}
	sessions, err := models.FindSessionsByUploadID(s.db, uploadID.String())
	if err != nil {
		return fmt.Errorf("error loading upload sessions for %s: %w", uploadID, err)
	}
	for i := range sessions {
		if err := gallery.AddPhoto(s.db, sessions[i].PhotoID); err != nil {
			return fmt.Errorf("error linking photo %d to gallery %s: %w", sessions[i].PhotoID, gallery.Slug, err)
		}
	}
	if err := models.DeleteSessionsByUploadID(s.db, uploadID.String()); err != nil {
		return fmt.Errorf("error consuming upload sessions for %s: %w", uploadID, err)
	}
	return nil
}

// FinalizeDeferred links any photos still recorded under uploadID to the
// deferred gallery target, if one was registered. Workers call this after
// finishing their part of a session; re-checking the ledger here instead of
// assuming worker order is what prevents late photos from being orphaned.
func (s *Service) FinalizeDeferred(uploadID uuid.UUID) error {
	deferred, err := models.FindDeferredImport(s.db, uploadID.String())
	if err != nil {
		return fmt.Errorf("error loading deferred import for %s: %w", uploadID, err)
	}
	if deferred == nil || deferred.GalleryID == nil {
		return nil
	}

	var gallery models.Gallery
	if err := s.db.First(&gallery, *deferred.GalleryID).Error; err != nil {
		// Target gallery is gone; drop the deferred record so the
		// sweeper doesn't have to.
		log.Warnf("[Photos] Deferred gallery %d for session %s no longer exists", *deferred.GalleryID, uploadID)
		return s.db.Delete(&models.DeferredImport{UploadID: uploadID.String()}).Error
	}
	return s.LinkSession(uploadID, &gallery)
}

// CleanupDeferred deletes deferred import records older than maxAge whose
// sessions have been fully consumed.
func (s *Service) CleanupDeferred(maxAge time.Duration) (int64, error) {
	return models.DeleteStaleDeferredImports(s.db, time.Now().Add(-maxAge))
}

// GalleryPhotos returns all photos that are members of the gallery.
func (s *Service) GalleryPhotos(gallery *models.Gallery) ([]models.Photo, error) {
	var photos []models.Photo
	err := s.db.Joins("JOIN gallery_photos ON photos.id = gallery_photos.photo_id").
		Where("gallery_photos.gallery_id = ?", gallery.ID).
		Order("photos.created_at").
		Find(&photos).Error
	return photos, err
}

// DeleteGallery removes a gallery. With withPhotos set, the member photos and
// their files are removed as well; otherwise the photos stay and only the
// membership rows go.
func (s *Service) DeleteGallery(gallery *models.Gallery, withPhotos bool) error {
	if withPhotos {
		photos, err := s.GalleryPhotos(gallery)
		if err != nil {
			return fmt.Errorf("error loading gallery photos: %w", err)
		}
		if err := s.DeletePhotos(photos); err != nil {
			return err
		}
	}
	if err := s.db.Exec("DELETE FROM gallery_photos WHERE gallery_id = ?", gallery.ID).Error; err != nil {
		return fmt.Errorf("error deleting gallery memberships: %w", err)
	}
	if err := s.db.Delete(gallery).Error; err != nil {
		return fmt.Errorf("error deleting gallery %s: %w", gallery.Slug, err)
	}
	return nil
}
