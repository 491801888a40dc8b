package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/AndreasMilants/gophotos/app/models"
	"github.com/AndreasMilants/gophotos/internal/pkg/imageprocessor"
)

// PhotoCreator creates a photo from raw image bytes and registers it under an
// upload session token. The processor service implements it.
type PhotoCreator interface {
	CreateFromArchive(name string, data []byte, uploadID uuid.UUID) (*models.Photo, error)
}

// Importer expands zip archives into individual photos. Import is best-effort
// per entry: one corrupt member never aborts the batch.
type Importer struct {
	photos PhotoCreator
}

// NewImporter creates an importer backed by the given photo creator.
func NewImporter(photos PhotoCreator) *Importer {
	return &Importer{photos: photos}
}

// Import expands data as a zip archive, creating one photo per importable
// entry under uploadID, and returns the number of photos created.
//
// Entries are visited in lexicographic name order. Directory entries, hidden
// entries (leading "."), metadata entries (leading "__"), entries nested in a
// subdirectory and zero-length entries are skipped. Nesting is skipped by
// policy: only top-level entries are imported, which sidesteps path-traversal
// and directory-structure ambiguity. Entries that fail to decode as an image
// are skipped without failing the batch.
func (im *Importer) Import(data []byte, uploadID uuid.UUID) (int, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("error opening zip archive: %w", err)
	}

	files := make([]*zip.File, len(reader.File))
	copy(files, reader.File)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	created := 0
	for _, f := range files {
		name := f.Name
		if f.FileInfo().IsDir() || strings.HasSuffix(name, "/") {
			continue
		}
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "__") {
			continue
		}
		if path.Dir(name) != "." {
			continue
		}

		entry, err := readEntry(f)
		if err != nil {
			log.Warnf("[ArchiveImport] Skipping entry %s: %v", name, err)
			continue
		}
		if len(entry) == 0 {
			continue
		}

		if _, _, err := imageprocessor.DecodeVerify(entry); err != nil {
			log.Infof("[ArchiveImport] Skipping non-image entry %s: %v", name, err)
			continue
		}

		if _, err := im.photos.CreateFromArchive(name, entry, uploadID); err != nil {
			log.Errorf("[ArchiveImport] Failed to create photo from entry %s: %v", name, err)
			continue
		}
		created++
	}

	return created, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
