package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"

	"github.com/AndreasMilants/gophotos/internal/pkg/storage"
)

// ErrImageDecode marks an unreadable or corrupt image. A direct upload that
// hits it fails as a whole; the archive importer skips the entry instead.
var ErrImageDecode = errors.New("image decode failed")

// Processor generates and removes resized derivatives of stored originals.
// The size catalog and the object store are fixed at construction; per-size
// path functions are resolved once here instead of at call time.
type Processor struct {
	store   storage.ObjectStore
	catalog SizeCatalog
	paths   map[string]func(storedPath string) string
}

// New creates a processor for the given store and size catalog.
func New(store storage.ObjectStore, catalog SizeCatalog) *Processor {
	paths := make(map[string]func(string) string, len(catalog))
	for name, size := range catalog {
		size := size
		paths[name] = func(storedPath string) string {
			return derivativePath(storedPath, size)
		}
	}
	return &Processor{store: store, catalog: catalog, paths: paths}
}

// Catalog returns the processor's size catalog.
func (p *Processor) Catalog() SizeCatalog {
	return p.catalog
}

// DerivativePath returns the deterministic storage path of a named derivative
// of the original at storedPath.
func (p *Processor) DerivativePath(storedPath, sizeName string) string {
	fn, ok := p.paths[sizeName]
	if !ok {
		return ""
	}
	return fn(storedPath)
}

func derivativePath(storedPath string, size Size) string {
	ext := path.Ext(storedPath)
	base := strings.TrimSuffix(storedPath, ext)
	return fmt.Sprintf("%s_%dx%d%s", base, size.Width, size.Height, ext)
}

// DecodeVerify checks that data is a readable image and returns its dimensions.
func DecodeVerify(data []byte) (int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}

// CreateSizes generates one derivative per catalog entry for the original at
// storedPath and returns the original's dimensions. Each derivative fits
// inside its size box, keeps the aspect ratio, is never upscaled or cropped,
// and is re-encoded in the original's format. The operation is all-or-nothing:
// on any failure the derivatives written so far are removed and the error is
// returned.
func (p *Processor) CreateSizes(storedPath string) (int, int, error) {
	r, err := p.store.Get(storedPath)
	if err != nil {
		return 0, 0, fmt.Errorf("error reading original %s: %w", storedPath, err)
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		return 0, 0, fmt.Errorf("error reading original %s: %w", storedPath, err)
	}

	img, formatName, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", ErrImageDecode, storedPath, err)
	}
	format, err := imaging.FormatFromExtension("." + formatName)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: unsupported format %s", ErrImageDecode, storedPath, formatName)
	}

	written := make([]string, 0, len(p.catalog))
	for _, name := range p.catalog.Names() {
		size := p.catalog[name]
		resized := imaging.Fit(img, size.Width, size.Height, imaging.Lanczos)

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, resized, format); err != nil {
			p.rollback(written)
			return 0, 0, fmt.Errorf("error encoding %s derivative of %s: %w", name, storedPath, err)
		}

		dst := p.paths[name](storedPath)
		if err := p.store.Put(dst, &buf); err != nil {
			p.rollback(written)
			return 0, 0, fmt.Errorf("error storing %s derivative: %w", name, err)
		}
		written = append(written, dst)
	}

	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy(), nil
}

// rollback removes partially written derivatives after a failed generation.
func (p *Processor) rollback(paths []string) {
	for _, dst := range paths {
		if err := p.store.Delete(dst); err != nil {
			log.Warnf("[ImageProcessor] Couldn't roll back derivative %s: %v", dst, err)
		}
	}
}

// DeleteSizes removes every catalog derivative of the original at storedPath.
// Missing files are tolerated since storage may already be partially cleaned.
func (p *Processor) DeleteSizes(storedPath string) {
	for _, name := range p.catalog.Names() {
		dst := p.paths[name](storedPath)
		if err := p.store.Delete(dst); err != nil {
			log.Warnf("[ImageProcessor] Couldn't delete derivative %s: %v", dst, err)
		}
	}
}

// DeleteAllFiles removes the original at storedPath and all its derivatives.
func (p *Processor) DeleteAllFiles(storedPath string) {
	if err := p.store.Delete(storedPath); err != nil {
		log.Warnf("[ImageProcessor] Couldn't delete original %s: %v", storedPath, err)
	}
	p.DeleteSizes(storedPath)
}
