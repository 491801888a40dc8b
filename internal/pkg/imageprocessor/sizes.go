package imageprocessor

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ThumbnailSizeName is the built-in size present in every catalog.
const ThumbnailSizeName = "thumbnail"

// Built-in thumbnail box
const (
	ThumbnailWidth  = 100
	ThumbnailHeight = 100
)

// Size is a bounding box a derivative must fit into.
type Size struct {
	Width  int
	Height int
}

// SizeCatalog maps size names to target bounding boxes.
type SizeCatalog map[string]Size

// DefaultSizes are the caller-supplied entries used when no catalog is configured.
var DefaultSizes = map[string]Size{
	"display": {Width: 500, Height: 500},
	"hd":      {Width: 1920, Height: 1080},
}

// NewSizeCatalog builds a catalog from the given entries plus the built-in
// thumbnail, which cannot be overridden.
func NewSizeCatalog(sizes map[string]Size) SizeCatalog {
	catalog := make(SizeCatalog, len(sizes)+1)
	for name, size := range sizes {
		catalog[name] = size
	}
	catalog[ThumbnailSizeName] = Size{Width: ThumbnailWidth, Height: ThumbnailHeight}
	return catalog
}

// Names returns the size names in a stable order.
func (c SizeCatalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseSizes parses a size list of the form "display:500x500,hd:1920x1080".
func ParseSizes(spec string) (map[string]Size, error) {
	sizes := make(map[string]Size)
	if strings.TrimSpace(spec) == "" {
		return sizes, nil
	}
	for _, entry := range strings.Split(spec, ",") {
		name, dims, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok {
			return nil, fmt.Errorf("invalid size entry %q, want name:WxH", entry)
		}
		wStr, hStr, ok := strings.Cut(dims, "x")
		if !ok {
			return nil, fmt.Errorf("invalid size entry %q, want name:WxH", entry)
		}
		w, errW := strconv.Atoi(wStr)
		h, errH := strconv.Atoi(hStr)
		if errW != nil || errH != nil || w <= 0 || h <= 0 {
			return nil, fmt.Errorf("invalid dimensions in size entry %q", entry)
		}
		sizes[strings.TrimSpace(name)] = Size{Width: w, Height: h}
	}
	return sizes, nil
}
