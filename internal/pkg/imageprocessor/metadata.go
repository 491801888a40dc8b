package imageprocessor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"github.com/AndreasMilants/gophotos/app/models"
)

func init() {
	// Register Nikon and Canon maker notes
	exif.RegisterParsers(mknote.All...)
}

// ExtractMetadata extracts EXIF metadata from the original image bytes into
// the photo record. Images without EXIF data are not an error.
func ExtractMetadata(photo *models.Photo, data []byte) error {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		log.Infof("No EXIF data found for photo %s: %v", photo.UUID, err)
		return nil
	}

	// Collect the common tags into a map for JSON storage
	allMetadata := make(map[string]interface{})
	for _, tag := range []exif.FieldName{
		exif.Model, exif.Make, exif.Software, exif.Artist,
		exif.Copyright, exif.ExposureTime, exif.FNumber, exif.ISOSpeedRatings,
		exif.FocalLength, exif.ExposureProgram, exif.MeteringMode,
		exif.Flash, exif.FocalLengthIn35mmFilm, exif.WhiteBalance,
		exif.GPSLatitude, exif.GPSLongitude, exif.GPSAltitude,
		exif.DateTime, exif.DateTimeOriginal, exif.DateTimeDigitized,
	} {
		if tagVal, err := x.Get(tag); err == nil {
			allMetadata[string(tag)] = strings.Trim(tagVal.String(), `"`)
		}
	}

	if m, err := x.Get(exif.Model); err == nil {
		trimmed := strings.TrimSpace(strings.Trim(m.String(), `"`))
		photo.CameraModel = &trimmed
	}

	if dt, err := x.DateTime(); err == nil {
		photo.TakenAt = &dt
	}

	if lat, long, err := x.LatLong(); err == nil {
		photo.Latitude = &lat
		photo.Longitude = &long
	}

	if expTag, err := x.Get(exif.ExposureTime); err == nil {
		trimmed := strings.Trim(expTag.String(), `"`)
		photo.ExposureTime = &trimmed
	}

	if fTag, err := x.Get(exif.FNumber); err == nil {
		if floatVal, err := fTag.Float(0); err == nil {
			apertureStr := fmt.Sprintf("f/%.1f", floatVal)
			photo.Aperture = &apertureStr
		} else {
			trimmed := strings.Trim(fTag.String(), `"`)
			photo.Aperture = &trimmed
		}
	}

	if isoTag, err := x.Get(exif.ISOSpeedRatings); err == nil {
		if isoVal, err := isoTag.Int(0); err == nil {
			iso := int(isoVal)
			photo.ISO = &iso
		}
	}

	if flTag, err := x.Get(exif.FocalLength); err == nil {
		if floatVal, err := flTag.Float(0); err == nil {
			focalStr := fmt.Sprintf("%.1fmm", floatVal)
			photo.FocalLength = &focalStr
		} else {
			trimmed := strings.Trim(flTag.String(), `"`)
			photo.FocalLength = &trimmed
		}
	}

	metadataJSON, err := json.Marshal(allMetadata)
	if err != nil {
		log.Errorf("Error marshaling metadata to JSON: %v", err)
	} else {
		meta := models.JSON(metadataJSON)
		photo.Metadata = &meta
	}

	return nil
}
