package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Photo processing status constants
const (
	PhotoStatusPending = "pending"
	PhotoStatusReady   = "ready"
)

// JSON stores raw JSON documents in the database
type JSON json.RawMessage

// Value implements the driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

// Scan implements the sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = JSON("{}")
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("invalid scan source")
	}
	*j = JSON(bytes)
	return nil
}

// MarshalJSON implements the json.Marshaler interface
func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (j *JSON) UnmarshalJSON(data []byte) error {
	*j = JSON(data)
	return nil
}

type Photo struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UUID     string `gorm:"type:char(36);uniqueIndex;not null" json:"uuid"`
	FileName string `gorm:"type:varchar(255);not null" json:"file_name"`
	FilePath string `gorm:"type:varchar(255);not null" json:"file_path"`
	FileSize int64  `gorm:"type:bigint" json:"file_size"`
	FileType string `gorm:"type:varchar(50)" json:"file_type"`
	Width    int    `gorm:"type:int" json:"width"`
	Height   int    `gorm:"type:int" json:"height"`
	Status   string `gorm:"type:varchar(20);not null;default:pending" json:"status"`
	// meta data
	CameraModel  *string    `gorm:"type:varchar(255)" json:"camera_model"`
	TakenAt      *time.Time `gorm:"type:datetime" json:"taken_at"`
	Latitude     *float64   `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude    *float64   `gorm:"type:decimal(11,8)" json:"longitude"`
	ExposureTime *string    `gorm:"type:varchar(50)" json:"exposure_time"`
	Aperture     *string    `gorm:"type:varchar(20)" json:"aperture"`
	ISO          *int       `gorm:"type:int" json:"iso"`
	FocalLength  *string    `gorm:"type:varchar(20)" json:"focal_length"`
	Metadata     *JSON      `gorm:"type:json" json:"metadata"`
	// relations
	Galleries []Gallery `gorm:"many2many:gallery_photos;" json:"galleries,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate is called before inserting a new record
func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.New().String()
	}
	return nil
}

// IsReady reports whether derivative generation has completed
func (p *Photo) IsReady() bool {
	return p.Status == PhotoStatusReady
}

// MarkReady records the generated dimensions and flips the status to ready
func (p *Photo) MarkReady(db *gorm.DB, width, height int) error {
	p.Status = PhotoStatusReady
	p.Width = width
	p.Height = height
	return db.Model(p).Updates(map[string]interface{}{
		"status": PhotoStatusReady,
		"width":  width,
		"height": height,
	}).Error
}

// FindPhotoByUUID finds a photo by its UUID
func FindPhotoByUUID(db *gorm.DB, uuid string) (*Photo, error) {
	var photo Photo
	result := db.Where("uuid = ?", uuid).First(&photo)
	return &photo, result.Error
}
