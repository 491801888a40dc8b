package jobqueue

import (
	"encoding/json"
	"time"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeProcessPhoto     JobType = "process_photo"
	JobTypeParseArchive     JobType = "parse_archive"
	JobTypeDeletePhotoFiles JobType = "delete_photo_files"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
)

// Job represents a background job
type Job struct {
	ID          string                 `json:"id"`
	Type        JobType                `json:"type"`
	Status      JobStatus              `json:"status"`
	Payload     map[string]interface{} `json:"payload"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	ErrorMsg    string                 `json:"error_msg,omitempty"`
	RetryCount  int                    `json:"retry_count"`
	MaxRetries  int                    `json:"max_retries"`
}

// ProcessPhotoJobPayload contains the payload for derivative generation jobs
type ProcessPhotoJobPayload struct {
	PhotoID   uint   `json:"photo_id"`
	PhotoUUID string `json:"photo_uuid"`
	UploadID  string `json:"upload_id"`
}

// ToMap converts the payload to a map for storage
func (p ProcessPhotoJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"photo_id":   p.PhotoID,
		"photo_uuid": p.PhotoUUID,
		"upload_id":  p.UploadID,
	}
}

// FromMap creates a payload from a map
func ProcessPhotoJobPayloadFromMap(data map[string]interface{}) (*ProcessPhotoJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload ProcessPhotoJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// ParseArchiveJobPayload contains the payload for zip expansion jobs
type ParseArchiveJobPayload struct {
	ArchiveID uint   `json:"archive_id"`
	UploadID  string `json:"upload_id"`
}

// ToMap converts the payload to a map for storage
func (p ParseArchiveJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"archive_id": p.ArchiveID,
		"upload_id":  p.UploadID,
	}
}

// FromMap creates a payload from a map
func ParseArchiveJobPayloadFromMap(data map[string]interface{}) (*ParseArchiveJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload ParseArchiveJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// DeletePhotoFilesJobPayload contains the payload for file cleanup jobs.
// Only the stored path is carried; the database rows are already gone when
// this job runs.
type DeletePhotoFilesJobPayload struct {
	StoredPath string `json:"stored_path"`
}

// ToMap converts the payload to a map for storage
func (p DeletePhotoFilesJobPayload) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"stored_path": p.StoredPath,
	}
}

// FromMap creates a payload from a map
func DeletePhotoFilesJobPayloadFromMap(data map[string]interface{}) (*DeletePhotoFilesJobPayload, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	var payload DeletePhotoFilesJobPayload
	err = json.Unmarshal(jsonData, &payload)
	return &payload, err
}

// IsRetryable checks if the job can be retried
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// MarkAsProcessing updates the job status to processing
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
	j.RetryCount++
}

// MarkAsRetrying updates the job status to retrying
func (j *Job) MarkAsRetrying() {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
}
