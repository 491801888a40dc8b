package controllers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/AndreasMilants/gophotos/app/models"
	"github.com/AndreasMilants/gophotos/internal/pkg/imageprocessor"
	"github.com/AndreasMilants/gophotos/internal/pkg/processor"
	"github.com/AndreasMilants/gophotos/internal/pkg/upload"
)

// HandleUpload accepts a single multipart file (photo or zip archive) under
// an upload token and dispatches it to the configured processor.
func HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "file missing"})
	}

	uploadID, err := uuid.Parse(c.FormValue("upload_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "upload_id must be a valid UUID"})
	}

	f, err := fileHeader.Open()
	if err != nil {
		fiberlog.Errorf("[Upload] Couldn't open multipart file: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		fiberlog.Errorf("[Upload] Couldn't read multipart file: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if _, err := upload.ValidateUploadBySniff(fileHeader.Filename, head); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := photoProcessor.HandleFile(fileHeader.Filename, data, uploadID); err != nil {
		var procErr *processor.ProcessingError
		if errors.As(err, &procErr) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": procErr.Message})
		}
		fiberlog.Errorf("[Upload] Handling %s failed: %v", fileHeader.Filename, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "upload failed"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"upload_id": uploadID.String(),
		"file_name": fileHeader.Filename,
	})
}

// HandlePhotoStatus returns the transient processing status for a photo.
// The cache carries pending/processing/completed/failed; when the cache entry
// has expired the database status decides.
func HandlePhotoStatus(c *fiber.Ctx) error {
	photoUUID := c.Params("uuid")
	if photoUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uuid missing"})
	}

	if status, err := imageprocessor.GetPhotoStatus(photoUUID); err == nil && status != "" {
		return c.JSON(fiber.Map{"uuid": photoUUID, "status": status})
	}

	photo, err := models.FindPhotoByUUID(photoService.DB(), photoUUID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "photo not found"})
	}
	status := imageprocessor.STATUS_PENDING
	if photo.IsReady() {
		status = imageprocessor.STATUS_COMPLETED
	}
	return c.JSON(fiber.Map{"uuid": photoUUID, "status": status})
}
