package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/AndreasMilants/gophotos/app/repository"
)

// HandleGetPhoto returns a single photo by UUID.
func HandleGetPhoto(c *fiber.Ctx) error {
	photoUUID := c.Params("uuid")
	if photoUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uuid missing"})
	}

	photo, err := repository.GetGlobalRepositories().Photo.GetByUUID(photoUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "photo not found"})
		}
		fiberlog.Errorf("[Photo] Lookup of %s failed: %v", photoUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load photo"})
	}

	return c.JSON(photo)
}

// HandleListPhotos returns a paginated photo listing.
func HandleListPhotos(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	photoRepo := repository.GetGlobalRepositories().Photo
	photos, err := photoRepo.List(offset, limit)
	if err != nil {
		fiberlog.Errorf("[Photo] List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list photos"})
	}
	total, err := photoRepo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list photos"})
	}

	return c.JSON(fiber.Map{
		"photos": photos,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

// HandleDeletePhoto removes a photo, its original file and all derivatives.
func HandleDeletePhoto(c *fiber.Ctx) error {
	photoUUID := c.Params("uuid")
	if photoUUID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "uuid missing"})
	}

	photo, err := repository.GetGlobalRepositories().Photo.GetByUUID(photoUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "photo not found"})
		}
		fiberlog.Errorf("[Photo] Lookup of %s failed: %v", photoUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load photo"})
	}

	if err := photoProcessor.DeletePhoto(photo); err != nil {
		fiberlog.Errorf("[Photo] Delete of %s failed: %v", photoUUID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete photo"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
