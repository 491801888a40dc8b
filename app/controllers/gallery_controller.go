package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AndreasMilants/gophotos/app/models"
	"github.com/AndreasMilants/gophotos/app/repository"
)

// CreateGalleryRequest is the JSON body for gallery creation. An optional
// upload token links every photo uploaded under it to the new gallery.
type CreateGalleryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	UploadID    string `json:"upload_id"`
}

// HandleCreateGallery creates a gallery and optionally consumes an upload
// session into it.
func HandleCreateGallery(c *fiber.Ctx) error {
	var req CreateGalleryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	gallery := &models.Gallery{
		Title:       req.Title,
		Description: req.Description,
	}
	if err := gallery.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "title must be between 3 and 255 characters"})
	}

	galleryRepo := repository.GetGlobalRepositories().Gallery
	if existing, err := galleryRepo.GetByTitle(req.Title); err == nil && existing != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "a gallery with this title already exists"})
	}
	if err := galleryRepo.Create(gallery); err != nil {
		fiberlog.Errorf("[Gallery] Create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create gallery"})
	}

	if req.UploadID != "" {
		uploadID, err := uuid.Parse(req.UploadID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "upload_id must be a valid UUID"})
		}
		if err := photoProcessor.LinkSession(uploadID, gallery); err != nil {
			fiberlog.Errorf("[Gallery] Linking upload %s to %s failed: %v", uploadID, gallery.Slug, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to link uploaded photos"})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(gallery)
}

// GalleryListEntry is a gallery listing item enriched with its photo count
// and a randomly chosen cover photo.
type GalleryListEntry struct {
	models.Gallery
	PhotoCount int64         `json:"photo_count"`
	CoverPhoto *models.Photo `json:"cover_photo,omitempty"`
}

// HandleListGalleries returns a paginated gallery listing with photo counts
// and cover photos.
func HandleListGalleries(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	galleryRepo := repository.GetGlobalRepositories().Gallery
	galleries, err := galleryRepo.List(offset, limit)
	if err != nil {
		fiberlog.Errorf("[Gallery] List failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list galleries"})
	}
	total, err := galleryRepo.Count()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list galleries"})
	}

	entries := make([]GalleryListEntry, len(galleries))
	for i := range galleries {
		count, err := galleryRepo.CountPhotos(galleries[i].ID)
		if err != nil {
			fiberlog.Errorf("[Gallery] Counting photos for %s failed: %v", galleries[i].Slug, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list galleries"})
		}
		cover, err := galleries[i].RandomPhoto(photoService.DB())
		if err != nil {
			// a missing cover only degrades the listing
			fiberlog.Warnf("[Gallery] Picking cover photo for %s failed: %v", galleries[i].Slug, err)
		}
		entries[i] = GalleryListEntry{Gallery: galleries[i], PhotoCount: count, CoverPhoto: cover}
	}

	return c.JSON(fiber.Map{
		"galleries": entries,
		"total":     total,
		"offset":    offset,
		"limit":     limit,
	})
}

// HandleGetGallery returns a gallery with its photos.
func HandleGetGallery(c *fiber.Ctx) error {
	gallery, err := findGalleryBySlugParam(c)
	if gallery == nil {
		return err
	}

	photos, err := repository.GetGlobalRepositories().Gallery.GetPhotos(gallery.ID)
	if err != nil {
		fiberlog.Errorf("[Gallery] Loading photos for %s failed: %v", gallery.Slug, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load gallery photos"})
	}
	gallery.Photos = photos

	return c.JSON(gallery)
}

// HandleDeleteGallery removes a gallery. With ?with_photos=true the member
// photos and their files go too; otherwise the photos are merely unlinked.
func HandleDeleteGallery(c *fiber.Ctx) error {
	gallery, err := findGalleryBySlugParam(c)
	if gallery == nil {
		return err
	}

	withPhotos := c.Query("with_photos") == "true"
	if err := photoService.DeleteGallery(gallery, withPhotos); err != nil {
		fiberlog.Errorf("[Gallery] Delete of %s failed: %v", gallery.Slug, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete gallery"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// LinkUploadRequest is the JSON body for attaching an upload session to an
// existing gallery.
type LinkUploadRequest struct {
	UploadID string `json:"upload_id"`
}

// HandleLinkUpload attaches every photo recorded under an upload token to an
// existing gallery.
func HandleLinkUpload(c *fiber.Ctx) error {
	gallery, err := findGalleryBySlugParam(c)
	if gallery == nil {
		return err
	}

	var req LinkUploadRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}
	uploadID, err := uuid.Parse(req.UploadID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "upload_id must be a valid UUID"})
	}

	if err := photoProcessor.LinkSession(uploadID, gallery); err != nil {
		fiberlog.Errorf("[Gallery] Linking upload %s to %s failed: %v", uploadID, gallery.Slug, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to link uploaded photos"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func findGalleryBySlugParam(c *fiber.Ctx) (*models.Gallery, error) {
	slug := c.Params("slug")
	if slug == "" {
		return nil, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "slug missing"})
	}
	gallery, err := repository.GetGlobalRepositories().Gallery.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "gallery not found"})
		}
		fiberlog.Errorf("[Gallery] Lookup of %s failed: %v", slug, err)
		return nil, c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load gallery"})
	}
	return gallery, nil
}
