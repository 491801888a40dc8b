package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/AndreasMilants/gophotos/app/controllers"
	"github.com/AndreasMilants/gophotos/internal/pkg/constants"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	v1.Post("/upload", controllers.HandleUpload)

	v1.Get("/photos", controllers.HandleListPhotos)
	v1.Get("/photos/:uuid", controllers.HandleGetPhoto)
	v1.Get("/photos/:uuid/status", controllers.HandlePhotoStatus)
	v1.Delete("/photos/:uuid", controllers.HandleDeletePhoto)

	v1.Post("/galleries", controllers.HandleCreateGallery)
	v1.Get("/galleries", controllers.HandleListGalleries)
	v1.Get("/galleries/:slug", controllers.HandleGetGallery)
	v1.Post("/galleries/:slug/link", controllers.HandleLinkUpload)
	v1.Delete("/galleries/:slug", controllers.HandleDeleteGallery)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
