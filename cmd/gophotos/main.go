package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/AndreasMilants/gophotos/app/controllers"
	"github.com/AndreasMilants/gophotos/app/repository"
	"github.com/AndreasMilants/gophotos/internal/pkg/cache"
	"github.com/AndreasMilants/gophotos/internal/pkg/constants"
	"github.com/AndreasMilants/gophotos/internal/pkg/database"
	"github.com/AndreasMilants/gophotos/internal/pkg/env"
	"github.com/AndreasMilants/gophotos/internal/pkg/imageprocessor"
	"github.com/AndreasMilants/gophotos/internal/pkg/jobqueue"
	"github.com/AndreasMilants/gophotos/internal/pkg/processor"
	"github.com/AndreasMilants/gophotos/internal/pkg/router"
	"github.com/AndreasMilants/gophotos/internal/pkg/storage"
)

func main() {
	app, manager := NewApplication()

	if manager != nil {
		manager.Start()
		defer manager.Stop()

		// Stop workers cleanly on SIGINT/SIGTERM
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sig
			manager.Stop()
			_ = app.Shutdown()
		}()
	}

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *jobqueue.Manager) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	store, localRoot := setupStorage()

	sizes := imageprocessor.DefaultSizes
	if spec := env.GetEnv("PHOTOS_SIZES", ""); spec != "" {
		parsed, err := imageprocessor.ParseSizes(spec)
		if err != nil {
			panic(fmt.Sprintf("invalid PHOTOS_SIZES: %v", err))
		}
		sizes = parsed
	}
	catalog := imageprocessor.NewSizeCatalog(sizes)
	images := imageprocessor.New(store, catalog)

	db := database.GetDB()
	repository.InitializeFactory(db)

	uploadRoot := env.GetEnv("PHOTOS_UPLOAD_ROOT", "photos")
	svc := processor.NewService(db, store, images, uploadRoot)

	var manager *jobqueue.Manager
	var photoProc processor.PhotoProcessor
	if env.GetEnv("PHOTOS_USE_ASYNC", "false") == "true" {
		workers := 3
		if v, err := strconv.Atoi(env.GetEnv("JOB_QUEUE_WORKERS", "")); err == nil && v > 0 {
			workers = v
		}
		queue := jobqueue.NewQueue(workers, svc)
		manager = jobqueue.NewManager(queue)
		photoProc = processor.NewAsyncProcessor(svc, queue)
		fiberlog.Info("[App] Asynchronous photo processing enabled")
	} else {
		photoProc = processor.NewSyncProcessor(svc)
		fiberlog.Info("[App] Synchronous photo processing enabled")
	}

	controllers.SetPhotoProcessor(photoProc)
	controllers.SetPhotoService(svc)

	app := fiber.New(fiber.Config{
		BodyLimit: 838860800, // zip archives can be large
	})

	app.Use(recover.New(), logger.New())

	// serve originals and derivatives directly when stored on local disk
	if localRoot != "" {
		app.Static(constants.UploadsRoute, localRoot, fiber.Static{
			CacheDuration: 10 * time.Second,
			Compress:      false,
			MaxAge:        604800, // 7 days
		})
	}

	router.InstallRouter(app)

	return app, manager
}

// setupStorage builds the configured object store. The second return value is
// the local directory to serve statically, empty for S3.
func setupStorage() (storage.ObjectStore, string) {
	switch env.GetEnv("STORAGE_BACKEND", "local") {
	case "s3":
		store, err := storage.NewS3Store(storage.S3Config{
			AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
			Region:          env.GetEnv("S3_REGION", "us-east-1"),
			BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
			EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		})
		if err != nil {
			panic(fmt.Sprintf("s3 storage setup failed: %v", err))
		}
		return store, ""
	default:
		root := env.GetEnv("STORAGE_LOCAL_PATH", "./uploads")
		store, err := storage.NewLocalStore(root)
		if err != nil {
			panic(fmt.Sprintf("local storage setup failed: %v", err))
		}
		return store, root
	}
}
