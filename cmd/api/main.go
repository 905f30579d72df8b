package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"panoproperty_backend/internal/auth"
	"panoproperty_backend/internal/backend/postgres"
	"panoproperty_backend/internal/catalog"
	"panoproperty_backend/internal/controller"
	"panoproperty_backend/internal/listing"
	"panoproperty_backend/internal/saved"
	"panoproperty_backend/internal/session"
	"panoproperty_backend/pkg/config"
	"panoproperty_backend/pkg/cron"
	"panoproperty_backend/pkg/database"
	applog "panoproperty_backend/pkg/logger"
	"panoproperty_backend/pkg/seed"
	"panoproperty_backend/pkg/utils/jwt"
	"panoproperty_backend/pkg/utils/storage"
)

func main() {
	cfg := config.Load()

	zlog, err := applog.New(cfg.LogLevel)
	if err != nil {
		log.Fatal("Could not initialize logger:", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.JWT.UsesDefaultSecret() {
		zlog.Warn("JWT_SECRET is not set, sessions are signed with the development default")
	}

	db, err := database.Open(cfg.Database.DSN(), zlog)
	if err != nil {
		return err
	}
	if err := database.MigrateDatabase(db, zlog, postgres.Models()...); err != nil {
		zlog.Warn("migration warning", zap.Error(err))
	}
	repo := postgres.NewRepository(db)

	if cfg.Jobs.SeedDemo {
		if _, err := seed.SeedDemoProperties(ctx, repo, zlog); err != nil {
			zlog.Warn("demo seed failed", zap.Error(err))
		}
	}

	blobs, err := storage.New(ctx, storage.Options{
		Endpoint:      cfg.Storage.Endpoint,
		Region:        cfg.Storage.Region,
		AccessKey:     cfg.Storage.AccessKey,
		SecretKey:     cfg.Storage.SecretKey,
		R2AccountID:   cfg.Storage.R2AccountID,
		PublicBaseURL: cfg.Storage.PublicBaseURL,
		BucketPrefix:  cfg.Storage.BucketPrefix,
	}, zlog)
	if err != nil {
		return err
	}

	sweeper, err := cron.InitOrphanListingsCron(cfg.Jobs.OrphanSweepSchedule, repo, zlog)
	if err != nil {
		return err
	}
	defer sweeper.Stop()

	signer := jwt.NewSigner(cfg.JWT.Secret, cfg.JWT.SessionTTL)
	oauth := auth.GoogleOAuth(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.GoogleRedirectURL)
	authService := auth.NewService(repo, signer, oauth, zlog)

	pending := session.NewPendingRoles(cfg.OAuth.PendingRoleTTL)
	registry := session.NewRegistry(authService, repo, pending, zlog, cfg.JWT.SessionTTL)
	defer registry.Close()

	cat := catalog.New(repo, zlog)
	if err := cat.Load(ctx); err != nil {
		zlog.Warn("catalog not loaded at startup", zap.Error(err))
	}

	h := controller.New(controller.Deps{
		Auth:          authService,
		Sessions:      registry,
		Pending:       pending,
		Catalog:       cat,
		Workflow:      listing.NewWorkflow(repo, blobs, zlog),
		Saved:         saved.NewToggler(repo, zlog),
		Profiles:      repo,
		PublicBaseURL: cfg.Server.PublicBaseURL,
		Logger:        zlog,
	})

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Server.BodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	h.RegisterRoutes(app)

	go func() {
		<-ctx.Done()
		zlog.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			zlog.Error("shutdown failed", zap.Error(err))
		}
	}()

	zlog.Info("server is running", zap.String("port", cfg.Server.Port))
	return app.Listen(":" + cfg.Server.Port)
}
