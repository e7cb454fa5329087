package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anjiri1684/training_portal/assets"
	"github.com/anjiri1684/training_portal/cache"
	config "github.com/anjiri1684/training_portal/configs"
	"github.com/anjiri1684/training_portal/database"
	"github.com/anjiri1684/training_portal/handlers"
	"github.com/anjiri1684/training_portal/jobs"
	applog "github.com/anjiri1684/training_portal/logger"
	"github.com/anjiri1684/training_portal/notifications"
	"github.com/anjiri1684/training_portal/routes"
	"github.com/anjiri1684/training_portal/services"
	"github.com/anjiri1684/training_portal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type userStore interface {
	services.UserRepository
	services.StudentDirectory
	database.UserRepository
}

type certificateStore interface {
	services.CertificateRepository
	jobs.ArtifactCounter
}

func main() {
	settings := config.Load()

	log, err := applog.New(settings.LogLevel, settings.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	os.Exit(serve(settings, log))
}

// serve runs the server and returns the process exit code once the logger
// has been flushed.
func serve(settings config.Settings, log *zap.Logger) int {
	err := run(settings, log)
	if err != nil {
		log.Error("Server stopped with error", zap.Error(err))
	}
	_ = log.Sync()
	if err != nil {
		return 1
	}
	return 0
}

func run(settings config.Settings, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}

	users, certs, err := openStores(settings, log)
	if err != nil {
		return err
	}

	if settings.AdminEmail != "" {
		if err := database.SeedAdmin(ctx, users, settings.AdminEmail, settings.AdminPassword, settings.AdminFullName, log); err != nil {
			return fmt.Errorf("seed admin: %w", err)
		}
	}

	renderer, err := services.NewTemplateRenderer(assets.ForPath(settings.TemplatePath), settings.TemplatePath)
	if err != nil {
		return err
	}

	artifacts, err := openArtifacts(settings)
	if err != nil {
		return err
	}

	verifyCache, closeCache, err := openCache(ctx, settings)
	if err != nil {
		return err
	}
	defer closeCache()

	deps := services.CertificateServiceDeps{
		Students:     users,
		Certificates: certs,
		Renderer:     renderer,
		Artifacts:    artifacts,
		Cache:        verifyCache,
		Logger:       log,
	}
	if brevo := notifications.NewBrevoService(settings.BrevoAPIKey, settings.EmailSender, settings.EmailSenderName, settings.VerifyBaseURL, log); brevo != nil {
		deps.Notifier = brevo
	}
	certService := services.NewCertificateService(deps)
	userService := services.NewUserService(users)

	c := cron.New()
	scheduled, err := jobs.Schedule(c, settings.AuditSchedule, jobs.NewArtifactAudit(certs, log))
	if err != nil {
		return fmt.Errorf("schedule artifact audit: %w", err)
	}
	if scheduled {
		c.Start()
		defer c.Stop()
		log.Info("Cron job for artifact audit scheduled", zap.String("schedule", settings.AuditSchedule))
	}

	app := fiber.New(fiber.Config{
		AppName:       "Training Portal",
		CaseSensitive: true,
		StrictRouting: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  15 * time.Second,
		IdleTimeout:   60 * time.Second,
		ErrorHandler:  handlers.ErrorHandler(log),
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Content-Disposition, X-Certificate-Number",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Training Portal API",
		})
	})
	app.Get("/health", handlers.Health)

	routes.CertificateRoutes(app, handlers.NewCertificateHandler(certService, log), settings.JWTSecret)
	routes.UserRoutes(app, handlers.NewUserHandler(userService), settings.JWTSecret)

	listenErr := make(chan error, 1)
	go func() {
		log.Info("Server is running", zap.String("port", settings.Port))
		listenErr <- app.Listen(":" + settings.Port)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func openStores(settings config.Settings, log *zap.Logger) (userStore, certificateStore, error) {
	switch settings.DBDriver {
	case "memory":
		log.Warn("Using in-memory stores; data is lost on restart")
		users := database.NewMemoryUserStore()
		return users, database.NewMemoryCertificateStore(users), nil
	case "postgres":
		db, err := database.ConnectDB(settings.DatabaseURL, log)
		if err != nil {
			return nil, nil, err
		}
		if err := database.Migrate(db); err != nil {
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return database.NewUserStore(db), database.NewCertificateStore(db), nil
	default:
		return nil, nil, fmt.Errorf("unknown DB_DRIVER %q", settings.DBDriver)
	}
}

func openArtifacts(settings config.Settings) (storage.ArtifactStorage, error) {
	switch settings.ArtifactStrategy {
	case "inline":
		return storage.Inline{}, nil
	case "cloudinary":
		return storage.NewCloudinary(settings.CloudinaryURL)
	default:
		return nil, fmt.Errorf("unknown ARTIFACT_STRATEGY %q", settings.ArtifactStrategy)
	}
}

func openCache(ctx context.Context, settings config.Settings) (cache.VerificationCache, func(), error) {
	noop := func() {}
	switch settings.CacheBackend {
	case "none":
		return cache.Noop{}, noop, nil
	case "memory":
		return cache.NewMemory(settings.CacheTTL), noop, nil
	case "redis":
		r, err := cache.NewRedisFromURL(ctx, settings.RedisURL, settings.CacheTTL)
		if err != nil {
			return nil, noop, err
		}
		return r, func() { _ = r.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown CACHE_BACKEND %q", settings.CacheBackend)
	}
}
