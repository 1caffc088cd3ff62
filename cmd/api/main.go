package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campuswell/campuswell-api/internal/config"
	"github.com/campuswell/campuswell-api/internal/database"
	"github.com/campuswell/campuswell-api/internal/events"
	"github.com/campuswell/campuswell-api/internal/handler"
	"github.com/campuswell/campuswell-api/internal/middleware"
	"github.com/campuswell/campuswell-api/internal/models"
	"github.com/campuswell/campuswell-api/internal/repository"
	"github.com/campuswell/campuswell-api/internal/router"
	"github.com/campuswell/campuswell-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.AssessmentRecord{}, &models.PSSScoreEntry{}, &models.FlaggedCase{}, &models.Counsellor{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, closePublisher, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix, logger)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer closePublisher()
		publisher = natsPublisher
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	caseRepo := repository.NewFlaggedCaseRepository(db)
	counsellorRepo := repository.NewCounsellorRepository(db)

	overviewService := service.NewCaseOverviewService(caseRepo, redisClient, cfg.OverviewCacheTTL, logger)
	screeningService := service.NewScreeningService(userRepo, caseRepo, validate, publisher, overviewService, cfg.StrictScreeningTypes, logger)
	caseService := service.NewCaseService(caseRepo, counsellorRepo, validate, publisher, overviewService, cfg.FollowUpInterval, logger)

	screeningHandler := handler.NewScreeningHandler(screeningService, validate, logger)
	caseHandler := handler.NewCaseHandler(caseService, overviewService, validate, logger)
	counsellorHandler := handler.NewCounsellorHandler(caseService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ScreeningHandler:  screeningHandler,
		CaseHandler:       caseHandler,
		CounsellorHandler: counsellorHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
