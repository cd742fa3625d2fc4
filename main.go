package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"saafsaksham-system/cache"
	appconfig "saafsaksham-system/config"
	"saafsaksham-system/handlers"
	"saafsaksham-system/middleware"
	"saafsaksham-system/models"
	"saafsaksham-system/services"
	"saafsaksham-system/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, reading environment variables directly")
	}

	cfg, err := appconfig.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogging(cfg.Logging)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Task{},
		&models.TaskProof{},
		&models.Verification{},
		&models.TokenTransaction{},
		&models.Badge{},
		&models.UserBadge{},
		&models.RedemptionOption{},
		&models.Redemption{},
		&models.Notification{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	if err := services.SeedBadges(db); err != nil {
		log.Fatal().Err(err).Msg("failed to seed badge catalog")
	}

	if err := utils.InitStorage(cfg.Storage); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize object storage")
	}

	redisCache, err := cache.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisCache.Close()

	taskService := services.NewTaskService(db)
	verificationService := services.NewVerificationService(db)
	rewardsService := services.NewRewardsService(db)
	walletService := services.NewWalletService(db)
	profileService := services.NewProfileService(db)
	notificationService := services.NewNotificationService(db)
	gamificationService := services.NewGamificationService(db, redisCache, cfg.Scheduler.LeaderboardCacheTTL)

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024,
	})

	// Only gateway requests are allowed, no exceptions.
	app.Use(middleware.GatewayAuthMiddleware(cfg.Gateway.ServiceToken))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-Service-Token, X-User-ID, X-User-Roles, X-User-Name",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	handlers.SetupSystemRoutes(app, profileService)
	handlers.SetupTaskRoutes(app, taskService)
	handlers.SetupVerificationRoutes(app, verificationService)
	handlers.SetupRewardsRoutes(app, rewardsService, walletService)
	handlers.SetupWalletRoutes(app, walletService)
	handlers.SetupGamificationRoutes(app, gamificationService)
	handlers.SetupProfileRoutes(app, profileService, notificationService)

	scheduler, err := services.StartScheduler(
		taskService,
		gamificationService,
		cfg.Scheduler.ExpirySweepInterval,
		cfg.Scheduler.LeaderboardRefreshInterval,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer scheduler.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	go func() {
		if err := app.Listen(addr); err != nil {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	log.Info().
		Int("port", cfg.Server.Port).
		Str("environment", cfg.Server.Environment).
		Msg("SaafSaksham service running")

	<-ctx.Done()
	log.Info().Msg("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func setupLogging(cfg appconfig.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
