package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/tekmak/kys-backend/internal/db"
	"github.com/tekmak/kys-backend/internal/handlers"
	"github.com/tekmak/kys-backend/internal/logger"
	"github.com/tekmak/kys-backend/internal/middleware"
	"github.com/tekmak/kys-backend/internal/observability"
	"github.com/tekmak/kys-backend/internal/repos"
	"github.com/tekmak/kys-backend/internal/server"
	"github.com/tekmak/kys-backend/internal/services"
	"github.com/tekmak/kys-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "kys-backend",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	if shutdownOTel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOTel(ctx); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	leakTestCfg := services.LeakTestConfig{
		DefaultPressureUnit:           utils.GetEnv("LEAK_TEST_PRESSURE_UNIT", "bar", log),
		DefaultDurationUnit:           utils.GetEnv("LEAK_TEST_DURATION_UNIT", "minutes", log),
		DefaultMaxAllowedPressureDrop: utils.GetEnvAsFloat("LEAK_TEST_MAX_PRESSURE_DROP", 0.5, log),
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	tankLeakTestRepo := repos.NewTankLeakTestRepo(thePG, log)

	// Services
	log.Info("Setting up services from main...")
	alertService := services.NewAlertService(log)
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService, image uploads disabled", "error", err)
		bucketService = nil
	}
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	leakTestService := services.NewLeakTestService(thePG, log, leakTestCfg, tankLeakTestRepo, userRepo, alertService)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	tankLeakTestHandler := handlers.NewTankLeakTestHandler(log, leakTestService, bucketService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	var allowOrigins []string
	if raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowOrigins = append(allowOrigins, trimmed)
			}
		}
	}
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:         authHandler,
		AuthMiddleware:      authMiddleware,
		UserHandler:         userHandler,
		TankLeakTestHandler: tankLeakTestHandler,
		AllowOrigins:        allowOrigins,
		ServiceName:         "kys-backend",
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
