package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tekmak/kys-backend/internal/handlers"
	"github.com/tekmak/kys-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	UserHandler         *handlers.UserHandler
	TankLeakTestHandler *handlers.TankLeakTestHandler
	AllowOrigins        []string
	ServiceName         string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "kys-backend"
	}
	router.Use(otelgin.Middleware(serviceName))
	router.Use(middleware.AttachTraceContext())

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/api/register", cfg.AuthHandler.Register)
	router.POST("/api/login", cfg.AuthHandler.Login)

	// Protected
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	protected.GET("/users/welders", cfg.UserHandler.ListWelders)
	// Tank leak tests
	protected.POST("/tank-leak-tests", cfg.TankLeakTestHandler.Create)
	protected.GET("/tank-leak-tests", cfg.TankLeakTestHandler.List)
	protected.GET("/tank-leak-tests/:id", cfg.TankLeakTestHandler.Get)
	protected.PATCH("/tank-leak-tests/:id", cfg.TankLeakTestHandler.Update)
	protected.DELETE("/tank-leak-tests/:id", cfg.TankLeakTestHandler.Delete)
	protected.POST("/tank-leak-tests/:id/images", cfg.TankLeakTestHandler.UploadImage)

	return router
}
