// Package api contains the API routes for the Expedientes API
package api

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/stratandtax/expedientesapi/internal/api/handlers"
	"github.com/stratandtax/expedientesapi/internal/api/middleware"
	"github.com/stratandtax/expedientesapi/internal/catalog"
	"github.com/stratandtax/expedientesapi/internal/config"
	"github.com/stratandtax/expedientesapi/internal/docgen"
	"github.com/stratandtax/expedientesapi/internal/repository"
	"github.com/stratandtax/expedientesapi/internal/service"
	"github.com/stratandtax/expedientesapi/pkg/utils/response"
)

// SetupRoutes configures the routes for the API
func SetupRoutes(e *echo.Echo, cfg *config.Config, db *gorm.DB, redisClient *redis.Client) error {
	sessionStore := repository.NewRedisSessionStore(redisClient)
	sessionService, err := service.NewSessionService(sessionStore, cfg.AdminPairs())
	if err != nil {
		return fmt.Errorf("failed to init session service: %v", err)
	}

	servicios, err := catalog.Load(cfg.ServicesFile)
	if err != nil {
		return fmt.Errorf("failed to load services catalog: %v", err)
	}

	expedienteService := service.NewExpedienteService(
		servicios,
		docgen.NewRenderer(cfg.TemplatesDir),
		service.NewMailerService(cfg),
		repository.NewMontoRepository(db),
	)

	authRequired := middleware.AuthMiddleware(sessionService)

	// Index route
	e.GET("/api/", indexRoute(cfg))

	// Session routes
	sessionHandler := handlers.NewSessionHandler(sessionService)
	e.POST("/login", sessionHandler.Login)
	e.POST("/logout", sessionHandler.Logout, authRequired)

	// Expediente route (protected)
	expedienteHandler := handlers.NewExpedienteHandler(expedienteService, cfg)
	e.POST("/generate-word", expedienteHandler.GenerateWord, authRequired)

	return nil
}

// indexRoute sets up the index route for the API
func indexRoute(cfg *config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		message := fmt.Sprintf("%s %s", cfg.APIName, cfg.APIVersion)
		return response.SuccessResponse(c, message)
	}
}
