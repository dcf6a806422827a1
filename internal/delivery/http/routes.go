package http

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/lookboard/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger zerolog.Logger) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	api := router.Group("/api")
	api.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		api.GET("/regions", handler.ListRegions)

		products := api.Group("/products")
		{
			products.POST("/scrape-url", handler.ScrapeURL)
			products.POST("/search-retailers", handler.SearchRetailers)
			products.POST("/similar", handler.SuggestSimilar)
			products.POST("/enrich", handler.Enrich)
		}
	}

	return router
}
