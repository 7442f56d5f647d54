// Package server configures the HTTP server, routes and dependency wiring.
package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/bizmatch-service/internal/config"
	"github.com/fleveque/bizmatch-service/internal/handler"
	"github.com/fleveque/bizmatch-service/internal/middleware"
)

// RegisterRoutes sets up all HTTP routes on the Gin engine.
// Dependencies are passed explicitly — no DI container, no magic.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps Deps, logger *zap.Logger) {
	healthHandler := handler.NewHealthHandler()
	queryHandler := handler.NewQueryHandler(deps.Resolver, logger)

	// Public endpoints (no auth)
	r.GET("/healthz", healthHandler.Healthz)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		// The query endpoint is public; the prompt can also ride in the
		// path: POST /api/v1/query/plumber%20near%20me
		api.POST("/query", queryHandler.Resolve)
		api.POST("/query/:prompt", queryHandler.Resolve)
	}

	// Card extraction requires a vision-capable provider and is bearer-token
	// authenticated — its callers are other services, not browsers.
	if deps.CardService != nil {
		cardHandler := handler.NewCardHandler(deps.CardService, logger)
		card := api.Group("/card")
		card.Use(middleware.BearerAuth(cfg.Auth.CardTokens))
		{
			card.POST("", cardHandler.Extract)
		}
	}
}
