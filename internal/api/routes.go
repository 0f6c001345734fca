package api

import (
	"github.com/gin-gonic/gin"

	"github.com/chifu1234/gdnsd/internal/api/handlers"
	"github.com/chifu1234/gdnsd/internal/api/middleware"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, apiKey string) {
	api := r.Group("/api/v1")

	// Optional API key protection.
	if apiKey != "" {
		api.Use(middleware.RequireAPIKey(apiKey))
	}

	api.GET("/health", h.Health)
	api.GET("/stats", h.Stats)

	api.GET("/resources", h.ListResources)
	api.GET("/resources/:name", h.GetResource)

	api.GET("/monitors", h.ListMonitors)
	api.PUT("/monitors/:index", h.SetMonitor)
}
