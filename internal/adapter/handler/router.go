package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/callscopehq/callscope/internal/infrastructure/http/middleware"
	"github.com/callscopehq/callscope/pkg/config"
	"github.com/callscopehq/callscope/pkg/jwt"
)

// Router holds all handlers
type Router struct {
	cfg                  *config.Config
	jwtManager           *jwt.Manager
	transcriptionHandler *Transcription
}

// NewRouter creates a new router with all handlers
func NewRouter(cfg *config.Config, jwtManager *jwt.Manager, transcriptionHandler *Transcription) *Router {
	return &Router{
		cfg:                  cfg,
		jwtManager:           jwtManager,
		transcriptionHandler: transcriptionHandler,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", rt.healthCheck)

	// API v1 group
	v1 := e.Group("/v1")

	rt.setupCallRoutes(v1)
}

// setupCallRoutes configures the transcription routes under /v1/calls
func (rt *Router) setupCallRoutes(g *echo.Group) {
	calls := g.Group("/calls", middleware.EchoAuth(rt.jwtManager))

	calls.POST("/:id/transcribe", rt.transcriptionHandler.Transcribe)
	calls.GET("/:id/transcription/status", rt.transcriptionHandler.Status)
	calls.POST("/:id/transcription/cancel", rt.transcriptionHandler.Cancel)
}

// healthCheck returns health status
func (rt *Router) healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":      "ok",
		"time":        time.Now().Format(time.RFC3339),
		"environment": rt.cfg.Server.Environment,
	})
}
