package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"annotate-backend/internal/annotations"
	"annotate-backend/internal/documents"
	"annotate-backend/internal/realtime"
	"annotate-backend/internal/shared/config"
	"annotate-backend/internal/shared/metrics"
	"annotate-backend/internal/shared/server/middleware"
	"annotate-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config             config.Config
	DocumentsHandler   *documents.Handler
	AnnotationsHandler *annotations.Handler
	RealtimeHandler    *realtime.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	authed := api.Group("", middleware.Auth(), middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			"DEFAULT": {Rate: 20, Burst: 40},
			"UPLOAD":  {Rate: 0.5, Burst: 5},
		},
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/documents" {
				return "UPLOAD"
			}
			return "DEFAULT"
		},
	}))
	deps.DocumentsHandler.RegisterRoutes(authed)
	deps.AnnotationsHandler.RegisterRoutes(authed)

	// Websocket upgrades authenticate inside the handler (token query
	// parameter) because browsers cannot set headers on ws requests.
	r.GET("/ws", deps.RealtimeHandler.Serve)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
