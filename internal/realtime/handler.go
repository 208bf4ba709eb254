package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"annotate-backend/internal/shared/metrics"
	"annotate-backend/internal/shared/server/middleware"
	"annotate-backend/internal/shared/server/respond"
	"annotate-backend/internal/shared/telemetry"
)

// Handler upgrades authenticated HTTP requests to websocket connections and
// attaches them to the hub.
type Handler struct {
	Hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler constructs a Handler that accepts the given origins.
func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Handler{
		Hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
	}
}

// Serve handles GET /ws. Browsers cannot set headers on websocket requests,
// so the credential is also accepted as a token query parameter.
func (h *Handler) Serve(c *gin.Context) {
	claims, err := middleware.ClaimsFromRequest(c.Request)
	if err != nil {
		respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "missing or invalid token", nil)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		telemetry.Warn("realtime.upgrade", map[string]any{"err": err.Error()})
		return
	}

	client := newClient(h.Hub, conn, claims.Sub)
	metrics.IncWSConnections()

	go client.writePump()
	go client.readPump()
}
