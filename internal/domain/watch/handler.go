package watch

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"filevault/internal/pkg/jwt"
	"filevault/internal/pkg/response"
)

type Handler struct {
	hub      *Hub
	jwt      *jwt.Service
	upgrader websocket.Upgrader
}

// NewHandler builds the watch endpoint. allowOrigin decides the upgrade's
// Origin check; nil accepts any origin.
func NewHandler(hub *Hub, j *jwt.Service, allowOrigin func(origin string) bool) *Handler {
	return &Handler{
		hub: hub,
		jwt: j,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowOrigin == nil || origin == "" || allowOrigin(origin)
			},
		},
	}
}

// Watch godoc
// @Summary Stream file change events for the caller's tenant
// @Description Browsers cannot set headers on websocket requests, so the token travels as a query parameter.
// @Tags Files
// @Param token query string true "Tenant JWT"
// @Router /ws/files [get]
func (h *Handler) Watch(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "AUTH_TOKEN_MISSING", "token query parameter is required")
		return
	}
	claims, err := h.jwt.ValidateToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("watch_upgrade_failed tenant=%s error=%v", claims.TenantID, err)
		return
	}

	log.Printf("watch_connected tenant=%s subject=%s", claims.TenantID, claims.Subject)
	h.hub.ServeWS(conn, claims.TenantID)
	log.Printf("watch_disconnected tenant=%s subject=%s", claims.TenantID, claims.Subject)
}
