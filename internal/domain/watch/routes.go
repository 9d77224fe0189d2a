package watch

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the websocket endpoint. It authenticates on its
// own, so r must not carry the header-based tenant middleware.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws/files", h.Watch)
}
