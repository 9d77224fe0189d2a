package files

import "github.com/gin-gonic/gin"

// RegisterRoutes registers file routes under a tenant-authenticated group.
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	files := r.Group("/files")
	{
		files.GET("", h.List)
		files.DELETE("", h.Delete)
		files.GET("/stat", h.Stat)
		files.POST("/folders", h.CreateFolder)
		files.GET("/content", h.Content)
		files.GET("/download", h.Download)
		files.POST("/upload", h.Upload)
		files.POST("/archive", h.Archive)
	}
}
