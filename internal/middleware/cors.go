package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AllowedOrigins returns the origin check shared by CORS and the websocket
// upgrade. Local dev origins are always allowed; extra is a comma-separated
// list from configuration.
func AllowedOrigins(extra string) func(origin string) bool {
	allowed := map[string]bool{
		"http://localhost:3000": true,
		"http://localhost:5173": true,
		"http://127.0.0.1:3000": true,
		"http://127.0.0.1:5173": true,
	}
	for _, o := range strings.Split(extra, ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			allowed[o] = true
		}
	}
	return func(origin string) bool { return allowed[origin] }
}

// CORS reflects allowed origins.
func CORS(extra string) gin.HandlerFunc {
	isAllowed := AllowedOrigins(extra)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		if origin != "" && isAllowed(origin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		c.Writer.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, Content-Length, Authorization, Accept, Origin, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods",
			"GET, POST, DELETE, OPTIONS")
		// Browsers hide these from scripts unless exposed.
		c.Writer.Header().Set("Access-Control-Expose-Headers",
			"Content-Disposition, Content-Length, X-Request-ID, X-Archive-Skipped")
		c.Writer.Header().Set("Access-Control-Max-Age", "600")

		// Preflight must finish before the tenant middleware runs.
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
