package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"filevault/internal/pkg/jwt"
	"filevault/internal/pkg/response"
)

const (
	TenantIDKey = "tenant_id"
	SubjectKey  = "subject"
)

// TenantAuth resolves the caller's tenant from a bearer token and stores it
// under TenantIDKey. The tenant is never read from paths or request bodies.
func TenantAuth(j *jwt.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			response.Abort(c, http.StatusUnauthorized, "AUTH_HEADER_MISSING", "Missing Authorization header")
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Abort(c, http.StatusUnauthorized, "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'")
			return
		}

		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			response.Abort(c, http.StatusUnauthorized, "INVALID_TOKEN", "Empty token")
			return
		}

		claims, err := j.ValidateToken(tokenStr)
		if err != nil {
			code := "INVALID_TOKEN"
			if errors.Is(err, jwt.ErrNoTenant) {
				code = "TENANT_REQUIRED"
			}
			log.Printf("tenant_auth_failed request_id=%s reason=%s", requestID(c), code)
			response.Abort(c, http.StatusUnauthorized, code, "Invalid token")
			return
		}

		c.Set(TenantIDKey, claims.TenantID)
		c.Set(SubjectKey, claims.Subject)

		c.Next()
	}
}

// TenantID returns the tenant set by TenantAuth, or "".
func TenantID(c *gin.Context) string {
	return c.GetString(TenantIDKey)
}
