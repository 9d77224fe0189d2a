package activity

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"filevault/internal/middleware"
	"filevault/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List godoc
// @Summary Recent file activity for the caller's tenant
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Max events (default 50, max 200)"
// @Success 200 {object} map[string]interface{}
// @Router /files/activity [get]
func (h *Handler) List(c *gin.Context) {
	tenant := middleware.TenantID(c)
	if tenant == "" {
		response.Error(c, http.StatusUnauthorized, "TENANT_REQUIRED", "tenant required")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	events, err := h.service.Recent(c.Request.Context(), tenant, limit)
	if err != nil {
		log.Printf("activity_list_failed tenant=%s error=%v", tenant, err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to load activity")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": events})
}
