package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/internal/models"
)

// TenantHandler serves tenant listings.
type TenantHandler struct {
	repo TenantRepository
	log  *logrus.Logger
}

// NewTenantHandler creates a TenantHandler.
func NewTenantHandler(repo TenantRepository, log *logrus.Logger) *TenantHandler {
	return &TenantHandler{repo: repo, log: log}
}

// List handles GET /api/v1/tenants. It returns the tenants the
// authenticated user belongs to, each with the user's role.
func (h *TenantHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		return
	}

	tenants, err := h.repo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.log.WithError(err).Error("listing tenants")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	if tenants == nil {
		tenants = []models.Tenant{}
	}

	c.JSON(http.StatusOK, tenants)
}
