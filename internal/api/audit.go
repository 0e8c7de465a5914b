package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/internal/models"
)

// AuditHandler serves the audit log retrieval endpoint. The live tail
// WebSocket is wired separately through wsHandler.
type AuditHandler struct {
	repo AuditRepository
	log  *logrus.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(repo AuditRepository, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, log: log}
}

// Query handles GET /api/v1/audit. Results are keyset-paginated over
// (created_at DESC, id DESC); the next_cursor field is empty on the
// final page.
func (h *AuditHandler) Query(c *gin.Context) {
	tenantID := getTenantID(c)
	userID := getUserID(c)
	if tenantID == "" || userID == "" {
		return
	}

	cursor, err := models.DecodeAuditCursor(c.Query("cursor"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "Invalid cursor")
		return
	}

	opts := models.AuditQueryOpts{
		Q:          c.Query("q"),
		EntityType: c.Query("entity_type"),
		Limit:      parseLimit(c.Query("limit")),
		Cursor:     cursor,
	}

	page, err := h.repo.Query(c.Request.Context(), tenantID, userID, opts)
	if err != nil {
		h.log.WithError(err).Error("querying audit log")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	if page.Items == nil {
		page.Items = []models.AuditEntry{}
	}

	c.JSON(http.StatusOK, page)
}
