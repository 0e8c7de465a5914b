package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/internal/models"
)

// RoleHandler serves the role editor and permission catalogue endpoints.
type RoleHandler struct {
	repo  RoleRepository
	audit *auditNotifier
	log   *logrus.Logger
}

// NewRoleHandler creates a RoleHandler.
func NewRoleHandler(repo RoleRepository, audit *auditNotifier, log *logrus.Logger) *RoleHandler {
	return &RoleHandler{repo: repo, audit: audit, log: log}
}

// List handles GET /api/v1/roles.
func (h *RoleHandler) List(c *gin.Context) {
	tenantID := getTenantID(c)
	userID := getUserID(c)
	if tenantID == "" || userID == "" {
		return
	}

	roles, err := h.repo.List(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.log.WithError(err).Error("listing roles")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	if roles == nil {
		roles = []models.Role{}
	}

	c.JSON(http.StatusOK, roles)
}

// Create handles POST /api/v1/roles.
func (h *RoleHandler) Create(c *gin.Context) {
	var req models.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		return
	}

	tenantID := getTenantID(c)
	userID := getUserID(c)
	if tenantID == "" || userID == "" {
		return
	}

	role, entry, err := h.repo.Create(c.Request.Context(), tenantID, userID, &req)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			respondError(c, http.StatusConflict, ErrCodeConflict, "A role with this name already exists")
			return
		}

		h.log.WithError(err).Error("creating role")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}

	h.audit.notify(tenantID, entry)
	h.log.WithFields(logrus.Fields{
		"action":    "role.created",
		"tenant_id": tenantID,
		"role_id":   role.ID,
	}).Info("audit")

	c.JSON(http.StatusCreated, role)
}

// Update handles PATCH /api/v1/roles/:id. Nil fields in the request
// leave the corresponding attribute unchanged.
func (h *RoleHandler) Update(c *gin.Context) {
	roleID := c.Param("id")

	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		return
	}

	tenantID := getTenantID(c)
	userID := getUserID(c)
	if tenantID == "" || userID == "" {
		return
	}

	role, entry, err := h.repo.Update(c.Request.Context(), tenantID, userID, roleID, &req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRoleNotFound):
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "Role not found")
		case errors.Is(err, models.ErrSystemRole):
			respondError(c, http.StatusForbidden, ErrCodeForbidden, "Cannot modify a system role")
		case errors.Is(err, models.ErrDuplicateKey):
			respondError(c, http.StatusConflict, ErrCodeConflict, "A role with this name already exists")
		default:
			h.log.WithError(err).Error("updating role")
			respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		}
		return
	}

	h.audit.notify(tenantID, entry)
	h.log.WithFields(logrus.Fields{
		"action":    "role.updated",
		"tenant_id": tenantID,
		"role_id":   role.ID,
	}).Info("audit")

	c.JSON(http.StatusOK, role)
}

// Permissions handles GET /api/v1/permissions. The catalogue is global;
// only authentication is required.
func (h *RoleHandler) Permissions(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		return
	}

	perms, err := h.repo.ListPermissions(c.Request.Context(), userID)
	if err != nil {
		h.log.WithError(err).Error("listing permissions")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	if perms == nil {
		perms = []models.Permission{}
	}

	c.JSON(http.StatusOK, perms)
}
