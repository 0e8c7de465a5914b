package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/internal/auth"
	"github.com/accesspanel/accesspanel/internal/models"
)

// MemberHandler serves tenant membership endpoints.
type MemberHandler struct {
	repo  MemberRepository
	audit *auditNotifier
	log   *logrus.Logger
}

// NewMemberHandler creates a MemberHandler.
func NewMemberHandler(repo MemberRepository, audit *auditNotifier, log *logrus.Logger) *MemberHandler {
	return &MemberHandler{repo: repo, audit: audit, log: log}
}

// List handles GET /api/v1/members.
func (h *MemberHandler) List(c *gin.Context) {
	tenantID := getTenantID(c)
	userID := getUserID(c)
	if tenantID == "" || userID == "" {
		return
	}

	members, err := h.repo.List(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.log.WithError(err).Error("listing members")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	if members == nil {
		members = []models.MemberRow{}
	}

	c.JSON(http.StatusOK, members)
}

// Create handles POST /api/v1/members. It upserts the user account and
// adds a membership, auditing the change in the same transaction.
func (h *MemberHandler) Create(c *gin.Context) {
	var req models.CreateMemberRequest
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

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.WithError(err).Error("hashing member password")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}

	created, entry, err := h.repo.Create(c.Request.Context(), tenantID, userID, &req, hash)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadyMember):
			respondError(c, http.StatusConflict, ErrCodeConflict, "Already a member")
		case errors.Is(err, models.ErrRoleNotFound):
			respondError(c, http.StatusNotFound, ErrCodeNotFound, "Role not found")
		default:
			h.log.WithError(err).Error("creating member")
			respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		}
		return
	}

	h.audit.notify(tenantID, entry)
	h.log.WithFields(logrus.Fields{
		"action":        "member.created",
		"tenant_id":     tenantID,
		"membership_id": created.ID,
	}).Info("audit")

	c.JSON(http.StatusCreated, created)
}
