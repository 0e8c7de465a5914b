package api

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/internal/auth"
	"github.com/accesspanel/accesspanel/internal/metrics"
	"github.com/accesspanel/accesspanel/internal/models"
)

// BootstrapTokenHeader authorizes bootstrap on a server that already
// has accounts.
const BootstrapTokenHeader = "X-Bootstrap-Token"

// dummyPasswordHash is compared against when the email is unknown, so
// both rejection paths cost one bcrypt verification.
var dummyPasswordHash = func() string {
	h, err := auth.HashPassword("not-a-real-password")
	if err != nil {
		panic(err)
	}
	return h
}()

// AuthHandler serves login, identity, and first-run bootstrap.
type AuthHandler struct {
	users          UserRepository
	tenants        TenantRepository
	tokens         TokenIssuer
	guard          LoginGuard
	bootstrapToken string
	log            *logrus.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	users UserRepository, tenants TenantRepository, tokens TokenIssuer,
	guard LoginGuard, bootstrapToken string, log *logrus.Logger,
) *AuthHandler {
	return &AuthHandler{
		users:          users,
		tenants:        tenants,
		tokens:         tokens,
		guard:          guard,
		bootstrapToken: bootstrapToken,
		log:            log,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "email and password are required")
		return
	}

	if h.guard.IsBlocked(req.Email) {
		respondError(c, http.StatusTooManyRequests, ErrCodeRateLimited, "Too many failed login attempts, try again later")
		return
	}

	creds, err := h.users.GetForLogin(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Burn one bcrypt verification so the unknown-email path is
			// not observably faster.
			auth.VerifyPassword(req.Password, dummyPasswordHash)
			h.rejectLogin(c, req.Email)
			return
		}

		h.log.WithError(err).Error("login lookup failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}

	if !auth.VerifyPassword(req.Password, creds.PasswordHash) {
		h.rejectLogin(c, req.Email)
		return
	}

	if !creds.IsActive {
		respondError(c, http.StatusForbidden, ErrCodeForbidden, "Inactive user")
		return
	}

	h.guard.Reset(req.Email)

	token, err := h.tokens.Issue(creds.ID)
	if err != nil {
		h.log.WithError(err).Error("issuing access token")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}

	tenants, err := h.tenants.ListForUser(c.Request.Context(), creds.ID)
	if err != nil {
		h.log.WithError(err).Error("listing tenants after login")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	if tenants == nil {
		tenants = []models.Tenant{}
	}

	h.log.WithFields(logrus.Fields{"action": "auth.login", "user_id": creds.ID}).Info("audit")

	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"user":    models.User{ID: creds.ID, Email: creds.Email},
		"tenants": tenants,
	})
}

// rejectLogin records the failure and answers with the one message both
// unknown-email and wrong-password paths share.
func (h *AuthHandler) rejectLogin(c *gin.Context, email string) {
	h.guard.RecordFailure(email)
	metrics.LoginFailures.Inc()
	respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid credentials")
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "User not found")
			return
		}

		h.log.WithError(err).Error("loading current user")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}

	tenants, err := h.tenants.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.log.WithError(err).Error("listing tenants for current user")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}
	if tenants == nil {
		tenants = []models.Tenant{}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":    user,
		"tenants": tenants,
	})
}

// Bootstrap handles POST /api/v1/auth/bootstrap. It creates the first
// tenant and its Owner account. Once any account exists, the call must
// carry the configured bootstrap token.
func (h *AuthHandler) Bootstrap(c *gin.Context) {
	var req models.BootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
		return
	}

	if !h.bootstrapAllowed(c) {
		respondError(c, http.StatusForbidden, ErrCodeForbidden, "Bootstrap is disabled")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.log.WithError(err).Error("hashing bootstrap password")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}

	res, err := h.tenants.Bootstrap(c.Request.Context(), req.TenantName, req.TenantSlug, req.Email, hash)
	if err != nil {
		if errors.Is(err, models.ErrDuplicateKey) {
			respondError(c, http.StatusConflict, ErrCodeConflict, "Tenant slug or email already exists")
			return
		}

		h.log.WithError(err).Error("bootstrap failed")
		respondError(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
		return
	}

	h.log.WithFields(logrus.Fields{
		"action":    "auth.bootstrap",
		"tenant_id": res.TenantID,
		"user_id":   res.UserID,
	}).Info("audit")

	c.JSON(http.StatusCreated, gin.H{
		"tenant": res.Tenant,
		"user":   res.User,
	})
}

// bootstrapAllowed reports whether this request may bootstrap: either it
// carries the configured bootstrap token, or no account exists yet.
func (h *AuthHandler) bootstrapAllowed(c *gin.Context) bool {
	if h.bootstrapToken != "" {
		presented := c.GetHeader(BootstrapTokenHeader)
		if presented != "" && subtle.ConstantTimeCompare([]byte(presented), []byte(h.bootstrapToken)) == 1 {
			return true
		}
	}

	count, err := h.users.CountUsers(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("counting users for bootstrap gate")
		return false
	}
	return count == 0
}
