package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TenantHeader is the request header that selects the tenant scope.
const TenantHeader = "X-Tenant-ID"

// MembershipChecker reports whether a user belongs to a tenant.
type MembershipChecker interface {
	IsMember(ctx context.Context, tenantID, userID string) (bool, error)
}

// RequireTenant returns Gin middleware that resolves the tenant scope
// from the X-Tenant-ID header and verifies the authenticated user is a
// member of that tenant. On success the tenant id is stored in the gin
// context under "tenant_id". It must run after AuthMiddleware.
func RequireTenant(members MembershipChecker, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(TenantHeader)
		if tenantID == "" {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Missing X-Tenant-ID header")
			return
		}
		if _, err := uuid.Parse(tenantID); err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid X-Tenant-ID header")
			return
		}

		userID := c.GetString("user_id")
		member, err := members.IsMember(c.Request.Context(), tenantID, userID)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"tenant_id":  tenantID,
				"request_id": c.GetString("request_id"),
			}).Error("membership check failed")
			respondError(c, http.StatusInternalServerError, "INTERNAL", "membership check failed")
			return
		}
		if !member {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "Not a member of this tenant")
			return
		}

		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// PermissionChecker reports whether a user's role in a tenant grants a
// permission code.
type PermissionChecker interface {
	HasPermission(ctx context.Context, tenantID, userID, code string) (bool, error)
}

// RequirePermission returns Gin middleware that enforces a single
// permission code for the resolved tenant scope. It must run after
// RequireTenant.
func RequirePermission(perms PermissionChecker, code string, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString("tenant_id")
		userID := c.GetString("user_id")

		granted, err := perms.HasPermission(c.Request.Context(), tenantID, userID, code)
		if err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"tenant_id":  tenantID,
				"permission": code,
				"request_id": c.GetString("request_id"),
			}).Error("permission check failed")
			respondError(c, http.StatusInternalServerError, "INTERNAL", "permission check failed")
			return
		}
		if !granted {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "Missing permission: "+code)
			return
		}

		c.Next()
	}
}
