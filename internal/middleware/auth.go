package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/internal/models"
)

// authTimingFloor is the minimum response time for auth failures to prevent
// timing oracle attacks that could distinguish valid from invalid tokens.
const authTimingFloor = 50 * time.Millisecond

// TokenVerifier validates a bearer token and returns the subject user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserSource loads the account behind a validated token.
type UserSource interface {
	GetByID(ctx context.Context, userID string) (*models.User, error)
}

// enforceTimingFloor sleeps if needed so the response takes at least authTimingFloor.
func enforceTimingFloor(start time.Time) {
	if elapsed := time.Since(start); elapsed < authTimingFloor {
		time.Sleep(authTimingFloor - elapsed)
	}
}

// AuthMiddleware returns Gin middleware that authenticates requests via a
// bearer access token. On success the acting user's id is stored in the
// gin context under "user_id".
func AuthMiddleware(tokens TokenVerifier, users UserSource, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if c.Writer.Status() == http.StatusUnauthorized {
				enforceTimingFloor(start)
			}
		}()

		token := ExtractBearerToken(c)
		if token == "" {
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
			return
		}

		userID, err := tokens.Verify(token)
		if err != nil {
			logAuthFailure(log, c, "invalid or expired token")
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid token")
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			logAuthFailure(log, c, "token subject not found")
			respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "User not found")
			return
		}
		if !user.IsActive {
			respondError(c, http.StatusForbidden, "FORBIDDEN", "Inactive user")
			return
		}

		c.Set("user_id", user.ID)
		c.Next()
	}
}

// ExtractBearerToken extracts the access token from the Authorization header.
func ExtractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

// logAuthFailure logs a failed authentication attempt.
func logAuthFailure(log *logrus.Logger, c *gin.Context, reason string) {
	log.WithFields(logrus.Fields{
		"client_ip":  c.ClientIP(),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
		"user_agent": c.Request.UserAgent(),
		"request_id": c.GetString("request_id"),
	}).Warnf("authentication failed: %s", reason)
}
