package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/internal/metrics"
	"github.com/accesspanel/accesspanel/internal/middleware"
	"github.com/accesspanel/accesspanel/internal/models"
	"github.com/accesspanel/accesspanel/internal/ws"
)

// getUserID extracts the authenticated user ID from the Gin context.
func getUserID(c *gin.Context) string {
	uid := c.GetString("user_id")

	if _, err := uuid.Parse(uid); err != nil {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Not authenticated")

		return ""
	}

	return uid
}

// getTenantID extracts the active tenant ID from the Gin context and
// validates it is a proper UUID.
func getTenantID(c *gin.Context) string {
	tid := c.GetString("tenant_id")

	if _, err := uuid.Parse(tid); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, "invalid tenant id")

		return ""
	}

	return tid
}

// auditNotifier fans fresh audit entries out to live tail subscribers.
type auditNotifier struct {
	hub *ws.Hub
	log *logrus.Logger
}

func newAuditNotifier(hub *ws.Hub, log *logrus.Logger) *auditNotifier {
	return &auditNotifier{hub: hub, log: log}
}

// notify pushes an already-committed audit entry to the tenant's tail
// subscribers. Delivery is best-effort; the entry is durable in the
// database regardless.
func (n *auditNotifier) notify(tenantID string, entry *models.AuditEntry) {
	if n == nil || entry == nil {
		return
	}

	metrics.AuditEntriesWritten.Inc()

	if n.hub == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		n.log.WithError(err).Error("marshalling audit entry for broadcast")
		return
	}

	n.hub.BroadcastEvent(ws.EventAuditEntry, tenantID, data)
}

// Audit page size bounds.
const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

func parseLimit(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultAuditLimit
	}

	if v > maxAuditLimit {
		return maxAuditLimit
	}

	return v
}

func wsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, corsOrigins []string, validator ws.MembershipValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := getTenantID(c)
		userID := getUserID(c)
		if tenantID == "" || userID == "" {
			return
		}

		// CORS origins are reused as WebSocket origin patterns. The config
		// validator ensures these are safe host patterns (no wildcards etc.).
		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			log.WithError(err).Error("websocket accept failed")

			return
		}

		client := ws.NewClient(hub, conn, validator, tenantID, userID)
		hub.Register(client)

		// Derive a context that cancels when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
		wsCancel()
	}
}

func ginLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"client":   c.ClientIP(),
		}
		if rid, exists := c.Get(middleware.RequestIDKey); exists {
			fields["request_id"] = rid
		}
		if tid := c.GetString("tenant_id"); tid != "" {
			fields["tenant_id"] = tid
		}
		log.WithFields(fields).Info("request")
	}
}
