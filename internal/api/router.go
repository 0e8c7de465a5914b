package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/accesspanel/accesspanel/internal/auth"
	"github.com/accesspanel/accesspanel/internal/dbpool"
	"github.com/accesspanel/accesspanel/internal/middleware"
	"github.com/accesspanel/accesspanel/internal/security"
	"github.com/accesspanel/accesspanel/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log            *logrus.Logger
	Pool           *dbpool.Pool
	Hub            *ws.Hub
	Users          UserRepository
	Tenants        TenantRepository
	Members        MemberRepository
	Roles          RoleRepository
	Audit          AuditRepository
	Memberships    middleware.MembershipChecker
	Perms          middleware.PermissionChecker
	Tokens         *auth.TokenIssuer
	CORSOrigins    []string
	Version        string
	BootstrapToken string
}

// Router-level limits.
const (
	maxBodySize = 10 << 20 // 10 MB
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization", middleware.TenantHeader, BootstrapTokenHeader},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	bfGuard := security.NewBruteForceGuard(ctx, log)
	notifier := newAuditNotifier(deps.Hub, log)

	health := NewHealthHandler(deps.Pool, deps.Hub, log, deps.Version)
	authH := NewAuthHandler(deps.Users, deps.Tenants, deps.Tokens, bfGuard, deps.BootstrapToken, log)
	tenants := NewTenantHandler(deps.Tenants, log)
	members := NewMemberHandler(deps.Members, notifier, log)
	roles := NewRoleHandler(deps.Roles, notifier, log)
	audit := NewAuditHandler(deps.Audit, log)

	// Health, readiness, login, and first-run bootstrap are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)
	api.POST("/auth/login", authH.Login)
	api.POST("/auth/bootstrap", authH.Bootstrap)

	// Everything else requires a valid access token.
	authed := api.Group("", middleware.AuthMiddleware(deps.Tokens, deps.Users, log))

	authed.GET("/auth/me", authH.Me)
	authed.GET("/tenants", tenants.List)
	authed.GET("/permissions", roles.Permissions)

	// Tenant-scoped routes additionally require the X-Tenant-ID header
	// and a membership in that tenant. The membership verdict is cached
	// briefly to keep header checks off the hot path.
	cachedMembers := middleware.NewCachedMembership(ctx, deps.Memberships)
	tenant := authed.Group("", middleware.RequireTenant(cachedMembers, log))

	tenant.GET("/members", middleware.RequirePermission(deps.Perms, "members:read", log), members.List)
	tenant.POST("/members", middleware.RequirePermission(deps.Perms, "members:write", log), members.Create)

	tenant.GET("/roles", middleware.RequirePermission(deps.Perms, "roles:read", log), roles.List)
	tenant.POST("/roles", middleware.RequirePermission(deps.Perms, "roles:write", log), roles.Create)
	tenant.PATCH("/roles/:id", middleware.RequirePermission(deps.Perms, "roles:write", log), roles.Update)

	tenant.GET("/audit", middleware.RequirePermission(deps.Perms, "audit:read", log), audit.Query)
	tenant.GET("/audit/tail", middleware.RequirePermission(deps.Perms, "audit:read", log),
		wsHandler(ctx, log, deps.Hub, deps.CORSOrigins, cachedMembers))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
