package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saufi-opi/mini-emr/internal/middleware"
	"github.com/saufi-opi/mini-emr/internal/models"
	"github.com/saufi-opi/mini-emr/pkg/middleware/ratelimit"
)

// Guard authenticates bearer tokens and checks roles.
type Guard interface {
	middleware.Authenticator
	middleware.Authorizer
}

// Handlers groups the endpoint handlers mounted by RegisterRoutes.
type Handlers struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Diagnoses     *DiagnosisHandler
	Consultations *ConsultationHandler
	Metrics       *MetricsHandler
}

// RouteConfig carries the cross-cutting collaborators of the route table.
type RouteConfig struct {
	APIPrefix string
	Guard     Guard
	// Limiter may be nil to disable rate limiting.
	Limiter *ratelimit.Limiter
	Logger  *zap.Logger
}

// NewEngine returns a bare engine that reads X-Forwarded-For and X-Real-IP only
// from the listed proxies. With none listed the client address is the socket peer.
func NewEngine(trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	return r, nil
}

func perRoute(c *gin.Context) string {
	return ratelimit.ClientIP(c) + ":" + c.FullPath()
}

// RegisterRoutes mounts every endpoint on r.
func RegisterRoutes(r gin.IRouter, cfg RouteConfig, h Handlers) {
	r.GET("/", h.Metrics.Root)
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	limit := func(rule ratelimit.Rule) gin.HandlerFunc {
		return cfg.Limiter.Middleware(rule, perRoute)
	}
	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(cfg.Logger, action, resource)
	}
	adminOnly := middleware.RequireRoles(cfg.Guard, models.RoleAdmin)

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", limit(ratelimit.PerHour("login", 1000)), audit(models.AuditActionLogin, "session"), h.Auth.Login)
	auth.POST("/refresh", limit(ratelimit.PerMinute("refresh", 30)), h.Auth.Refresh)
	auth.POST("/logout", limit(ratelimit.PerMinute("logout", 30)), audit(models.AuditActionLogout, "session"), h.Auth.Logout)

	protected := api.Group("", limit(ratelimit.PerMinute("api", 60)), middleware.JWT(cfg.Guard))

	users := protected.Group("/users")
	users.GET("/me", h.Users.Me)
	users.GET("", adminOnly, h.Users.List)
	users.POST("", adminOnly, audit(models.AuditActionUserCreate, "user"), h.Users.Create)
	users.GET("/:id", adminOnly, h.Users.Get)
	users.PATCH("/:id", adminOnly, audit(models.AuditActionUserUpdate, "user"), h.Users.Update)

	diagnoses := protected.Group("/diagnosis")
	diagnoses.GET("", h.Diagnoses.List)
	diagnoses.POST("", adminOnly, h.Diagnoses.Create)
	diagnoses.GET("/:id", h.Diagnoses.Get)

	consultations := protected.Group("/consultation")
	consultations.POST("", audit(models.AuditActionConsultationCreate, "consultation"), h.Consultations.Create)
	consultations.GET("", h.Consultations.List)
	consultations.GET("/:id", h.Consultations.Get)
	consultations.GET("/:id/export", audit(models.AuditActionConsultationExport, "consultation"), h.Consultations.Export)

	protected.GET("/metrics/summary", adminOnly, h.Metrics.Summary)
}
