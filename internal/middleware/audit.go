package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saufi-opi/mini-emr/internal/models"
)

const auditResourceKey = "auditResourceID"

// SetAuditResource records the id of the resource a handler created or touched.
func SetAuditResource(c *gin.Context, id string) {
	c.Set(auditResourceKey, id)
}

// Audit emits a structured audit entry after successful requests.
func Audit(logger *zap.Logger, action, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if c.Writer.Status() >= 400 {
			return
		}

		event := models.AuditEvent{
			Action:     action,
			Resource:   resource,
			ResourceID: c.Param("id"),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.GetHeader("User-Agent"),
			Status:     c.Writer.Status(),
		}
		if id := c.GetString(auditResourceKey); id != "" {
			event.ResourceID = id
		}
		if user, ok := CurrentUser(c); ok {
			event.UserID = user.ID
		}

		logger.Info("audit",
			zap.String("action", event.Action),
			zap.String("resource", event.Resource),
			zap.String("resource_id", event.ResourceID),
			zap.String("user_id", event.UserID),
			zap.String("ip", event.IPAddress),
			zap.String("user_agent", event.UserAgent),
			zap.Int("status", event.Status),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
