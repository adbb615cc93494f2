package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/saufi-opi/mini-emr/internal/models"
	"github.com/saufi-opi/mini-emr/pkg/response"
)

// Authorizer decides whether a principal holds one of the given roles.
type Authorizer interface {
	Authorize(user *models.User, roles ...models.UserRole) error
}

// RequireRoles admits the current user only when they hold one of roles.
func RequireRoles(guard Authorizer, roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := MustCurrentUser(c)
		if !ok {
			return
		}
		if err := guard.Authorize(user, roles...); err != nil {
			response.Abort(c, err)
			return
		}
		c.Next()
	}
}
