package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/saufi-opi/mini-emr/internal/models"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
	"github.com/saufi-opi/mini-emr/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated *models.User.
const ContextUserKey = "currentUser"

// Authenticator resolves bearer tokens to active principals.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
	RequireActive(user *models.User) error
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) string {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// JWT protects routes by requiring a valid access token held by an active user.
func JWT(guard Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := guard.Authenticate(c.Request.Context(), BearerToken(c))
		if err != nil {
			response.Abort(c, err)
			return
		}
		if err := guard.RequireActive(user); err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the principal stored by JWT.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}

// MustCurrentUser is CurrentUser for routes behind JWT; it aborts with 401 when no user is set.
func MustCurrentUser(c *gin.Context) (*models.User, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		response.Abort(c, appErrors.ErrCredentialsRejected)
	}
	return user, ok
}
