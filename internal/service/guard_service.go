package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/saufi-opi/mini-emr/internal/models"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
)

type tokenVerifier interface {
	Validate(token string) (*models.TokenClaims, bool)
	IsRevoked(ctx context.Context, token string) (bool, error)
}

type principalRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// GuardService resolves bearer tokens to principals and enforces access rules.
type GuardService struct {
	tokens tokenVerifier
	users  principalRepository
	logger *zap.Logger
}

// NewGuardService constructs a GuardService.
func NewGuardService(tokens tokenVerifier, users principalRepository, logger *zap.Logger) *GuardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GuardService{tokens: tokens, users: users, logger: logger}
}

// Authenticate maps an access token to its user. Every credential problem yields
// the same rejection so callers cannot tell which check failed.
func (g *GuardService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, appErrors.ErrCredentialsRejected
	}
	claims, ok := g.tokens.Validate(token)
	if !ok || claims.Subject == "" || claims.Type != models.TokenTypeAccess {
		return nil, appErrors.ErrCredentialsRejected
	}

	revoked, err := g.tokens.IsRevoked(ctx, token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to check token revocation")
	}
	if revoked {
		return nil, appErrors.ErrCredentialsRejected
	}

	user, err := g.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrCredentialsRejected
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to load principal")
	}
	return user, nil
}

// RequireActive rejects deactivated principals.
func (g *GuardService) RequireActive(user *models.User) error {
	if user == nil {
		return appErrors.ErrCredentialsRejected
	}
	if !user.IsActive {
		return appErrors.ErrInactivePrincipal
	}
	return nil
}

// Authorize requires user to hold one of roles.
func (g *GuardService) Authorize(user *models.User, roles ...models.UserRole) error {
	if !user.HasRole(roles...) {
		return appErrors.ErrForbidden
	}
	return nil
}
