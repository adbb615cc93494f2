package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saufi-opi/mini-emr/internal/models"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type tokenManager interface {
	IssueAccess(subject string, ttl time.Duration) (string, time.Time, error)
	IssueRefresh(subject string, ttl time.Duration) (string, string, error)
	Validate(token string) (*models.TokenClaims, bool)
	IsRevoked(ctx context.Context, token string) (bool, error)
	Revoke(ctx context.Context, token string) error
}

type passwordVerifier interface {
	Compare(hash, password string) error
}

// AuthConfig defines token lifetimes for authentication flows.
type AuthConfig struct {
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

// AuthService provides login, refresh and logout.
type AuthService struct {
	repo      authUserRepository
	tokens    tokenManager
	passwords passwordVerifier
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, tokens tokenManager, passwords passwordVerifier, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if passwords == nil {
		passwords = NewPasswordHasher(0)
	}
	return &AuthService{repo: repo, tokens: tokens, passwords: passwords, validator: validate, logger: logger, config: config}
}

// RefreshTTL exposes the refresh token lifetime for cookie expiry.
func (s *AuthService) RefreshTTL() time.Duration {
	return s.config.RefreshTokenExpiry
}

// Login verifies credentials and issues an access token plus a refresh token.
// Unknown email and wrong password are indistinguishable; the active flag is
// only checked once the password matched.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrInvalidLogin
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to fetch user")
	}

	if err := s.passwords.Compare(user.HashedPassword, req.Password); err != nil {
		return nil, appErrors.ErrInvalidLogin
	}

	if !user.IsActive {
		return nil, appErrors.ErrInactivePrincipal
	}

	accessToken, err := s.accessToken(user.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, jti, err := s.tokens.IssueRefresh(user.Email, s.config.RefreshTokenExpiry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to create refresh token")
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("jti", jti))

	return &models.Session{Token: *accessToken, RefreshToken: refreshToken, User: user}, nil
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// itself is not rotated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	if refreshToken == "" {
		return nil, appErrors.Clone(appErrors.ErrCredentialsRejected, "refresh token missing")
	}

	revoked, err := s.tokens.IsRevoked(ctx, refreshToken)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to check token revocation")
	}
	if revoked {
		return nil, appErrors.Clone(appErrors.ErrCredentialsRejected, "token is revoked")
	}

	claims, ok := s.tokens.Validate(refreshToken)
	if !ok || claims.Subject == "" || claims.Type != models.TokenTypeRefresh {
		return nil, appErrors.Clone(appErrors.ErrCredentialsRejected, "invalid refresh token")
	}

	user, err := s.repo.FindByEmail(ctx, claims.Subject)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to load user")
	}
	if user == nil || !user.IsActive {
		return nil, appErrors.Clone(appErrors.ErrCredentialsRejected, "user not found or inactive")
	}

	return s.accessToken(user.Email)
}

// Logout revokes whichever of the access and refresh tokens were presented.
func (s *AuthService) Logout(ctx context.Context, accessToken, refreshToken string) error {
	for _, token := range []string{accessToken, refreshToken} {
		if token == "" {
			continue
		}
		if err := s.tokens.Revoke(ctx, token); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal, "failed to revoke token")
		}
	}
	return nil
}

func (s *AuthService) accessToken(subject string) (*models.TokenResponse, error) {
	token, _, err := s.tokens.IssueAccess(subject, s.config.AccessTokenExpiry)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to create access token")
	}
	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
	}, nil
}
