package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saufi-opi/mini-emr/internal/models"
)

// RevocationStore persists revoked token keys until they expire.
type RevocationStore interface {
	Put(ctx context.Context, key string, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
}

// TokenService issues, validates and revokes HS256 signed tokens.
type TokenService struct {
	store  RevocationStore
	secret []byte
	now    func() time.Time
	logger *zap.Logger
}

// NewTokenService constructs a TokenService signing with secret.
func NewTokenService(store RevocationStore, secret string, logger *zap.Logger) *TokenService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenService{store: store, secret: []byte(secret), now: time.Now, logger: logger}
}

// WithClock overrides the time source.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// IssueAccess signs an access token for subject that expires after ttl.
func (s *TokenService) IssueAccess(subject string, ttl time.Duration) (string, time.Time, error) {
	// exp is carried in whole seconds; report the instant the token actually holds.
	expiresAt := jwt.NewNumericDate(s.now().Add(ttl)).Time
	token, err := s.sign(models.TokenTypeAccess, subject, "", expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssueRefresh signs a refresh token carrying a fresh jti.
func (s *TokenService) IssueRefresh(subject string, ttl time.Duration) (string, string, error) {
	jti := uuid.NewString()
	token, err := s.sign(models.TokenTypeRefresh, subject, jti, s.now().Add(ttl))
	if err != nil {
		return "", "", err
	}
	return token, jti, nil
}

func (s *TokenService) sign(tokenType models.TokenType, subject, jti string, expiresAt time.Time) (string, error) {
	claims := &models.TokenClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *TokenService) keyFunc(*jwt.Token) (interface{}, error) {
	return s.secret, nil
}

// Validate verifies signature, structure and expiry. Any failure yields (nil, false).
func (s *TokenService) Validate(token string) (*models.TokenClaims, bool) {
	if token == "" {
		return nil, false
	}
	claims := &models.TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, false
	}
	return claims, true
}

// revocationKey derives the store key: the jti when the payload carries one,
// otherwise the raw token.
func (s *TokenService) revocationKey(token string) string {
	claims := &models.TokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil && claims.ID != "" {
		return models.RevocationPrefix + claims.ID
	}
	return models.RevocationPrefix + token
}

// IsRevoked reports whether token was revoked. Errors only reflect store failures.
func (s *TokenService) IsRevoked(ctx context.Context, token string) (bool, error) {
	revoked, err := s.store.Exists(ctx, s.revocationKey(token))
	if err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return revoked, nil
}

// Revoke records token as revoked until its own expiry. Tokens that fail signature
// verification, carry no expiry, or have already expired are left alone.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	claims := &models.TokenClaims{}
	_, err := jwt.ParseWithClaims(token, claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		s.logger.Debug("skip revoking undecodable token", zap.Error(err))
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.store.Put(ctx, s.revocationKey(token), ttl); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}
