package models

import "github.com/golang-jwt/jwt/v5"

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenClaims represents the JWT payload. Subject carries the principal email;
// ID (jti) is only set on refresh tokens.
type TokenClaims struct {
	Type TokenType `json:"type"`
	jwt.RegisteredClaims
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" form:"username" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Session is the outcome of a successful login.
type Session struct {
	Token        TokenResponse
	RefreshToken string
	User         *User
}
