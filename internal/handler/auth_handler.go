package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/saufi-opi/mini-emr/internal/middleware"
	"github.com/saufi-opi/mini-emr/internal/models"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
	"github.com/saufi-opi/mini-emr/pkg/response"
)

// RefreshCookieName carries the refresh token between browser and API.
const RefreshCookieName = "refresh_token"

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	RefreshTTL() time.Duration
}

type authEventRecorder interface {
	RecordAuthEvent(event, outcome string)
}

// CookieConfig sets the attributes of the refresh token cookie.
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookie  CookieConfig
	events  authEventRecorder
}

// NewAuthHandler creates a new handler. events may be nil.
func NewAuthHandler(svc authService, cookie CookieConfig, events authEventRecorder) *AuthHandler {
	return &AuthHandler{service: svc, cookie: cookie, events: events}
}

func (h *AuthHandler) record(event string, err error) {
	if h.events == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	h.events.RecordAuthEvent(event, outcome)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(h.cookie.SameSite)
	c.SetCookie(RefreshCookieName, value, maxAge, "/", "", h.cookie.Secure, true)
}

// Login godoc
// @Summary Authenticate user
// @Description Exchange email and password for an access token; the refresh token is set as an HttpOnly cookie
// @Tags Authentication
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} models.TokenResponse
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 401 {object} response.ErrorEnvelope
// @Failure 429 {object} response.ErrorEnvelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid login payload"))
		return
	}

	session, err := h.service.Login(c.Request.Context(), req)
	h.record("login", err)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, session.RefreshToken, int(h.service.RefreshTTL().Seconds()))
	middleware.SetAuditResource(c, session.User.ID)
	response.JSON(c, http.StatusOK, session.Token)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Issue a new access token from the refresh token cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} models.TokenResponse
// @Failure 401 {object} response.ErrorEnvelope
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshCookieName)

	token, err := h.service.Refresh(c.Request.Context(), refreshToken)
	h.record("refresh", err)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, token)
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke the bearer access token and the refresh token cookie, then clear the cookie
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Detail
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshCookieName)

	err := h.service.Logout(c.Request.Context(), middleware.BearerToken(c), refreshToken)
	h.record("logout", err)
	h.setRefreshCookie(c, "", -1)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, response.Detail{Detail: "successfully logged out"})
}
