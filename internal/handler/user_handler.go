package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saufi-opi/mini-emr/internal/middleware"
	"github.com/saufi-opi/mini-emr/internal/models"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
	"github.com/saufi-opi/mini-emr/pkg/query"
	"github.com/saufi-opi/mini-emr/pkg/response"
)

type userService interface {
	List(ctx context.Context, params models.ListQuery) (*query.Result[models.User], error)
	Get(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error)
	Update(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error)
}

// UserHandler manages user endpoints.
type UserHandler struct {
	service userService
}

// NewUserHandler constructs a user handler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// Me godoc
// @Summary Current user
// @Tags Users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} response.ErrorEnvelope
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param skip query int false "Rows to skip"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field, prefix with - for descending"
// @Param search query string false "Matches full name or email"
// @Success 200 {object} query.Result[models.User]
// @Failure 403 {object} response.ErrorEnvelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	params, err := listQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} response.ErrorEnvelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

// Create godoc
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Param payload body models.CreateUserRequest true "User payload"
// @Success 200 {object} models.User
// @Failure 400 {object} response.ErrorEnvelope
// @Failure 422 {object} response.ErrorEnvelope
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid user payload"))
		return
	}
	user, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, user.ID)
	response.JSON(c, http.StatusOK, user)
}

// Update godoc
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body models.UpdateUserRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 404 {object} response.ErrorEnvelope
// @Router /users/{id} [patch]
func (h *UserHandler) Update(c *gin.Context) {
	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid user payload"))
		return
	}
	user, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}
