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

type diagnosisService interface {
	List(ctx context.Context, params models.ListQuery) (*query.Result[models.Diagnosis], bool, error)
	Get(ctx context.Context, id string) (*models.Diagnosis, error)
	Create(ctx context.Context, req models.CreateDiagnosisRequest) (*models.Diagnosis, error)
}

// DiagnosisHandler serves the diagnosis catalogue.
type DiagnosisHandler struct {
	service diagnosisService
}

// NewDiagnosisHandler constructs a diagnosis handler.
func NewDiagnosisHandler(svc diagnosisService) *DiagnosisHandler {
	return &DiagnosisHandler{service: svc}
}

// List godoc
// @Summary Search diagnoses
// @Tags Diagnoses
// @Produce json
// @Param skip query int false "Rows to skip"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field, prefix with - for descending"
// @Param search query string false "Matches code or description"
// @Success 200 {object} query.Result[models.Diagnosis]
// @Router /diagnosis [get]
func (h *DiagnosisHandler) List(c *gin.Context) {
	params, err := listQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, hit, err := h.service.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result)
}

// Get godoc
// @Summary Get diagnosis
// @Tags Diagnoses
// @Produce json
// @Param id path string true "Diagnosis ID"
// @Success 200 {object} models.Diagnosis
// @Failure 404 {object} response.ErrorEnvelope
// @Router /diagnosis/{id} [get]
func (h *DiagnosisHandler) Get(c *gin.Context) {
	diagnosis, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, diagnosis)
}

// Create godoc
// @Summary Add diagnosis
// @Tags Diagnoses
// @Accept json
// @Produce json
// @Param payload body models.CreateDiagnosisRequest true "Diagnosis payload"
// @Success 201 {object} models.Diagnosis
// @Failure 400 {object} response.ErrorEnvelope
// @Router /diagnosis [post]
func (h *DiagnosisHandler) Create(c *gin.Context) {
	var req models.CreateDiagnosisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid diagnosis payload"))
		return
	}
	diagnosis, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, diagnosis)
}
