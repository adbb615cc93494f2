package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saufi-opi/mini-emr/internal/middleware"
	"github.com/saufi-opi/mini-emr/internal/models"
	"github.com/saufi-opi/mini-emr/internal/service"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
	"github.com/saufi-opi/mini-emr/pkg/query"
	"github.com/saufi-opi/mini-emr/pkg/response"
)

type consultationService interface {
	Create(ctx context.Context, doctor *models.User, req models.CreateConsultationRequest) (*models.Consultation, error)
	List(ctx context.Context, user *models.User, params models.ListQuery) (*query.Result[models.Consultation], error)
	Get(ctx context.Context, user *models.User, id string) (*models.Consultation, error)
	Export(ctx context.Context, user *models.User, id, format string) (*service.ExportFile, error)
}

// ConsultationHandler exposes consultation records.
type ConsultationHandler struct {
	service consultationService
}

// NewConsultationHandler constructs a consultation handler.
func NewConsultationHandler(svc consultationService) *ConsultationHandler {
	return &ConsultationHandler{service: svc}
}

// Create godoc
// @Summary Record consultation
// @Tags Consultations
// @Accept json
// @Produce json
// @Param payload body models.CreateConsultationRequest true "Consultation payload"
// @Success 201 {object} models.Consultation
// @Failure 403 {object} response.ErrorEnvelope
// @Failure 422 {object} response.ErrorEnvelope
// @Router /consultation [post]
func (h *ConsultationHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateConsultationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation, "invalid consultation payload"))
		return
	}
	consultation, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetAuditResource(c, consultation.ID)
	response.Created(c, consultation)
}

// List godoc
// @Summary List consultations
// @Description Doctors see their own records, admins see all
// @Tags Consultations
// @Produce json
// @Param skip query int false "Rows to skip"
// @Param limit query int false "Page size"
// @Param sort query string false "patient_name, created_at or consultation_date; prefix with - for descending"
// @Param search query string false "Matches patient name or notes"
// @Success 200 {object} query.Result[models.Consultation]
// @Router /consultation [get]
func (h *ConsultationHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	params, err := listQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.List(c.Request.Context(), user, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Get godoc
// @Summary Get consultation
// @Tags Consultations
// @Produce json
// @Param id path string true "Consultation ID"
// @Success 200 {object} models.Consultation
// @Failure 403 {object} response.ErrorEnvelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /consultation/{id} [get]
func (h *ConsultationHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	consultation, err := h.service.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consultation)
}

// Export godoc
// @Summary Export consultation
// @Tags Consultations
// @Produce application/pdf,text/csv
// @Param id path string true "Consultation ID"
// @Param format query string false "pdf (default) or csv"
// @Success 200 {file} file
// @Failure 403 {object} response.ErrorEnvelope
// @Failure 404 {object} response.ErrorEnvelope
// @Router /consultation/{id}/export [get]
func (h *ConsultationHandler) Export(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	file, err := h.service.Export(c.Request.Context(), user, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Payload)
}
