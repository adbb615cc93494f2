package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saufi-opi/mini-emr/internal/models"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
	"github.com/saufi-opi/mini-emr/pkg/export"
	"github.com/saufi-opi/mini-emr/pkg/query"
)

type consultationRepository interface {
	Create(ctx context.Context, consultation *models.Consultation, diagnosisIDs []string) error
	FindByID(ctx context.Context, id string) (*models.Consultation, error)
	List(ctx context.Context, scope models.ConsultationScope, params models.ListQuery) (*query.Result[models.Consultation], error)
}

// ExportFile is a rendered consultation document.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ConsultationService records visits and enforces per-doctor visibility.
type ConsultationService struct {
	repo      consultationRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewConsultationService constructs a ConsultationService.
func NewConsultationService(repo consultationRepository, validate *validator.Validate, logger *zap.Logger) *ConsultationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ConsultationService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// Create records a consultation authored by doctor.
func (s *ConsultationService) Create(ctx context.Context, doctor *models.User, req models.CreateConsultationRequest) (*models.Consultation, error) {
	if doctor == nil || doctor.Role != models.RoleDoctor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "user is not a doctor")
	}
	if !doctor.IsActive {
		return nil, appErrors.ErrInactivePrincipal
	}
	req.PatientFullName = strings.TrimSpace(req.PatientFullName)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid consultation payload")
	}

	now := s.now().UTC()
	consultation := &models.Consultation{
		PatientFullName:  req.PatientFullName,
		DoctorID:         doctor.ID,
		ConsultationDate: now,
		Notes:            req.Notes,
		CreatedAt:        now,
	}
	if req.ConsultationDate != nil && !req.ConsultationDate.IsZero() {
		consultation.ConsultationDate = req.ConsultationDate.UTC()
	}

	if err := s.repo.Create(ctx, consultation, req.DiagnosisIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to create consultation")
	}

	stored, err := s.repo.FindByID(ctx, consultation.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to reload consultation")
	}
	s.logger.Info("consultation created",
		zap.String("consultation_id", stored.ID),
		zap.String("doctor_id", doctor.ID),
		zap.Int("diagnoses", stored.DiagnosisCount),
	)
	return stored, nil
}

// List returns a page of consultations visible to user: doctors see their own, admins see all.
func (s *ConsultationService) List(ctx context.Context, user *models.User, params models.ListQuery) (*query.Result[models.Consultation], error) {
	scope := models.ConsultationScope{}
	if user.Role == models.RoleDoctor {
		scope.DoctorID = user.ID
	}
	result, err := s.repo.List(ctx, scope, params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to list consultations")
	}
	return result, nil
}

// Get fetches a consultation, refusing doctors access to other doctors' records.
func (s *ConsultationService) Get(ctx context.Context, user *models.User, id string) (*models.Consultation, error) {
	if err := validateID(s.validator, id); err != nil {
		return nil, err
	}
	consultation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "consultation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to fetch consultation")
	}
	if user.Role == models.RoleDoctor && consultation.DoctorID != user.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not have permission to view this consultation")
	}
	return consultation, nil
}

// Export renders a consultation the user may read as CSV or PDF.
func (s *ConsultationService) Export(ctx context.Context, user *models.User, id, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "format must be pdf or csv")
	}
	consultation, err := s.Get(ctx, user, id)
	if err != nil {
		return nil, err
	}

	payload, err := export.RendererFor(format).Render(consultationDocument(consultation))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to render consultation")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("consultation-%s.%s", consultation.ID, format),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

func consultationDocument(c *models.Consultation) export.Document {
	rows := make([][]string, 0, len(c.Diagnoses))
	for _, diagnosis := range c.Diagnoses {
		rows = append(rows, []string{diagnosis.Code, diagnosis.Description})
	}
	return export.Document{
		Title: "Consultation Record",
		Fields: []export.Field{
			{Label: "Consultation ID", Value: c.ID},
			{Label: "Patient", Value: c.PatientFullName},
			{Label: "Doctor", Value: c.DoctorName},
			{Label: "Consultation date", Value: c.ConsultationDate.Format(time.RFC3339)},
			{Label: "Recorded at", Value: c.CreatedAt.Format(time.RFC3339)},
			{Label: "Notes", Value: c.Notes},
		},
		Table: export.Dataset{Headers: []string{"Code", "Description"}, Rows: rows},
	}
}
