package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/saufi-opi/mini-emr/internal/models"
	"github.com/saufi-opi/mini-emr/internal/repository"
	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
	"github.com/saufi-opi/mini-emr/pkg/query"
)

const diagnosisListPrefix = "list:"

type diagnosisRepository interface {
	List(ctx context.Context, params models.ListQuery) (*query.Result[models.Diagnosis], error)
	FindByID(ctx context.Context, id string) (*models.Diagnosis, error)
	FindByCode(ctx context.Context, code string) (*models.Diagnosis, error)
	Create(ctx context.Context, diagnosis *models.Diagnosis) error
}

// DiagnosisService serves the diagnosis catalogue with an optional list cache.
type DiagnosisService struct {
	repo      diagnosisRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDiagnosisService constructs a DiagnosisService. cache may be nil.
func NewDiagnosisService(repo diagnosisRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *DiagnosisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DiagnosisService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns a page of diagnoses and whether it was served from cache.
func (s *DiagnosisService) List(ctx context.Context, params models.ListQuery) (*query.Result[models.Diagnosis], bool, error) {
	key := diagnosisListPrefix + params.CacheKey()

	var cached query.Result[models.Diagnosis]
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		if cached.Data == nil {
			cached.Data = []models.Diagnosis{}
		}
		return &cached, true, nil
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal, "failed to list diagnoses")
	}
	if err := s.cache.Set(ctx, key, result, 0); err != nil {
		s.logger.Debug("diagnosis list served uncached", zap.String("key", key), zap.Error(err))
	}
	return result, false, nil
}

// Get fetches a diagnosis by id.
func (s *DiagnosisService) Get(ctx context.Context, id string) (*models.Diagnosis, error) {
	if err := validateID(s.validator, id); err != nil {
		return nil, err
	}
	diagnosis, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "diagnosis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to fetch diagnosis")
	}
	return diagnosis, nil
}

// Create adds a catalogue entry and drops cached listings.
func (s *DiagnosisService) Create(ctx context.Context, req models.CreateDiagnosisRequest) (*models.Diagnosis, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	req.Description = strings.TrimSpace(req.Description)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid diagnosis payload")
	}

	if _, err := s.repo.FindByCode(ctx, req.Code); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "diagnosis code already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to check diagnosis code")
	}

	diagnosis := &models.Diagnosis{Code: req.Code, Description: req.Description}
	if err := s.repo.Create(ctx, diagnosis); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "diagnosis code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to create diagnosis")
	}

	if err := s.cache.Invalidate(ctx, diagnosisListPrefix+"*"); err != nil {
		s.logger.Warn("diagnosis list cache not invalidated", zap.Error(err))
	}
	return diagnosis, nil
}
