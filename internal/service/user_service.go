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

type userRepository interface {
	List(ctx context.Context, params models.ListQuery) (*query.Result[models.User], error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// UserService handles user management workflows.
type UserService struct {
	repo      userRepository
	hasher    passwordHasher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, hasher passwordHasher, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if hasher == nil {
		hasher = NewPasswordHasher(0)
	}
	return &UserService{repo: repo, hasher: hasher, validator: validate, logger: logger}
}

// List returns a page of users.
func (s *UserService) List(ctx context.Context, params models.ListQuery) (*query.Result[models.User], error) {
	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to list users")
	}
	return result, nil
}

// Get fetches a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	if err := validateID(s.validator, id); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to fetch user")
	}
	return user, nil
}

// Create provisions a new user. Role defaults to doctor and accounts start active.
func (s *UserService) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid user payload")
	}

	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to check email")
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to hash password")
	}

	user := &models.User{
		Email:          req.Email,
		FullName:       req.FullName,
		Role:           req.Role,
		IsActive:       true,
		HashedPassword: hashed,
	}
	if user.Role == "" {
		user.Role = models.RoleDoctor
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "user with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to create user")
	}

	s.logger.Info("user created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Update applies a partial update to a user.
func (s *UserService) Update(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation, "invalid user payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hashed, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to hash password")
		}
		user.HashedPassword = hashed
	}

	if err := s.repo.Update(ctx, user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to update user")
	}
	return user, nil
}

// validateID rejects identifiers that are not UUIDs before they reach the database.
func validateID(v *validator.Validate, id string) error {
	if err := v.Var(id, "required,uuid"); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation, "invalid id")
	}
	return nil
}
