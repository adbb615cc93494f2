package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/saufi-opi/mini-emr/internal/models"
)

type seedUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type seedDiagnosisRepository interface {
	BulkInsertMissing(ctx context.Context, diagnoses []models.Diagnosis) (int64, error)
}

// SeedPrincipal describes a bootstrap account.
type SeedPrincipal struct {
	Email    string
	FullName string
	Password string
	Role     models.UserRole
}

// SeedService creates bootstrap principals and imports the diagnosis catalogue.
// Every operation is idempotent.
type SeedService struct {
	users     seedUserRepository
	diagnoses seedDiagnosisRepository
	hasher    passwordHasher
	logger    *zap.Logger
}

// NewSeedService constructs a SeedService.
func NewSeedService(users seedUserRepository, diagnoses seedDiagnosisRepository, hasher passwordHasher, logger *zap.Logger) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = NewPasswordHasher(0)
	}
	return &SeedService{users: users, diagnoses: diagnoses, hasher: hasher, logger: logger}
}

// EnsurePrincipal creates p unless a user with its email exists. It reports whether a user was created.
func (s *SeedService) EnsurePrincipal(ctx context.Context, p SeedPrincipal) (bool, error) {
	if p.Email == "" || p.Password == "" {
		return false, fmt.Errorf("seed %s: email and password are required", p.Role)
	}
	if _, err := s.users.FindByEmail(ctx, p.Email); err == nil {
		s.logger.Info("seed user already exists", zap.String("email", p.Email))
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	hashed, err := s.hasher.Hash(p.Password)
	if err != nil {
		return false, err
	}
	user := &models.User{
		Email:          p.Email,
		FullName:       p.FullName,
		Role:           p.Role,
		IsActive:       true,
		HashedPassword: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return false, err
	}
	s.logger.Info("seed user created", zap.String("email", p.Email), zap.String("role", string(p.Role)))
	return true, nil
}

// ImportDiagnoses reads a code,description CSV with a header row and inserts missing codes.
func (s *SeedService) ImportDiagnoses(ctx context.Context, r io.Reader) (int64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read diagnosis header: %w", err)
	}
	if !strings.EqualFold(header[0], "code") || !strings.EqualFold(header[1], "description") {
		return 0, fmt.Errorf("unexpected diagnosis header %v", header)
	}

	var diagnoses []models.Diagnosis
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read diagnosis row: %w", err)
		}
		code := strings.TrimSpace(record[0])
		if code == "" {
			continue
		}
		diagnoses = append(diagnoses, models.Diagnosis{Code: code, Description: strings.TrimSpace(record[1])})
	}

	inserted, err := s.diagnoses.BulkInsertMissing(ctx, diagnoses)
	if err != nil {
		return 0, err
	}
	s.logger.Info("diagnosis catalogue imported", zap.Int("rows", len(diagnoses)), zap.Int64("inserted", inserted))
	return inserted, nil
}
