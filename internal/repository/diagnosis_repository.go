package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/saufi-opi/mini-emr/internal/models"
	"github.com/saufi-opi/mini-emr/pkg/query"
)

const diagnosisColumns = "id, code, description, created_at"

var diagnosesTable = query.Table{
	Name:      "diagnoses",
	Columns:   []string{"id", "code", "description", "created_at"},
	CreatedAt: "created_at",
}

// DiagnosisRepository manages the diagnosis catalogue.
type DiagnosisRepository struct {
	db       *sqlx.DB
	observer query.Observer
}

// NewDiagnosisRepository constructs the repository.
func NewDiagnosisRepository(db *sqlx.DB, observer query.Observer) *DiagnosisRepository {
	return &DiagnosisRepository{db: db, observer: observer}
}

// FindByID fetches a diagnosis by id.
func (r *DiagnosisRepository) FindByID(ctx context.Context, id string) (*models.Diagnosis, error) {
	query := `SELECT ` + diagnosisColumns + ` FROM diagnoses WHERE id = $1`
	var diagnosis models.Diagnosis
	if err := r.db.GetContext(ctx, &diagnosis, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find diagnosis by id: %w", err)
	}
	return &diagnosis, nil
}

// FindByCode fetches a diagnosis by its unique code.
func (r *DiagnosisRepository) FindByCode(ctx context.Context, code string) (*models.Diagnosis, error) {
	query := `SELECT ` + diagnosisColumns + ` FROM diagnoses WHERE code = $1`
	var diagnosis models.Diagnosis
	if err := r.db.GetContext(ctx, &diagnosis, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find diagnosis by code: %w", err)
	}
	return &diagnosis, nil
}

// List returns a page of diagnoses matching the term on code or description.
func (r *DiagnosisRepository) List(ctx context.Context, params models.ListQuery) (*query.Result[models.Diagnosis], error) {
	result, err := query.New[models.Diagnosis](r.db, diagnosesTable).
		WithObserver(r.observer).
		Paginate(params.Pagination).
		Sort(params.Sort, nil, "").
		Search(params.Search, "code", "description").
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	return result, nil
}

// Create inserts a diagnosis.
func (r *DiagnosisRepository) Create(ctx context.Context, diagnosis *models.Diagnosis) error {
	if diagnosis.ID == "" {
		diagnosis.ID = uuid.NewString()
	}
	if diagnosis.CreatedAt.IsZero() {
		diagnosis.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO diagnoses (id, code, description, created_at) VALUES (:id, :code, :description, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, diagnosis); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create diagnosis: %w", err)
	}
	return nil
}

// BulkInsertMissing inserts catalogue entries whose code is not present yet and
// reports how many rows were written.
func (r *DiagnosisRepository) BulkInsertMissing(ctx context.Context, diagnoses []models.Diagnosis) (inserted int64, err error) {
	if len(diagnoses) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin diagnosis import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const query = `INSERT INTO diagnoses (id, code, description, created_at) VALUES ($1, $2, $3, $4) ON CONFLICT (code) DO NOTHING`
	for _, diagnosis := range diagnoses {
		id := diagnosis.ID
		if id == "" {
			id = uuid.NewString()
		}
		res, execErr := tx.ExecContext(ctx, query, id, diagnosis.Code, diagnosis.Description, now)
		if execErr != nil {
			err = fmt.Errorf("import diagnosis %s: %w", diagnosis.Code, execErr)
			return 0, err
		}
		if affected, affErr := res.RowsAffected(); affErr == nil {
			inserted += affected
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit diagnosis import: %w", err)
	}
	return inserted, nil
}
