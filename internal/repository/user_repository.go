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

const userColumns = "id, email, full_name, role, is_active, hashed_password, created_at, updated_at"

var usersTable = query.Table{
	Name:      "users",
	Columns:   []string{"id", "email", "full_name", "role", "is_active", "hashed_password", "created_at", "updated_at"},
	CreatedAt: "created_at",
}

// UserRepository provides database access for user management.
type UserRepository struct {
	db       *sqlx.DB
	observer query.Observer
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB, observer query.Observer) *UserRepository {
	return &UserRepository{db: db, observer: observer}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// List returns a page of users matching the search term on full name or email.
// Any user column is sortable.
func (r *UserRepository) List(ctx context.Context, params models.ListQuery) (*query.Result[models.User], error) {
	result, err := query.New[models.User](r.db, usersTable).
		WithObserver(r.observer).
		Paginate(params.Pagination).
		Sort(params.Sort, nil, "").
		Search(params.Search, "full_name", "email").
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return result, nil
}

// Create inserts a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const query = `INSERT INTO users (id, email, full_name, role, is_active, hashed_password, created_at, updated_at) VALUES (:id, :email, :full_name, :role, :is_active, :hashed_password, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Update persists mutable fields of a user.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET full_name = :full_name, role = :role, is_active = :is_active, hashed_password = :hashed_password, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
