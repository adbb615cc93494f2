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

const consultationColumns = "id, patient_full_name, doctor_id, consultation_date, notes, created_at"

var consultationsTable = query.Table{
	Name:      "consultations",
	Columns:   []string{"id", "patient_full_name", "doctor_id", "consultation_date", "notes", "created_at"},
	CreatedAt: "created_at",
}

var consultationSortColumns = map[string]string{
	"patient_name":      "patient_full_name",
	"created_at":        "created_at",
	"consultation_date": "consultation_date",
}

// ConsultationRepository persists consultations and their diagnosis links.
type ConsultationRepository struct {
	db       *sqlx.DB
	observer query.Observer
}

// NewConsultationRepository constructs the repository.
func NewConsultationRepository(db *sqlx.DB, observer query.Observer) *ConsultationRepository {
	return &ConsultationRepository{db: db, observer: observer}
}

// Create stores the consultation and links the diagnoses among diagnosisIDs that
// exist, in one transaction. Unknown ids are skipped.
func (r *ConsultationRepository) Create(ctx context.Context, consultation *models.Consultation, diagnosisIDs []string) (err error) {
	if consultation.ID == "" {
		consultation.ID = uuid.NewString()
	}
	if consultation.CreatedAt.IsZero() {
		consultation.CreatedAt = time.Now().UTC()
	}
	if consultation.ConsultationDate.IsZero() {
		consultation.ConsultationDate = consultation.CreatedAt
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin consultation tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertConsultation = `INSERT INTO consultations (id, patient_full_name, doctor_id, consultation_date, notes, created_at) VALUES (:id, :patient_full_name, :doctor_id, :consultation_date, :notes, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insertConsultation, consultation); err != nil {
		return fmt.Errorf("insert consultation: %w", err)
	}

	if len(diagnosisIDs) > 0 {
		var existing []string
		stmt, args, inErr := sqlx.In(`SELECT id FROM diagnoses WHERE id IN (?)`, diagnosisIDs)
		if inErr != nil {
			err = fmt.Errorf("build diagnosis lookup: %w", inErr)
			return err
		}
		if err = tx.SelectContext(ctx, &existing, tx.Rebind(stmt), args...); err != nil {
			return fmt.Errorf("lookup diagnoses: %w", err)
		}
		const link = `INSERT INTO consultation_diagnoses (consultation_id, diagnosis_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
		for _, diagnosisID := range existing {
			if _, err = tx.ExecContext(ctx, link, consultation.ID, diagnosisID); err != nil {
				return fmt.Errorf("link diagnosis %s: %w", diagnosisID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit consultation tx: %w", err)
	}
	return nil
}

// FindByID returns a consultation with doctor name and diagnoses attached.
func (r *ConsultationRepository) FindByID(ctx context.Context, id string) (*models.Consultation, error) {
	query := `SELECT ` + consultationColumns + ` FROM consultations WHERE id = $1`
	var consultation models.Consultation
	if err := r.db.GetContext(ctx, &consultation, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find consultation: %w", err)
	}
	items := []models.Consultation{consultation}
	if err := r.attachDetails(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// List returns a page of consultations, restricted to one doctor when scope says so.
func (r *ConsultationRepository) List(ctx context.Context, scope models.ConsultationScope, params models.ListQuery) (*query.Result[models.Consultation], error) {
	builder := query.New[models.Consultation](r.db, consultationsTable).
		WithObserver(r.observer).
		Paginate(params.Pagination)
	if scope.DoctorID != "" {
		builder.Filter("doctor_id = ?", scope.DoctorID)
	}
	result, err := builder.
		Search(params.Search, "patient_full_name", "notes").
		Sort(params.Sort, consultationSortColumns, "").
		Execute(ctx)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	if err := r.attachDetails(ctx, result.Data); err != nil {
		return nil, err
	}
	return result, nil
}

type doctorName struct {
	ID       string `db:"id"`
	FullName string `db:"full_name"`
	Email    string `db:"email"`
}

type linkedDiagnosis struct {
	ConsultationID string `db:"consultation_id"`
	models.Diagnosis
}

// attachDetails loads doctor names and linked diagnoses for items in two batched queries.
func (r *ConsultationRepository) attachDetails(ctx context.Context, items []models.Consultation) error {
	if len(items) == 0 {
		return nil
	}
	consultationIDs := make([]string, 0, len(items))
	doctorIDs := make([]string, 0, len(items))
	seenDoctor := make(map[string]struct{}, len(items))
	for _, item := range items {
		consultationIDs = append(consultationIDs, item.ID)
		if _, ok := seenDoctor[item.DoctorID]; !ok {
			seenDoctor[item.DoctorID] = struct{}{}
			doctorIDs = append(doctorIDs, item.DoctorID)
		}
	}

	stmt, args, err := sqlx.In(`SELECT id, full_name, email FROM users WHERE id IN (?)`, doctorIDs)
	if err != nil {
		return fmt.Errorf("build doctor lookup: %w", err)
	}
	var doctors []doctorName
	if err := r.db.SelectContext(ctx, &doctors, r.db.Rebind(stmt), args...); err != nil {
		return fmt.Errorf("load consultation doctors: %w", err)
	}
	names := make(map[string]string, len(doctors))
	for _, doctor := range doctors {
		name := doctor.FullName
		if name == "" {
			name = doctor.Email
		}
		names[doctor.ID] = name
	}

	stmt, args, err = sqlx.In(`SELECT cd.consultation_id, d.id, d.code, d.description, d.created_at FROM consultation_diagnoses cd JOIN diagnoses d ON d.id = cd.diagnosis_id WHERE cd.consultation_id IN (?) ORDER BY d.code`, consultationIDs)
	if err != nil {
		return fmt.Errorf("build diagnosis lookup: %w", err)
	}
	var links []linkedDiagnosis
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(stmt), args...); err != nil {
		return fmt.Errorf("load consultation diagnoses: %w", err)
	}
	byConsultation := make(map[string][]models.Diagnosis, len(items))
	for _, link := range links {
		byConsultation[link.ConsultationID] = append(byConsultation[link.ConsultationID], link.Diagnosis)
	}

	for i := range items {
		name, ok := names[items[i].DoctorID]
		if !ok {
			name = "Unknown"
		}
		items[i].DoctorName = name
		items[i].Diagnoses = byConsultation[items[i].ID]
		if items[i].Diagnoses == nil {
			items[i].Diagnoses = []models.Diagnosis{}
		}
		items[i].DiagnosisCount = len(items[i].Diagnoses)
	}
	return nil
}
