package models

import "time"

// Consultation is a patient visit recorded by a doctor.
type Consultation struct {
	ID               string      `db:"id" json:"id"`
	PatientFullName  string      `db:"patient_full_name" json:"patient_full_name"`
	DoctorID         string      `db:"doctor_id" json:"doctor_id"`
	ConsultationDate time.Time   `db:"consultation_date" json:"consultation_date"`
	Notes            string      `db:"notes" json:"notes"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	DoctorName       string      `db:"-" json:"doctor_name"`
	Diagnoses        []Diagnosis `db:"-" json:"diagnoses"`
	DiagnosisCount   int         `db:"-" json:"diagnosis_count"`
}

// CreateConsultationRequest is the doctor payload for recording a visit.
// A zero ConsultationDate defaults to the time of creation.
type CreateConsultationRequest struct {
	PatientFullName  string     `json:"patient_full_name" validate:"required,max=255"`
	ConsultationDate *time.Time `json:"consultation_date"`
	Notes            string     `json:"notes"`
	DiagnosisIDs     []string   `json:"diagnosis_ids" validate:"omitempty,dive,uuid"`
}

// ConsultationDiagnosis links a consultation to a diagnosis.
type ConsultationDiagnosis struct {
	ConsultationID string `db:"consultation_id"`
	DiagnosisID    string `db:"diagnosis_id"`
}

// ConsultationScope restricts listings to one doctor's records when DoctorID is set.
type ConsultationScope struct {
	DoctorID string
}
