package models

import "time"

// Diagnosis is a catalogue entry such as an ICD-10 code.
type Diagnosis struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CreateDiagnosisRequest is the admin payload for adding a catalogue entry.
type CreateDiagnosisRequest struct {
	Code        string `json:"code" validate:"required,max=10"`
	Description string `json:"description" validate:"required,max=255"`
}
