package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Document review lifecycle. A document is born draft and must be approved
// by a clinician before its flat text can be released to the patient.
const (
	DocumentStatusDraft    = "draft"
	DocumentStatusApproved = "approved"
	DocumentStatusRejected = "rejected"
)

// PatientDocumentRecord is one generated patient-facing document held for
// clinician review. Sections are stored structured; the flat rendering is
// produced on demand and only for approved documents.
type PatientDocumentRecord struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	PatientRef string `gorm:"column:patient_ref;not null;index" json:"patient_ref"`
	Language   string `gorm:"column:language;not null" json:"language"`
	Status     string `gorm:"column:status;not null;index" json:"status"`

	// Inputs, kept for audit. The note itself is stored only as a hash.
	Profile  datatypes.JSON `gorm:"column:profile;type:jsonb" json:"profile"`
	NoteHash string         `gorm:"column:note_hash;not null;index" json:"note_hash"`

	Sections datatypes.JSON `gorm:"column:sections;type:jsonb" json:"sections"`
	Warnings datatypes.JSON `gorm:"column:warnings;type:jsonb" json:"warnings,omitempty"`

	ReviewedBy *string    `gorm:"column:reviewed_by" json:"reviewed_by,omitempty"`
	ReviewNote string     `gorm:"column:review_note" json:"review_note,omitempty"`
	ApprovedAt *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (PatientDocumentRecord) TableName() string { return "patient_document" }

// Generation run lifecycle.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// GenerationRun is the audit record of one generation request: how many
// attempts it took, how it ended, and the final validation findings.
type GenerationRun struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	DocumentID *uuid.UUID `gorm:"type:uuid;column:document_id;index" json:"document_id,omitempty"`

	Status      string `gorm:"column:status;not null;index" json:"status"`
	Attempts    int    `gorm:"column:attempts;not null" json:"attempts"`
	FailureKind string `gorm:"column:failure_kind" json:"failure_kind,omitempty"`

	ValidationErrors   datatypes.JSON `gorm:"column:validation_errors;type:jsonb" json:"validation_errors,omitempty"`
	ValidationWarnings datatypes.JSON `gorm:"column:validation_warnings;type:jsonb" json:"validation_warnings,omitempty"`

	Model      string `gorm:"column:model" json:"model,omitempty"`
	DurationMS int64  `gorm:"column:duration_ms;not null" json:"duration_ms"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (GenerationRun) TableName() string { return "generation_run" }
