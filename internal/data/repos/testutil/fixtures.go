package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/selgeapp/selge-backend/internal/domain"
)

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, patientRef, status string) *domain.PatientDocumentRecord {
	tb.Helper()
	now := time.Now()
	d := &domain.PatientDocumentRecord{
		ID:         uuid.New(),
		PatientRef: patientRef,
		Language:   "estonian",
		Status:     status,
		Profile:    datatypes.JSON([]byte(`{"age":70,"language":"estonian"}`)),
		NoteHash:   "deadbeef",
		Sections:   datatypes.JSON([]byte(`[]`)),
		Warnings:   datatypes.JSON([]byte(`[]`)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedGenerationRun(tb testing.TB, ctx context.Context, tx *gorm.DB, documentID *uuid.UUID, status string) *domain.GenerationRun {
	tb.Helper()
	now := time.Now()
	r := &domain.GenerationRun{
		ID:         uuid.New(),
		DocumentID: documentID,
		Status:     status,
		Attempts:   1,
		Model:      "gpt-test",
		DurationMS: 1200,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed generation run: %v", err)
	}
	return r
}
