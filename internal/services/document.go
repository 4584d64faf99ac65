package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selgeapp/selge-backend/internal/data/repos"
	"github.com/selgeapp/selge-backend/internal/docgen"
	"github.com/selgeapp/selge-backend/internal/domain"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

var (
	ErrDocumentNotFound = errors.New("document not found")

	// ErrNotEditable: only draft documents accept section edits. An approved
	// document is a released clinical artifact and must stay immutable.
	ErrNotEditable = errors.New("document is not editable in its current status")

	// ErrNotApproved: the flat text is the patient-facing release format and
	// exists only for approved documents.
	ErrNotApproved = errors.New("document has not been approved for release")

	ErrInvalidTransition = errors.New("invalid status transition")
	ErrReviewerRequired  = errors.New("reviewer identifier is required")
)

type DocumentService interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.PatientDocumentRecord, error)
	List(ctx context.Context, patientRef string, statuses []string) ([]*domain.PatientDocumentRecord, error)

	Sections(ctx context.Context, id uuid.UUID) ([]docgen.Section, error)
	UpdateSections(ctx context.Context, id uuid.UUID, contents map[docgen.SectionKey]string) ([]docgen.Section, error)

	Approve(ctx context.Context, id uuid.UUID, reviewer, note string) (*domain.PatientDocumentRecord, error)
	Reject(ctx context.Context, id uuid.UUID, reviewer, note string) (*domain.PatientDocumentRecord, error)

	FlatText(ctx context.Context, id uuid.UUID) (string, error)

	RunsForDocument(ctx context.Context, id uuid.UUID) ([]*domain.GenerationRun, error)
}

type documentService struct {
	db    *gorm.DB
	log   *logger.Logger
	rules *docgen.ClinicalRules

	docRepo repos.DocumentRepo
	runRepo repos.GenerationRunRepo
}

func NewDocumentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	rules *docgen.ClinicalRules,
	docRepo repos.DocumentRepo,
	runRepo repos.GenerationRunRepo,
) DocumentService {
	return &documentService{
		db:      db,
		log:     baseLog.With("service", "DocumentService"),
		rules:   rules,
		docRepo: docRepo,
		runRepo: runRepo,
	}
}

func (s *documentService) Get(ctx context.Context, id uuid.UUID) (*domain.PatientDocumentRecord, error) {
	row, err := s.docRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrDocumentNotFound
	}
	return row, nil
}

func (s *documentService) List(ctx context.Context, patientRef string, statuses []string) ([]*domain.PatientDocumentRecord, error) {
	if patientRef != "" {
		return s.docRepo.ListByPatientRef(ctx, nil, patientRef)
	}
	if len(statuses) == 0 {
		statuses = []string{domain.DocumentStatusDraft, domain.DocumentStatusApproved, domain.DocumentStatusRejected}
	}
	return s.docRepo.ListByStatus(ctx, nil, statuses)
}

func (s *documentService) Sections(ctx context.Context, id uuid.UUID) ([]docgen.Section, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return decodeSections(row)
}

// UpdateSections applies reviewer edits to the stored sections. Titles and
// section identity are fixed; only contents change. The edited document is
// re-validated so the stored warnings stay truthful, but the reviewer's
// edit is authoritative and is saved regardless of findings.
func (s *documentService) UpdateSections(ctx context.Context, id uuid.UUID, contents map[docgen.SectionKey]string) ([]docgen.Section, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Status != domain.DocumentStatusDraft {
		return nil, ErrNotEditable
	}

	sections, err := decodeSections(row)
	if err != nil {
		return nil, err
	}

	var doc docgen.PatientDocument
	for i := range sections {
		if edited, ok := contents[sections[i].Key]; ok {
			sections[i].Content = edited
		}
		doc.SetSection(sections[i].Key, sections[i].Content)
	}

	validation := docgen.Validate(doc, docgen.ParseLanguage(row.Language), s.rules)

	sectionsJSON, err := json.Marshal(sections)
	if err != nil {
		return nil, err
	}
	warningsJSON, err := json.Marshal(validation.Warnings)
	if err != nil {
		return nil, err
	}

	if err := s.docRepo.UpdateFields(ctx, nil, id, map[string]interface{}{
		"sections": sectionsJSON,
		"warnings": warningsJSON,
	}); err != nil {
		return nil, err
	}

	if !validation.Passed {
		s.log.Warn("reviewer edit leaves document failing validation",
			"document_id", id.String(),
			"error_count", len(validation.Errors),
		)
	}
	return sections, nil
}

func (s *documentService) Approve(ctx context.Context, id uuid.UUID, reviewer, note string) (*domain.PatientDocumentRecord, error) {
	return s.review(ctx, id, reviewer, note, domain.DocumentStatusApproved)
}

func (s *documentService) Reject(ctx context.Context, id uuid.UUID, reviewer, note string) (*domain.PatientDocumentRecord, error) {
	return s.review(ctx, id, reviewer, note, domain.DocumentStatusRejected)
}

func (s *documentService) review(ctx context.Context, id uuid.UUID, reviewer, note, target string) (*domain.PatientDocumentRecord, error) {
	if reviewer == "" {
		return nil, ErrReviewerRequired
	}
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	// Review is a one-way door from draft.
	if row.Status != domain.DocumentStatusDraft {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, row.Status, target)
	}

	updates := map[string]interface{}{
		"status":      target,
		"reviewed_by": reviewer,
		"review_note": note,
	}
	if target == domain.DocumentStatusApproved {
		updates["approved_at"] = time.Now()
	}
	if err := s.docRepo.UpdateFields(ctx, nil, id, updates); err != nil {
		return nil, err
	}

	s.log.Info("document reviewed",
		"document_id", id.String(),
		"status", target,
	)
	return s.Get(ctx, id)
}

// FlatText renders the approved document as one printable text blob. This is
// the release gate: an unapproved document has no patient-facing form.
func (s *documentService) FlatText(ctx context.Context, id uuid.UUID) (string, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if row.Status != domain.DocumentStatusApproved {
		return "", ErrNotApproved
	}
	sections, err := decodeSections(row)
	if err != nil {
		return "", err
	}
	return docgen.FromSections(sections), nil
}

func (s *documentService) RunsForDocument(ctx context.Context, id uuid.UUID) ([]*domain.GenerationRun, error) {
	return s.runRepo.ListByDocumentID(ctx, nil, id)
}

func decodeSections(row *domain.PatientDocumentRecord) ([]docgen.Section, error) {
	var sections []docgen.Section
	if err := json.Unmarshal(row.Sections, &sections); err != nil {
		return nil, fmt.Errorf("stored sections undecodable: %w", err)
	}
	return sections, nil
}
