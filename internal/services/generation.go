package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	redisclient "github.com/selgeapp/selge-backend/internal/clients/redis"
	"github.com/selgeapp/selge-backend/internal/data/repos"
	"github.com/selgeapp/selge-backend/internal/docgen"
	"github.com/selgeapp/selge-backend/internal/domain"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

// GenerateRequest is one document-generation request as the API receives it.
type GenerateRequest struct {
	PatientRef    string            `json:"patient_ref"`
	TechnicalNote string            `json:"technical_note"`
	Profile       docgen.RawProfile `json:"profile"`
}

// GenerateOutcome is the persisted result of a successful generation.
type GenerateOutcome struct {
	Record   *domain.PatientDocumentRecord `json:"record"`
	Run      *domain.GenerationRun         `json:"run"`
	Sections []docgen.Section              `json:"sections"`
	Warnings []string                      `json:"warnings"`
	Attempts int                           `json:"attempts"`
	Cached   bool                          `json:"cached"`
}

type GenerationService interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateOutcome, error)
}

type generationService struct {
	db  *gorm.DB
	log *logger.Logger

	generator *docgen.Generator
	rules     *docgen.ClinicalRules
	model     string

	docRepo repos.DocumentRepo
	runRepo repos.GenerationRunRepo

	// cache is optional; nil means every request generates.
	cache  redisclient.DocumentCache
	flight singleflight.Group
}

func NewGenerationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	generator *docgen.Generator,
	rules *docgen.ClinicalRules,
	model string,
	docRepo repos.DocumentRepo,
	runRepo repos.GenerationRunRepo,
	cache redisclient.DocumentCache,
) GenerationService {
	return &generationService{
		db:        db,
		log:       baseLog.With("service", "GenerationService"),
		generator: generator,
		rules:     rules,
		model:     model,
		docRepo:   docRepo,
		runRepo:   runRepo,
		cache:     cache,
	}
}

// Generate runs the full pipeline for one request: cache lookup, the
// bounded generation loop, audit-run persistence and draft-record creation.
// Every path, success or failure, leaves a GenerationRun row behind.
func (s *generationService) Generate(ctx context.Context, req GenerateRequest) (*GenerateOutcome, error) {
	if req.PatientRef == "" {
		return nil, &docgen.GenerationError{Kind: docgen.FailureInvalidInput, Message: "patient_ref is required"}
	}

	tracer := otel.Tracer("selge/generation")
	ctx, span := tracer.Start(ctx, "GenerationService.Generate")
	defer span.End()

	started := time.Now()
	key := s.cacheKey(req)

	result, cached, genErr := s.generateOnce(ctx, key, req)

	run := &domain.GenerationRun{
		ID:         uuid.New(),
		Model:      s.model,
		DurationMS: time.Since(started).Milliseconds(),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	if genErr != nil {
		run.Status = domain.RunStatusFailed
		var ge *docgen.GenerationError
		if errors.As(genErr, &ge) {
			run.FailureKind = string(ge.Kind)
			run.Attempts = attemptsForFailure(ge.Kind)
			run.ValidationErrors = mustJSON(ge.ValidationErrors)
			run.ValidationWarnings = mustJSON(ge.ValidationWarnings)
		}
		if _, err := s.runRepo.Create(ctx, nil, run); err != nil {
			s.log.Error("failed to persist generation run", "error", err.Error())
		}
		span.SetAttributes(attribute.String("generation.failure_kind", run.FailureKind))
		return nil, genErr
	}

	sections := docgen.ToSections(result.Document, result.Profile.Language, s.rules)

	record := &domain.PatientDocumentRecord{
		ID:         uuid.New(),
		PatientRef: req.PatientRef,
		Language:   string(result.Profile.Language),
		Status:     domain.DocumentStatusDraft,
		Profile:    mustJSON(result.Profile),
		NoteHash:   noteHash(req.TechnicalNote),
		Sections:   mustJSON(sections),
		Warnings:   mustJSON(result.Validation.Warnings),
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	run.Status = domain.RunStatusSucceeded
	run.Attempts = result.Attempts
	run.ValidationWarnings = mustJSON(result.Validation.Warnings)
	run.DocumentID = &record.ID

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.docRepo.Create(ctx, tx, record); err != nil {
			return err
		}
		_, err := s.runRepo.Create(ctx, tx, run)
		return err
	})
	if err != nil {
		s.log.Error("failed to persist generated document", "error", err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("generation.attempts", result.Attempts),
		attribute.Bool("generation.cached", cached),
		attribute.String("generation.language", string(result.Profile.Language)),
	)
	s.log.Info("document generated",
		"document_id", record.ID.String(),
		"attempts", result.Attempts,
		"cached", cached,
		"warning_count", len(result.Validation.Warnings),
	)

	return &GenerateOutcome{
		Record:   record,
		Run:      run,
		Sections: sections,
		Warnings: result.Validation.Warnings,
		Attempts: result.Attempts,
		Cached:   cached,
	}, nil
}

// generateOnce collapses concurrent identical requests into one generation
// and consults the cache before spending a model call. Only terminal
// successes are cached; failures always surface.
func (s *generationService) generateOnce(ctx context.Context, key string, req GenerateRequest) (*docgen.Result, bool, error) {
	if s.cache != nil {
		if result, ok := s.cache.Get(ctx, key); ok {
			return result, true, nil
		}
	}

	v, err, shared := s.flight.Do(key, func() (interface{}, error) {
		result, err := s.generator.Generate(ctx, req.Profile, req.TechnicalNote)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Set(ctx, key, result)
		}
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*docgen.Result), shared, nil
}

// cacheKey hashes the full generation input: the note, the normalized
// profile and the resolved language. Two requests collide only when the
// core would produce an equivalent prompt for both.
func (s *generationService) cacheKey(req GenerateRequest) string {
	profile := docgen.NormalizeProfile(req.Profile)
	profileJSON, _ := json.Marshal(profile)

	h := sha256.New()
	h.Write([]byte(req.TechnicalNote))
	h.Write([]byte{0})
	h.Write(profileJSON)
	return hex.EncodeToString(h.Sum(nil))
}

func noteHash(note string) string {
	sum := sha256.Sum256([]byte(note))
	return hex.EncodeToString(sum[:])
}

// attemptsForFailure reports how many model calls a failure kind implies.
// Input gates fail before any call; validation exhaustion means both
// attempts were spent; upstream failures end the request on the spot.
func attemptsForFailure(kind docgen.FailureKind) int {
	switch kind {
	case docgen.FailureInvalidInput, docgen.FailureNoteTooLong:
		return 0
	case docgen.FailureValidationExhausted:
		return 2
	default:
		return 1
	}
}

func mustJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON([]byte("null"))
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(raw)
}
