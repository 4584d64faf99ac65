package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selgeapp/selge-backend/internal/domain"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

type GenerationRunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.GenerationRun) (*domain.GenerationRun, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.GenerationRun, error)
	ListByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*domain.GenerationRun, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, statuses []string) ([]*domain.GenerationRun, error)

	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type generationRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGenerationRunRepo(db *gorm.DB, baseLog *logger.Logger) GenerationRunRepo {
	return &generationRunRepo{db: db, log: baseLog.With("repo", "GenerationRunRepo")}
}

func (r *generationRunRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.GenerationRun) (*domain.GenerationRun, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if err := t.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *generationRunRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.GenerationRun, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.GenerationRun
	err := t.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *generationRunRepo) ListByDocumentID(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) ([]*domain.GenerationRun, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.GenerationRun
	if documentID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generationRunRepo) ListByStatus(ctx context.Context, tx *gorm.DB, statuses []string) ([]*domain.GenerationRun, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.GenerationRun
	if len(statuses) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *generationRunRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return t.WithContext(ctx).
		Model(&domain.GenerationRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}
