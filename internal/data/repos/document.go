package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selgeapp/selge-backend/internal/domain"
	"github.com/selgeapp/selge-backend/internal/pkg/logger"
)

type DocumentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *domain.PatientDocumentRecord) (*domain.PatientDocumentRecord, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.PatientDocumentRecord, error)
	ListByPatientRef(ctx context.Context, tx *gorm.DB, patientRef string) ([]*domain.PatientDocumentRecord, error)
	ListByStatus(ctx context.Context, tx *gorm.DB, statuses []string) ([]*domain.PatientDocumentRecord, error)

	Update(ctx context.Context, tx *gorm.DB, row *domain.PatientDocumentRecord) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error

	SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *documentRepo) Create(ctx context.Context, tx *gorm.DB, row *domain.PatientDocumentRecord) (*domain.PatientDocumentRecord, error) {
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

func (r *documentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.PatientDocumentRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.PatientDocumentRecord
	err := t.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *documentRepo) ListByPatientRef(ctx context.Context, tx *gorm.DB, patientRef string) ([]*domain.PatientDocumentRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.PatientDocumentRecord
	if patientRef == "" {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("patient_ref = ?", patientRef).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *documentRepo) ListByStatus(ctx context.Context, tx *gorm.DB, statuses []string) ([]*domain.PatientDocumentRecord, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.PatientDocumentRecord
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

func (r *documentRepo) Update(ctx context.Context, tx *gorm.DB, row *domain.PatientDocumentRecord) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.ID == uuid.Nil {
		return nil
	}
	row.UpdatedAt = time.Now()
	return t.WithContext(ctx).Save(row).Error
}

func (r *documentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return t.WithContext(ctx).
		Model(&domain.PatientDocumentRecord{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *documentRepo) SoftDeleteByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return t.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.PatientDocumentRecord{}).Error
}
