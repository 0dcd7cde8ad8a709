package repository

import (
	"context"

	"github.com/labmanhq/labman/internal/domain"
	"gorm.io/gorm"
)

// FailureRepository is the append-only sink for failed sends. Nothing
// in the core reads these rows back.
type FailureRepository interface {
	Create(ctx context.Context, f *domain.EmailFailure) error
}

type GormFailureRepo struct {
	db *gorm.DB
}

func NewGormFailureRepo(db *gorm.DB) *GormFailureRepo {
	return &GormFailureRepo{db: db}
}

func (r *GormFailureRepo) Create(ctx context.Context, f *domain.EmailFailure) error {
	model := failureModelFromDomain(f)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if f != nil {
		f.ID = model.ID
		f.CreatedAt = model.CreatedAt
	}
	return nil
}
