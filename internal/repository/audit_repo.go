package repository

import (
	"context"

	"github.com/labmanhq/labman/internal/domain"
	"gorm.io/gorm"
)

// AuditRepository is the audit log sink consumed by the meeting core.
type AuditRepository interface {
	Create(ctx context.Context, e *domain.AuditEntry) error
}

type GormAuditRepo struct {
	db *gorm.DB
}

func NewGormAuditRepo(db *gorm.DB) *GormAuditRepo {
	return &GormAuditRepo{db: db}
}

func (r *GormAuditRepo) Create(ctx context.Context, e *domain.AuditEntry) error {
	model := auditModelFromDomain(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if e != nil {
		e.ID = model.ID
		e.CreatedAt = model.CreatedAt
	}
	return nil
}
