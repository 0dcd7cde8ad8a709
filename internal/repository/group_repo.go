package repository

import (
	"context"
	"errors"

	"github.com/labmanhq/labman/internal/domain"
	"gorm.io/gorm"
)

// GroupRepository resolves research groups and their membership.
type GroupRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Group, error)
	Members(ctx context.Context, groupID int64) ([]domain.User, error)
	MemberIDs(ctx context.Context, groupID int64) ([]int64, error)
	GroupIDsOfUser(ctx context.Context, userID int64) ([]int64, error)
}

type GormGroupRepo struct {
	db *gorm.DB
}

func NewGormGroupRepo(db *gorm.DB) *GormGroupRepo {
	return &GormGroupRepo{db: db}
}

func (r *GormGroupRepo) GetByID(ctx context.Context, id int64) (*domain.Group, error) {
	var model GroupModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return groupModelToDomain(&model), nil
}

func (r *GormGroupRepo) Members(ctx context.Context, groupID int64) ([]domain.User, error) {
	var models []UserModel
	err := r.db.WithContext(ctx).
		Model(&UserModel{}).
		Joins("JOIN user_groups ug ON ug.user_id = users.id").
		Where("ug.group_id = ?", groupID).
		Order("users.id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	users := make([]domain.User, 0, len(models))
	for i := range models {
		users = append(users, *userModelToDomain(&models[i]))
	}
	return users, nil
}

func (r *GormGroupRepo) MemberIDs(ctx context.Context, groupID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&UserGroupModel{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *GormGroupRepo) GroupIDsOfUser(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&UserGroupModel{}).
		Where("user_id = ?", userID).
		Pluck("group_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
