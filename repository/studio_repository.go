package repository

import (
	"context"

	"AirCue/model"

	"gorm.io/gorm"
)

// StudioRepository 演播室数据访问接口
type StudioRepository interface {
	GetByID(ctx context.Context, id string) (*model.Studio, error)
	List(ctx context.Context) ([]*model.Studio, error)
	Create(ctx context.Context, studio *model.Studio) error
}

// gormStudioRepository GORM 实现
type gormStudioRepository struct {
	db *gorm.DB
}

// NewGormStudioRepository 创建 GORM 演播室仓库
func NewGormStudioRepository(db *gorm.DB) StudioRepository {
	return &gormStudioRepository{db: db}
}

// GetByID 根据ID获取演播室
func (r *gormStudioRepository) GetByID(ctx context.Context, id string) (*model.Studio, error) {
	var studio model.Studio
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&studio).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &studio, nil
}

// List 获取全部演播室
func (r *gormStudioRepository) List(ctx context.Context) ([]*model.Studio, error) {
	var studios []*model.Studio
	if err := r.db.WithContext(ctx).Order("name").Find(&studios).Error; err != nil {
		return nil, err
	}
	return studios, nil
}

// Create 创建演播室
func (r *gormStudioRepository) Create(ctx context.Context, studio *model.Studio) error {
	return r.db.WithContext(ctx).Create(studio).Error
}

// OperatorRepository 操作员数据访问接口
type OperatorRepository interface {
	GetByUsername(ctx context.Context, username string) (*model.Operator, error)
	Create(ctx context.Context, op *model.Operator) error
}

// gormOperatorRepository GORM 实现
type gormOperatorRepository struct {
	db *gorm.DB
}

// NewGormOperatorRepository 创建 GORM 操作员仓库
func NewGormOperatorRepository(db *gorm.DB) OperatorRepository {
	return &gormOperatorRepository{db: db}
}

// GetByUsername 根据用户名获取操作员
func (r *gormOperatorRepository) GetByUsername(ctx context.Context, username string) (*model.Operator, error) {
	var op model.Operator
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&op).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}

// Create 创建操作员
func (r *gormOperatorRepository) Create(ctx context.Context, op *model.Operator) error {
	return r.db.WithContext(ctx).Create(op).Error
}
