package repository

import (
	"context"

	"AirCue/model"

	"gorm.io/gorm"
)

// PartInstanceRepository PartInstance 数据访问接口（读路径）。
// 实例的写入全部经由 PlayoutStore 的原子提交。
type PartInstanceRepository interface {
	GetByID(ctx context.Context, id string) (*model.PartInstance, error)
	ListByIDs(ctx context.Context, ids []string) ([]*model.PartInstance, error)
	// ListByActivation 返回激活令牌下未重置的实例
	ListByActivation(ctx context.Context, playlistID string, activationID string) ([]*model.PartInstance, error)
}

// gormPartInstanceRepository GORM 实现
type gormPartInstanceRepository struct {
	db *gorm.DB
}

// NewGormPartInstanceRepository 创建 GORM 实例仓库
func NewGormPartInstanceRepository(db *gorm.DB) PartInstanceRepository {
	return &gormPartInstanceRepository{db: db}
}

// GetByID 根据ID获取实例
func (r *gormPartInstanceRepository) GetByID(ctx context.Context, id string) (*model.PartInstance, error) {
	var pi model.PartInstance
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&pi).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &pi, nil
}

// ListByIDs 按ID集合获取实例
func (r *gormPartInstanceRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.PartInstance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var instances []*model.PartInstance
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&instances).Error
	if err != nil {
		return nil, err
	}
	return instances, nil
}

// ListByActivation 获取激活令牌下未重置的实例
func (r *gormPartInstanceRepository) ListByActivation(ctx context.Context, playlistID string, activationID string) ([]*model.PartInstance, error) {
	if activationID == "" {
		return nil, nil
	}
	var instances []*model.PartInstance
	err := r.db.WithContext(ctx).
		Where("playlist_id = ? AND activation_id = ? AND `reset` = ?", playlistID, activationID, false).
		Order("take_number").
		Find(&instances).Error
	if err != nil {
		return nil, err
	}
	return instances, nil
}

// AdLibRepository AdLib 数据访问接口
type AdLibRepository interface {
	// ListForRundown 返回节目单范围内的 AdLib，includeGlobal 时并入全局基线
	ListForRundown(ctx context.Context, rundownID string, includeGlobal bool) ([]*model.AdLib, error)
	Create(ctx context.Context, adlib *model.AdLib) error
}

// gormAdLibRepository GORM 实现
type gormAdLibRepository struct {
	db *gorm.DB
}

// NewGormAdLibRepository 创建 GORM AdLib 仓库
func NewGormAdLibRepository(db *gorm.DB) AdLibRepository {
	return &gormAdLibRepository{db: db}
}

// ListForRundown 获取节目单范围内的 AdLib
func (r *gormAdLibRepository) ListForRundown(ctx context.Context, rundownID string, includeGlobal bool) ([]*model.AdLib, error) {
	var adlibs []*model.AdLib
	q := r.db.WithContext(ctx)
	if includeGlobal {
		q = q.Where("rundown_id = ? OR rundown_id = ''", rundownID)
	} else {
		q = q.Where("rundown_id = ?", rundownID)
	}
	if err := q.Order("`rank`").Find(&adlibs).Error; err != nil {
		return nil, err
	}
	return adlibs, nil
}

// Create 创建 AdLib
func (r *gormAdLibRepository) Create(ctx context.Context, adlib *model.AdLib) error {
	return r.db.WithContext(ctx).Create(adlib).Error
}

// ShowStyleRepository 节目样式数据访问接口
type ShowStyleRepository interface {
	GetByID(ctx context.Context, id string) (*model.ShowStyleBase, error)
	Create(ctx context.Context, showStyle *model.ShowStyleBase) error
}

// gormShowStyleRepository GORM 实现
type gormShowStyleRepository struct {
	db *gorm.DB
}

// NewGormShowStyleRepository 创建 GORM 节目样式仓库
func NewGormShowStyleRepository(db *gorm.DB) ShowStyleRepository {
	return &gormShowStyleRepository{db: db}
}

// GetByID 根据ID获取节目样式
func (r *gormShowStyleRepository) GetByID(ctx context.Context, id string) (*model.ShowStyleBase, error) {
	var style model.ShowStyleBase
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&style).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &style, nil
}

// Create 创建节目样式
func (r *gormShowStyleRepository) Create(ctx context.Context, showStyle *model.ShowStyleBase) error {
	return r.db.WithContext(ctx).Create(showStyle).Error
}
