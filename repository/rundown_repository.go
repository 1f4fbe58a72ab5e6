package repository

import (
	"context"

	"AirCue/model"

	"gorm.io/gorm"
)

// RundownRepository 节目单及其内容的数据访问接口
type RundownRepository interface {
	ListByIDs(ctx context.Context, ids []string) ([]*model.Rundown, error)
	ListByPlaylist(ctx context.Context, playlistID string) ([]*model.Rundown, error)
	Create(ctx context.Context, rundown *model.Rundown) error

	// 段落与 Part，均按播出顺序返回
	SegmentsByRundowns(ctx context.Context, rundownIDs []string) ([]*model.Segment, error)
	SegmentsByIDs(ctx context.Context, ids []string) ([]*model.Segment, error)
	PartsByRundowns(ctx context.Context, rundownIDs []string) ([]*model.Part, error)
	CreateSegment(ctx context.Context, segment *model.Segment) error
	CreatePart(ctx context.Context, part *model.Part) error
}

// gormRundownRepository GORM 实现
type gormRundownRepository struct {
	db *gorm.DB
}

// NewGormRundownRepository 创建 GORM 节目单仓库
func NewGormRundownRepository(db *gorm.DB) RundownRepository {
	return &gormRundownRepository{db: db}
}

// ListByIDs 按ID集合获取节目单，按编排顺序返回
func (r *gormRundownRepository) ListByIDs(ctx context.Context, ids []string) ([]*model.Rundown, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rundowns []*model.Rundown
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("`rank`").
		Find(&rundowns).Error
	if err != nil {
		return nil, err
	}
	return rundowns, nil
}

// ListByPlaylist 获取播出单下的节目单
func (r *gormRundownRepository) ListByPlaylist(ctx context.Context, playlistID string) ([]*model.Rundown, error) {
	var rundowns []*model.Rundown
	err := r.db.WithContext(ctx).
		Where("playlist_id = ?", playlistID).
		Order("`rank`").
		Find(&rundowns).Error
	if err != nil {
		return nil, err
	}
	return rundowns, nil
}

// Create 创建节目单
func (r *gormRundownRepository) Create(ctx context.Context, rundown *model.Rundown) error {
	return r.db.WithContext(ctx).Create(rundown).Error
}

// SegmentsByRundowns 获取多个节目单的段落
func (r *gormRundownRepository) SegmentsByRundowns(ctx context.Context, rundownIDs []string) ([]*model.Segment, error) {
	if len(rundownIDs) == 0 {
		return nil, nil
	}
	var segments []*model.Segment
	err := r.db.WithContext(ctx).
		Where("rundown_id IN ?", rundownIDs).
		Order("`rank`").
		Find(&segments).Error
	if err != nil {
		return nil, err
	}
	return segments, nil
}

// SegmentsByIDs 按ID集合获取段落
func (r *gormRundownRepository) SegmentsByIDs(ctx context.Context, ids []string) ([]*model.Segment, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var segments []*model.Segment
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("`rank`").
		Find(&segments).Error
	if err != nil {
		return nil, err
	}
	return segments, nil
}

// PartsByRundowns 获取多个节目单的 Part
func (r *gormRundownRepository) PartsByRundowns(ctx context.Context, rundownIDs []string) ([]*model.Part, error) {
	if len(rundownIDs) == 0 {
		return nil, nil
	}
	var parts []*model.Part
	err := r.db.WithContext(ctx).
		Where("rundown_id IN ?", rundownIDs).
		Order("`rank`").
		Find(&parts).Error
	if err != nil {
		return nil, err
	}
	return parts, nil
}

// CreateSegment 创建段落
func (r *gormRundownRepository) CreateSegment(ctx context.Context, segment *model.Segment) error {
	return r.db.WithContext(ctx).Create(segment).Error
}

// CreatePart 创建 Part
func (r *gormRundownRepository) CreatePart(ctx context.Context, part *model.Part) error {
	return r.db.WithContext(ctx).Create(part).Error
}
