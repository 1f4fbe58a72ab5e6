package repository

import (
	"context"

	"AirCue/model"

	"gorm.io/gorm"
)

// PlaylistRepository 播出单数据访问接口。
// 激活相关字段只由激活控制器通过 PlayoutStore 修改，
// 这里提供读路径与编单侧的创建入口。
type PlaylistRepository interface {
	GetByID(ctx context.Context, id string) (*model.RundownPlaylist, error)
	List(ctx context.Context) ([]*model.RundownPlaylist, error)
	ListByStudio(ctx context.Context, studioID string) ([]*model.RundownPlaylist, error)
	// FindActive 返回演播室中处于激活状态的播出单（排除 excludeID），没有则为 nil
	FindActive(ctx context.Context, studioID string, excludeID string) (*model.RundownPlaylist, error)
	Create(ctx context.Context, playlist *model.RundownPlaylist) error
}

// gormPlaylistRepository GORM 实现
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository 创建 GORM 播出单仓库
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// GetByID 根据ID获取播出单
func (r *gormPlaylistRepository) GetByID(ctx context.Context, id string) (*model.RundownPlaylist, error) {
	var playlist model.RundownPlaylist
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&playlist).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &playlist, nil
}

// List 获取全部播出单
func (r *gormPlaylistRepository) List(ctx context.Context) ([]*model.RundownPlaylist, error) {
	var playlists []*model.RundownPlaylist
	if err := r.db.WithContext(ctx).Order("name").Find(&playlists).Error; err != nil {
		return nil, err
	}
	return playlists, nil
}

// ListByStudio 获取演播室下的播出单
func (r *gormPlaylistRepository) ListByStudio(ctx context.Context, studioID string) ([]*model.RundownPlaylist, error) {
	var playlists []*model.RundownPlaylist
	err := r.db.WithContext(ctx).
		Where("studio_id = ?", studioID).
		Order("name").
		Find(&playlists).Error
	if err != nil {
		return nil, err
	}
	return playlists, nil
}

// FindActive 查找演播室中激活的播出单
func (r *gormPlaylistRepository) FindActive(ctx context.Context, studioID string, excludeID string) (*model.RundownPlaylist, error) {
	var playlist model.RundownPlaylist
	q := r.db.WithContext(ctx).
		Where("studio_id = ? AND activation_id <> ''", studioID)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.First(&playlist).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &playlist, nil
}

// Create 创建播出单
func (r *gormPlaylistRepository) Create(ctx context.Context, playlist *model.RundownPlaylist) error {
	return r.db.WithContext(ctx).Create(playlist).Error
}
