package repository

import (
	"context"
	"errors"
	"sort"

	"AirCue/core/playout"
	"AirCue/model"
	"AirCue/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPlayoutStore playout.PlayoutStore 的 GORM 实现。
// 加载一次操作所需的全量可播状态，提交走单个数据库事务，
// 事务成功后向变更频道发布事件。
type GormPlayoutStore struct {
	db        *gorm.DB
	publisher store.Publisher
}

// NewGormPlayoutStore 创建 GORM 播出状态存储
func NewGormPlayoutStore(db *gorm.DB, publisher store.Publisher) *GormPlayoutStore {
	return &GormPlayoutStore{db: db, publisher: publisher}
}

// LoadPlayout 加载播出单的完整可播状态
func (s *GormPlayoutStore) LoadPlayout(ctx context.Context, playlistID string) (*playout.PlayoutData, error) {
	db := s.db.WithContext(ctx)

	var playlist model.RundownPlaylist
	if err := db.Where("id = ?", playlistID).First(&playlist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, playout.NewFailure(playout.NotFound, "playlist %s not found", playlistID)
		}
		return nil, playout.WrapFailure(playout.PersistenceFailure, err, "failed to load playlist %s", playlistID)
	}

	var studio model.Studio
	if err := db.Where("id = ?", playlist.StudioID).First(&studio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, playout.NewFailure(playout.NotFound, "studio %s not found", playlist.StudioID)
		}
		return nil, playout.WrapFailure(playout.PersistenceFailure, err, "failed to load studio %s", playlist.StudioID)
	}

	data := &playout.PlayoutData{Playlist: &playlist, Studio: &studio}

	var other model.RundownPlaylist
	err := db.Where("studio_id = ? AND id <> ? AND activation_id <> ''", playlist.StudioID, playlist.ID).
		First(&other).Error
	switch {
	case err == nil:
		data.OtherActiveID = other.ID
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 演播室内没有其他激活播出单
	default:
		return nil, playout.WrapFailure(playout.PersistenceFailure, err, "failed to probe studio exclusivity")
	}

	rundownIDs := []string(playlist.RundownIDs)
	if len(rundownIDs) > 0 {
		if err := db.Where("id IN ?", rundownIDs).Order("`rank`").Find(&data.Rundowns).Error; err != nil {
			return nil, playout.WrapFailure(playout.PersistenceFailure, err, "failed to load rundowns")
		}
		if err := db.Where("rundown_id IN ?", rundownIDs).Order("`rank`").Find(&data.Segments).Error; err != nil {
			return nil, playout.WrapFailure(playout.PersistenceFailure, err, "failed to load segments")
		}
		if err := db.Where("rundown_id IN ?", rundownIDs).Order("`rank`").Find(&data.Parts).Error; err != nil {
			return nil, playout.WrapFailure(playout.PersistenceFailure, err, "failed to load parts")
		}
		orderPlayout(data)
	}

	if err := db.Where("playlist_id = ? AND `reset` = ?", playlist.ID, false).Find(&data.Instances).Error; err != nil {
		return nil, playout.WrapFailure(playout.PersistenceFailure, err, "failed to load part instances")
	}

	return data, nil
}

// orderPlayout 将段落与 Part 排成全局播出顺序：
// 节目单编排序 -> 段落序 -> Part序
func orderPlayout(data *playout.PlayoutData) {
	rundownOrder := make(map[string]int, len(data.Rundowns))
	for i, r := range data.Rundowns {
		rundownOrder[r.ID] = i
	}

	sort.SliceStable(data.Segments, func(i, j int) bool {
		a, b := data.Segments[i], data.Segments[j]
		if rundownOrder[a.RundownID] != rundownOrder[b.RundownID] {
			return rundownOrder[a.RundownID] < rundownOrder[b.RundownID]
		}
		return a.Rank < b.Rank
	})

	segmentOrder := make(map[string]int, len(data.Segments))
	for i, seg := range data.Segments {
		segmentOrder[seg.ID] = i
	}

	sort.SliceStable(data.Parts, func(i, j int) bool {
		a, b := data.Parts[i], data.Parts[j]
		if segmentOrder[a.SegmentID] != segmentOrder[b.SegmentID] {
			return segmentOrder[a.SegmentID] < segmentOrder[b.SegmentID]
		}
		return a.Rank < b.Rank
	})
}

// CommitPlayout 在单个事务内提交全部变更。
// 任何一步失败整体回滚，不留部分状态。
func (s *GormPlayoutStore) CommitPlayout(ctx context.Context, cs *playout.ChangeSet) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if cs.EnsureStudioExclusive {
			var count int64
			if err := tx.Model(&model.RundownPlaylist{}).
				Where("studio_id = ? AND id <> ? AND activation_id <> ''",
					cs.Playlist.StudioID, cs.Playlist.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return playout.NewFailure(playout.ExclusivityViolation,
					"another playlist is active in studio %s", cs.Playlist.StudioID)
			}
		}

		if cs.ResetInstances {
			if err := tx.Model(&model.PartInstance{}).
				Where("playlist_id = ?", cs.Playlist.ID).
				Update("reset", true).Error; err != nil {
				return err
			}
		}

		// 重置之后再写入本次新建/修改的实例，保持它们的 reset 标记
		for _, pi := range cs.UpsertInstances {
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(pi).Error; err != nil {
				return err
			}
		}

		return tx.Save(cs.Playlist).Error
	})
	if err != nil {
		var f *playout.Failure
		if errors.As(err, &f) {
			return f
		}
		return playout.WrapFailure(playout.PersistenceFailure, err, "playout commit failed")
	}

	s.publishChanges(ctx, cs)
	return nil
}

// publishChanges 事务提交后发布变更事件，供订阅图镜像
func (s *GormPlayoutStore) publishChanges(ctx context.Context, cs *playout.ChangeSet) {
	if s.publisher == nil {
		return
	}

	p := cs.Playlist
	s.publisher.Publish(ctx, store.ChangeEvent{
		Collection:   model.CollectionPlaylists,
		Kind:         store.EventChanged,
		DocID:        p.ID,
		StudioID:     p.StudioID,
		PlaylistID:   p.ID,
		ActivationID: p.ActivationID,
	})

	for _, pi := range cs.UpsertInstances {
		kind := store.EventChanged
		if pi.IsNew {
			kind = store.EventAdded
		}
		s.publisher.Publish(ctx, store.ChangeEvent{
			Collection:   model.CollectionPartInstances,
			Kind:         kind,
			DocID:        pi.ID,
			StudioID:     p.StudioID,
			PlaylistID:   pi.PlaylistID,
			RundownID:    pi.RundownID,
			ActivationID: pi.ActivationID,
		})
	}

	if cs.ResetInstances {
		// 批量重置没有逐条事件，发一个集合级通知让镜像重拉
		s.publisher.Publish(ctx, store.ChangeEvent{
			Collection: model.CollectionPartInstances,
			Kind:       store.EventChanged,
			StudioID:   p.StudioID,
			PlaylistID: p.ID,
		})
	}
}
