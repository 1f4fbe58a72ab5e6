package playout

import (
	"context"
	"time"

	"AirCue/model"

	"github.com/google/uuid"
)

// PlayoutData 一次操作加载的播出单完整可播状态
type PlayoutData struct {
	Playlist *model.RundownPlaylist
	Studio   *model.Studio
	// Rundowns/Segments/Parts 均按播出顺序排列（节目单序 -> 段落序 -> Part序）
	Rundowns []*model.Rundown
	Segments []*model.Segment
	Parts    []*model.Part
	// Instances 播出单下所有未重置的 PartInstance
	Instances []*model.PartInstance
	// OtherActiveID 同演播室中其他处于激活状态的播出单ID（如有）
	OtherActiveID string
}

// ChangeSet 一次操作产生的全部持久化变更，必须原子提交
type ChangeSet struct {
	Playlist        *model.RundownPlaylist
	UpsertInstances []*model.PartInstance
	// ResetInstances 为真时将该播出单下所有 PartInstance 标记为已重置
	ResetInstances bool
	// EnsureStudioExclusive 为真时在事务内复核演播室互斥不变量
	EnsureStudioExclusive bool
}

// PlayoutStore 播出状态的加载与原子提交端口。
// GORM 实现见 repository 包，测试使用内存实现。
type PlayoutStore interface {
	LoadPlayout(ctx context.Context, playlistID string) (*PlayoutData, error)
	CommitPlayout(ctx context.Context, cs *ChangeSet) error
}

// PlayoutModel 事务作用域内的内存聚合。
// 生命周期仅限一次状态变更操作；操作结束后不得复用。
type PlayoutModel struct {
	Playlist *model.RundownPlaylist
	Studio   *model.Studio
	Rundowns []*model.Rundown
	Segments []*model.Segment
	Parts    []*model.Part

	// OtherActiveID 加载时同演播室中其他激活播出单的ID（如有）
	OtherActiveID string

	partsByID     map[string]*model.Part
	instancesByID map[string]*model.PartInstance

	dirtyInstances map[string]*model.PartInstance
	resetAll       bool
}

// NewPlayoutModel 从加载结果构建聚合
func NewPlayoutModel(data *PlayoutData) *PlayoutModel {
	m := &PlayoutModel{
		OtherActiveID:  data.OtherActiveID,
		Playlist:       data.Playlist,
		Studio:         data.Studio,
		Rundowns:       data.Rundowns,
		Segments:       data.Segments,
		Parts:          data.Parts,
		partsByID:      make(map[string]*model.Part, len(data.Parts)),
		instancesByID:  make(map[string]*model.PartInstance, len(data.Instances)),
		dirtyInstances: make(map[string]*model.PartInstance),
	}
	for _, p := range data.Parts {
		m.partsByID[p.ID] = p
	}
	for _, pi := range data.Instances {
		m.instancesByID[pi.ID] = pi
	}
	return m
}

// PartByID 按ID查找 Part
func (m *PlayoutModel) PartByID(id string) *model.Part {
	return m.partsByID[id]
}

// InstanceByID 按ID查找 PartInstance
func (m *PlayoutModel) InstanceByID(id string) *model.PartInstance {
	return m.instancesByID[id]
}

// CurrentInstance 当前在播实例，没有则为 nil
func (m *PlayoutModel) CurrentInstance() *model.PartInstance {
	if m.Playlist.CurrentPartInstanceID == "" {
		return nil
	}
	return m.instancesByID[m.Playlist.CurrentPartInstanceID]
}

// NextInstance 已排队实例，没有则为 nil
func (m *PlayoutModel) NextInstance() *model.PartInstance {
	if m.Playlist.NextPartInstanceID == "" {
		return nil
	}
	return m.instancesByID[m.Playlist.NextPartInstanceID]
}

// EligibleInstances 当前激活令牌下可用的实例
func (m *PlayoutModel) EligibleInstances() []*model.PartInstance {
	out := make([]*model.PartInstance, 0, len(m.instancesByID))
	for _, pi := range m.instancesByID {
		if pi.IsEligible(m.Playlist.ActivationID) {
			out = append(out, pi)
		}
	}
	return out
}

// ActivationInstances 指定激活令牌下的全部实例（场记归档用）
func (m *PlayoutModel) ActivationInstances(activationID string) []*model.PartInstance {
	out := make([]*model.PartInstance, 0, len(m.instancesByID))
	for _, pi := range m.instancesByID {
		if pi.ActivationID == activationID {
			out = append(out, pi)
		}
	}
	return out
}

// FreshlyReset 判断播出单是否处于刚重置的干净状态
func (m *PlayoutModel) FreshlyReset() bool {
	if m.Playlist.CurrentPartInstanceID != "" || m.Playlist.NextPartInstanceID != "" {
		return false
	}
	return len(m.instancesByID) == 0
}

// CreateInstance 为 Part 实例化一个 PartInstance，
// 打上当前激活令牌并纳入聚合
func (m *PlayoutModel) CreateInstance(part *model.Part) *model.PartInstance {
	now := time.Now()
	pi := &model.PartInstance{
		ID:           uuid.New().String(),
		PartID:       part.ID,
		SegmentID:    part.SegmentID,
		RundownID:    part.RundownID,
		PlaylistID:   m.Playlist.ID,
		ActivationID: m.Playlist.ActivationID,
		Name:         part.Name,
		Rank:         part.Rank,
		AutoNext:     part.AutoNext,
		CreatedAt:    now,
		UpdatedAt:    now,
		IsNew:        true,
	}
	m.instancesByID[pi.ID] = pi
	m.MarkInstanceDirty(pi)
	return pi
}

// SetNext 设置排队实例；nil 清空。被替换的旧排队实例标记为已重置，
// 使其不再满足 current/next 资格。
func (m *PlayoutModel) SetNext(pi *model.PartInstance) {
	if old := m.NextInstance(); old != nil && (pi == nil || old.ID != pi.ID) {
		if old.ID != m.Playlist.CurrentPartInstanceID {
			old.Reset = true
			m.MarkInstanceDirty(old)
		}
	}
	if pi == nil {
		m.Playlist.NextPartInstanceID = ""
		return
	}
	m.Playlist.NextPartInstanceID = pi.ID
}

// PromoteNext 将排队实例提升为当前实例（take 的核心动作）
func (m *PlayoutModel) PromoteNext(now time.Time) *model.PartInstance {
	next := m.NextInstance()
	if next == nil {
		return nil
	}

	if cur := m.CurrentInstance(); cur != nil {
		stopped := now
		cur.StoppedAt = &stopped
		m.MarkInstanceDirty(cur)
	}

	started := now
	next.StartedAt = &started
	m.Playlist.TakeCount++
	next.TakeNumber = m.Playlist.TakeCount
	m.MarkInstanceDirty(next)

	m.Playlist.CurrentPartInstanceID = next.ID
	m.Playlist.NextPartInstanceID = ""
	return next
}

// MarkInstanceDirty 记录实例待写入
func (m *PlayoutModel) MarkInstanceDirty(pi *model.PartInstance) {
	pi.UpdatedAt = time.Now()
	m.dirtyInstances[pi.ID] = pi
}

// MarkAllInstancesReset 将所有实例标记为已重置（重置/冷激活路径）
func (m *PlayoutModel) MarkAllInstancesReset() {
	for _, pi := range m.instancesByID {
		pi.Reset = true
	}
	m.resetAll = true
}

// Changes 汇总本次操作的持久化变更
func (m *PlayoutModel) Changes(ensureExclusive bool) *ChangeSet {
	m.Playlist.UpdatedAt = time.Now()
	cs := &ChangeSet{
		Playlist:              m.Playlist,
		ResetInstances:        m.resetAll,
		EnsureStudioExclusive: ensureExclusive,
	}
	for _, pi := range m.dirtyInstances {
		cs.UpsertInstances = append(cs.UpsertInstances, pi)
	}
	return cs
}
