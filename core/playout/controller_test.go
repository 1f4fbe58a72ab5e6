package playout_test

import (
	"context"
	"errors"
	"testing"

	"AirCue/core/playout"
	"AirCue/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore 内存 PlayoutStore，模拟加载-提交往返：
// 每次加载返回副本，提交才写回，未提交的变更不泄漏。
type memStore struct {
	playlist      *model.RundownPlaylist
	studio        *model.Studio
	rundowns      []*model.Rundown
	segments      []*model.Segment
	parts         []*model.Part
	instances     map[string]*model.PartInstance
	otherActiveID string

	commits    int
	failCommit error
}

func (s *memStore) LoadPlayout(ctx context.Context, playlistID string) (*playout.PlayoutData, error) {
	if s.playlist == nil || s.playlist.ID != playlistID {
		return nil, playout.NewFailure(playout.NotFound, "playlist %s not found", playlistID)
	}

	p := *s.playlist
	data := &playout.PlayoutData{
		Playlist:      &p,
		Studio:        s.studio,
		Rundowns:      s.rundowns,
		Segments:      s.segments,
		Parts:         s.parts,
		OtherActiveID: s.otherActiveID,
	}
	for _, pi := range s.instances {
		if pi.Reset {
			continue
		}
		cp := *pi
		data.Instances = append(data.Instances, &cp)
	}
	return data, nil
}

func (s *memStore) CommitPlayout(ctx context.Context, cs *playout.ChangeSet) error {
	if s.failCommit != nil {
		return s.failCommit
	}
	if cs.EnsureStudioExclusive && s.otherActiveID != "" {
		return playout.NewFailure(playout.ExclusivityViolation,
			"another playlist is active in studio %s", cs.Playlist.StudioID)
	}

	if cs.ResetInstances {
		for _, pi := range s.instances {
			pi.Reset = true
		}
	}
	for _, pi := range cs.UpsertInstances {
		cp := *pi
		s.instances[cp.ID] = &cp
	}
	p := *cs.Playlist
	s.playlist = &p
	s.commits++
	return nil
}

// failingTimeline 时间线生成总是失败
type failingTimeline struct{}

func (failingTimeline) Regenerate(context.Context, *playout.PlayoutModel) error {
	return errors.New("device gateway unreachable")
}

func newStore() *memStore {
	return &memStore{
		playlist: &model.RundownPlaylist{
			ID:         "pl1",
			StudioID:   "studio1",
			Name:       "Bulletin",
			RundownIDs: model.StringList{"rd1"},
		},
		studio:   &model.Studio{ID: "studio1", Name: "Main"},
		rundowns: []*model.Rundown{{ID: "rd1", PlaylistID: "pl1", StudioID: "studio1"}},
		segments: []*model.Segment{
			{ID: "seg1", RundownID: "rd1", Rank: 0},
			{ID: "seg2", RundownID: "rd1", Rank: 1},
		},
		parts: []*model.Part{
			{ID: "pA", SegmentID: "seg1", RundownID: "rd1", Name: "A", Rank: 0},
			{ID: "pB", SegmentID: "seg1", RundownID: "rd1", Name: "B", Rank: 1},
			{ID: "pC", SegmentID: "seg2", RundownID: "rd1", Name: "C", Rank: 0},
		},
		instances: make(map[string]*model.PartInstance),
	}
}

func newController(s *memStore, opts ...playout.Option) *playout.Controller {
	return playout.NewController(s, playout.NewOrderedSelector(), playout.NopTimeline{}, opts...)
}

// 冷激活生成新令牌，把第一条可播 Part 排为 next，不设 current
func TestActivateColdQueuesFirstPlayableAsNext(t *testing.T) {
	s := newStore()
	c := newController(s)

	result, err := c.Activate(context.Background(), "pl1", true)
	require.NoError(t, err)

	p := result.Playlist
	assert.NotEmpty(t, p.ActivationID)
	assert.True(t, p.Rehearsal)
	assert.Empty(t, p.CurrentPartInstanceID)
	require.NotEmpty(t, p.NextPartInstanceID)

	next := s.instances[p.NextPartInstanceID]
	require.NotNil(t, next)
	assert.Equal(t, "pA", next.PartID)
	assert.Equal(t, p.ActivationID, next.ActivationID)
}

// Floated 的 Part 不会被排为第一条 next
func TestActivateSkipsFloatedParts(t *testing.T) {
	s := newStore()
	s.parts[0].Floated = true
	c := newController(s)

	result, err := c.Activate(context.Background(), "pl1", false)
	require.NoError(t, err)

	next := s.instances[result.Playlist.NextPartInstanceID]
	require.NotNil(t, next)
	assert.Equal(t, "pB", next.PartID)
}

// 同演播室已有激活播出单时冷激活被拒绝
func TestActivateExclusivityViolation(t *testing.T) {
	s := newStore()
	s.otherActiveID = "pl-other"
	c := newController(s)

	_, err := c.Activate(context.Background(), "pl1", false)
	require.Error(t, err)
	assert.True(t, playout.IsKind(err, playout.ExclusivityViolation))
	assert.Equal(t, 0, s.commits)
}

// 彩排转正式播出保留激活令牌与 current/next 指针
func TestWarmReactivationPreservesActivation(t *testing.T) {
	s := newStore()
	c := newController(s)
	ctx := context.Background()

	first, err := c.Activate(ctx, "pl1", true)
	require.NoError(t, err)
	token := first.Playlist.ActivationID

	_, err = c.Take(ctx, "pl1", "")
	require.NoError(t, err)
	current := s.playlist.CurrentPartInstanceID
	require.NotEmpty(t, current)

	second, err := c.Activate(ctx, "pl1", false)
	require.NoError(t, err)

	assert.Equal(t, token, second.Playlist.ActivationID)
	assert.False(t, second.Playlist.Rehearsal)
	assert.Equal(t, current, second.Playlist.CurrentPartInstanceID)
}

// 冷激活时上一周期的残留实例先被整体重置
func TestActivateColdResetsStaleInstances(t *testing.T) {
	s := newStore()
	s.instances["old1"] = &model.PartInstance{
		ID: "old1", PartID: "pA", PlaylistID: "pl1", ActivationID: "expired-token",
	}
	c := newController(s)

	result, err := c.Activate(context.Background(), "pl1", false)
	require.NoError(t, err)

	assert.True(t, s.instances["old1"].Reset)
	next := s.instances[result.Playlist.NextPartInstanceID]
	require.NotNil(t, next)
	assert.False(t, next.Reset)
	assert.NotEqual(t, "expired-token", next.ActivationID)
}

// take 把排队实例推上播出并按顺序排好新的 next
func TestTakeAdvancesThroughParts(t *testing.T) {
	s := newStore()
	c := newController(s)
	ctx := context.Background()

	_, err := c.Activate(ctx, "pl1", false)
	require.NoError(t, err)

	result, err := c.Take(ctx, "pl1", "")
	require.NoError(t, err)

	p := result.Playlist
	assert.Equal(t, "pA", s.instances[p.CurrentPartInstanceID].PartID)
	assert.Equal(t, "pB", s.instances[p.NextPartInstanceID].PartID)
	assert.Equal(t, 1, p.TakeCount)

	result, err = c.Take(ctx, "pl1", "")
	require.NoError(t, err)
	p = result.Playlist
	assert.Equal(t, "pB", s.instances[p.CurrentPartInstanceID].PartID)
	assert.Equal(t, "pC", s.instances[p.NextPartInstanceID].PartID)
	assert.Equal(t, 2, p.TakeCount)

	// 最后一条之后没有 next
	result, err = c.Take(ctx, "pl1", "")
	require.NoError(t, err)
	p = result.Playlist
	assert.Equal(t, "pC", s.instances[p.CurrentPartInstanceID].PartID)
	assert.Empty(t, p.NextPartInstanceID)

	_, err = c.Take(ctx, "pl1", "")
	require.Error(t, err)
	assert.True(t, playout.IsKind(err, playout.NoNextPart))
}

// 带过期 fromPartInstanceId 的 take 被拒绝，状态不变
func TestTakeStaleRequestRejected(t *testing.T) {
	s := newStore()
	c := newController(s)
	ctx := context.Background()

	_, err := c.Activate(ctx, "pl1", false)
	require.NoError(t, err)
	_, err = c.Take(ctx, "pl1", "")
	require.NoError(t, err)

	onAir := s.playlist.CurrentPartInstanceID
	commits := s.commits

	_, err = c.Take(ctx, "pl1", "some-older-instance")
	require.Error(t, err)
	assert.True(t, playout.IsKind(err, playout.StaleRequest))
	assert.Equal(t, onAir, s.playlist.CurrentPartInstanceID)
	assert.Equal(t, commits, s.commits)

	// 与在播实例一致时照常执行
	_, err = c.Take(ctx, "pl1", onAir)
	require.NoError(t, err)
}

// 未激活播出单上的 take 被拒绝
func TestTakeInactiveRejected(t *testing.T) {
	s := newStore()
	c := newController(s)

	_, err := c.Take(context.Background(), "pl1", "")
	require.Error(t, err)
	assert.True(t, playout.IsKind(err, playout.Inactive))
}

// 下场清空激活状态并给在播实例打停播时间戳；重复下场是无操作
func TestDeactivateIdempotent(t *testing.T) {
	s := newStore()
	c := newController(s)
	ctx := context.Background()

	_, err := c.Activate(ctx, "pl1", false)
	require.NoError(t, err)
	_, err = c.Take(ctx, "pl1", "")
	require.NoError(t, err)
	onAir := s.playlist.CurrentPartInstanceID

	result, err := c.Deactivate(ctx, "pl1")
	require.NoError(t, err)

	p := result.Playlist
	assert.Empty(t, p.ActivationID)
	assert.Empty(t, p.CurrentPartInstanceID)
	assert.Empty(t, p.NextPartInstanceID)
	require.NotNil(t, s.instances[onAir].StoppedAt)

	commits := s.commits
	result, err = c.Deactivate(ctx, "pl1")
	require.NoError(t, err)
	assert.Empty(t, result.Playlist.ActivationID)
	assert.Equal(t, commits, s.commits)
}

// 手工指定 next 独立于排序规则；空ID清空排队；未知ID报 NotFound
func TestSetNextPart(t *testing.T) {
	s := newStore()
	c := newController(s)
	ctx := context.Background()

	_, err := c.Activate(ctx, "pl1", false)
	require.NoError(t, err)

	result, err := c.SetNextPart(ctx, "pl1", "pC")
	require.NoError(t, err)
	assert.Equal(t, "pC", s.instances[result.Playlist.NextPartInstanceID].PartID)

	result, err = c.SetNextPart(ctx, "pl1", "")
	require.NoError(t, err)
	assert.Empty(t, result.Playlist.NextPartInstanceID)

	_, err = c.SetNextPart(ctx, "pl1", "no-such-part")
	require.Error(t, err)
	assert.True(t, playout.IsKind(err, playout.NotFound))
}

// 未激活时不能指定 next
func TestSetNextPartInactiveRejected(t *testing.T) {
	s := newStore()
	c := newController(s)

	_, err := c.SetNextPart(context.Background(), "pl1", "pA")
	require.Error(t, err)
	assert.True(t, playout.IsKind(err, playout.Inactive))
}

// 激活状态下的重置被拒绝；未激活时重置清空实例与计数
func TestResetPlaylist(t *testing.T) {
	s := newStore()
	c := newController(s)
	ctx := context.Background()

	_, err := c.Activate(ctx, "pl1", false)
	require.NoError(t, err)
	_, err = c.Take(ctx, "pl1", "")
	require.NoError(t, err)

	_, err = c.ResetPlaylist(ctx, "pl1")
	require.Error(t, err)

	_, err = c.Deactivate(ctx, "pl1")
	require.NoError(t, err)

	result, err := c.ResetPlaylist(ctx, "pl1")
	require.NoError(t, err)
	assert.Zero(t, result.Playlist.TakeCount)
	assert.NotNil(t, result.Playlist.ResetTime)
	for _, pi := range s.instances {
		assert.True(t, pi.Reset)
	}
}

// 重置后的下一次激活从干净状态开始，take 回到第一条 Part
func TestResetThenReactivateStartsFromTop(t *testing.T) {
	s := newStore()
	c := newController(s)
	ctx := context.Background()

	_, err := c.Activate(ctx, "pl1", false)
	require.NoError(t, err)
	_, err = c.Take(ctx, "pl1", "")
	require.NoError(t, err)
	_, err = c.Take(ctx, "pl1", "")
	require.NoError(t, err)
	_, err = c.Deactivate(ctx, "pl1")
	require.NoError(t, err)
	_, err = c.ResetPlaylist(ctx, "pl1")
	require.NoError(t, err)

	result, err := c.Activate(ctx, "pl1", false)
	require.NoError(t, err)
	next := s.instances[result.Playlist.NextPartInstanceID]
	require.NotNil(t, next)
	assert.Equal(t, "pA", next.PartID)
}

// 时间线生成失败不回滚已提交的状态，只出现在警告里
func TestTimelineFailureDegradesToWarning(t *testing.T) {
	s := newStore()
	c := playout.NewController(s, playout.NewOrderedSelector(), failingTimeline{})

	result, err := c.Activate(context.Background(), "pl1", false)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Playlist.ActivationID)
	assert.NotEmpty(t, result.Warnings)
	assert.True(t, s.playlist.IsActive())
}

// 提交失败时操作失败，错误归类为持久化失败
func TestCommitFailurePropagates(t *testing.T) {
	s := newStore()
	s.failCommit = playout.NewFailure(playout.PersistenceFailure, "connection lost")
	c := newController(s)

	_, err := c.Activate(context.Background(), "pl1", false)
	require.Error(t, err)
	assert.True(t, playout.IsKind(err, playout.PersistenceFailure))
}

// 不存在的播出单报 NotFound
func TestUnknownPlaylistNotFound(t *testing.T) {
	s := newStore()
	c := newController(s)

	_, err := c.Activate(context.Background(), "no-such-playlist", false)
	require.Error(t, err)
	assert.True(t, playout.IsKind(err, playout.NotFound))
}
