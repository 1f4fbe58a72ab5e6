package playout

import (
	"context"
	"fmt"
	"time"

	"AirCue/logger"
	"AirCue/model"

	"github.com/google/uuid"
)

// Controller 播出单激活状态机。
// 状态：未激活 / 彩排 / 正式播出，循环无终态。
// 所有操作持有该播出单的互斥锁，加载 PlayoutModel、
// 变更后一次性原子提交，再触发时间线生成与延迟钩子。
type Controller struct {
	store     PlayoutStore
	selector  NextPartSelector
	timeline  TimelineGenerator
	hooks     ExtensibilityHooks
	archiver  AsRunArchiver
	transient TransientStore
	locks     *lockManager
}

// Option 控制器可选配置
type Option func(*Controller)

// WithHooks 配置扩展钩子
func WithHooks(h ExtensibilityHooks) Option {
	return func(c *Controller) { c.hooks = h }
}

// WithArchiver 配置场记归档
func WithArchiver(a AsRunArchiver) Option {
	return func(c *Controller) { c.archiver = a }
}

// WithTransientStore 配置激活周期临时数据区
func WithTransientStore(t TransientStore) Option {
	return func(c *Controller) { c.transient = t }
}

// NewController 创建激活控制器
func NewController(store PlayoutStore, selector NextPartSelector, timeline TimelineGenerator, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		selector: selector,
		timeline: timeline,
		hooks:    NopHooks{},
		locks:    newLockManager(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result 指令执行结果。Warnings 携带副作用失败
// （时间线生成、钩子、归档），核心状态已提交时操作仍算成功。
type Result struct {
	Playlist *model.RundownPlaylist `json:"playlist"`
	Warnings []string               `json:"warnings,omitempty"`
}

func (r *Result) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (c *Controller) load(ctx context.Context, playlistID string) (*PlayoutModel, error) {
	data, err := c.store.LoadPlayout(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	return NewPlayoutModel(data), nil
}

// Activate 激活播出单。
// rehearsal 为真进入彩排；对已激活播出单再次调用是 warm re-activation，
// 保留 current/next 与激活令牌，仅更新彩排标记。
func (c *Controller) Activate(ctx context.Context, playlistID string, rehearsal bool) (*Result, error) {
	unlock := c.locks.acquire(playlistID)
	defer unlock()

	m, err := c.load(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	wasActive := m.Playlist.IsActive()

	if !wasActive {
		// 冷激活前置检查：同演播室互斥。提交事务内还会复核一次。
		if m.OtherActiveID != "" {
			return nil, NewFailure(ExclusivityViolation,
				"playlist %s is already active in studio %s", m.OtherActiveID, m.Playlist.StudioID)
		}

		if !m.FreshlyReset() {
			m.MarkAllInstancesReset()
			m.Playlist.CurrentPartInstanceID = ""
			m.Playlist.NextPartInstanceID = ""
		}

		now := time.Now()
		m.Playlist.ActivationID = uuid.New().String()
		m.Playlist.ActivatedAt = &now
		m.Playlist.DeactivatedAt = nil
		m.Playlist.TakeCount = 0
		m.Playlist.HoldState = model.HoldStateNone

		// 还没有任何内容在播，第一条可播 Part 只排队为 next
		if first := c.selector.SelectNext(m, nil); first != nil {
			m.SetNext(m.CreateInstance(first))
		}
	}

	m.Playlist.Rehearsal = rehearsal

	if err := c.store.CommitPlayout(ctx, m.Changes(!wasActive)); err != nil {
		return nil, err
	}

	result := &Result{Playlist: m.Playlist}
	c.regenerateTimeline(ctx, m, result)
	c.runDeferred("onActivate", func() error {
		return c.hooks.OnActivate(ctx, m.Playlist, wasActive)
	})

	logger.Info("playlist activated",
		logger.String("playlist", m.Playlist.ID),
		logger.String("activation", m.Playlist.ActivationID),
		logger.Bool("rehearsal", rehearsal),
		logger.Bool("wasActive", wasActive))
	return result, nil
}

// Deactivate 让播出单下场。对未激活播出单调用是幂等的空操作。
func (c *Controller) Deactivate(ctx context.Context, playlistID string) (*Result, error) {
	unlock := c.locks.acquire(playlistID)
	defer unlock()

	m, err := c.load(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	if !m.Playlist.IsActive() {
		return &Result{Playlist: m.Playlist}, nil
	}

	endedActivation := m.Playlist.ActivationID
	now := time.Now()

	// 当前实例打停播时间戳，保留做场记
	if cur := m.CurrentInstance(); cur != nil && cur.StoppedAt == nil {
		stopped := now
		cur.StoppedAt = &stopped
		m.MarkInstanceDirty(cur)
	}

	// 与 setNextPart(null) 同一路径清空排队
	m.SetNext(nil)
	m.Playlist.CurrentPartInstanceID = ""
	m.Playlist.ActivationID = ""
	m.Playlist.HoldState = model.HoldStateNone
	m.Playlist.DeactivatedAt = &now

	if err := c.store.CommitPlayout(ctx, m.Changes(false)); err != nil {
		return nil, err
	}

	result := &Result{Playlist: m.Playlist}
	c.regenerateTimeline(ctx, m, result)

	if c.transient != nil {
		if err := c.transient.Clear(ctx, endedActivation); err != nil {
			logger.Warn("failed to clear activation scratch",
				logger.ErrorField(err),
				logger.String("activation", endedActivation))
			result.warnf("scratch: %v", err)
		}
	}

	if c.archiver != nil {
		instances := m.ActivationInstances(endedActivation)
		if err := c.archiver.Archive(ctx, m.Playlist, endedActivation, instances); err != nil {
			logger.Warn("as-run archive failed",
				logger.ErrorField(err),
				logger.String("playlist", m.Playlist.ID),
				logger.String("activation", endedActivation))
			result.warnf("as-run archive: %v", err)
		}
	}

	c.runDeferred("onDeactivate", func() error {
		return c.hooks.OnDeactivate(ctx, m.Playlist)
	})

	logger.Info("playlist deactivated",
		logger.String("playlist", m.Playlist.ID),
		logger.String("endedActivation", endedActivation))
	return result, nil
}

// Take 将排队实例推上播出。
// fromPartInstanceID 非空时做乐观并发检查，
// 与当前在播实例不符则拒绝为 StaleRequest。
func (c *Controller) Take(ctx context.Context, playlistID string, fromPartInstanceID string) (*Result, error) {
	unlock := c.locks.acquire(playlistID)
	defer unlock()

	m, err := c.load(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	if !m.Playlist.IsActive() {
		return nil, NewFailure(Inactive, "playlist %s is not active", playlistID)
	}
	if fromPartInstanceID != "" && fromPartInstanceID != m.Playlist.CurrentPartInstanceID {
		return nil, NewFailure(StaleRequest,
			"take was requested from part instance %s but %s is on air",
			fromPartInstanceID, m.Playlist.CurrentPartInstanceID)
	}

	next := m.NextInstance()
	if next == nil || !next.IsEligible(m.Playlist.ActivationID) {
		return nil, NewFailure(NoNextPart, "playlist %s has no next part", playlistID)
	}

	promoted := m.PromoteNext(time.Now())

	// 按排序规则计算新的 next
	if part := m.PartByID(promoted.PartID); part != nil {
		if np := c.selector.SelectNext(m, part); np != nil {
			m.SetNext(m.CreateInstance(np))
		}
	}

	if err := c.store.CommitPlayout(ctx, m.Changes(false)); err != nil {
		return nil, err
	}

	result := &Result{Playlist: m.Playlist}
	c.regenerateTimeline(ctx, m, result)

	logger.Info("take",
		logger.String("playlist", m.Playlist.ID),
		logger.String("current", m.Playlist.CurrentPartInstanceID),
		logger.String("next", m.Playlist.NextPartInstanceID),
		logger.Int("takeCount", m.Playlist.TakeCount))
	return result, nil
}

// SetNextPart 手工指定下一条，独立于排序规则；partID 为空时清空排队
func (c *Controller) SetNextPart(ctx context.Context, playlistID string, partID string) (*Result, error) {
	unlock := c.locks.acquire(playlistID)
	defer unlock()

	m, err := c.load(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	if !m.Playlist.IsActive() {
		return nil, NewFailure(Inactive, "playlist %s is not active", playlistID)
	}

	if partID == "" {
		m.SetNext(nil)
	} else {
		part := m.PartByID(partID)
		if part == nil {
			return nil, NewFailure(NotFound, "part %s not found in playlist %s", partID, playlistID)
		}
		m.SetNext(m.CreateInstance(part))
	}

	if err := c.store.CommitPlayout(ctx, m.Changes(false)); err != nil {
		return nil, err
	}

	result := &Result{Playlist: m.Playlist}
	c.regenerateTimeline(ctx, m, result)

	logger.Info("set next part",
		logger.String("playlist", m.Playlist.ID),
		logger.String("part", partID),
		logger.String("next", m.Playlist.NextPartInstanceID))
	return result, nil
}

// ResetPlaylist 清空 current/next 并将所有实例标记为已重置。
// 只允许在未激活状态下执行；在播重置是另一个受策略管控的操作。
func (c *Controller) ResetPlaylist(ctx context.Context, playlistID string) (*Result, error) {
	unlock := c.locks.acquire(playlistID)
	defer unlock()

	m, err := c.load(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	if m.Playlist.IsActive() {
		return nil, NewFailure(Inactive, "reset requires playlist %s to be inactive", playlistID)
	}

	now := time.Now()
	m.MarkAllInstancesReset()
	m.Playlist.CurrentPartInstanceID = ""
	m.Playlist.NextPartInstanceID = ""
	m.Playlist.TakeCount = 0
	m.Playlist.HoldState = model.HoldStateNone
	m.Playlist.ResetTime = &now

	if err := c.store.CommitPlayout(ctx, m.Changes(false)); err != nil {
		return nil, err
	}

	logger.Info("playlist reset", logger.String("playlist", m.Playlist.ID))
	return &Result{Playlist: m.Playlist}, nil
}

// regenerateTimeline 状态提交后再生成时间线。
// 失败不回滚已提交的状态，只降级为警告。
func (c *Controller) regenerateTimeline(ctx context.Context, m *PlayoutModel, result *Result) {
	if c.timeline == nil {
		return
	}
	if err := c.timeline.Regenerate(ctx, m); err != nil {
		logger.Error("timeline regeneration failed",
			logger.ErrorField(err),
			logger.String("playlist", m.Playlist.ID))
		result.warnf("timeline: %v", err)
	}
}

// runDeferred 提交后执行扩展钩子，panic 与错误一律隔离
func (c *Controller) runDeferred(name string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("extensibility hook panicked",
				logger.String("hook", name),
				logger.Any("panic", r))
		}
	}()
	if err := fn(); err != nil {
		logger.Warn("extensibility hook failed",
			logger.String("hook", name),
			logger.ErrorField(err))
	}
}
