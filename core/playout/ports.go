package playout

import (
	"context"

	"AirCue/model"
)

// TimelineGenerator 设备输出时间线再生成端口。
// 失败只记录为警告，已提交的播出状态不回滚。
type TimelineGenerator interface {
	Regenerate(ctx context.Context, m *PlayoutModel) error
}

// ExtensibilityHooks 扩展钩子（blueprint）端口。
// 在提交之后延迟调用，异常被捕获记录，绝不影响播出正确性。
type ExtensibilityHooks interface {
	OnActivate(ctx context.Context, playlist *model.RundownPlaylist, wasActive bool) error
	OnDeactivate(ctx context.Context, playlist *model.RundownPlaylist) error
}

// AsRunArchiver 场记归档端口，下场时归档本次激活的实例记录
type AsRunArchiver interface {
	Archive(ctx context.Context, playlist *model.RundownPlaylist, activationID string, instances []*model.PartInstance) error
}

// TransientStore 激活周期内的临时数据区，下场时整体清除
type TransientStore interface {
	Clear(ctx context.Context, activationID string) error
}

// NopHooks 空实现，未配置 blueprint 时使用
type NopHooks struct{}

func (NopHooks) OnActivate(context.Context, *model.RundownPlaylist, bool) error { return nil }
func (NopHooks) OnDeactivate(context.Context, *model.RundownPlaylist) error     { return nil }

// NopTimeline 空实现，测试用
type NopTimeline struct{}

func (NopTimeline) Regenerate(context.Context, *PlayoutModel) error { return nil }
