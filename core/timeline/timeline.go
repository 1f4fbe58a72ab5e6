package timeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"AirCue/core/playout"
	"AirCue/logger"
	"AirCue/model"

	"github.com/go-redis/redis/v8"
)

// timelineDoc 下发给播出设备的时间线快照。
// 每个演播室一份，键为 timeline:<studioID>。
type timelineDoc struct {
	StudioID     string          `json:"studioId"`
	PlaylistID   string          `json:"playlistId,omitempty"`
	ActivationID string          `json:"activationId,omitempty"`
	Generation   int64           `json:"generation"`
	GeneratedAt  time.Time       `json:"generatedAt"`
	Current      *entry          `json:"current,omitempty"`
	Next         *entry          `json:"next,omitempty"`
	HoldState    model.HoldState `json:"holdState"`
}

type entry struct {
	PartInstanceID string     `json:"partInstanceId"`
	PartID         string     `json:"partId"`
	Name           string     `json:"name"`
	AutoNext       bool       `json:"autoNext"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
}

// RedisTimeline 默认时间线生成器，把时间线快照写入 Redis 供设备侧读取
type RedisTimeline struct {
	client     *redis.Client
	generation int64
}

func NewRedisTimeline(client *redis.Client) *RedisTimeline {
	return &RedisTimeline{client: client}
}

// Generation 返回累计再生成次数
func (t *RedisTimeline) Generation() int64 {
	return atomic.LoadInt64(&t.generation)
}

func (t *RedisTimeline) Regenerate(ctx context.Context, m *playout.PlayoutModel) error {
	gen := atomic.AddInt64(&t.generation, 1)

	doc := timelineDoc{
		StudioID:    m.Playlist.StudioID,
		Generation:  gen,
		GeneratedAt: time.Now(),
		HoldState:   m.Playlist.HoldState,
	}
	if m.Playlist.IsActive() {
		doc.PlaylistID = m.Playlist.ID
		doc.ActivationID = m.Playlist.ActivationID
		doc.Current = toEntry(m.CurrentInstance())
		doc.Next = toEntry(m.NextInstance())
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化时间线失败: %v", err)
	}

	key := fmt.Sprintf("timeline:%s", m.Playlist.StudioID)
	if err := t.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("写入时间线失败: %v", err)
	}

	logger.Debug("Timeline regenerated",
		logger.String("studioId", m.Playlist.StudioID),
		logger.Int64("generation", gen))
	return nil
}

func toEntry(pi *model.PartInstance) *entry {
	if pi == nil {
		return nil
	}
	return &entry{
		PartInstanceID: pi.ID,
		PartID:         pi.PartID,
		Name:           pi.Name,
		AutoNext:       pi.AutoNext,
		StartedAt:      pi.StartedAt,
	}
}
