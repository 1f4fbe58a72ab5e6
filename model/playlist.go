package model

import "time"

// HoldState 暂停过渡状态
type HoldState string

const (
	HoldStateNone     HoldState = ""
	HoldStatePending  HoldState = "pending"
	HoldStateActive   HoldState = "active"
	HoldStateComplete HoldState = "complete"
)

// RundownPlaylist 播出单：一组按顺序编排的 Rundown，激活的基本单位。
// 只有激活控制器会修改这张表；订阅图只读镜像。
type RundownPlaylist struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	StudioID   string     `json:"studioId" gorm:"size:36;index;not null"`
	Name       string     `json:"name" gorm:"size:100;not null"`
	RundownIDs StringList `json:"rundownIds" gorm:"type:json"`

	// ActivationID 为空表示未激活；每次从完全未激活状态激活时生成新令牌。
	// 彩排转正式播出（warm re-activation）保留原令牌。
	ActivationID          string    `json:"activationId,omitempty" gorm:"size:36;index"`
	Rehearsal             bool      `json:"rehearsal"`
	CurrentPartInstanceID string    `json:"currentPartInstanceId,omitempty" gorm:"size:36"`
	NextPartInstanceID    string    `json:"nextPartInstanceId,omitempty" gorm:"size:36"`
	HoldState             HoldState `json:"holdState,omitempty" gorm:"size:20"`

	// TakeCount 本次激活周期内的切换次数，用于场记
	TakeCount     int        `json:"takeCount"`
	ResetTime     *time.Time `json:"resetTime,omitempty"`
	ActivatedAt   *time.Time `json:"activatedAt,omitempty"`
	DeactivatedAt *time.Time `json:"deactivatedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// TableName 指定表名
func (RundownPlaylist) TableName() string {
	return "rundown_playlists"
}

// IsActive 判断播出单是否处于激活状态
func (p *RundownPlaylist) IsActive() bool {
	return p.ActivationID != ""
}

// ActivationStatus 对外状态字符串：deactivated / rehearsal / activated
func (p *RundownPlaylist) ActivationStatus() string {
	switch {
	case p.ActivationID == "":
		return "deactivated"
	case p.Rehearsal:
		return "rehearsal"
	default:
		return "activated"
	}
}
