package model

import "time"

// PartInstance Part 的一次可播放实例化。
// 创建时记录所属激活令牌；只有 Reset=false 且令牌与当前激活一致的实例
// 才能作为 current/next。历史实例保留用于场记，仅在显式重置时标记 Reset。
type PartInstance struct {
	ID           string `json:"id" gorm:"primaryKey;size:36"`
	PartID       string `json:"partId" gorm:"size:36;index;not null"`
	SegmentID    string `json:"segmentId" gorm:"size:36;index;not null"`
	RundownID    string `json:"rundownId" gorm:"size:36;index;not null"`
	PlaylistID   string `json:"playlistId" gorm:"size:36;index;not null"`
	ActivationID string `json:"activationId" gorm:"size:36;index;not null"`

	Name       string  `json:"name" gorm:"size:100;not null"`
	Rank       float64 `json:"rank"`
	AutoNext   bool    `json:"autoNext"`
	TakeNumber int     `json:"takeNumber"`
	Reset      bool    `json:"reset" gorm:"index"`

	StartedAt *time.Time `json:"startedAt,omitempty"`
	StoppedAt *time.Time `json:"stoppedAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// IsNew 本次操作新建的实例，仅用于变更通知分类，不落库
	IsNew bool `json:"-" gorm:"-"`
}

// TableName 指定表名
func (PartInstance) TableName() string {
	return "part_instances"
}

// IsEligible 判断实例在给定激活令牌下是否可作为 current/next
func (pi *PartInstance) IsEligible(activationID string) bool {
	return !pi.Reset && activationID != "" && pi.ActivationID == activationID
}
