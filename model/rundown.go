package model

import "time"

// Rundown 节目单，属于唯一一个播出单，由编单系统创建。
// 播出期间除同步状态标记外不可变。
type Rundown struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	PlaylistID      string    `json:"playlistId" gorm:"size:36;index;not null"`
	StudioID        string    `json:"studioId" gorm:"size:36;index;not null"`
	ShowStyleBaseID string    `json:"showStyleBaseId" gorm:"size:36;index"`
	Name            string    `json:"name" gorm:"size:100;not null"`
	Rank            int       `json:"rank"`
	Unsynced        bool      `json:"unsynced"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Rundown) TableName() string {
	return "rundowns"
}

// Segment 段落，节目单内的分组与界面展示单位
type Segment struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	RundownID string    `json:"rundownId" gorm:"size:36;index;not null"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Rank      float64   `json:"rank"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Segment) TableName() string {
	return "segments"
}

// Part 一个播出节拍的编排模板，不可变。
// Floated 或 Invalid 的 Part 不参与自动选下一条。
type Part struct {
	ID                 string    `json:"id" gorm:"primaryKey;size:36"`
	SegmentID          string    `json:"segmentId" gorm:"size:36;index;not null"`
	RundownID          string    `json:"rundownId" gorm:"size:36;index;not null"`
	Name               string    `json:"name" gorm:"size:100;not null"`
	Rank               float64   `json:"rank"`
	Floated            bool      `json:"floated"`
	Invalid            bool      `json:"invalid"`
	AutoNext           bool      `json:"autoNext"`
	ExpectedDurationMs int       `json:"expectedDurationMs"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Part) TableName() string {
	return "parts"
}

// IsPlayable 判断 Part 是否可作为当前/下一条候选
func (p *Part) IsPlayable() bool {
	return !p.Floated && !p.Invalid
}

// ShowStyleBase 节目样式定义，提供素材层与输出层的名称映射
type ShowStyleBase struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Name         string    `json:"name" gorm:"size:100;not null"`
	SourceLayers LayerMap  `json:"sourceLayers" gorm:"type:json"`
	OutputLayers LayerMap  `json:"outputLayers" gorm:"type:json"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (ShowStyleBase) TableName() string {
	return "show_style_bases"
}
