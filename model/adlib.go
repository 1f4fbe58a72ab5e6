package model

import "time"

// AdLib 即兴播出元素，不在主 Part 序列内。
// RundownID 为空表示全局基线（baseline）范围。
type AdLib struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	RundownID   string    `json:"rundownId,omitempty" gorm:"size:36;index"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	SourceLayer string    `json:"sourceLayer" gorm:"size:50"`
	OutputLayer string    `json:"outputLayer" gorm:"size:50"`
	TriggerMode string    `json:"triggerMode" gorm:"size:20"` // queue, now
	IsAction    bool      `json:"isAction"`
	Rank        float64   `json:"rank"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (AdLib) TableName() string {
	return "adlibs"
}

// IsGlobal 判断是否为全局基线 AdLib
func (a *AdLib) IsGlobal() bool {
	return a.RundownID == ""
}
