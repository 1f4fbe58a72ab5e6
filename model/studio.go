package model

import "time"

// Studio 演播室，播出激活互斥的作用域。
// 同一演播室在任意时刻最多只能有一个处于激活状态的播出单。
type Studio struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Studio) TableName() string {
	return "studios"
}

// Operator 操作员账号，用于指令接口鉴权
type Operator struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"size:50;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:100;not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName 指定表名
func (Operator) TableName() string {
	return "operators"
}
