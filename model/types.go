package model

import (
	"database/sql/driver"
	"encoding/json"
)

// StringList 自定义类型用于 GORM JSON 字段的自动扫描
type StringList []string

// Scan 实现 sql.Scanner 接口
func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*s = nil
		return nil
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*s = nil
		return nil
	}
	return json.Unmarshal(bytes, s)
}

// Value 实现 driver.Valuer 接口
func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Contains 判断列表中是否包含指定值
func (s StringList) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// LayerMap 自定义类型用于层定义的 JSON 字段（层ID -> 层名称）
type LayerMap map[string]string

// Scan 实现 sql.Scanner 接口
func (m *LayerMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*m = nil
		return nil
	}
	if len(bytes) == 0 || string(bytes) == "null" {
		*m = nil
		return nil
	}
	return json.Unmarshal(bytes, m)
}

// Value 实现 driver.Valuer 接口
func (m LayerMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// 集合名称，变更通知按集合分发
const (
	CollectionStudios       = "studios"
	CollectionPlaylists     = "playlists"
	CollectionRundowns      = "rundowns"
	CollectionSegments      = "segments"
	CollectionParts         = "parts"
	CollectionPartInstances = "part_instances"
	CollectionAdLibs        = "adlibs"
	CollectionShowStyles    = "show_styles"
)
