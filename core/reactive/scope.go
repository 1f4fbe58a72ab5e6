package reactive

import (
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
)

// ScopeKey 节点订阅范围的身份。
// 相等性只看身份字段（深比较），指纹用于快速路径。
type ScopeKey struct {
	// Empty 表示上游范围为空（例如播出单未激活），
	// 节点应退订并向下游发显式空信号
	Empty bool

	StudioID     string
	PlaylistID   string
	ActivationID string
	RundownID    string

	// RundownIDs 节目单ID集合（节目单/Part 级节点使用）
	RundownIDs mapset.Set[string]
	// DocIDs 具体文档ID集合（段落/样式级节点使用）
	DocIDs []string
}

// EmptyScope 空范围
func EmptyScope() ScopeKey {
	return ScopeKey{Empty: true}
}

// canonical 身份字段的规范序列化，集合先排序
func (k ScopeKey) canonical() string {
	var sb strings.Builder
	if k.Empty {
		sb.WriteString("empty")
	}
	sb.WriteString("\x1f")
	sb.WriteString(k.StudioID)
	sb.WriteString("\x1f")
	sb.WriteString(k.PlaylistID)
	sb.WriteString("\x1f")
	sb.WriteString(k.ActivationID)
	sb.WriteString("\x1f")
	sb.WriteString(k.RundownID)
	sb.WriteString("\x1f")
	if k.RundownIDs != nil {
		ids := k.RundownIDs.ToSlice()
		sort.Strings(ids)
		sb.WriteString(strings.Join(ids, ","))
	}
	sb.WriteString("\x1f")
	if len(k.DocIDs) > 0 {
		ids := append([]string(nil), k.DocIDs...)
		sort.Strings(ids)
		sb.WriteString(strings.Join(ids, ","))
	}
	return sb.String()
}

// Fingerprint 身份字段的 xxhash 指纹
func (k ScopeKey) Fingerprint() uint64 {
	return xxhash.Sum64String(k.canonical())
}

// Equal 深比较两个范围
func (k ScopeKey) Equal(other ScopeKey) bool {
	if k.Empty != other.Empty {
		return false
	}
	return k.canonical() == other.canonical()
}

// RundownScope 便捷构造：节目单ID集合范围
func RundownScope(activationID string, rundownIDs []string) ScopeKey {
	if activationID == "" || len(rundownIDs) == 0 {
		return EmptyScope()
	}
	return ScopeKey{
		ActivationID: activationID,
		RundownIDs:   mapset.NewSet(rundownIDs...),
	}
}
