package playout

import "AirCue/model"

// NextPartSelector 依据排序规则挑选下一条 Part。
// current 为 nil 时返回第一条可播 Part。
type NextPartSelector interface {
	SelectNext(m *PlayoutModel, current *model.Part) *model.Part
}

// OrderedSelector 默认实现：按加载时的播出顺序
// （节目单序 -> 段落序 -> Part序）向后查找，跳过不可播的 Part，
// 段落末尾自动落入下一段落。
type OrderedSelector struct{}

// NewOrderedSelector 创建默认选择器
func NewOrderedSelector() *OrderedSelector {
	return &OrderedSelector{}
}

// SelectNext 返回 current 之后第一条可播 Part；没有则返回 nil
func (s *OrderedSelector) SelectNext(m *PlayoutModel, current *model.Part) *model.Part {
	start := 0
	if current != nil {
		idx := -1
		for i, p := range m.Parts {
			if p.ID == current.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			// 当前 Part 已不在序列中（例如所在节目单被移除），从头查找
			return s.SelectNext(m, nil)
		}
		start = idx + 1
	}

	for _, p := range m.Parts[start:] {
		if p.IsPlayable() {
			return p
		}
	}
	return nil
}
