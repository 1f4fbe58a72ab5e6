package status

import (
	"AirCue/core/reactive"
	"AirCue/model"
)

// 主题名
const (
	TopicPlaylist = "playlist"
	TopicStudio   = "studio"
	TopicAdLib    = "adlib"
)

// PartRef 当前/排队 Part 的摘要
type PartRef struct {
	InstanceID string `json:"instanceId"`
	PartID     string `json:"partId"`
	Name       string `json:"name"`
	AutoNext   bool   `json:"autoNext"`
	TakeNumber int    `json:"takeNumber,omitempty"`
}

// SegmentRef 段落摘要
type SegmentRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PlaylistStatusView 播出单状态视图
type PlaylistStatusView struct {
	Status       string       `json:"status"` // deactivated|rehearsal|activated
	PlaylistID   string       `json:"playlistId,omitempty"`
	Name         string       `json:"name,omitempty"`
	ActivationID string       `json:"activationId,omitempty"`
	Rehearsal    bool         `json:"rehearsal,omitempty"`
	RundownIDs   []string     `json:"rundownIds,omitempty"`
	CurrentPart  *PartRef     `json:"currentPart,omitempty"`
	NextPart     *PartRef     `json:"nextPart,omitempty"`
	TakeCount    int          `json:"takeCount,omitempty"`
	Segments     []SegmentRef `json:"onAirSegments,omitempty"`
	PartCount    int          `json:"partCount,omitempty"`
}

func partRef(pi *model.PartInstance) *PartRef {
	if pi == nil {
		return nil
	}
	return &PartRef{
		InstanceID: pi.ID,
		PartID:     pi.PartID,
		Name:       pi.Name,
		AutoNext:   pi.AutoNext,
		TakeNumber: pi.TakeNumber,
	}
}

// RenderPlaylistView 渲染播出单视图。
// 必需源：playlist、partInstances；其余源有则并入。
func RenderPlaylistView(sources map[string]interface{}) interface{} {
	view := &PlaylistStatusView{Status: "deactivated"}

	playlist, _ := sources["playlist"].(*model.RundownPlaylist)
	if playlist == nil {
		return view
	}

	view.Status = playlist.ActivationStatus()
	view.PlaylistID = playlist.ID
	view.Name = playlist.Name
	view.ActivationID = playlist.ActivationID
	view.Rehearsal = playlist.Rehearsal
	view.RundownIDs = playlist.RundownIDs
	view.TakeCount = playlist.TakeCount

	if state, _ := sources["partInstances"].(*reactive.PartInstancesState); state != nil {
		view.CurrentPart = partRef(state.CurrentInstance())
		view.NextPart = partRef(state.NextInstance())
	}
	if parts, _ := sources["parts"].([]*model.Part); parts != nil {
		view.PartCount = len(parts)
	}
	if segments, _ := sources["segments"].([]*model.Segment); segments != nil {
		for _, seg := range segments {
			view.Segments = append(view.Segments, SegmentRef{ID: seg.ID, Name: seg.Name})
		}
	}

	return view
}

// StudioStatusView 演播室状态视图
type StudioStatusView struct {
	StudioID       string `json:"studioId"`
	Name           string `json:"name"`
	ActivePlaylist *struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"activePlaylist,omitempty"`
}

// RenderStudioView 渲染演播室视图。必需源：studio、playlist。
func RenderStudioView(sources map[string]interface{}) interface{} {
	view := &StudioStatusView{}

	if studio, _ := sources["studio"].(*model.Studio); studio != nil {
		view.StudioID = studio.ID
		view.Name = studio.Name
	}
	if playlist, _ := sources["playlist"].(*model.RundownPlaylist); playlist != nil && playlist.IsActive() {
		view.ActivePlaylist = &struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Status string `json:"status"`
		}{ID: playlist.ID, Name: playlist.Name, Status: playlist.ActivationStatus()}
	}

	return view
}

// AdLibSummary AdLib 摘要，层ID已解析为显示名称
type AdLibSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SourceLayer string `json:"sourceLayer"`
	OutputLayer string `json:"outputLayer"`
	TriggerMode string `json:"triggerMode,omitempty"`
	Global      bool   `json:"global,omitempty"`
	IsAction    bool   `json:"isAction,omitempty"`
}

// AdLibStatusView AdLib 状态视图
type AdLibStatusView struct {
	Items []AdLibSummary `json:"items"`
}

// RenderAdLibView 渲染 AdLib 视图。
// 必需源：adLibs、showStyle。层名称缺了样式就解析不了，
// 两个源都齐才算完整视图。
func RenderAdLibView(sources map[string]interface{}) interface{} {
	view := &AdLibStatusView{Items: []AdLibSummary{}}

	adlibs, _ := sources["adLibs"].([]*model.AdLib)
	style, _ := sources["showStyle"].(*model.ShowStyleBase)

	layerName := func(layers model.LayerMap, id string) string {
		if style != nil {
			if name, ok := layers[id]; ok {
				return name
			}
		}
		return id
	}

	for _, a := range adlibs {
		var srcLayers, outLayers model.LayerMap
		if style != nil {
			srcLayers = style.SourceLayers
			outLayers = style.OutputLayers
		}
		view.Items = append(view.Items, AdLibSummary{
			ID:          a.ID,
			Name:        a.Name,
			SourceLayer: layerName(srcLayers, a.SourceLayer),
			OutputLayer: layerName(outLayers, a.OutputLayer),
			TriggerMode: a.TriggerMode,
			Global:      a.IsGlobal(),
			IsAction:    a.IsAction,
		})
	}

	return view
}

// NewPlaylistTopic 创建播出单主题
func NewPlaylistTopic(cache ViewCache) *Topic {
	return NewTopic(TopicPlaylist, []string{"playlist", "partInstances"}, RenderPlaylistView, cache)
}

// NewStudioTopic 创建演播室主题
func NewStudioTopic(cache ViewCache) *Topic {
	return NewTopic(TopicStudio, []string{"studio", "playlist"}, RenderStudioView, cache)
}

// NewAdLibTopic 创建 AdLib 主题
func NewAdLibTopic(cache ViewCache) *Topic {
	return NewTopic(TopicAdLib, []string{"adLibs", "showStyle"}, RenderAdLibView, cache)
}
