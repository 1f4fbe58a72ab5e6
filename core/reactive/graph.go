package reactive

import (
	"context"
	"time"

	"AirCue/model"
	"AirCue/repository"
	"AirCue/store"
)

// Sink 订阅图叶子的输出端（状态扇出主题实现此接口）。
// scope 是当前范围令牌（通常为激活令牌），
// 主题用它区分不同范围下的数据源上报。
type Sink interface {
	Update(source string, scope string, data interface{})
}

// GraphStores 订阅图的读路径依赖
type GraphStores struct {
	Studios    repository.StudioRepository
	Playlists  repository.PlaylistRepository
	Rundowns   repository.RundownRepository
	Instances  repository.PartInstanceRepository
	AdLibs     repository.AdLibRepository
	ShowStyles repository.ShowStyleRepository
}

// GraphSinks 订阅图的输出主题
type GraphSinks struct {
	PlaylistTopic Sink
	StudioTopic   Sink
	AdLibTopic    Sink
}

// PartInstancesState 实例节点的快照内容：
// 实例集合加上推导下游范围所需的非规范化上下文
type PartInstancesState struct {
	Playlist  *model.RundownPlaylist
	Rundowns  []*model.Rundown
	Instances []*model.PartInstance
}

// CurrentInstance 当前在播实例
func (s *PartInstancesState) CurrentInstance() *model.PartInstance {
	return s.findInstance(s.Playlist.CurrentPartInstanceID)
}

// NextInstance 排队实例
func (s *PartInstancesState) NextInstance() *model.PartInstance {
	return s.findInstance(s.Playlist.NextPartInstanceID)
}

func (s *PartInstancesState) findInstance(id string) *model.PartInstance {
	if s == nil || s.Playlist == nil || id == "" {
		return nil
	}
	for _, pi := range s.Instances {
		if pi.ID == id {
			return pi
		}
	}
	return nil
}

// onAirRundownID 当前（或排队）实例所在的节目单
func (s *PartInstancesState) onAirRundownID() string {
	if pi := s.CurrentInstance(); pi != nil {
		return pi.RundownID
	}
	if pi := s.NextInstance(); pi != nil {
		return pi.RundownID
	}
	return ""
}

// onAirSegmentIDs 当前与排队实例引用的段落
func (s *PartInstancesState) onAirSegmentIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, pi := range []*model.PartInstance{s.CurrentInstance(), s.NextInstance()} {
		if pi != nil && !seen[pi.SegmentID] {
			seen[pi.SegmentID] = true
			ids = append(ids, pi.SegmentID)
		}
	}
	return ids
}

// rundownByID 从快照上下文中找节目单
func (s *PartInstancesState) rundownByID(id string) *model.Rundown {
	for _, r := range s.Rundowns {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Graph 一个演播室的订阅图：
// Studio → Playlist → {Rundowns, Parts, PartInstances}
//
//	PartInstances → {Segments, AdLibs, ShowStyle}
//
// 叶子节点直接喂状态扇出主题。
type Graph struct {
	loop     *Loop
	studioID string
	nodes    []*Node

	StudioNode    *Node
	PlaylistNode  *Node
	RundownsNode  *Node
	PartsNode     *Node
	InstancesNode *Node
	SegmentsNode  *Node
	AdLibsNode    *Node
	ShowStyleNode *Node
}

// NewGraph 按固定拓扑搭建一个演播室的订阅图
func NewGraph(
	loop *Loop,
	observer store.Observer,
	stores GraphStores,
	sinks GraphSinks,
	studioID string,
	debounce time.Duration,
) *Graph {
	g := &Graph{loop: loop, studioID: studioID}

	g.StudioNode = g.add(NewNode(loop, observer, NodeConfig{
		Name:     "studio",
		Debounce: debounce,
		Scope: func(*Snapshot) ScopeKey {
			return ScopeKey{StudioID: studioID, DocIDs: []string{studioID}}
		},
		Queries: func(key ScopeKey) []store.Query {
			return []store.Query{{Collection: model.CollectionStudios, DocIDs: key.DocIDs}}
		},
		Resolve: func(ctx context.Context, key ScopeKey) (interface{}, error) {
			s, err := stores.Studios.GetByID(ctx, key.StudioID)
			if s == nil {
				return nil, err
			}
			return s, nil
		},
	}))

	g.PlaylistNode = g.add(NewNode(loop, observer, NodeConfig{
		Name:     "playlist",
		Debounce: debounce,
		Scope: func(up *Snapshot) ScopeKey {
			if up == nil || up.Empty {
				return EmptyScope()
			}
			return ScopeKey{StudioID: studioID}
		},
		Queries: func(key ScopeKey) []store.Query {
			return []store.Query{{Collection: model.CollectionPlaylists, StudioID: key.StudioID}}
		},
		Resolve: func(ctx context.Context, key ScopeKey) (interface{}, error) {
			// 镜像的是"演播室当前激活的播出单"；没有激活时内容为空但范围仍然适用
			// 空指针要先解包再装入 interface，否则下游拿到的是非 nil 的空值
			p, err := stores.Playlists.FindActive(ctx, key.StudioID, "")
			if p == nil {
				return nil, err
			}
			return p, nil
		},
	}))
	g.StudioNode.AddDownstream(g.PlaylistNode)

	activePlaylist := func(up *Snapshot) *model.RundownPlaylist {
		if up == nil || up.Empty {
			return nil
		}
		p, _ := up.Docs.(*model.RundownPlaylist)
		if p == nil || !p.IsActive() {
			return nil
		}
		return p
	}

	g.RundownsNode = g.add(NewNode(loop, observer, NodeConfig{
		Name:     "rundowns",
		Debounce: debounce,
		Scope: func(up *Snapshot) ScopeKey {
			p := activePlaylist(up)
			if p == nil {
				return EmptyScope()
			}
			return RundownScope(p.ActivationID, p.RundownIDs)
		},
		Queries: func(key ScopeKey) []store.Query {
			return []store.Query{{Collection: model.CollectionRundowns, RundownIDs: key.RundownIDs.ToSlice()}}
		},
		Resolve: func(ctx context.Context, key ScopeKey) (interface{}, error) {
			return stores.Rundowns.ListByIDs(ctx, key.RundownIDs.ToSlice())
		},
	}))
	g.PlaylistNode.AddDownstream(g.RundownsNode)

	g.PartsNode = g.add(NewNode(loop, observer, NodeConfig{
		Name:     "parts",
		Debounce: debounce,
		Scope: func(up *Snapshot) ScopeKey {
			p := activePlaylist(up)
			if p == nil {
				return EmptyScope()
			}
			return RundownScope(p.ActivationID, p.RundownIDs)
		},
		Queries: func(key ScopeKey) []store.Query {
			return []store.Query{{Collection: model.CollectionParts, RundownIDs: key.RundownIDs.ToSlice()}}
		},
		Resolve: func(ctx context.Context, key ScopeKey) (interface{}, error) {
			return stores.Rundowns.PartsByRundowns(ctx, key.RundownIDs.ToSlice())
		},
	}))
	g.PlaylistNode.AddDownstream(g.PartsNode)

	g.InstancesNode = g.add(NewNode(loop, observer, NodeConfig{
		Name:     "partInstances",
		Debounce: debounce,
		Scope: func(up *Snapshot) ScopeKey {
			p := activePlaylist(up)
			if p == nil {
				return EmptyScope()
			}
			return ScopeKey{PlaylistID: p.ID, ActivationID: p.ActivationID}
		},
		Queries: func(key ScopeKey) []store.Query {
			// 一次逻辑事件同时触及播出单指针与实例，两路订阅共用去抖
			return []store.Query{
				{Collection: model.CollectionPartInstances, PlaylistID: key.PlaylistID},
				{Collection: model.CollectionPlaylists, PlaylistID: key.PlaylistID},
			}
		},
		Resolve: func(ctx context.Context, key ScopeKey) (interface{}, error) {
			playlist, err := stores.Playlists.GetByID(ctx, key.PlaylistID)
			if err != nil {
				return nil, err
			}
			if playlist == nil {
				return &PartInstancesState{}, nil
			}
			rundowns, err := stores.Rundowns.ListByIDs(ctx, playlist.RundownIDs)
			if err != nil {
				return nil, err
			}
			instances, err := stores.Instances.ListByActivation(ctx, key.PlaylistID, key.ActivationID)
			if err != nil {
				return nil, err
			}
			return &PartInstancesState{Playlist: playlist, Rundowns: rundowns, Instances: instances}, nil
		},
	}))
	g.PlaylistNode.AddDownstream(g.InstancesNode)

	instancesState := func(up *Snapshot) *PartInstancesState {
		if up == nil || up.Empty {
			return nil
		}
		s, _ := up.Docs.(*PartInstancesState)
		if s == nil || s.Playlist == nil || !s.Playlist.IsActive() {
			return nil
		}
		return s
	}

	g.SegmentsNode = g.add(NewNode(loop, observer, NodeConfig{
		Name:     "segments",
		Debounce: debounce,
		Scope: func(up *Snapshot) ScopeKey {
			s := instancesState(up)
			if s == nil {
				return EmptyScope()
			}
			ids := s.onAirSegmentIDs()
			if len(ids) == 0 {
				return EmptyScope()
			}
			return ScopeKey{ActivationID: s.Playlist.ActivationID, DocIDs: ids}
		},
		Queries: func(key ScopeKey) []store.Query {
			return []store.Query{{Collection: model.CollectionSegments, DocIDs: key.DocIDs}}
		},
		Resolve: func(ctx context.Context, key ScopeKey) (interface{}, error) {
			return stores.Rundowns.SegmentsByIDs(ctx, key.DocIDs)
		},
	}))
	g.InstancesNode.AddDownstream(g.SegmentsNode)

	g.AdLibsNode = g.add(NewNode(loop, observer, NodeConfig{
		Name:     "adlibs",
		Debounce: debounce,
		Scope: func(up *Snapshot) ScopeKey {
			s := instancesState(up)
			if s == nil {
				return EmptyScope()
			}
			rid := s.onAirRundownID()
			if rid == "" {
				return EmptyScope()
			}
			return ScopeKey{ActivationID: s.Playlist.ActivationID, RundownID: rid}
		},
		Queries: func(key ScopeKey) []store.Query {
			// 空字符串节目单ID命中全局基线 AdLib
			return []store.Query{{Collection: model.CollectionAdLibs, RundownIDs: []string{key.RundownID, ""}}}
		},
		Resolve: func(ctx context.Context, key ScopeKey) (interface{}, error) {
			return stores.AdLibs.ListForRundown(ctx, key.RundownID, true)
		},
	}))
	g.InstancesNode.AddDownstream(g.AdLibsNode)

	g.ShowStyleNode = g.add(NewNode(loop, observer, NodeConfig{
		Name:     "showStyle",
		Debounce: debounce,
		Scope: func(up *Snapshot) ScopeKey {
			s := instancesState(up)
			if s == nil {
				return EmptyScope()
			}
			rundown := s.rundownByID(s.onAirRundownID())
			if rundown == nil || rundown.ShowStyleBaseID == "" {
				return EmptyScope()
			}
			return ScopeKey{ActivationID: s.Playlist.ActivationID, DocIDs: []string{rundown.ShowStyleBaseID}}
		},
		Queries: func(key ScopeKey) []store.Query {
			return []store.Query{{Collection: model.CollectionShowStyles, DocIDs: key.DocIDs}}
		},
		Resolve: func(ctx context.Context, key ScopeKey) (interface{}, error) {
			style, err := stores.ShowStyles.GetByID(ctx, key.DocIDs[0])
			if style == nil {
				return nil, err
			}
			return style, nil
		},
	}))
	g.InstancesNode.AddDownstream(g.ShowStyleNode)

	g.wireSinks(sinks)
	return g
}

func (g *Graph) add(n *Node) *Node {
	g.nodes = append(g.nodes, n)
	return n
}

// wireSinks 把叶子节点接到状态扇出主题
func (g *Graph) wireSinks(sinks GraphSinks) {
	feed := func(sink Sink, source string, scopeOf func(*Snapshot) string) Observer {
		return ObserverFunc(func(s *Snapshot) {
			if sink == nil || s == nil {
				return
			}
			if s.Empty {
				sink.Update(source, "", nil)
				return
			}
			sink.Update(source, scopeOf(s), s.Docs)
		})
	}

	byActivation := func(s *Snapshot) string { return s.Key.ActivationID }
	byStudio := func(s *Snapshot) string { return s.Key.StudioID }

	// 播出单主题：播出单文档 + 实例状态为必需源
	playlistScope := func(s *Snapshot) string {
		if p, _ := s.Docs.(*model.RundownPlaylist); p != nil {
			return p.ActivationID
		}
		return ""
	}
	g.PlaylistNode.AddDownstream(feed(sinks.PlaylistTopic, "playlist", playlistScope))
	instancesScope := func(s *Snapshot) string { return s.Key.ActivationID }
	g.InstancesNode.AddDownstream(feed(sinks.PlaylistTopic, "partInstances", instancesScope))
	g.RundownsNode.AddDownstream(feed(sinks.PlaylistTopic, "rundowns", byActivation))
	g.PartsNode.AddDownstream(feed(sinks.PlaylistTopic, "parts", byActivation))
	g.SegmentsNode.AddDownstream(feed(sinks.PlaylistTopic, "segments", byActivation))

	// 演播室主题
	g.StudioNode.AddDownstream(feed(sinks.StudioTopic, "studio", byStudio))
	g.PlaylistNode.AddDownstream(feed(sinks.StudioTopic, "playlist", byStudio))

	// AdLib 主题：层名称来自节目样式，两个源都齐了才有完整视图
	g.AdLibsNode.AddDownstream(feed(sinks.AdLibTopic, "adLibs", byActivation))
	g.ShowStyleNode.AddDownstream(feed(sinks.AdLibTopic, "showStyle", byActivation))
}

// Start 以空上游种子启动根节点，逐级建立订阅
func (g *Graph) Start() {
	g.StudioNode.Push(nil)
}

// Stop 停掉全部节点的订阅
func (g *Graph) Stop() {
	for _, n := range g.nodes {
		n.Stop()
	}
}
