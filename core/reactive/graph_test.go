package reactive

import (
	"context"
	"sync"
	"testing"
	"time"

	"AirCue/model"
	"AirCue/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStores 进程内仓储，配合 MemObserver 驱动整张订阅图
type fakeStores struct {
	mu        sync.Mutex
	studio    *model.Studio
	playlist  *model.RundownPlaylist
	rundowns  map[string]*model.Rundown
	segments  map[string]*model.Segment
	parts     map[string]*model.Part
	instances map[string]*model.PartInstance
	adlibs    []*model.AdLib
	style     *model.ShowStyleBase
}

func (f *fakeStores) GetByID(ctx context.Context, id string) (*model.Studio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.studio != nil && f.studio.ID == id {
		return f.studio, nil
	}
	return nil, nil
}

func (f *fakeStores) List(ctx context.Context) ([]*model.Studio, error) {
	return []*model.Studio{f.studio}, nil
}

func (f *fakeStores) Create(ctx context.Context, s *model.Studio) error { return nil }

type fakePlaylists struct{ f *fakeStores }

func (r fakePlaylists) GetByID(ctx context.Context, id string) (*model.RundownPlaylist, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.playlist != nil && r.f.playlist.ID == id {
		cp := *r.f.playlist
		return &cp, nil
	}
	return nil, nil
}

func (r fakePlaylists) List(ctx context.Context) ([]*model.RundownPlaylist, error) {
	return nil, nil
}

func (r fakePlaylists) ListByStudio(ctx context.Context, studioID string) ([]*model.RundownPlaylist, error) {
	return nil, nil
}

func (r fakePlaylists) FindActive(ctx context.Context, studioID string, excludeID string) (*model.RundownPlaylist, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	p := r.f.playlist
	if p != nil && p.StudioID == studioID && p.IsActive() && p.ID != excludeID {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r fakePlaylists) Create(ctx context.Context, p *model.RundownPlaylist) error { return nil }

type fakeRundowns struct{ f *fakeStores }

func (r fakeRundowns) ListByIDs(ctx context.Context, ids []string) ([]*model.Rundown, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*model.Rundown
	for _, id := range ids {
		if rd, ok := r.f.rundowns[id]; ok {
			out = append(out, rd)
		}
	}
	return out, nil
}

func (r fakeRundowns) ListByPlaylist(ctx context.Context, playlistID string) ([]*model.Rundown, error) {
	return nil, nil
}

func (r fakeRundowns) Create(ctx context.Context, rd *model.Rundown) error { return nil }

func (r fakeRundowns) SegmentsByRundowns(ctx context.Context, rundownIDs []string) ([]*model.Segment, error) {
	return nil, nil
}

func (r fakeRundowns) SegmentsByIDs(ctx context.Context, ids []string) ([]*model.Segment, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*model.Segment
	for _, id := range ids {
		if seg, ok := r.f.segments[id]; ok {
			out = append(out, seg)
		}
	}
	return out, nil
}

func (r fakeRundowns) PartsByRundowns(ctx context.Context, rundownIDs []string) ([]*model.Part, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*model.Part
	for _, p := range r.f.parts {
		for _, rid := range rundownIDs {
			if p.RundownID == rid {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r fakeRundowns) CreateSegment(ctx context.Context, s *model.Segment) error { return nil }
func (r fakeRundowns) CreatePart(ctx context.Context, p *model.Part) error       { return nil }

type fakeInstances struct{ f *fakeStores }

func (r fakeInstances) GetByID(ctx context.Context, id string) (*model.PartInstance, error) {
	return nil, nil
}

func (r fakeInstances) ListByIDs(ctx context.Context, ids []string) ([]*model.PartInstance, error) {
	return nil, nil
}

func (r fakeInstances) ListByActivation(ctx context.Context, playlistID string, activationID string) ([]*model.PartInstance, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*model.PartInstance
	for _, pi := range r.f.instances {
		if pi.PlaylistID == playlistID && pi.ActivationID == activationID && !pi.Reset {
			out = append(out, pi)
		}
	}
	return out, nil
}

type fakeAdLibs struct{ f *fakeStores }

func (r fakeAdLibs) ListForRundown(ctx context.Context, rundownID string, includeGlobal bool) ([]*model.AdLib, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	var out []*model.AdLib
	for _, a := range r.f.adlibs {
		if a.RundownID == rundownID || (includeGlobal && a.IsGlobal()) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r fakeAdLibs) Create(ctx context.Context, a *model.AdLib) error { return nil }

type fakeStyles struct{ f *fakeStores }

func (r fakeStyles) GetByID(ctx context.Context, id string) (*model.ShowStyleBase, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	if r.f.style != nil && r.f.style.ID == id {
		return r.f.style, nil
	}
	return nil, nil
}

func (r fakeStyles) Create(ctx context.Context, s *model.ShowStyleBase) error { return nil }

// recordingSink 记录主题收到的源上报
type recordingSink struct {
	mu      sync.Mutex
	updates []sinkUpdate
}

type sinkUpdate struct {
	source string
	scope  string
	data   interface{}
}

func (s *recordingSink) Update(source string, scope string, data interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, sinkUpdate{source: source, scope: scope, data: data})
}

func (s *recordingSink) lastFor(source string) (sinkUpdate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.updates) - 1; i >= 0; i-- {
		if s.updates[i].source == source {
			return s.updates[i], true
		}
	}
	return sinkUpdate{}, false
}

func newGraphFixture() (*fakeStores, *store.MemObserver, GraphStores) {
	f := &fakeStores{
		studio: &model.Studio{ID: "s1", Name: "Main"},
		playlist: &model.RundownPlaylist{
			ID:         "pl1",
			StudioID:   "s1",
			Name:       "Bulletin",
			RundownIDs: model.StringList{"r1"},
		},
		rundowns: map[string]*model.Rundown{
			"r1": {ID: "r1", PlaylistID: "pl1", StudioID: "s1", ShowStyleBaseID: "style1"},
		},
		segments: map[string]*model.Segment{
			"seg1": {ID: "seg1", RundownID: "r1", Name: "Headlines"},
		},
		parts: map[string]*model.Part{
			"pA": {ID: "pA", SegmentID: "seg1", RundownID: "r1", Name: "A"},
		},
		instances: make(map[string]*model.PartInstance),
		adlibs: []*model.AdLib{
			{ID: "a1", RundownID: "r1", Name: "Strap"},
			{ID: "a2", RundownID: "", Name: "Loop"},
		},
		style: &model.ShowStyleBase{ID: "style1", Name: "News"},
	}
	obs := store.NewMemObserver()
	stores := GraphStores{
		Studios:    f,
		Playlists:  fakePlaylists{f},
		Rundowns:   fakeRundowns{f},
		Instances:  fakeInstances{f},
		AdLibs:     fakeAdLibs{f},
		ShowStyles: fakeStyles{f},
	}
	return f, obs, stores
}

// 未激活时只有 studio/playlist 源上报，叶子节点向主题发空信号
func TestGraphInactiveSendsEmptyLeaves(t *testing.T) {
	_, obs, stores := newGraphFixture()
	l := NewLoop()
	l.Start()
	defer l.Stop()

	playlistSink := &recordingSink{}
	studioSink := &recordingSink{}
	adlibSink := &recordingSink{}
	g := NewGraph(l, obs, stores, GraphSinks{
		PlaylistTopic: playlistSink,
		StudioTopic:   studioSink,
		AdLibTopic:    adlibSink,
	}, "s1", 5*time.Millisecond)
	defer g.Stop()

	g.Start()

	require.Eventually(t, func() bool {
		_, ok := studioSink.lastFor("studio")
		return ok
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		up, ok := playlistSink.lastFor("playlist")
		return ok && up.data == nil
	}, time.Second, 5*time.Millisecond)

	// 下游叶子收敛到空信号
	require.Eventually(t, func() bool {
		up, ok := playlistSink.lastFor("partInstances")
		return ok && up.scope == "" && up.data == nil
	}, time.Second, 5*time.Millisecond)
}

// 仓储查不到文档时，主题收到的 data 必须是真正的 nil 接口而不是装箱的空指针
func TestGraphMissingStudioSendsNilData(t *testing.T) {
	f, obs, stores := newGraphFixture()
	f.mu.Lock()
	f.studio = nil
	f.mu.Unlock()

	l := NewLoop()
	l.Start()
	defer l.Stop()

	studioSink := &recordingSink{}
	g := NewGraph(l, obs, stores, GraphSinks{
		StudioTopic: studioSink,
	}, "s1", 5*time.Millisecond)
	defer g.Stop()

	g.Start()

	require.Eventually(t, func() bool {
		up, ok := studioSink.lastFor("studio")
		return ok && up.data == nil
	}, time.Second, 5*time.Millisecond)
}

// 激活事件级联触发整张图：从演播室一路到 AdLib 与节目样式
func TestGraphActivationCascades(t *testing.T) {
	f, obs, stores := newGraphFixture()
	l := NewLoop()
	l.Start()
	defer l.Stop()

	playlistSink := &recordingSink{}
	studioSink := &recordingSink{}
	adlibSink := &recordingSink{}
	g := NewGraph(l, obs, stores, GraphSinks{
		PlaylistTopic: playlistSink,
		StudioTopic:   studioSink,
		AdLibTopic:    adlibSink,
	}, "s1", 5*time.Millisecond)
	defer g.Stop()

	g.Start()
	require.Eventually(t, func() bool {
		_, ok := playlistSink.lastFor("playlist")
		return ok
	}, time.Second, 5*time.Millisecond)

	// 模拟激活提交：状态落库，变更事件发布
	f.mu.Lock()
	f.playlist.ActivationID = "act1"
	f.playlist.CurrentPartInstanceID = "pi1"
	f.instances["pi1"] = &model.PartInstance{
		ID: "pi1", PartID: "pA", SegmentID: "seg1", RundownID: "r1",
		PlaylistID: "pl1", ActivationID: "act1", Name: "A",
	}
	f.mu.Unlock()
	obs.Broadcast(store.ChangeEvent{
		Collection: model.CollectionPlaylists, Kind: store.EventChanged,
		DocID: "pl1", StudioID: "s1", PlaylistID: "pl1", ActivationID: "act1",
	})

	// 播出单源带上新激活令牌
	require.Eventually(t, func() bool {
		up, ok := playlistSink.lastFor("playlist")
		return ok && up.scope == "act1"
	}, time.Second, 5*time.Millisecond)

	// 实例源携带在播状态
	require.Eventually(t, func() bool {
		up, ok := playlistSink.lastFor("partInstances")
		if !ok || up.scope != "act1" {
			return false
		}
		state, _ := up.data.(*PartInstancesState)
		return state != nil && state.CurrentInstance() != nil
	}, time.Second, 5*time.Millisecond)

	// 级联末端：AdLib 含全局基线，节目样式到位
	require.Eventually(t, func() bool {
		up, ok := adlibSink.lastFor("adLibs")
		if !ok || up.scope != "act1" {
			return false
		}
		adlibs, _ := up.data.([]*model.AdLib)
		return len(adlibs) == 2
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		up, ok := adlibSink.lastFor("showStyle")
		if !ok || up.scope != "act1" {
			return false
		}
		style, _ := up.data.(*model.ShowStyleBase)
		return style != nil && style.ID == "style1"
	}, time.Second, 5*time.Millisecond)

	// 下场：级联退订回到空信号
	f.mu.Lock()
	f.playlist.ActivationID = ""
	f.playlist.CurrentPartInstanceID = ""
	f.mu.Unlock()
	obs.Broadcast(store.ChangeEvent{
		Collection: model.CollectionPlaylists, Kind: store.EventChanged,
		DocID: "pl1", StudioID: "s1", PlaylistID: "pl1",
	})

	require.Eventually(t, func() bool {
		up, ok := playlistSink.lastFor("playlist")
		return ok && up.scope == ""
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		up, ok := adlibSink.lastFor("adLibs")
		return ok && up.data == nil
	}, time.Second, 5*time.Millisecond)

	// 下场后只剩 studio 与 playlist 两个常驻订阅
	assert.Eventually(t, func() bool { return obs.FeedCount() == 2 },
		time.Second, 5*time.Millisecond)
}
