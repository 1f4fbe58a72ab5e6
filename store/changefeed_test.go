package store_test

import (
	"testing"

	"AirCue/store"

	"github.com/stretchr/testify/assert"
)

// 查询按路由字段过滤，零值字段不参与过滤
func TestQueryMatches(t *testing.T) {
	ev := store.ChangeEvent{
		Collection: "part_instances",
		Kind:       store.EventChanged,
		DocID:      "pi1",
		StudioID:   "s1",
		PlaylistID: "pl1",
		RundownID:  "r1",
	}

	assert.True(t, store.Query{Collection: "part_instances"}.Matches(ev))
	assert.True(t, store.Query{Collection: "part_instances", PlaylistID: "pl1"}.Matches(ev))
	assert.True(t, store.Query{RundownIDs: []string{"r2", "r1"}}.Matches(ev))
	assert.True(t, store.Query{DocIDs: []string{"pi1"}}.Matches(ev))

	assert.False(t, store.Query{Collection: "playlists"}.Matches(ev))
	assert.False(t, store.Query{PlaylistID: "other"}.Matches(ev))
	assert.False(t, store.Query{RundownIDs: []string{"r9"}}.Matches(ev))
}

// 空节目单ID可以作为集合成员匹配全局基线文档
func TestQueryMatchesGlobalBaseline(t *testing.T) {
	global := store.ChangeEvent{Collection: "adlibs", Kind: store.EventAdded, DocID: "a1", RundownID: ""}

	q := store.Query{Collection: "adlibs", RundownIDs: []string{"r1", ""}}
	assert.True(t, q.Matches(global))
}

// 事件只送达查询命中的订阅，Stop 后不再送达
func TestMemObserverDispatch(t *testing.T) {
	obs := store.NewMemObserver()

	var hitsA, hitsB int
	feedA, err := obs.Observe(
		store.Query{Collection: "parts", RundownIDs: []string{"r1"}},
		store.FeedHandlers{Changed: func(store.ChangeEvent) { hitsA++ }},
	)
	assert.NoError(t, err)
	_, err = obs.Observe(
		store.Query{Collection: "parts", RundownIDs: []string{"r2"}},
		store.FeedHandlers{Changed: func(store.ChangeEvent) { hitsB++ }},
	)
	assert.NoError(t, err)

	obs.Broadcast(store.ChangeEvent{Collection: "parts", Kind: store.EventChanged, DocID: "p1", RundownID: "r1"})
	assert.Equal(t, 1, hitsA)
	assert.Equal(t, 0, hitsB)

	feedA.Stop()
	obs.Broadcast(store.ChangeEvent{Collection: "parts", Kind: store.EventChanged, DocID: "p2", RundownID: "r1"})
	assert.Equal(t, 1, hitsA)
	assert.Equal(t, 1, obs.FeedCount())
}

// 未设置对应回调的事件类型被忽略
func TestFeedHandlersPartial(t *testing.T) {
	obs := store.NewMemObserver()

	var added int
	_, err := obs.Observe(
		store.Query{Collection: "parts"},
		store.FeedHandlers{Added: func(store.ChangeEvent) { added++ }},
	)
	assert.NoError(t, err)

	obs.Broadcast(store.ChangeEvent{Collection: "parts", Kind: store.EventAdded, DocID: "p1"})
	obs.Broadcast(store.ChangeEvent{Collection: "parts", Kind: store.EventRemoved, DocID: "p1"})

	assert.Equal(t, 1, added)
}
