package reactive

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
)

// 集合成员顺序不影响范围相等性
func TestScopeKeyEqualIgnoresSetOrder(t *testing.T) {
	a := ScopeKey{ActivationID: "act1", RundownIDs: mapset.NewSet("r1", "r2", "r3")}
	b := ScopeKey{ActivationID: "act1", RundownIDs: mapset.NewSet("r3", "r1", "r2")}

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

// 成员不同的集合是不同的范围
func TestScopeKeyDifferentSets(t *testing.T) {
	a := ScopeKey{ActivationID: "act1", RundownIDs: mapset.NewSet("r1")}
	b := ScopeKey{ActivationID: "act1", RundownIDs: mapset.NewSet("r1", "r2")}

	assert.False(t, a.Equal(b))
}

// 激活令牌不同的范围不相等，即使其余字段一致
func TestScopeKeyActivationDistinguishes(t *testing.T) {
	a := ScopeKey{ActivationID: "act1", PlaylistID: "pl1"}
	b := ScopeKey{ActivationID: "act2", PlaylistID: "pl1"}

	assert.False(t, a.Equal(b))
}

// 空范围只和空范围相等
func TestScopeKeyEmpty(t *testing.T) {
	assert.True(t, EmptyScope().Equal(EmptyScope()))
	assert.False(t, EmptyScope().Equal(ScopeKey{StudioID: "s1"}))
}

// 没有激活令牌或节目单为空时退化为空范围
func TestRundownScopeDegeneratesToEmpty(t *testing.T) {
	assert.True(t, RundownScope("", []string{"r1"}).Empty)
	assert.True(t, RundownScope("act1", nil).Empty)
	assert.False(t, RundownScope("act1", []string{"r1"}).Empty)
}
