package auth_test

import (
	"testing"
	"time"

	"AirCue/core/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 密码哈希校验往返
func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("operator-secret")
	require.NoError(t, err)

	assert.True(t, auth.CheckPasswordHash("operator-secret", hash))
	assert.False(t, auth.CheckPasswordHash("wrong", hash))
}

// 令牌签发与解析携带操作员身份
func TestTokenRoundTrip(t *testing.T) {
	token, err := auth.GenerateToken("test-secret", 42, "alice", time.Hour)
	require.NoError(t, err)

	claims, err := auth.ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.OperatorID)
	assert.Equal(t, "alice", claims.Username)
}

// 密钥不符或令牌过期都被拒绝
func TestTokenRejection(t *testing.T) {
	token, err := auth.GenerateToken("test-secret", 1, "bob", time.Hour)
	require.NoError(t, err)

	_, err = auth.ParseToken("other-secret", token)
	assert.Error(t, err)

	expired, err := auth.GenerateToken("test-secret", 1, "bob", -time.Minute)
	require.NoError(t, err)
	_, err = auth.ParseToken("test-secret", expired)
	assert.Error(t, err)
}
