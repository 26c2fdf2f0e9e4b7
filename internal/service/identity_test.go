package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lee_Social/internal/pkg"
	"Lee_Social/internal/repository/redis"
	"Lee_Social/internal/testutil"
)

func TestIdentityVerify(t *testing.T) {
	mr, client := testutil.NewRedis(t)
	ctx := context.Background()
	tokens := pkg.NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	sessions := &redis.TokenRepository{Client: client}
	svc := NewIdentityService(tokens, sessions)

	pair, err := tokens.GeneratePair(7, 0)
	require.NoError(t, err)
	require.NoError(t, sessions.SaveSession(ctx, 7, pair.AccessToken, pair.RefreshToken, time.Minute, time.Hour))

	uid, err := svc.Verify(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), uid)
	// 校验不会延长会话
	assert.Equal(t, time.Minute, mr.TTL("login:user:token:7"))

	other := pkg.NewTokenManager("other-secret", "refresh-secret", time.Minute, time.Hour)
	forged, err := other.GeneratePair(7, 0)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":         "",
		"malformed":     "not.a.jwt",
		"refresh token": pair.RefreshToken,
		"wrong secret":  forged.AccessToken,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Verify(ctx, token)
			assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
		})
	}

	t.Run("superseded session", func(t *testing.T) {
		require.NoError(t, sessions.SaveSession(ctx, 7, "newer-token", "newer-refresh", time.Minute, time.Hour))
		_, err := svc.Verify(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
	})

	t.Run("no session", func(t *testing.T) {
		require.NoError(t, sessions.Delete(ctx, 7))
		_, err := svc.Verify(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
	})

	t.Run("store unavailable", func(t *testing.T) {
		mr.Close()
		_, err := svc.Verify(ctx, pair.AccessToken)
		assert.Equal(t, pkg.KindInternal, pkg.KindOf(err))
	})
}
