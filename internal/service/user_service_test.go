package service

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lee_Social/internal/pkg"
	"Lee_Social/internal/repository/redis"
	"Lee_Social/internal/testutil"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent map[string]string
	err  error
}

var codeRe = regexp.MustCompile(`(\d{6})`)

func (m *fakeMailer) Send(_ context.Context, to, _, html string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sent == nil {
		m.sent = map[string]string{}
	}
	m.sent[to] = codeRe.FindString(html)
	return nil
}

func (m *fakeMailer) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[to]
}

type accountFixture struct {
	*fixture
	mailer   *fakeMailer
	users    *UserService
	email    *EmailService
	identity *IdentityService
}

func newAccountFixture(t *testing.T) *accountFixture {
	f := newFixture(t, false)
	_, client := testutil.NewRedis(t)
	mailer := &fakeMailer{}
	tokens := pkg.NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	sessions := &redis.TokenRepository{Client: client}
	email := NewEmailService(mailer, &redis.EmailRepository{Client: client}, f.repos.Users)
	return &accountFixture{
		fixture:  f,
		mailer:   mailer,
		users:    NewUserService(f.repos, sessions, tokens, email),
		email:    email,
		identity: NewIdentityService(tokens, sessions),
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()

	_, err := f.users.Register(ctx, RegisterInput{Username: "neo", Password: "secret1", Email: "neo@example.com", Code: "000000"})
	assert.ErrorIs(t, err, pkg.ErrInvalidOperation)

	require.NoError(t, f.email.SendCode(ctx, redis.ScopeRegister, "neo@example.com"))
	code := f.mailer.code("neo@example.com")
	require.Len(t, code, 6)

	user, err := f.users.Register(ctx, RegisterInput{Username: "neo", Password: "secret1", Email: "neo@example.com", Code: code})
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", user.Password)

	// 验证码只能用一次
	_, err = f.users.Register(ctx, RegisterInput{Username: "neo2", Password: "secret1", Email: "neo@example.com", Code: code})
	assert.ErrorIs(t, err, pkg.ErrInvalidOperation)
	assert.ErrorIs(t, f.email.SendCode(ctx, redis.ScopeRegister, "neo@example.com"), pkg.ErrAlreadyExists)

	_, err = f.users.Login(ctx, "neo", "wrong")
	assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
	pair, err := f.users.Login(ctx, "neo@example.com", "secret1")
	require.NoError(t, err)

	uid, err := f.identity.Verify(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, uid)

	require.NoError(t, f.users.Logout(ctx, user.ID))
	_, err = f.identity.Verify(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
}

func TestRefreshReplacesSession(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	require.NoError(t, f.email.SendCode(ctx, redis.ScopeRegister, "trinity@example.com"))
	_, err := f.users.Register(ctx, RegisterInput{Username: "trinity", Password: "secret1", Email: "trinity@example.com", Code: f.mailer.code("trinity@example.com")})
	require.NoError(t, err)

	pair, err := f.users.Login(ctx, "trinity", "secret1")
	require.NoError(t, err)
	next, err := f.users.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	_, err = f.identity.Verify(ctx, next.AccessToken)
	assert.NoError(t, err)

	_, err = f.users.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthenticated)

	// 已换发过的 refresh token 不能再用
	_, err = f.users.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
	_, err = f.identity.Verify(ctx, next.AccessToken)
	assert.NoError(t, err)
}

func TestRefreshRevokedBySessionEnd(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	require.NoError(t, f.email.SendCode(ctx, redis.ScopeRegister, "tank@example.com"))
	user, err := f.users.Register(ctx, RegisterInput{Username: "tank", Password: "secret1", Email: "tank@example.com", Code: f.mailer.code("tank@example.com")})
	require.NoError(t, err)

	t.Run("logout", func(t *testing.T) {
		pair, err := f.users.Login(ctx, "tank", "secret1")
		require.NoError(t, err)
		require.NoError(t, f.users.Logout(ctx, user.ID))
		_, err = f.users.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
		_, err = f.identity.Verify(ctx, pair.AccessToken)
		assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
	})

	t.Run("password change", func(t *testing.T) {
		pair, err := f.users.Login(ctx, "tank", "secret1")
		require.NoError(t, err)
		require.NoError(t, f.users.ChangePassword(ctx, user.ID, "secret1", "secret2"))
		_, err = f.users.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
	})

	t.Run("password reset", func(t *testing.T) {
		pair, err := f.users.Login(ctx, "tank", "secret2")
		require.NoError(t, err)
		require.NoError(t, f.email.SendCode(ctx, redis.ScopeReset, "tank@example.com"))
		require.NoError(t, f.users.ResetPassword(ctx, "tank@example.com", f.mailer.code("tank@example.com"), "secret3"))
		_, err = f.users.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
	})

	t.Run("new login supersedes", func(t *testing.T) {
		first, err := f.users.Login(ctx, "tank", "secret3")
		require.NoError(t, err)
		_, err = f.users.Login(ctx, "tank", "secret3")
		require.NoError(t, err)
		_, err = f.users.Refresh(ctx, first.RefreshToken)
		assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
	})
}

func TestPasswordChangeAndReset(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	require.NoError(t, f.email.SendCode(ctx, redis.ScopeRegister, "morpheus@example.com"))
	user, err := f.users.Register(ctx, RegisterInput{Username: "morpheus", Password: "secret1", Email: "morpheus@example.com", Code: f.mailer.code("morpheus@example.com")})
	require.NoError(t, err)

	assert.ErrorIs(t, f.users.ChangePassword(ctx, user.ID, "nope", "secret2"), pkg.ErrInvalidOperation)
	require.NoError(t, f.users.ChangePassword(ctx, user.ID, "secret1", "secret2"))
	_, err = f.users.Login(ctx, "morpheus", "secret1")
	assert.ErrorIs(t, err, pkg.ErrUnauthenticated)
	_, err = f.users.Login(ctx, "morpheus", "secret2")
	require.NoError(t, err)

	assert.ErrorIs(t, f.email.SendCode(ctx, redis.ScopeReset, "nobody@example.com"), pkg.ErrNotFound)
	require.NoError(t, f.email.SendCode(ctx, redis.ScopeReset, "morpheus@example.com"))
	require.NoError(t, f.users.ResetPassword(ctx, "morpheus@example.com", f.mailer.code("morpheus@example.com"), "secret3"))
	_, err = f.users.Login(ctx, "morpheus", "secret3")
	assert.NoError(t, err)
}

func TestSendCodeMailFailureDropsCode(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	f.mailer.err = errors.New("smtp down")

	err := f.email.SendCode(ctx, redis.ScopeRegister, "x@example.com")
	assert.Equal(t, pkg.KindInternal, pkg.KindOf(err))
	assert.ErrorIs(t, f.email.VerifyCode(ctx, redis.ScopeRegister, "x@example.com", "123456"), pkg.ErrInvalidOperation)
	assert.ErrorIs(t, f.email.SendCode(ctx, "bogus", "x@example.com"), pkg.ErrInvalidOperation)
}

func TestPrivacyAndProfile(t *testing.T) {
	f := newAccountFixture(t)
	ctx := context.Background()
	a := f.user(t, "a", false)
	b := f.user(t, "b", false)

	u, err := f.users.SetPrivacy(ctx, a.ID, true)
	require.NoError(t, err)
	assert.True(t, u.IsPrivate)

	rel, err := f.follows.RequestFollow(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "pending", string(rel.Status))

	_, err = f.blocks.Block(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.users.Profile(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, pkg.ErrBlocked)
	_, err = f.users.Profile(ctx, a.ID, a.ID)
	assert.NoError(t, err)
	_, err = f.users.Profile(ctx, a.ID, 999)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
