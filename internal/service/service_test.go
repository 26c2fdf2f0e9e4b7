package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"Lee_Social/internal/model"
	"Lee_Social/internal/testutil"
)

type recordingEmitter struct {
	mu  sync.Mutex
	got []Notification
}

func (e *recordingEmitter) Emit(_ context.Context, n Notification) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.got = append(e.got, n)
	return nil
}

func (e *recordingEmitter) all() []Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Notification(nil), e.got...)
}

func (e *recordingEmitter) ofType(typ string) []Notification {
	var out []Notification
	for _, n := range e.all() {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

type fixture struct {
	db      *gorm.DB
	repos   *Repos
	emitter *recordingEmitter
	follows *FollowService
	friends *FriendService
	blocks  *BlockService
	lists   *ListService
}

func newFixture(t *testing.T, dissolveTies bool) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	repos := NewRepos(db)
	em := &recordingEmitter{}
	return &fixture{
		db:      db,
		repos:   repos,
		emitter: em,
		follows: NewFollowService(repos, em),
		friends: NewFriendService(repos, em),
		blocks:  NewBlockService(repos, dissolveTies),
		lists:   NewListService(repos),
	}
}

func (f *fixture) user(t *testing.T, name string, private bool) *model.User {
	return testutil.CreateUser(t, f.db, name, private)
}

func (f *fixture) reload(t *testing.T, id uint64) *model.User {
	return testutil.ReloadUser(t, f.db, id)
}

func requireCounts(t *testing.T, u *model.User, followers, following, friends int64) {
	t.Helper()
	require.Equal(t, followers, u.FollowersCount, "followers of %s", u.Username)
	require.Equal(t, following, u.FollowingCount, "following of %s", u.Username)
	require.Equal(t, friends, u.FriendsCount, "friends of %s", u.Username)
}
