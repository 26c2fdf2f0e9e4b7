package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lee_Social/internal/model"
	"Lee_Social/internal/pkg"
)

func TestRequestFollowPublicIsImmediate(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	alice := f.user(t, "alice", false)
	bob := f.user(t, "bob", false)

	rel, err := f.follows.RequestFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, rel.Status)
	require.NotNil(t, rel.RespondedAt)
	assert.Equal(t, rel.RequestedAt, *rel.RespondedAt)

	requireCounts(t, f.reload(t, alice.ID), 1, 0, 0)
	requireCounts(t, f.reload(t, bob.ID), 0, 1, 0)

	got := f.emitter.ofType(model.NotifyNewFollower)
	require.Len(t, got, 1)
	assert.Equal(t, alice.ID, got[0].RecipientID)
	assert.Equal(t, bob.ID, got[0].SenderID)
	assert.Equal(t, rel.ID, got[0].RelatedEntityID)
}

func TestRequestFollowPrivateNeedsApproval(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	carol := f.user(t, "carol", true)
	dave := f.user(t, "dave", false)

	rel, err := f.follows.RequestFollow(ctx, dave.ID, carol.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, rel.Status)
	assert.Nil(t, rel.RespondedAt)
	requireCounts(t, f.reload(t, carol.ID), 0, 0, 0)
	require.Len(t, f.emitter.ofType(model.NotifyFollowRequest), 1)

	rel, err = f.follows.AcceptFollowRequest(ctx, carol.ID, dave.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, rel.Status)
	assert.NotNil(t, rel.RespondedAt)
	requireCounts(t, f.reload(t, carol.ID), 1, 0, 0)
	requireCounts(t, f.reload(t, dave.ID), 0, 1, 0)

	accepted := f.emitter.ofType(model.NotifyFollowAccepted)
	require.Len(t, accepted, 1)
	assert.Equal(t, dave.ID, accepted[0].RecipientID)
	assert.Equal(t, carol.ID, accepted[0].SenderID)
}

func TestRequestFollowErrors(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	a := f.user(t, "a", false)
	b := f.user(t, "b", true)

	_, err := f.follows.RequestFollow(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, pkg.ErrInvalidOperation)

	_, err = f.follows.RequestFollow(ctx, a.ID, 9999)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = f.follows.RequestFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.follows.RequestFollow(ctx, a.ID, b.ID)
	require.ErrorIs(t, err, pkg.ErrAlreadyExists)
	var e *pkg.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, model.StatusPending, e.Details["status"])

	// 被拒绝后仍然存在记录，不能再次申请
	_, err = f.follows.RejectFollowRequest(ctx, b.ID, a.ID)
	require.NoError(t, err)
	_, err = f.follows.RequestFollow(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, pkg.ErrAlreadyExists)
}

func TestAcceptFollowRequestConcurrently(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	owner := f.user(t, "owner", true)
	fan := f.user(t, "fan", false)

	_, err := f.follows.RequestFollow(ctx, fan.ID, owner.ID)
	require.NoError(t, err)

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		states    int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.follows.AcceptFollowRequest(ctx, owner.ID, fan.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, pkg.ErrInvalidState):
				states++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, states)
	requireCounts(t, f.reload(t, owner.ID), 1, 0, 0)
	requireCounts(t, f.reload(t, fan.ID), 0, 1, 0)
	assert.Len(t, f.emitter.ofType(model.NotifyFollowAccepted), 1)
}

func TestRejectFollowRequestIsSilent(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	owner := f.user(t, "owner", true)
	fan := f.user(t, "fan", false)

	_, err := f.follows.AcceptFollowRequest(ctx, owner.ID, fan.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	_, err = f.follows.RequestFollow(ctx, fan.ID, owner.ID)
	require.NoError(t, err)
	before := len(f.emitter.all())

	rel, err := f.follows.RejectFollowRequest(ctx, owner.ID, fan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rel.Status)
	assert.Len(t, f.emitter.all(), before)
	requireCounts(t, f.reload(t, owner.ID), 0, 0, 0)

	_, err = f.follows.AcceptFollowRequest(ctx, owner.ID, fan.ID)
	assert.ErrorIs(t, err, pkg.ErrInvalidState)
	_, err = f.follows.RejectFollowRequest(ctx, owner.ID, fan.ID)
	assert.ErrorIs(t, err, pkg.ErrInvalidState)
}

func TestFollowersCountMatchesAcceptedFollows(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	star := f.user(t, "star", false)

	const n = 6
	fans := make([]*model.User, 0, n)
	for i := 0; i < n; i++ {
		fan := f.user(t, fmt.Sprintf("fan%d", i), false)
		_, err := f.follows.RequestFollow(ctx, fan.ID, star.ID)
		require.NoError(t, err)
		fans = append(fans, fan)
	}
	requireCounts(t, f.reload(t, star.ID), n, 0, 0)

	require.NoError(t, f.follows.Unfollow(ctx, fans[0].ID, star.ID))
	requireCounts(t, f.reload(t, star.ID), n-1, 0, 0)
	requireCounts(t, f.reload(t, fans[0].ID), 0, 0, 0)

	err := f.follows.Unfollow(ctx, fans[0].ID, star.ID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	assert.ErrorIs(t, f.follows.Unfollow(ctx, star.ID, star.ID), pkg.ErrInvalidOperation)
}

func TestUnfollowPendingIsNotFound(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	owner := f.user(t, "owner", true)
	fan := f.user(t, "fan", false)

	_, err := f.follows.RequestFollow(ctx, fan.ID, owner.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, f.follows.Unfollow(ctx, fan.ID, owner.ID), pkg.ErrNotFound)

	require.NoError(t, f.follows.CancelFollowRequest(ctx, fan.ID, owner.ID))
	assert.ErrorIs(t, f.follows.CancelFollowRequest(ctx, fan.ID, owner.ID), pkg.ErrNotFound)

	// 撤回后可以重新申请
	rel, err := f.follows.RequestFollow(ctx, fan.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, rel.Status)
}

func TestRelationView(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	a := f.user(t, "a", false)
	b := f.user(t, "b", true)

	_, err := f.follows.RequestFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.follows.RequestFollow(ctx, b.ID, a.ID)
	require.NoError(t, err)

	view, err := f.follows.Relation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, view.Following)
	assert.Equal(t, model.StatusAccepted, view.FollowedBy)
	assert.False(t, view.IsFriend)
	assert.False(t, view.Blocking)

	_, err = f.blocks.Block(ctx, b.ID, a.ID)
	require.NoError(t, err)
	view, err = f.follows.Relation(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, view.BlockedBy)
	assert.False(t, view.Blocking)
}
