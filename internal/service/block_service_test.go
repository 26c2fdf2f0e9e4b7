package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lee_Social/internal/model"
	"Lee_Social/internal/pkg"
)

func TestBlockPreventsNewTies(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	a := f.user(t, "a", false)
	b := f.user(t, "b", true)

	created, err := f.blocks.Block(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = f.blocks.Block(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = f.follows.RequestFollow(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, pkg.ErrBlocked)
	_, err = f.follows.RequestFollow(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, pkg.ErrBlocked)
	_, err = f.friends.SendFriendRequest(ctx, b.ID, a.ID)
	assert.ErrorIs(t, err, pkg.ErrBlocked)
	_, err = f.friends.SendFriendRequest(ctx, a.ID, b.ID)
	assert.ErrorIs(t, err, pkg.ErrBlocked)
	assert.Empty(t, f.emitter.all())

	removed, err := f.blocks.Unblock(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = f.blocks.Unblock(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = f.follows.RequestFollow(ctx, a.ID, b.ID)
	assert.NoError(t, err)
}

func TestBlockStopsPendingApprovals(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	owner := f.user(t, "owner", true)
	fan := f.user(t, "fan", false)

	_, err := f.follows.RequestFollow(ctx, fan.ID, owner.ID)
	require.NoError(t, err)
	req, err := f.friends.SendFriendRequest(ctx, fan.ID, owner.ID)
	require.NoError(t, err)

	_, err = f.blocks.Block(ctx, owner.ID, fan.ID)
	require.NoError(t, err)

	_, err = f.follows.AcceptFollowRequest(ctx, owner.ID, fan.ID)
	assert.ErrorIs(t, err, pkg.ErrBlocked)
	_, err = f.friends.RespondFriendRequest(ctx, owner.ID, req.ID, DecisionAccept)
	assert.ErrorIs(t, err, pkg.ErrBlocked)

	// 拒绝不受拉黑影响
	_, err = f.follows.RejectFollowRequest(ctx, owner.ID, fan.ID)
	assert.NoError(t, err)
	_, err = f.friends.RespondFriendRequest(ctx, owner.ID, req.ID, DecisionReject)
	assert.NoError(t, err)
}

func TestBlockKeepsExistingTiesByDefault(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	a := f.user(t, "a", false)
	b := f.user(t, "b", false)

	_, err := f.follows.RequestFollow(ctx, b.ID, a.ID)
	require.NoError(t, err)
	_, err = f.blocks.Block(ctx, a.ID, b.ID)
	require.NoError(t, err)

	requireCounts(t, f.reload(t, a.ID), 1, 0, 0)
	// 已有关系仍可单方面解除
	require.NoError(t, f.follows.Unfollow(ctx, b.ID, a.ID))
	requireCounts(t, f.reload(t, a.ID), 0, 0, 0)
}

func TestBlockDissolvesTies(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	a := f.user(t, "a", false)
	b := f.user(t, "b", false)
	c := f.user(t, "c", false)

	_, err := f.follows.RequestFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.follows.RequestFollow(ctx, b.ID, a.ID)
	require.NoError(t, err)
	_, err = f.follows.RequestFollow(ctx, c.ID, a.ID)
	require.NoError(t, err)
	req, err := f.friends.SendFriendRequest(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = f.friends.RespondFriendRequest(ctx, b.ID, req.ID, DecisionAccept)
	require.NoError(t, err)

	requireCounts(t, f.reload(t, a.ID), 2, 1, 1)
	requireCounts(t, f.reload(t, b.ID), 1, 1, 1)

	_, err = f.blocks.Block(ctx, b.ID, a.ID)
	require.NoError(t, err)

	requireCounts(t, f.reload(t, a.ID), 1, 0, 0)
	requireCounts(t, f.reload(t, b.ID), 0, 0, 0)

	var n int64
	require.NoError(t, f.db.Model(&model.FollowRelationship{}).
		Where("follower_id IN ? AND followee_id IN ?", []uint64{a.ID, b.ID}, []uint64{a.ID, b.ID}).
		Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, f.db.Model(&model.FriendRequest{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestBlockValidation(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	a := f.user(t, "a", false)

	_, err := f.blocks.Block(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, pkg.ErrInvalidOperation)
	_, err = f.blocks.Block(ctx, a.ID, 4242)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
