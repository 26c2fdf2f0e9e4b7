package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Lee_Social/internal/model"
)

func TestOutboxEmitterAndRelayer(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	emitter := NewOutboxEmitter(f.repos.Outbox)
	follows := NewFollowService(f.repos, emitter)

	a := f.user(t, "a", false)
	b := f.user(t, "b", true)
	c := f.user(t, "c", false)

	_, err := follows.RequestFollow(ctx, a.ID, c.ID)
	require.NoError(t, err)
	rel, err := follows.RequestFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)

	var rows []model.NotificationOutbox
	require.NoError(t, f.db.Order("id ASC").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, model.NotifyNewFollower, rows[0].Type)
	assert.Equal(t, model.NotifyFollowRequest, rows[1].Type)
	assert.Equal(t, b.ID, rows[1].RecipientID)
	assert.Equal(t, rel.ID, rows[1].RelatedEntityID)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(rows[1].Payload), &payload))
	assert.Equal(t, model.NotifyFollowRequest, payload["type"])
	assert.NotEmpty(t, payload["eventTime"])

	var sent []uint64
	sender := func(_ context.Context, ob *model.NotificationOutbox) error {
		if ob.Type == model.NotifyFollowRequest {
			return errors.New("broker down")
		}
		sent = append(sent, ob.ID)
		return nil
	}
	relayer := NewOutboxRelayer(f.repos.Outbox, sender, 10, 0)
	relayer.maxRetry = 2

	assert.Equal(t, 1, relayer.drainOnce(ctx))
	assert.Equal(t, []uint64{rows[0].ID}, sent)

	var failing model.NotificationOutbox
	require.NoError(t, f.db.First(&failing, rows[1].ID).Error)
	assert.Equal(t, model.OutboxPending, failing.Status)
	assert.Equal(t, 1, failing.Retry)

	assert.Equal(t, 0, relayer.drainOnce(ctx))
	require.NoError(t, f.db.First(&failing, rows[1].ID).Error)
	assert.Equal(t, model.OutboxFailed, failing.Status)
	assert.Equal(t, 2, failing.Retry)

	var done model.NotificationOutbox
	require.NoError(t, f.db.First(&done, rows[0].ID).Error)
	assert.Equal(t, model.OutboxSent, done.Status)

	// 已发送和已失败的都不会再被取出
	assert.Equal(t, 0, relayer.drainOnce(ctx))
	assert.Len(t, sent, 1)
}
