package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"Lee_Social/internal/model"
	"Lee_Social/internal/repository/mysql"
)

const emitTimeout = 3 * time.Second

type Notification struct {
	RecipientID     uint64 `json:"recipientId"`
	SenderID        uint64 `json:"senderId"`
	Type            string `json:"type"`
	Content         string `json:"content"`
	RelatedEntityID uint64 `json:"relatedEntityId"`
}

// Emitter 通知出口，调用方在事务提交后调用，失败不影响业务结果
type Emitter interface {
	Emit(ctx context.Context, n Notification) error
}

// OutboxEmitter 写入 outbox 表，由 OutboxRelayer 投递到消息队列
type OutboxEmitter struct {
	repo *mysql.OutboxRepository
}

func NewOutboxEmitter(repo *mysql.OutboxRepository) *OutboxEmitter {
	return &OutboxEmitter{repo: repo}
}

func (e *OutboxEmitter) Emit(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(struct {
		Notification
		EventTime string `json:"eventTime"`
	}{n, time.Now().UTC().Format(time.RFC3339Nano)})
	if err != nil {
		return err
	}
	return e.repo.Insert(ctx, &model.NotificationOutbox{
		RecipientID:     n.RecipientID,
		SenderID:        n.SenderID,
		Type:            n.Type,
		Content:         n.Content,
		RelatedEntityID: n.RelatedEntityID,
		Payload:         string(payload),
		Status:          model.OutboxPending,
	})
}

// LogEmitter 只打日志
type LogEmitter struct{}

func (LogEmitter) Emit(_ context.Context, n Notification) error {
	slog.Info("notification", "type", n.Type, "recipient_id", n.RecipientID, "sender_id", n.SenderID, "related_entity_id", n.RelatedEntityID)
	return nil
}

// emit 请求被取消也要发出，超时单独控制
func emit(ctx context.Context, e Emitter, n Notification) {
	if e == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()
	if err := e.Emit(ctx, n); err != nil {
		notifyEmitFailures.Inc()
		slog.Warn("emit notification failed", "type", n.Type, "recipient_id", n.RecipientID, "err", err)
	}
}
