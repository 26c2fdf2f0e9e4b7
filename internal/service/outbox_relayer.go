package service

import (
	"context"
	"log/slog"
	"time"

	"Lee_Social/internal/model"
	"Lee_Social/internal/pkg"
	"Lee_Social/internal/repository/mysql"
)

const defaultMaxRetry = 5

type Sender func(ctx context.Context, ob *model.NotificationOutbox) error

// OutboxRelayer 定时从 outbox 表读取待投递通知交给 Sender
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	maxRetry  int
	sender    Sender
}

func NewOutboxRelayer(repo *mysql.OutboxRepository, sender Sender, batchSize int, interval time.Duration) *OutboxRelayer {
	if batchSize <= 0 {
		batchSize = 200
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelayer{
		repo:      repo,
		batchSize: batchSize,
		interval:  interval,
		maxRetry:  defaultMaxRetry,
		sender:    sender,
	}
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 投递一批，返回成功条数
func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		slog.Error("outbox query failed", "err", err)
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			retry := ob.Retry + 1
			failed := retry >= r.maxRetry
			if uerr := r.repo.RetryUpdate(ctx, ob.ID, retry, failed); uerr != nil {
				slog.Error("outbox retry update failed", "id", ob.ID, "err", uerr)
			}
			result := "retry"
			if failed {
				result = "failed"
			}
			outboxRelayedTotal.WithLabelValues(result).Inc()
			slog.Warn("outbox send failed", "id", ob.ID, "type", ob.Type, "retry", retry, "err", err)
			continue
		}
		if err := r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			slog.Error("outbox success update failed", "id", ob.ID, "err", err)
			continue
		}
		outboxRelayedTotal.WithLabelValues("sent").Inc()
		sent++
	}
	return sent
}

// LogSender 只打印，用于本地开发
func LogSender(_ context.Context, ob *model.NotificationOutbox) error {
	slog.Info("outbox send", "id", ob.ID, "type", ob.Type, "recipient_id", ob.RecipientID, "payload", ob.Payload)
	return nil
}

// KafkaSender 以接收者 id 为 key，同一用户的通知落在同一分区
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.NotificationOutbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.RecipientID), []byte(ob.Payload))
	}
}

func NatsSender(p *pkg.NatsPublisher) Sender {
	return func(ctx context.Context, ob *model.NotificationOutbox) error {
		return p.Publish(ctx, ob.Type, pkg.MakeKeyFromID(ob.RecipientID), []byte(ob.Payload))
	}
}
