package pkg

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

type NatsConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type NatsPublisher struct {
	nc      *nats.Conn
	subject string
}

func NewNatsPublisher(cfg NatsConfig) (*NatsPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("lee-social"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NatsPublisher{nc: nc, subject: cfg.Subject}, nil
}

// Publish 主题为 <subject>.<event>，key 放在 header 里方便消费方分组
func (p *NatsPublisher) Publish(ctx context.Context, event, key string, data []byte) error {
	msg := &nats.Msg{
		Subject: p.subject + "." + event,
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("Key", key)
	if err := p.nc.PublishMsg(msg); err != nil {
		return err
	}
	// FlushWithContext 要求 ctx 带 deadline
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return p.nc.FlushWithContext(ctx)
}

func (p *NatsPublisher) Close() error {
	if p == nil || p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
