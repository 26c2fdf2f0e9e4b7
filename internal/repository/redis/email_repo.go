package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultEmailCodeTTL = 5 * time.Minute
	EmailCodePrefix     = "email:code"

	ScopeRegister = "register"
	ScopeReset    = "reset"

	// 两阶段键：邮件发出前为 pending，发出后转为 confirmed
	PendingSuffix   = "pending"
	ConfirmedSuffix = "confirmed"
)

var (
	ErrEmailNotFound       = errors.New("email code not found")
	ErrCodePendingFailed   = errors.New("code pending failed")
	ErrCodeConfirmedFailed = errors.New("code confirmed failed")
	ErrEmailCodeDelFailed  = errors.New("email code delete failed")
)

// 原子执行：取值+写入目标+设置 TTL+删除源
var confirmScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return 0
end
redis.call("SET", KEYS[2], val, "PX", ARGV[1])
redis.call("DEL", KEYS[1])
return 1
`)

// 校验并删除，保证验证码只能使用一次
var consumeScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if not val then
  return -1
end
if val ~= ARGV[1] then
  return 0
end
redis.call("DEL", KEYS[1])
return 1
`)

type EmailRepository struct {
	Client *redis.Client
	TTL    time.Duration
}

func (e *EmailRepository) ttl() time.Duration {
	if e.TTL > 0 {
		return e.TTL
	}
	return DefaultEmailCodeTTL
}

func codeKey(scope, stage, email string) string {
	return fmt.Sprintf("%s:%s:%s:%s", EmailCodePrefix, scope, stage, email)
}

// SavePending 写入 pending 验证码
func (e *EmailRepository) SavePending(ctx context.Context, scope, email, code string) error {
	if err := e.Client.Set(ctx, codeKey(scope, PendingSuffix, email), code, e.ttl()).Err(); err != nil {
		return ErrCodePendingFailed
	}
	return nil
}

// Confirm 邮件发送成功后将 pending 转为 confirmed，TTL 重新计算
func (e *EmailRepository) Confirm(ctx context.Context, scope, email string) error {
	keys := []string{codeKey(scope, PendingSuffix, email), codeKey(scope, ConfirmedSuffix, email)}
	ok, err := confirmScript.Run(ctx, e.Client, keys, e.ttl().Milliseconds()).Int()
	if err != nil || ok != 1 {
		return ErrCodeConfirmedFailed
	}
	return nil
}

// DeletePending 删除 pending 键（幂等）
func (e *EmailRepository) DeletePending(ctx context.Context, scope, email string) error {
	if err := e.Client.Del(ctx, codeKey(scope, PendingSuffix, email)).Err(); err != nil {
		return ErrEmailCodeDelFailed
	}
	return nil
}

// Consume 校验 confirmed 验证码，一致时删除。验证码不存在返回 ErrEmailNotFound
func (e *EmailRepository) Consume(ctx context.Context, scope, email, code string) (bool, error) {
	res, err := consumeScript.Run(ctx, e.Client, []string{codeKey(scope, ConfirmedSuffix, email)}, code).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	switch res {
	case -1:
		return false, ErrEmailNotFound
	case 1:
		return true, nil
	default:
		return false, nil
	}
}
