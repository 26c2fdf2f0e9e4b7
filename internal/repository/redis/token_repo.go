package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrTokenNotFound    = errors.New("token not found")
	ErrRedisUnavailable = errors.New("redis unavailable")
)

const (
	UserTokenPrefix   = "login:user:token"
	UserRefreshPrefix = "login:user:refresh"
)

// 当前 refresh 与传入值一致时同时替换两枚 token
var rotateScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[2])
if cur ~= ARGV[1] then
  return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[4])
redis.call("SET", KEYS[2], ARGV[3], "PX", ARGV[5])
return 1
`)

// TokenRepository 每个用户只保存一组有效的 access/refresh token，新登录会顶掉旧的
type TokenRepository struct {
	Client *redis.Client
}

func tokenKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserTokenPrefix, userID)
}

func refreshKey(userID uint64) string {
	return fmt.Sprintf("%s:%d", UserRefreshPrefix, userID)
}

// SaveSession 登录时写入一组新 token
func (r *TokenRepository) SaveSession(ctx context.Context, userID uint64, access, refresh string, accessTTL, refreshTTL time.Duration) error {
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKey(userID), access, accessTTL)
		pipe.Set(ctx, refreshKey(userID), refresh, refreshTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Rotate 只有 oldRefresh 仍是当前 refresh token 时才替换，返回是否替换成功
func (r *TokenRepository) Rotate(ctx context.Context, userID uint64, oldRefresh, access, refresh string, accessTTL, refreshTTL time.Duration) (bool, error) {
	keys := []string{tokenKey(userID), refreshKey(userID)}
	n, err := rotateScript.Run(ctx, r.Client, keys, oldRefresh, access, refresh,
		accessTTL.Milliseconds(), refreshTTL.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n == 1, nil
}

func (r *TokenRepository) Get(ctx context.Context, userID uint64) (string, error) {
	token, err := r.Client.Get(ctx, tokenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

// Delete 同时吊销 access 与 refresh，幂等
func (r *TokenRepository) Delete(ctx context.Context, userID uint64) error {
	if err := r.Client.Del(ctx, tokenKey(userID), refreshKey(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
