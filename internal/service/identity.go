package service

import (
	"context"
	"errors"

	"Lee_Social/internal/pkg"
	"Lee_Social/internal/repository/redis"
)

// IdentityService 校验 access token，并要求与 redis 中记录的当前会话一致
type IdentityService struct {
	tokens   *pkg.TokenManager
	sessions *redis.TokenRepository
}

func NewIdentityService(tokens *pkg.TokenManager, sessions *redis.TokenRepository) *IdentityService {
	return &IdentityService{tokens: tokens, sessions: sessions}
}

// Verify 无副作用，不会延长会话
func (s *IdentityService) Verify(ctx context.Context, token string) (uint64, error) {
	if token == "" {
		return 0, pkg.Unauthenticated("missing credential")
	}
	claims, err := s.tokens.ParseAccess(token)
	if err != nil {
		if errors.Is(err, pkg.ErrTokenExpired) {
			return 0, pkg.Unauthenticated("token expired")
		}
		return 0, pkg.Unauthenticated("invalid token")
	}

	stored, err := s.sessions.Get(ctx, claims.UserID)
	if errors.Is(err, redis.ErrTokenNotFound) {
		return 0, pkg.Unauthenticated("session expired")
	}
	if err != nil {
		return 0, pkg.Internal("load session", err)
	}
	if stored != token {
		return 0, pkg.Unauthenticated("account has been logged in elsewhere")
	}
	return claims.UserID, nil
}
