package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"Lee_Social/internal/model"
	"Lee_Social/internal/pkg"
	"Lee_Social/internal/repository/mysql"
)

// Repos 关系相关服务共用的仓储，计数器共享同一个 Counter
type Repos struct {
	Users     *mysql.UserRepository
	Follows   *mysql.FollowRepository
	Friends   *mysql.FriendRepository
	Blocks    *mysql.BlockRepository
	Outbox    *mysql.OutboxRepository
	Reconcile *mysql.ReconcileRepository
}

func NewRepos(db *gorm.DB) *Repos {
	counter := &mysql.Counter{OnClamp: CounterClamped}
	return &Repos{
		Users:     &mysql.UserRepository{DB: db},
		Follows:   &mysql.FollowRepository{DB: db, Counter: counter},
		Friends:   &mysql.FriendRepository{DB: db, Counter: counter},
		Blocks:    &mysql.BlockRepository{DB: db, Counter: counter},
		Outbox:    &mysql.OutboxRepository{DB: db},
		Reconcile: &mysql.ReconcileRepository{DB: db},
	}
}

// loadTarget 校验目标用户：不能是自己，且必须存在
func (r *Repos) loadTarget(ctx context.Context, actorID, targetID uint64) (*model.User, error) {
	if targetID == 0 {
		return nil, pkg.InvalidOperation("target id is required")
	}
	if actorID == targetID {
		return nil, pkg.InvalidOperation("cannot target yourself")
	}
	u, err := r.Users.FindByID(ctx, targetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.NotFound("user %d not found", targetID)
	}
	if err != nil {
		return nil, pkg.Internal("load user", err)
	}
	return u, nil
}

// checkBlock 任意一方拉黑对方即拒绝
func (r *Repos) checkBlock(ctx context.Context, a, b uint64) error {
	blocked, err := r.Blocks.Between(ctx, a, b)
	if err != nil {
		return pkg.Internal("check block", err)
	}
	if blocked {
		return pkg.Blocked("interaction between these users is blocked")
	}
	return nil
}
