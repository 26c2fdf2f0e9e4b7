package service

import (
	"context"
	"log/slog"
	"time"

	"Lee_Social/internal/model"
	"Lee_Social/internal/repository/mysql"
)

// FollowCountReconciler 定时由关系表重算用户计数，修正漂移
type FollowCountReconciler struct {
	repo      *mysql.ReconcileRepository
	batchSize int
	interval  time.Duration
}

func NewFollowCountReconciler(repo *mysql.ReconcileRepository, batchSize int, interval time.Duration) *FollowCountReconciler {
	if batchSize <= 0 {
		batchSize = 500
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &FollowCountReconciler{repo: repo, batchSize: batchSize, interval: interval}
}

// ReconcilerRun 对账定时任务启动器
func (r *FollowCountReconciler) ReconcilerRun(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.reconcileOnce(ctx); err != nil {
				slog.Error("reconcile failed", "err", err)
			}
		}
	}
}

// reconcileOnce 遍历全部用户一次，返回修正的用户数
func (r *FollowCountReconciler) reconcileOnce(ctx context.Context) (int, error) {
	var (
		lastID uint64
		fixed  int
	)
	for {
		if err := ctx.Err(); err != nil {
			return fixed, err
		}
		users, next, err := r.repo.ReconcileList(ctx, r.batchSize, lastID)
		if err != nil {
			return fixed, err
		}
		if len(users) == 0 {
			return fixed, nil
		}
		for _, u := range users {
			actual, err := r.repo.RealCounts(ctx, u.ID)
			if err != nil {
				slog.Warn("reconcile count failed", "user_id", u.ID, "err", err)
				continue
			}
			if actual == u {
				continue
			}
			// 未加锁的读取只用于筛选，修正在锁内重新计算
			stored, actual, err := r.repo.Repair(ctx, u.ID)
			if err != nil {
				slog.Warn("reconcile fix failed", "user_id", u.ID, "err", err)
				continue
			}
			if stored == actual {
				continue
			}
			logDrift(stored, actual)
			fixed++
		}
		lastID = next
	}
}

func logDrift(stored, actual mysql.Counts) {
	drift := func(column string, have, want int64) {
		if have != want {
			reconcileDriftTotal.WithLabelValues(column).Inc()
			slog.Warn("counter drift", "user_id", stored.ID, "column", column, "stored", have, "actual", want)
		}
	}
	drift(model.ColFollowersCount, stored.FollowersCount, actual.FollowersCount)
	drift(model.ColFollowingCount, stored.FollowingCount, actual.FollowingCount)
	drift(model.ColFriendsCount, stored.FriendsCount, actual.FriendsCount)
}
