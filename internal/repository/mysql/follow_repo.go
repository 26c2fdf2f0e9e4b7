package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"Lee_Social/internal/model"
)

type FollowRepository struct {
	DB      *gorm.DB
	Counter *Counter
}

// Find 查询 follower -> followee 的关系，不存在时返回 gorm.ErrRecordNotFound
func (r *FollowRepository) Find(ctx context.Context, followerID, followeeID uint64) (*model.FollowRelationship, error) {
	return findFollow(r.DB.WithContext(ctx), followerID, followeeID)
}

func findFollow(db *gorm.DB, followerID, followeeID uint64) (*model.FollowRelationship, error) {
	var rel model.FollowRelationship
	if err := db.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).First(&rel).Error; err != nil {
		return nil, err
	}
	return &rel, nil
}

// Create 新建关注记录。accepted 状态在同一事务里调整双方计数。
// 已存在任意状态的记录时返回已有记录和 ErrDuplicate
func (r *FollowRepository) Create(ctx context.Context, followerID, followeeID uint64, status model.RelationStatus) (*model.FollowRelationship, error) {
	now := time.Now().UTC()
	rel := &model.FollowRelationship{
		FollowerID:  followerID,
		FolloweeID:  followeeID,
		Status:      status,
		RequestedAt: now,
	}
	if status == model.StatusAccepted {
		rel.RespondedAt = &now
	}

	var existing *model.FollowRelationship
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findFollow(tx, followerID, followeeID)
		if err == nil {
			existing = found
			return ErrDuplicate
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		// 并发插入由唯一索引兜底
		if err := tx.Create(rel).Error; err != nil {
			if isDuplicate(err) {
				return ErrDuplicate
			}
			return err
		}
		if status == model.StatusAccepted {
			return r.Counter.follow(tx, followerID, followeeID, +1)
		}
		return nil
	})
	if errors.Is(err, ErrDuplicate) {
		if existing == nil {
			existing, _ = r.Find(ctx, followerID, followeeID)
		}
		return existing, ErrDuplicate
	}
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// Respond 条件更新 pending -> accepted/rejected，只有真正发生状态变化时 changed=true
func (r *FollowRepository) Respond(ctx context.Context, followerID, followeeID uint64, to model.RelationStatus) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.FollowRelationship{}).
			Where("follower_id = ? AND followee_id = ? AND status = ?", followerID, followeeID, model.StatusPending).
			Updates(map[string]any{"status": to, "responded_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		if to == model.StatusAccepted {
			return r.Counter.follow(tx, followerID, followeeID, +1)
		}
		return nil
	})
	return changed, err
}

// DeletePending 撤回自己发出的待审批请求
func (r *FollowRepository) DeletePending(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ? AND status = ?", followerID, followeeID, model.StatusPending).
		Delete(&model.FollowRelationship{})
	return res.RowsAffected > 0, res.Error
}

// DeleteAccepted 取消关注，同一事务内回退计数
func (r *FollowRepository) DeleteAccepted(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND followee_id = ? AND status = ?", followerID, followeeID, model.StatusAccepted).
			Delete(&model.FollowRelationship{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		changed = true
		return r.Counter.follow(tx, followerID, followeeID, -1)
	})
	return changed, err
}

// IsFollowing 判断是否已关注
func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).
		Model(&model.FollowRelationship{}).
		Where("follower_id = ? AND followee_id = ? AND status = ?", followerID, followeeID, model.StatusAccepted).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByFollowee 关注 userID 的记录，status 为空时不过滤
func (r *FollowRepository) ListByFollowee(ctx context.Context, userID uint64, status model.RelationStatus, offset, limit int) ([]model.FollowRelationship, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.FollowRelationship{}).Where("followee_id = ?", userID)
	return listFollows(q, status, offset, limit)
}

// ListByFollower userID 发出的关注记录
func (r *FollowRepository) ListByFollower(ctx context.Context, userID uint64, status model.RelationStatus, offset, limit int) ([]model.FollowRelationship, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.FollowRelationship{}).Where("follower_id = ?", userID)
	return listFollows(q, status, offset, limit)
}

func listFollows(q *gorm.DB, status model.RelationStatus, offset, limit int) ([]model.FollowRelationship, int64, error) {
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.FollowRelationship
	if total == 0 {
		return rows, 0, nil
	}
	if err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
