package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Lee_Social/internal/model"
)

type BlockRepository struct {
	DB      *gorm.DB
	Counter *Counter
}

// Block 幂等拉黑，首次拉黑返回 created=true。
// dissolve 为 true 时在同一事务里删除双方的关注记录和好友申请
func (r *BlockRepository) Block(ctx context.Context, blockerID, blockedID uint64, dissolve bool) (bool, error) {
	var created bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&model.UserBlock{BlockerID: blockerID, BlockedID: blockedID})
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0
		if !dissolve {
			return nil
		}
		return r.dissolveTies(tx, blockerID, blockedID)
	})
	return created, err
}

func (r *BlockRepository) dissolveTies(tx *gorm.DB, a, b uint64) error {
	var follows []model.FollowRelationship
	if err := tx.Where("(follower_id = ? AND followee_id = ?) OR (follower_id = ? AND followee_id = ?)", a, b, b, a).
		Find(&follows).Error; err != nil {
		return err
	}
	for _, f := range follows {
		res := tx.Delete(&model.FollowRelationship{}, f.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 && f.Status == model.StatusAccepted {
			if err := r.Counter.follow(tx, f.FollowerID, f.FolloweeID, -1); err != nil {
				return err
			}
		}
	}

	var reqs []model.FriendRequest
	if err := tx.Where("(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)", a, b, b, a).
		Find(&reqs).Error; err != nil {
		return err
	}
	for _, fr := range reqs {
		res := tx.Delete(&model.FriendRequest{}, fr.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 && fr.Status == model.StatusAccepted {
			if err := r.Counter.friend(tx, fr.SenderID, fr.RecipientID, -1); err != nil {
				return err
			}
		}
	}
	return nil
}

// Unblock 幂等解除拉黑
func (r *BlockRepository) Unblock(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	res := r.DB.WithContext(ctx).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Delete(&model.UserBlock{})
	return res.RowsAffected > 0, res.Error
}

// IsBlocked blocker 是否拉黑了 blocked
func (r *BlockRepository) IsBlocked(ctx context.Context, blockerID, blockedID uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.UserBlock{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Between 任意一方拉黑了对方
func (r *BlockRepository) Between(ctx context.Context, a, b uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).Model(&model.UserBlock{}).
		Where("(blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)", a, b, b, a).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *BlockRepository) List(ctx context.Context, blockerID uint64, offset, limit int) ([]model.UserBlock, int64, error) {
	q := r.DB.WithContext(ctx).Model(&model.UserBlock{}).
		Where("blocker_id = ?", blockerID).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []model.UserBlock
	if total == 0 {
		return rows, 0, nil
	}
	if err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
