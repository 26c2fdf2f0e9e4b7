package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Lee_Social/internal/model"
)

type ReconcileRepository struct {
	DB *gorm.DB
}

// Counts 一个用户的三项冗余计数
type Counts struct {
	ID             uint64
	FollowersCount int64
	FollowingCount int64
	FriendsCount   int64
}

// ReconcileList 按 id 分批取出用户当前计数，返回本批最后一个 id
func (r *ReconcileRepository) ReconcileList(ctx context.Context, batchSize int, lastID uint64) ([]Counts, uint64, error) {
	var list []Counts
	if err := r.DB.WithContext(ctx).Model(&model.User{}).
		Select("id", model.ColFollowersCount, model.ColFollowingCount, model.ColFriendsCount).
		Where("id > ?", lastID).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].ID, nil
}

// RealCounts 由关系表重新计算用户的计数
func (r *ReconcileRepository) RealCounts(ctx context.Context, userID uint64) (Counts, error) {
	return realCounts(r.DB.WithContext(ctx), userID)
}

func realCounts(db *gorm.DB, userID uint64) (Counts, error) {
	c := Counts{ID: userID}
	if err := db.Model(&model.FollowRelationship{}).
		Where("followee_id = ? AND status = ?", userID, model.StatusAccepted).
		Count(&c.FollowersCount).Error; err != nil {
		return c, err
	}
	if err := db.Model(&model.FollowRelationship{}).
		Where("follower_id = ? AND status = ?", userID, model.StatusAccepted).
		Count(&c.FollowingCount).Error; err != nil {
		return c, err
	}
	if err := db.Model(&model.FriendRequest{}).
		Where("status = ? AND (sender_id = ? OR recipient_id = ?)", model.StatusAccepted, userID, userID).
		Count(&c.FriendsCount).Error; err != nil {
		return c, err
	}
	return c, nil
}

// Repair 锁住用户行后重算并覆盖计数，返回修正前后的值。
// 关系变更在同一事务里也会更新用户行，因此重算期间提交的增量不会被覆盖
func (r *ReconcileRepository) Repair(ctx context.Context, userID uint64) (stored, actual Counts, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", model.ColFollowersCount, model.ColFollowingCount, model.ColFriendsCount).
			Where("id = ?", userID).
			Take(&stored).Error; err != nil {
			return err
		}
		actual, err = realCounts(tx, userID)
		if err != nil {
			return err
		}
		if actual == stored {
			return nil
		}
		return tx.Model(&model.User{}).Where("id = ?", userID).
			UpdateColumns(map[string]any{
				model.ColFollowersCount: actual.FollowersCount,
				model.ColFollowingCount: actual.FollowingCount,
				model.ColFriendsCount:   actual.FriendsCount,
			}).Error
	})
	return stored, actual, err
}
