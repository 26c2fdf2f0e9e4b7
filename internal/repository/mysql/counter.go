package mysql

import (
	"log/slog"

	"gorm.io/gorm"

	"Lee_Social/internal/model"
)

// Counter 维护 users 表上的冗余计数，只接受事务内的 tx
type Counter struct {
	// OnClamp 递减时计数已为 0，被截断后回调
	OnClamp func(column string, userID uint64)
}

func (c *Counter) Incr(tx *gorm.DB, userID uint64, column string) error {
	return tx.Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn(column, gorm.Expr(column+" + 1")).Error
}

// Decr 计数不会小于 0；没有命中行说明计数已经不一致，记录后继续
func (c *Counter) Decr(tx *gorm.DB, userID uint64, column string) error {
	res := tx.Model(&model.User{}).
		Where("id = ? AND "+column+" > 0", userID).
		UpdateColumn(column, gorm.Expr(column+" - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		slog.Warn("counter clamped at zero", "user_id", userID, "column", column)
		if c != nil && c.OnClamp != nil {
			c.OnClamp(column, userID)
		}
	}
	return nil
}

// follow 调整一条关注关系两端的计数
func (c *Counter) follow(tx *gorm.DB, followerID, followeeID uint64, delta int) error {
	apply := c.Incr
	if delta < 0 {
		apply = c.Decr
	}
	if err := apply(tx, followerID, model.ColFollowingCount); err != nil {
		return err
	}
	return apply(tx, followeeID, model.ColFollowersCount)
}

func (c *Counter) friend(tx *gorm.DB, a, b uint64, delta int) error {
	apply := c.Incr
	if delta < 0 {
		apply = c.Decr
	}
	if err := apply(tx, a, model.ColFriendsCount); err != nil {
		return err
	}
	return apply(tx, b, model.ColFriendsCount)
}
