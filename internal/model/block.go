package model

import "time"

// UserBlock 用户的拉黑列表，一条记录代表 blocker 拉黑了 blocked
type UserBlock struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	BlockerID uint64    `gorm:"not null;uniqueIndex:uk_block_pair,priority:1" json:"blockerId"`
	BlockedID uint64    `gorm:"not null;uniqueIndex:uk_block_pair,priority:2;index" json:"blockedId"`
	CreatedAt time.Time `json:"createdAt"`
}

func (UserBlock) TableName() string { return "user_blocks" }
