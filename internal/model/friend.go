package model

import (
	"fmt"
	"time"
)

// FriendRequest 好友申请。ActivePair 在 pending/accepted 时为 "min:max"，rejected 时为 NULL，
// 唯一索引保证同一对用户任意方向最多一条有效申请
type FriendRequest struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	SenderID    uint64         `gorm:"not null;uniqueIndex:uk_friend_pair,priority:1;index:idx_sender_status,priority:1" json:"senderId"`
	RecipientID uint64         `gorm:"not null;uniqueIndex:uk_friend_pair,priority:2;index:idx_recipient_status,priority:1" json:"recipientId"`
	Status      RelationStatus `gorm:"size:16;not null;index:idx_sender_status,priority:2;index:idx_recipient_status,priority:2" json:"status"`
	ActivePair  *string        `gorm:"size:48;uniqueIndex:uk_friend_active_pair" json:"-"`
	RequestedAt time.Time      `gorm:"not null" json:"requestedAt"`
	RespondedAt *time.Time     `json:"respondedAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (FriendRequest) TableName() string {
	return "friend_requests"
}

// OtherParty 返回申请中除 userID 以外的一方
func (f *FriendRequest) OtherParty(userID uint64) uint64 {
	if f.SenderID == userID {
		return f.RecipientID
	}
	return f.SenderID
}

// PairKey 无序用户对的规范键
func PairKey(a, b uint64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
