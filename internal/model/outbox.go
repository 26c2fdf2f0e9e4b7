package model

import "time"

const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// 通知类型
const (
	NotifyFollowRequest  = "follow_request"
	NotifyNewFollower    = "new_follower"
	NotifyFollowAccepted = "follow_accepted"
	NotifyFriendRequest  = "friend_request"
	NotifyFriendAccepted = "friend_accepted"
)

// NotificationOutbox 待投递的通知事件，由 OutboxRelayer 异步发送到消息队列
type NotificationOutbox struct {
	ID              uint64 `gorm:"primaryKey"`
	RecipientID     uint64 `gorm:"not null;index"`
	SenderID        uint64 `gorm:"not null"`
	Type            string `gorm:"size:32;not null"`
	Content         string `gorm:"size:255"`
	RelatedEntityID uint64 `gorm:"not null;default:0"`
	Payload         string `gorm:"type:text;not null"`
	Status          int8   `gorm:"not null;default:0;index:idx_outbox_status_id,priority:1"`
	Retry           int    `gorm:"not null;default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (NotificationOutbox) TableName() string { return "notification_outbox" }

// All 需要建表的模型
func All() []any {
	return []any{
		&User{},
		&FollowRelationship{},
		&FriendRequest{},
		&UserBlock{},
		&NotificationOutbox{},
	}
}
