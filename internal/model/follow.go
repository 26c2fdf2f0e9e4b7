package model

import "time"

type RelationStatus string

const (
	StatusPending  RelationStatus = "pending"
	StatusAccepted RelationStatus = "accepted"
	StatusRejected RelationStatus = "rejected"
)

func (s RelationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// FollowRelationship follower -> followee 的单向关注，(follower, followee) 唯一
type FollowRelationship struct {
	ID          uint64         `gorm:"primaryKey" json:"id"`
	FollowerID  uint64         `gorm:"not null;uniqueIndex:uk_follow_pair,priority:1;index:idx_follower_status,priority:1" json:"followerId"`
	FolloweeID  uint64         `gorm:"not null;uniqueIndex:uk_follow_pair,priority:2;index:idx_followee_status,priority:1" json:"followeeId"`
	Status      RelationStatus `gorm:"size:16;not null;index:idx_follower_status,priority:2;index:idx_followee_status,priority:2" json:"status"`
	RequestedAt time.Time      `gorm:"not null" json:"requestedAt"`
	RespondedAt *time.Time     `json:"respondedAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// TableName sets table name for FollowRelationship
func (FollowRelationship) TableName() string {
	return "follow_relationships"
}
