package model

import "time"

type User struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;size:32;not null" json:"username"`
	Password       string    `gorm:"size:255;not null" json:"-"`
	Role           int       `gorm:"default:0" json:"role"`
	Email          string    `gorm:"uniqueIndex;size:64;not null" json:"-"`
	IsPrivate      bool      `gorm:"not null;default:false" json:"isPrivate"`
	FollowersCount int64     `gorm:"not null;default:0" json:"followersCount"`
	FollowingCount int64     `gorm:"not null;default:0" json:"followingCount"`
	FriendsCount   int64     `gorm:"not null;default:0" json:"friendsCount"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserSummary 列表中联查出的用户信息
type UserSummary struct {
	ID             uint64 `json:"id"`
	Username       string `json:"username"`
	IsPrivate      bool   `json:"isPrivate"`
	FollowersCount int64  `json:"followersCount"`
	FollowingCount int64  `json:"followingCount"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		IsPrivate:      u.IsPrivate,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
	}
}

// 计数字段列名，只允许 Counter 相关代码使用
const (
	ColFollowersCount = "followers_count"
	ColFollowingCount = "following_count"
	ColFriendsCount   = "friends_count"
)
