package models

import "time"

// Like is a user's endorsement of a post; one row per (post, user)
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"type:uuid;not null;uniqueIndex:idx_like_post_user"`
	UserID    string    `json:"user_id" gorm:"not null;uniqueIndex:idx_like_post_user;index"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeState is what a reader sees on the like button
type LikeState struct {
	PostID     string `json:"post_id"`
	IsLiked    bool   `json:"is_liked"`
	LikesCount int64  `json:"likes_count"`
}
