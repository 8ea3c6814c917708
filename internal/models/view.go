package models

import "time"

// PostView records that a viewer was counted for a post. ViewerKey is unique per post.
type PostView struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	PostID      string    `json:"post_id" gorm:"type:uuid;not null;uniqueIndex:idx_view_post_viewer"`
	ViewerKey   string    `json:"-" gorm:"not null;uniqueIndex:idx_view_post_viewer"`
	ViewerID    string    `json:"viewer_id,omitempty" gorm:"index"`
	ViewerIP    string    `json:"-"`
	ViewerAgent string    `json:"-"`
	ViewedAt    time.Time `json:"viewed_at"`
}

// Viewer identifies who is looking at a post. All fields may be empty.
type Viewer struct {
	UserID    string
	IP        string
	UserAgent string
}
