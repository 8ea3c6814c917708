package models

import "time"

// Comment is a reader's reply on a post. Comments are append-only.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"type:uuid;not null;index:idx_comment_post_created,priority:1"`
	AuthorID  string    `json:"author_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index:idx_comment_post_created,priority:2"`

	Author *ProfileCompact `json:"author,omitempty" gorm:"-"`
}

// CreateCommentRequest defines the request body for commenting on a post
type CreateCommentRequest struct {
	Content string `json:"content" validate:"max=5000"`
}

// CommentResult is returned after a successful comment submission
type CommentResult struct {
	Comment       *Comment  `json:"comment"`
	CommentsCount int64     `json:"comments_count"`
	Thread        []Comment `json:"thread"`
}
