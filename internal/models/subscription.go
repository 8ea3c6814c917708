package models

import "time"

// Subscription is a newsletter sign-up
type Subscription struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// SubscribeRequest defines the request body for joining the newsletter
type SubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}
