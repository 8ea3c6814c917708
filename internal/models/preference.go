package models

import "time"

// Preference holds a user's reading preferences, stored in MongoDB
type Preference struct {
	UserID     string    `json:"user_id" bson:"_id"`
	Mode       string    `json:"mode" bson:"mode"`
	ColorTheme string    `json:"color_theme" bson:"color_theme"`
	Layout     string    `json:"layout" bson:"layout"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// DefaultPreference is served to users that never saved anything
func DefaultPreference(userID string) *Preference {
	return &Preference{
		UserID:     userID,
		Mode:       "system",
		ColorTheme: "default",
		Layout:     "grid",
	}
}

// UpdatePreferenceRequest defines the request body for saving preferences
type UpdatePreferenceRequest struct {
	Mode       string `json:"mode,omitempty" validate:"omitempty,oneof=light dark system"`
	ColorTheme string `json:"color_theme,omitempty" validate:"omitempty,oneof=default ocean forest sunset purple"`
	Layout     string `json:"layout,omitempty" validate:"omitempty,oneof=grid list magazine"`
}
