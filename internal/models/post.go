package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lib/pq"
)

// ErrMissingFields is returned when a post lacks a title or content
var ErrMissingFields = errors.New("title and content are required")

// ExcerptLength is the number of content runes kept when no excerpt is given.
const ExcerptLength = 200

// Post is a published or draft article stored in PostgreSQL
type Post struct {
	ID            string         `json:"id" gorm:"primaryKey;type:uuid"`
	AuthorID      string         `json:"author_id" gorm:"index;not null"` // Firebase UID of the author
	Title         string         `json:"title" gorm:"not null"`
	Content       string         `json:"content" gorm:"type:text;not null"` // HTML from the editor, stored verbatim
	Excerpt       string         `json:"excerpt" gorm:"type:text"`
	Slug          string         `json:"slug" gorm:"uniqueIndex"`
	Tags          pq.StringArray `json:"tags" gorm:"type:text[]"`
	FeaturedImage string         `json:"featured_image,omitempty"`
	Published     bool           `json:"published" gorm:"index"`
	LikesCount    int64          `json:"likes_count" gorm:"not null;default:0"`
	CommentsCount int64          `json:"comments_count" gorm:"not null;default:0"`
	ViewsCount    int64          `json:"views_count" gorm:"not null;default:0"`
	CreatedAt     time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// PostCounters is the aggregate part of a post shown next to it
type PostCounters struct {
	LikesCount    int64 `json:"likes_count"`
	CommentsCount int64 `json:"comments_count"`
	ViewsCount    int64 `json:"views_count"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title         string   `json:"title" validate:"max=300"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt,omitempty"`
	Tags          []string `json:"tags,omitempty" validate:"max=20,dive,max=40"`
	FeaturedImage string   `json:"featured_image,omitempty" validate:"omitempty,url"`
	Published     bool     `json:"published"`
}

// UpdatePostRequest defines the request body for editing an existing post.
// Published decides whether the edit goes live or stays a draft.
type UpdatePostRequest struct {
	Title         string   `json:"title" validate:"max=300"`
	Content       string   `json:"content"`
	Excerpt       string   `json:"excerpt,omitempty"`
	Tags          []string `json:"tags,omitempty" validate:"max=20,dive,max=40"`
	FeaturedImage string   `json:"featured_image,omitempty" validate:"omitempty,url"`
	Published     bool     `json:"published"`
}

// HasRequiredFields reports whether title and content are non-blank
func HasRequiredFields(title, content string) bool {
	return strings.TrimSpace(title) != "" && strings.TrimSpace(content) != ""
}

// DeriveExcerpt returns excerpt, or the head of content when excerpt is blank
func DeriveExcerpt(excerpt, content string) string {
	if strings.TrimSpace(excerpt) != "" {
		return excerpt
	}
	if utf8.RuneCountInString(content) <= ExcerptLength {
		return content + "..."
	}
	return string([]rune(content)[:ExcerptLength]) + "..."
}

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// BuildSlug turns a title into a URL slug suffixed with the creation time in milliseconds
func BuildSlug(title string, at time.Time) string {
	base := nonSlugChars.ReplaceAllString(strings.ToLower(title), "-")
	base = strings.Trim(base, "-")
	return fmt.Sprintf("%s-%d", base, at.UnixMilli())
}

// NormalizeTags trims tags and drops blanks and duplicates, keeping first-seen order
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
