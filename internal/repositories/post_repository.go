package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/blaze/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Sort orders accepted by ListPublished
const (
	SortLatest  = "latest"
	SortPopular = "popular"
)

// ListQuery selects one page of published posts. Search matches title, excerpt or a tag,
// case-insensitively.
type ListQuery struct {
	Sort   string
	Search string
	Offset int
	Limit  int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPublished(ctx context.Context, q ListQuery) ([]models.Post, int64, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id, authorID string) error
	ReconcileCounters(ctx context.Context, id string) (models.PostCounters, error)
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// CreatePost assigns an id and inserts the post with zeroed counters
func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = uuid.NewString()
	post.LikesCount, post.CommentsCount, post.ViewsCount = 0, 0, 0
	return r.db.WithContext(ctx).Create(post).Error
}

// GetPostByID retrieves a post by ID
func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPostNotFound
	}
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// ListPublished retrieves one page of published posts and the number of posts matching q
func (r *PostgresPostRepository) ListPublished(ctx context.Context, q ListQuery) ([]models.Post, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Post{}).Where("published = ?", true)
	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		base = base.Where("title ILIKE ? OR excerpt ILIKE ? OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE ?)",
			pattern, pattern, pattern)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	posts := []models.Post{}
	if total == 0 || int64(q.Offset) >= total {
		return posts, total, nil
	}

	page := base
	switch q.Sort {
	case SortPopular:
		page = page.Order("likes_count DESC").Order("views_count DESC").Order("created_at DESC")
	default:
		page = page.Order("created_at DESC")
	}
	if err := page.Offset(q.Offset).Limit(q.Limit).Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike quotes the ILIKE wildcards in a user supplied term
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// ListByAuthor retrieves all posts of an author, drafts included, newest first
func (r *PostgresPostRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("created_at DESC").Find(&posts).Error
	return posts, err
}

// UpdatePost writes the editable fields of a post owned by post.AuthorID
func (r *PostgresPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	res := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND author_id = ?", post.ID, post.AuthorID).
		Updates(map[string]interface{}{
			"title":          post.Title,
			"content":        post.Content,
			"excerpt":        post.Excerpt,
			"tags":           post.Tags,
			"featured_image": post.FeaturedImage,
			"published":      post.Published,
			"updated_at":     post.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// DeletePost removes a post together with its likes, comments and view records
func (r *PostgresPostRepository) DeletePost(ctx context.Context, id, authorID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrPostNotFound
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND author_id = ?", id, authorID).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPostNotFound
		}
		for _, rel := range []interface{}{&models.Like{}, &models.Comment{}, &models.PostView{}} {
			if err := tx.Where("post_id = ?", id).Delete(rel).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// ReconcileCounters recomputes likes_count and comments_count from the relation rows
func (r *PostgresPostRepository) ReconcileCounters(ctx context.Context, id string) (models.PostCounters, error) {
	var counters models.PostCounters
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, id); err != nil {
			return err
		}
		var likes, comments int64
		if err := tx.Model(&models.Like{}).Where("post_id = ?", id).Count(&likes).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", id).Count(&comments).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", id).
			UpdateColumns(map[string]interface{}{"likes_count": likes, "comments_count": comments}).Error; err != nil {
			return err
		}
		return readCounters(tx, id, &counters)
	})
	return counters, err
}

// lockPost takes a row lock on the post so concurrent counter writes serialize
func lockPost(tx *gorm.DB, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrPostNotFound
	}
	var post models.Post
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPostNotFound
	}
	return err
}

func readCounters(tx *gorm.DB, id string, out *models.PostCounters) error {
	return tx.Model(&models.Post{}).
		Select("likes_count", "comments_count", "views_count").
		Where("id = ?", id).
		Take(out).Error
}
