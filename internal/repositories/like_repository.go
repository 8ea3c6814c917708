package repositories

import (
	"context"

	"github.com/anonto42/blaze/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	HasUserLikedPost(ctx context.Context, postID, userID string) (bool, error)
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
	ToggleLike(ctx context.Context, postID, userID string) (models.LikeState, error)
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// HasUserLikedPost checks if a user has liked a specific post
func (r *PostgresLikeRepository) HasUserLikedPost(ctx context.Context, postID, userID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LikedPostIDs returns the subset of postIDs the user has liked, in one query
func (r *PostgresLikeRepository) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool, len(postIDs))
	if len(postIDs) == 0 {
		return liked, nil
	}
	var ids []string
	if err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// ToggleLike flips the like row for (post, user) and moves likes_count in the same transaction.
// The count never drops below zero.
func (r *PostgresLikeRepository) ToggleLike(ctx context.Context, postID, userID string) (models.LikeState, error) {
	state := models.LikeState{PostID: postID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, postID); err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}

		count := gorm.Expr("GREATEST(likes_count - 1, 0)")
		state.IsLiked = false
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.Like{PostID: postID, UserID: userID}).Error; err != nil {
				return err
			}
			count = gorm.Expr("likes_count + 1")
			state.IsLiked = true
		}

		if err := tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumn("likes_count", count).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Select("likes_count").Where("id = ?", postID).Scan(&state.LikesCount).Error
	})
	if err != nil {
		return models.LikeState{}, err
	}
	return state, nil
}
