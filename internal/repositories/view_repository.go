package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/anonto42/blaze/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ViewRepository counts post views with per-viewer dedup
type ViewRepository interface {
	IncrementPostViews(ctx context.Context, postID string, viewer models.Viewer) (count int64, counted bool, err error)
}

// PostgresViewRepository implements ViewRepository for PostgreSQL
type PostgresViewRepository struct {
	db *gorm.DB
}

// NewPostgresViewRepository creates a new PostgresViewRepository
func NewPostgresViewRepository(db *gorm.DB) *PostgresViewRepository {
	return &PostgresViewRepository{db: db}
}

// ViewerKey derives the dedup key of a viewer. Signed-in viewers are keyed by user id,
// anonymous ones by a hash of address and user agent. An empty key disables dedup.
func ViewerKey(v models.Viewer) string {
	if v.UserID != "" {
		return "user:" + v.UserID
	}
	if v.IP == "" && v.UserAgent == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(v.IP + "|" + v.UserAgent))
	return "anon:" + hex.EncodeToString(sum[:])
}

// IncrementPostViews records the view and bumps views_count unless this viewer was already counted.
// It always returns the current views_count.
func (r *PostgresViewRepository) IncrementPostViews(ctx context.Context, postID string, viewer models.Viewer) (int64, bool, error) {
	var (
		count   int64
		counted bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, postID); err != nil {
			return err
		}

		counted = true
		if key := ViewerKey(viewer); key != "" {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.PostView{
				PostID:      postID,
				ViewerKey:   key,
				ViewerID:    viewer.UserID,
				ViewerIP:    viewer.IP,
				ViewerAgent: viewer.UserAgent,
				ViewedAt:    time.Now(),
			})
			if res.Error != nil {
				return res.Error
			}
			counted = res.RowsAffected == 1
		}

		if counted {
			if err := tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Post{}).Select("views_count").Where("id = ?", postID).Scan(&count).Error
	})
	if err != nil {
		return 0, false, err
	}
	return count, counted, nil
}
