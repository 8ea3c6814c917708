package repositories

import (
	"context"
	"strings"

	"github.com/anonto42/blaze/backend/internal/models"
	"gorm.io/gorm"
)

// SubscriptionRepository stores newsletter sign-ups
type SubscriptionRepository interface {
	Subscribe(ctx context.Context, email string) (*models.Subscription, error)
}

// PostgresSubscriptionRepository implements SubscriptionRepository for PostgreSQL
type PostgresSubscriptionRepository struct {
	db *gorm.DB
}

func NewPostgresSubscriptionRepository(db *gorm.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

func (r *PostgresSubscriptionRepository) Subscribe(ctx context.Context, email string) (*models.Subscription, error) {
	sub := &models.Subscription{Email: strings.ToLower(strings.TrimSpace(email))}
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadySubscribed
		}
		return nil, err
	}
	return sub, nil
}
