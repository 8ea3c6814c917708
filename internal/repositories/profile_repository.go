package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/blaze/backend/internal/models"
	"gorm.io/gorm"
)

// ProfileRepository defines the interface for profile data operations
type ProfileRepository interface {
	EnsureProfile(ctx context.Context, userID, email, fullName string) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	GetCompactByUserIDs(ctx context.Context, userIDs []string) (map[string]models.ProfileCompact, error)
	UpsertProfile(ctx context.Context, profile *models.Profile) error
}

// PostgresProfileRepository implements ProfileRepository for PostgreSQL
type PostgresProfileRepository struct {
	db *gorm.DB
}

// NewPostgresProfileRepository creates a new PostgresProfileRepository
func NewPostgresProfileRepository(db *gorm.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

// EnsureProfile returns the user's profile, creating one on first sign-in with the provider's
// display name as full name. The stored email follows the identity provider.
func (r *PostgresProfileRepository) EnsureProfile(ctx context.Context, userID, email, fullName string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).
		Where(models.Profile{UserID: userID}).
		Attrs(models.Profile{Email: email, FullName: strings.TrimSpace(fullName)}).
		FirstOrCreate(&profile).Error
	if err != nil {
		return nil, err
	}
	if email != "" && profile.Email != email {
		profile.Email = email
		if err := r.db.WithContext(ctx).Model(&profile).Update("email", email).Error; err != nil {
			return nil, err
		}
	}
	return &profile, nil
}

// GetByUserID retrieves a profile by the owner's user id
func (r *PostgresProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// GetByUsername retrieves a profile by username, case-insensitively
func (r *PostgresProfileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("username = ?", models.NormalizeUsername(username)).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// GetCompactByUserIDs loads author blocks for a set of users in one query
func (r *PostgresProfileRepository) GetCompactByUserIDs(ctx context.Context, userIDs []string) (map[string]models.ProfileCompact, error) {
	result := make(map[string]models.ProfileCompact, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for i := range profiles {
		result[profiles[i].UserID] = profiles[i].ToCompact()
	}
	return result, nil
}

// UpsertProfile inserts the profile if the user has none yet, otherwise updates its public fields.
// The username is stored lowercased.
func (r *PostgresProfileRepository) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	if profile.Username != nil {
		username := models.NormalizeUsername(*profile.Username)
		profile.Username = &username
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Profile
		err := tx.Where("user_id = ?", profile.UserID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(profile).Error
		}
		if err != nil {
			return err
		}
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		if profile.Email == "" {
			profile.Email = existing.Email
		}
		profile.UpdatedAt = time.Now()
		return tx.Model(&existing).Select("username", "full_name", "bio", "avatar_url", "website", "email", "updated_at").
			Updates(profile).Error
	})
	if isUniqueViolation(err) {
		return ErrUsernameTaken
	}
	return err
}
