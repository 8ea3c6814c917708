package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/blaze/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PreferenceRepository defines the interface for reading preferences
type PreferenceRepository interface {
	GetPreference(ctx context.Context, userID string) (*models.Preference, error)
	SavePreference(ctx context.Context, pref *models.Preference) error
}

// MongoPreferenceRepository implements PreferenceRepository for MongoDB
type MongoPreferenceRepository struct {
	collection *mongo.Collection
}

// NewMongoPreferenceRepository creates a new MongoPreferenceRepository
func NewMongoPreferenceRepository(db *mongo.Database) *MongoPreferenceRepository {
	return &MongoPreferenceRepository{collection: db.Collection("preferences")}
}

// GetPreference returns the stored preferences, or the defaults when the user has none
func (r *MongoPreferenceRepository) GetPreference(ctx context.Context, userID string) (*models.Preference, error) {
	var pref models.Preference
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&pref)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.DefaultPreference(userID), nil
		}
		return nil, err
	}
	return &pref, nil
}

// SavePreference upserts the user's preference document
func (r *MongoPreferenceRepository) SavePreference(ctx context.Context, pref *models.Preference) error {
	pref.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"mode":        pref.Mode,
			"color_theme": pref.ColorTheme,
			"layout":      pref.Layout,
			"updated_at":  pref.UpdatedAt,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": pref.UserID}, update, options.Update().SetUpsert(true))
	return err
}
