package persistent

import (
	"context"
	"fmt"

	"ma-siu/services/notification/internal/entity"
	"ma-siu/services/notification/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type DeviceRepository interface {
	EnsureIndexes(ctx context.Context) error
	// Upsert registers the token for the user, moving it over if another
	// user had registered the same token before.
	Upsert(ctx context.Context, d *entity.DeviceToken) (*entity.DeviceToken, error)
	Delete(ctx context.Context, userID, token string) error
	DeleteTokens(ctx context.Context, tokens []string) (int64, error)
	TokensForUser(ctx context.Context, userID string) ([]string, error)
	TokensForTopic(ctx context.Context, topic string) ([]string, error)
}

type deviceRepository struct {
	collection *mongo.Collection
}

func NewDeviceRepository(db *mongo.Database) DeviceRepository {
	return &deviceRepository{
		collection: db.Collection(model.DevicesCollection),
	}
}

func (r *deviceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "topics", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create device indexes: %w", err)
	}
	return nil
}

func (r *deviceRepository) Upsert(ctx context.Context, d *entity.DeviceToken) (*entity.DeviceToken, error) {
	topics := d.Topics
	if topics == nil {
		topics = []string{}
	}

	update := bson.M{
		"$set": bson.M{
			"user_id":    d.UserID,
			"platform":   d.Platform,
			"topics":     topics,
			"updated_at": d.UpdatedAt,
		},
		"$setOnInsert": bson.M{"created_at": d.CreatedAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var m model.DeviceModel
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": d.Token}, update, opts).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}
	return ToDeviceEntity(&m), nil
}

func (r *deviceRepository) Delete(ctx context.Context, userID, token string) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": token, "user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *deviceRepository) DeleteTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": tokens}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete devices: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *deviceRepository) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	return r.tokens(ctx, bson.M{"user_id": userID})
}

func (r *deviceRepository) TokensForTopic(ctx context.Context, topic string) ([]string, error) {
	return r.tokens(ctx, bson.M{"topics": topic})
}

func (r *deviceRepository) tokens(ctx context.Context, filter bson.M) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}
	defer cursor.Close(ctx)

	var models []model.DeviceModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("failed to decode devices: %w", err)
	}

	tokens := make([]string, len(models))
	for i, m := range models {
		tokens[i] = m.Token
	}
	return tokens, nil
}
