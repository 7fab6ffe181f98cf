package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ma-siu/services/notification/internal/entity"
	"ma-siu/services/notification/internal/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("record not found")

type NotificationRepository interface {
	EnsureIndexes(ctx context.Context) error
	Create(ctx context.Context, n *entity.Notification) error
	Update(ctx context.Context, n *entity.Notification) error
	GetByID(ctx context.Context, id string) (*entity.Notification, error)
	ListByUser(ctx context.Context, userID string, skip, limit int) ([]*entity.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead only touches notifications owned by userID.
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
}

type notificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	return &notificationRepository{
		collection: db.Collection(model.NotificationsCollection),
	}
}

func (r *notificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}

func (r *notificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if _, err := r.collection.InsertOne(ctx, ToNotificationModel(n)); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Update(ctx context.Context, n *entity.Notification) error {
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": n.ID}, ToNotificationModel(n))
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	var m model.NotificationModel
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notification: %w", err)
	}
	return ToNotificationEntity(&m), nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, skip, limit int) ([]*entity.Notification, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var models []model.NotificationModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, 0, fmt.Errorf("failed to decode notifications: %w", err)
	}

	notifications := make([]*entity.Notification, len(models))
	for i := range models {
		notifications[i] = ToNotificationEntity(&models[i])
	}
	return notifications, total, nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "read_at": nil})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "user_id": userID},
		bson.M{"$set": bson.M{"read_at": at}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "read_at": nil},
		bson.M{"$set": bson.M{"read_at": at}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.ModifiedCount, nil
}
