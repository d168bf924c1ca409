package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines the interface for notification operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	DeleteMatching(ctx context.Context, recipient, author primitive.ObjectID, typ models.NotificationType, post *primitive.ObjectID) (int64, error)
	ListByRecipient(ctx context.Context, q models.NotificationQuery) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, recipient primitive.ObjectID, ids []primitive.ObjectID) (matched, modified int64, err error)
	MarkAllAsRead(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type mongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) NotificationRepository {
	return &mongoNotificationRepository{collection: db.Collection("notifications")}
}

func (r *mongoNotificationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "recipient", Value: 1}, {Key: "is_read", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create notification indexes: %w", err)
	}
	return nil
}

func (r *mongoNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	if _, err := r.collection.InsertOne(ctx, notification); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *mongoNotificationRepository) DeleteMatching(ctx context.Context, recipient, author primitive.ObjectID, typ models.NotificationType, post *primitive.ObjectID) (int64, error) {
	filter := bson.M{"recipient": recipient, "author": author, "type": typ}
	if post != nil {
		filter["post"] = *post
	}
	res, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete notifications: %w", err)
	}
	return res.DeletedCount, nil
}

// ListByRecipient pages newest first. ObjectIDs grow with creation time, so
// _id < Before is the cursor.
func (r *mongoNotificationRepository) ListByRecipient(ctx context.Context, q models.NotificationQuery) ([]models.Notification, error) {
	filter := bson.M{"recipient": q.Recipient}
	if !q.Before.IsZero() {
		filter["_id"] = bson.M{"$lt": q.Before}
	}
	if q.Type != "" {
		filter["type"] = q.Type
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(q.Limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return notifications, nil
}

func (r *mongoNotificationRepository) MarkAsRead(ctx context.Context, recipient primitive.ObjectID, ids []primitive.ObjectID) (int64, int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "recipient": recipient},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

func (r *mongoNotificationRepository) MarkAllAsRead(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"recipient": recipient, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoNotificationRepository) UnreadCount(ctx context.Context, recipient primitive.ObjectID) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"recipient": recipient, "is_read": false})
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}
