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

// StatusRepository stores per-(user, target) toggle rows for one relation kind.
type StatusRepository interface {
	// Activate flips the pair to active. It reports false when the pair was
	// already active, in which case nothing is written.
	Activate(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error)
	// Deactivate flips the pair to inactive. It reports false when the pair
	// was not active.
	Deactivate(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error)
	IsActive(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error)
	ListActiveTargets(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]primitive.ObjectID, error)
	ListActiveByTarget(ctx context.Context, targetID primitive.ObjectID) ([]models.StatusRecord, error)
	EnsureIndexes(ctx context.Context) error
}

// MongoStatusRepository implements StatusRepository over one of the
// likes, saves or follows collections
type MongoStatusRepository struct {
	collection *mongo.Collection
	kind       models.StatusKind
}

// NewMongoStatusRepository creates a status repository for kind
func NewMongoStatusRepository(db *mongo.Database, kind models.StatusKind) *MongoStatusRepository {
	return &MongoStatusRepository{collection: db.Collection(string(kind)), kind: kind}
}

// EnsureIndexes creates the unique pair index that makes Activate atomic
func (r *MongoStatusRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "target_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "target_id", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create %s indexes: %w", r.kind, err)
	}
	return nil
}

func (r *MongoStatusRepository) Activate(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	now := time.Now()
	filter := bson.M{"user_id": userID, "target_id": targetID, "status": bson.M{"$ne": true}}
	update := bson.M{
		"$set":         bson.M{"status": true, "updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// An active row exists: the filter missed it and the upsert hit the unique index.
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("activate %s status: %w", r.kind, err)
	}
	return true, nil
}

func (r *MongoStatusRepository) Deactivate(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	filter := bson.M{"user_id": userID, "target_id": targetID, "status": true}
	update := bson.M{"$set": bson.M{"status": false, "updated_at": time.Now()}}
	res, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("deactivate %s status: %w", r.kind, err)
	}
	return res.ModifiedCount == 1, nil
}

func (r *MongoStatusRepository) IsActive(ctx context.Context, userID, targetID primitive.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"user_id": userID, "target_id": targetID, "status": true},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check %s status: %w", r.kind, err)
	}
	return n > 0, nil
}

// ListActiveTargets returns the targets the user has active, most recent first
func (r *MongoStatusRepository) ListActiveTargets(ctx context.Context, userID primitive.ObjectID, skip, limit int64) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit).
		SetProjection(bson.M{"target_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID, "status": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s targets: %w", r.kind, err)
	}
	defer cursor.Close(ctx)

	var records []models.StatusRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode %s targets: %w", r.kind, err)
	}
	ids := make([]primitive.ObjectID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.TargetID)
	}
	return ids, nil
}

// ListActiveByTarget returns every active row pointing at targetID, oldest activation first
func (r *MongoStatusRepository) ListActiveByTarget(ctx context.Context, targetID primitive.ObjectID) ([]models.StatusRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"target_id": targetID, "status": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("list %s by target: %w", r.kind, err)
	}
	defer cursor.Close(ctx)

	records := []models.StatusRecord{}
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode %s records: %w", r.kind, err)
	}
	return records, nil
}
