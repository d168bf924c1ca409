package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, req *models.UpdateUserRequest) (*models.User, error)
	AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) error
	RemoveFollower(ctx context.Context, userID, followerID primitive.ObjectID) error
	AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error
	RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error
	AddSavedPost(ctx context.Context, userID, postID primitive.ObjectID) (*models.User, error)
	RemoveSavedPost(ctx context.Context, userID, postID primitive.ObjectID) (*models.User, error)
	IncrementViolations(ctx context.Context, userID primitive.ObjectID, banThreshold int) (*models.User, error)
	EnsureIndexes(ctx context.Context) error
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// EnsureIndexes creates the unique indexes on username, email and firebase_uid
func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "firebase_uid", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// CreateUser inserts a user with empty relation sets
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	// $addToSet fails on null fields, so the sets start out empty
	if user.Followers == nil {
		user.Followers = []primitive.ObjectID{}
	}
	if user.Following == nil {
		user.Following = []primitive.ObjectID{}
	}
	if user.SavedPosts == nil {
		user.SavedPosts = []primitive.ObjectID{}
	}
	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewValidationError("username or email already taken")
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID from MongoDB
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id.Hex())
}

// GetUserByFirebaseUID retrieves a user linked to a Firebase account
func (r *MongoUserRepository) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"firebase_uid": firebaseUID}, firebaseUID)
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M, key string) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("user", key)
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// GetUsersByIDs returns the users whose ids are listed; missing ids are skipped
func (r *MongoUserRepository) GetUsersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// UpdateProfile sets the non-empty fields of req
func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, req *models.UpdateUserRequest) (*models.User, error) {
	set := bson.M{"updated_at": time.Now()}
	if req.Username != "" {
		set["username"] = req.Username
	}
	if req.Bio != "" {
		set["bio"] = req.Bio
	}
	if req.ProfilePicture != "" {
		set["profile_picture"] = req.ProfilePicture
	}
	if req.CoverPhoto != "" {
		set["cover_photo"] = req.CoverPhoto
	}
	user, err := r.findOneAndUpdate(ctx, id, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return nil, models.NewValidationError("username already taken")
	}
	return user, err
}

// AddFollower adds followerID to the user's followers set
func (r *MongoUserRepository) AddFollower(ctx context.Context, userID, followerID primitive.ObjectID) error {
	return r.updateSet(ctx, userID, "$addToSet", "followers", followerID)
}

// RemoveFollower pulls followerID from the user's followers set
func (r *MongoUserRepository) RemoveFollower(ctx context.Context, userID, followerID primitive.ObjectID) error {
	return r.updateSet(ctx, userID, "$pull", "followers", followerID)
}

// AddFollowing adds targetID to the user's following set
func (r *MongoUserRepository) AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error {
	return r.updateSet(ctx, userID, "$addToSet", "following", targetID)
}

// RemoveFollowing pulls targetID from the user's following set
func (r *MongoUserRepository) RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) error {
	return r.updateSet(ctx, userID, "$pull", "following", targetID)
}

// AddSavedPost adds postID to the user's saved posts and returns the updated user
func (r *MongoUserRepository) AddSavedPost(ctx context.Context, userID, postID primitive.ObjectID) (*models.User, error) {
	return r.findOneAndUpdate(ctx, userID, bson.M{
		"$addToSet": bson.M{"saved_posts": postID},
		"$set":      bson.M{"updated_at": time.Now()},
	})
}

// RemoveSavedPost pulls postID from the user's saved posts and returns the updated user
func (r *MongoUserRepository) RemoveSavedPost(ctx context.Context, userID, postID primitive.ObjectID) (*models.User, error) {
	return r.findOneAndUpdate(ctx, userID, bson.M{
		"$pull": bson.M{"saved_posts": postID},
		"$set":  bson.M{"updated_at": time.Now()},
	})
}

// IncrementViolations bumps the violation counter and bans the user once it
// reaches banThreshold. A ban is never lifted here.
func (r *MongoUserRepository) IncrementViolations(ctx context.Context, userID primitive.ObjectID, banThreshold int) (*models.User, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"violations": bson.M{"$add": bson.A{bson.M{"$ifNull": bson.A{"$violations", 0}}, 1}},
			"updated_at": time.Now(),
		}}},
		{{Key: "$set", Value: bson.M{
			"is_banned": bson.M{"$or": bson.A{
				bson.M{"$ifNull": bson.A{"$is_banned", false}},
				bson.M{"$gte": bson.A{"$violations", banThreshold}},
			}},
		}}},
	}
	return r.findOneAndUpdate(ctx, userID, pipeline)
}

func (r *MongoUserRepository) updateSet(ctx context.Context, userID primitive.ObjectID, op, field string, value primitive.ObjectID) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{
		op:     bson.M{field: value},
		"$set": bson.M{"updated_at": time.Now()},
	})
	if err != nil {
		return fmt.Errorf("update user %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("user", userID.Hex())
	}
	return nil
}

func (r *MongoUserRepository) findOneAndUpdate(ctx context.Context, id primitive.ObjectID, update interface{}) (*models.User, error) {
	var user models.User
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("user", id.Hex())
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return &user, nil
}
