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

// PostRepository defines the interface for post data operations.
// Like and comment mutations recompute the matching counter from the embedded
// array in the same document update, so likes_count == len(likes) and
// comments_count == len(comments) always hold.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	ListPosts(ctx context.Context, filter models.PostFilter, skip, limit int64) ([]models.Post, error)
	CountPosts(ctx context.Context, filter models.PostFilter) (int64, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id primitive.ObjectID) error
	AddLike(ctx context.Context, postID primitive.ObjectID, like models.PostLike) (*models.Post, error)
	RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error)
	SetLikes(ctx context.Context, postID primitive.ObjectID, likes []models.PostLike) (*models.Post, error)
	AddComment(ctx context.Context, postID primitive.ObjectID, comment models.PostComment) (*models.Post, error)
	UpdateCommentContent(ctx context.Context, postID, commentID primitive.ObjectID, content string, at time.Time) (*models.Post, error)
	RemoveComment(ctx context.Context, postID, commentID primitive.ObjectID) (*models.Post, error)
	ExistsWithCategoryTitle(ctx context.Context, title string) (bool, error)
	EnsureIndexes(ctx context.Context) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the listing indexes
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category_title", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create post indexes: %w", err)
	}
	return nil
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	post.Likes = []models.PostLike{}
	post.Comments = []models.PostComment{}
	post.LikesCount = 0
	post.CommentsCount = 0
	if post.ImageURLs == nil {
		post.ImageURLs = []string{}
	}
	if _, err := r.collection.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError("post", id.Hex())
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

func postFilterDoc(filter models.PostFilter) bson.M {
	doc := bson.M{}
	if !filter.AuthorID.IsZero() {
		doc["author_id"] = filter.AuthorID
	}
	if filter.CategoryTitle != "" {
		doc["category_title"] = filter.CategoryTitle
	}
	if filter.IDs != nil {
		doc["_id"] = bson.M{"$in": filter.IDs}
	}
	return doc
}

// ListPosts retrieves posts newest first with pagination
func (r *MongoPostRepository) ListPosts(ctx context.Context, filter models.PostFilter, skip, limit int64) ([]models.Post, error) {
	posts := []models.Post{}
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, postFilterDoc(filter), findOptions)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

// CountPosts counts posts matching filter
func (r *MongoPostRepository) CountPosts(ctx context.Context, filter models.PostFilter) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, postFilterDoc(filter))
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// UpdatePost writes the editable fields of post
func (r *MongoPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"title":          post.Title,
			"description":    post.Description,
			"image_urls":     post.ImageURLs,
			"category_id":    post.CategoryID,
			"category_title": post.CategoryTitle,
			"updated_at":     post.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("post", post.ID.Hex())
	}
	return nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return models.NewNotFoundError("post", id.Hex())
	}
	return nil
}

// AddLike appends like unless the user already has an entry, then recomputes likes_count
func (r *MongoPostRepository) AddLike(ctx context.Context, postID primitive.ObjectID, like models.PostLike) (*models.Post, error) {
	likes := bson.M{"$ifNull": bson.A{"$likes", bson.A{}}}
	alreadyLiked := bson.M{"$in": bson.A{like.UserID, bson.M{"$ifNull": bson.A{"$likes.user_id", bson.A{}}}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likes": bson.M{"$cond": bson.A{
				alreadyLiked,
				likes,
				bson.M{"$concatArrays": bson.A{likes, bson.A{bson.M{"$literal": like}}}},
			}},
		}}},
		recountStage("likes", "likes_count"),
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": postID}, pipeline, "post", postID)
}

// RemoveLike drops the user's entry from likes and recomputes likes_count
func (r *MongoPostRepository) RemoveLike(ctx context.Context, postID, userID primitive.ObjectID) (*models.Post, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likes": bson.M{"$filter": bson.M{
				"input": bson.M{"$ifNull": bson.A{"$likes", bson.A{}}},
				"as":    "l",
				"cond":  bson.M{"$ne": bson.A{"$$l.user_id", userID}},
			}},
		}}},
		recountStage("likes", "likes_count"),
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": postID}, pipeline, "post", postID)
}

// SetLikes replaces the likes array wholesale
func (r *MongoPostRepository) SetLikes(ctx context.Context, postID primitive.ObjectID, likes []models.PostLike) (*models.Post, error) {
	if likes == nil {
		likes = []models.PostLike{}
	}
	update := bson.M{"$set": bson.M{
		"likes":       likes,
		"likes_count": len(likes),
		"updated_at":  time.Now(),
	}}
	return r.findOneAndUpdate(ctx, bson.M{"_id": postID}, update, "post", postID)
}

// AddComment appends comment and recomputes comments_count
func (r *MongoPostRepository) AddComment(ctx context.Context, postID primitive.ObjectID, comment models.PostComment) (*models.Post, error) {
	// $literal keeps user content such as "$likes" from being read as a field path
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"comments": bson.M{"$concatArrays": bson.A{
				bson.M{"$ifNull": bson.A{"$comments", bson.A{}}},
				bson.A{bson.M{"$literal": comment}},
			}},
		}}},
		recountStage("comments", "comments_count"),
	}
	return r.findOneAndUpdate(ctx, bson.M{"_id": postID}, pipeline, "post", postID)
}

// UpdateCommentContent replaces a comment's content in place
func (r *MongoPostRepository) UpdateCommentContent(ctx context.Context, postID, commentID primitive.ObjectID, content string, at time.Time) (*models.Post, error) {
	filter := bson.M{"_id": postID, "comments._id": commentID}
	update := bson.M{"$set": bson.M{
		"comments.$.content":    content,
		"comments.$.updated_at": at,
	}}
	return r.findOneAndUpdate(ctx, filter, update, "comment", commentID)
}

// RemoveComment drops a comment and recomputes comments_count
func (r *MongoPostRepository) RemoveComment(ctx context.Context, postID, commentID primitive.ObjectID) (*models.Post, error) {
	filter := bson.M{"_id": postID, "comments._id": commentID}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"comments": bson.M{"$filter": bson.M{
				"input": "$comments",
				"as":    "c",
				"cond":  bson.M{"$ne": bson.A{"$$c._id", commentID}},
			}},
		}}},
		recountStage("comments", "comments_count"),
	}
	return r.findOneAndUpdate(ctx, filter, pipeline, "comment", commentID)
}

// ExistsWithCategoryTitle reports whether any post still uses the category title
func (r *MongoPostRepository) ExistsWithCategoryTitle(ctx context.Context, title string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"category_title": title}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count posts by category: %w", err)
	}
	return n > 0, nil
}

func recountStage(array, counter string) bson.D {
	return bson.D{{Key: "$set", Value: bson.M{
		counter:      bson.M{"$size": "$" + array},
		"updated_at": "$$NOW",
	}}}
}

func (r *MongoPostRepository) findOneAndUpdate(ctx context.Context, filter bson.M, update interface{}, resource string, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.NewNotFoundError(resource, id.Hex())
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return &post, nil
}
