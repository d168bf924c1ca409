package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// sentCommand returns the first command named name that the mock deployment received.
func sentCommand(mt *mtest.T, name string) bson.Raw {
	mt.Helper()
	for evt := mt.GetStartedEvent(); evt != nil; evt = mt.GetStartedEvent() {
		if evt.CommandName == name {
			return evt.Command
		}
	}
	require.FailNow(mt, "command not sent", name)
	return nil
}

func findAndModifyReply(doc bson.D) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: doc})
}

func findAndModifyMiss() bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil})
}

func TestMongoPostRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	postID := primitive.NewObjectID()
	fan := primitive.NewObjectID()

	mt.Run("get maps a missing post to not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".posts", mtest.FirstBatch))

		_, err := repo.GetPostByID(context.Background(), postID)
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("create starts with empty arrays and zero counters", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		post := &models.Post{AuthorID: fan, Title: "dusk"}
		require.NoError(mt, repo.CreatePost(context.Background(), post))
		assert.False(mt, post.ID.IsZero())

		doc := sentCommand(mt, "insert").Lookup("documents", "0")
		assert.Equal(mt, bson.TypeArray, doc.Document().Lookup("likes").Type)
		assert.Equal(mt, bson.TypeArray, doc.Document().Lookup("comments").Type)
		assert.Equal(mt, bson.TypeArray, doc.Document().Lookup("image_urls").Type)
		assert.Equal(mt, int64(0), doc.Document().Lookup("likes_count").AsInt64())
	})

	mt.Run("add like appends once and recounts", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		liked := time.Now().UTC().Truncate(time.Millisecond)
		mt.AddMockResponses(findAndModifyReply(bson.D{
			{Key: "_id", Value: postID},
			{Key: "likes", Value: bson.A{bson.D{{Key: "user_id", Value: fan}, {Key: "created_at", Value: liked}}}},
			{Key: "likes_count", Value: 1},
		}))

		post, err := repo.AddLike(context.Background(), postID, models.PostLike{UserID: fan, CreatedAt: liked})
		require.NoError(mt, err)
		assert.Equal(mt, 1, post.LikesCount)
		assert.True(mt, post.LikedBy(fan))

		cmd := sentCommand(mt, "findAndModify")
		assert.Equal(mt, postID, cmd.Lookup("query", "_id").ObjectID())
		assert.True(mt, cmd.Lookup("new").Boolean())

		cond := cmd.Lookup("update", "0", "$set", "likes", "$cond")
		assert.Equal(mt, fan, cond.Array().Index(0).Value().Document().Lookup("$in", "0").ObjectID())
		appended := cmd.Lookup("update", "0", "$set", "likes", "$cond", "2", "$concatArrays", "1", "0", "$literal")
		assert.Equal(mt, fan, appended.Document().Lookup("user_id").ObjectID())

		assert.Equal(mt, "$likes", cmd.Lookup("update", "1", "$set", "likes_count", "$size").StringValue())
	})

	mt.Run("remove like filters the user and recounts", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(findAndModifyReply(bson.D{
			{Key: "_id", Value: postID},
			{Key: "likes", Value: bson.A{}},
			{Key: "likes_count", Value: 0},
		}))

		post, err := repo.RemoveLike(context.Background(), postID, fan)
		require.NoError(mt, err)
		assert.Equal(mt, 0, post.LikesCount)

		cmd := sentCommand(mt, "findAndModify")
		ne := cmd.Lookup("update", "0", "$set", "likes", "$filter", "cond", "$ne")
		assert.Equal(mt, "$$l.user_id", ne.Array().Index(0).Value().StringValue())
		assert.Equal(mt, fan, ne.Array().Index(1).Value().ObjectID())
		assert.Equal(mt, "$likes", cmd.Lookup("update", "1", "$set", "likes_count", "$size").StringValue())
	})

	mt.Run("like on a missing post is not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(findAndModifyMiss())

		_, err := repo.AddLike(context.Background(), postID, models.PostLike{UserID: fan})
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("add comment keeps user content literal", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		comment := models.PostComment{ID: primitive.NewObjectID(), UserID: fan, Content: "$likes"}
		mt.AddMockResponses(findAndModifyReply(bson.D{
			{Key: "_id", Value: postID},
			{Key: "comments", Value: bson.A{bson.D{
				{Key: "_id", Value: comment.ID},
				{Key: "user_id", Value: fan},
				{Key: "content", Value: "$likes"},
			}}},
			{Key: "comments_count", Value: 1},
		}))

		post, err := repo.AddComment(context.Background(), postID, comment)
		require.NoError(mt, err)
		assert.Equal(mt, 1, post.CommentsCount)
		require.Len(mt, post.Comments, 1)
		assert.Equal(mt, "$likes", post.Comments[0].Content)

		cmd := sentCommand(mt, "findAndModify")
		literal := cmd.Lookup("update", "0", "$set", "comments", "$concatArrays", "1", "0", "$literal")
		assert.Equal(mt, "$likes", literal.Document().Lookup("content").StringValue())
		assert.Equal(mt, "$comments", cmd.Lookup("update", "1", "$set", "comments_count", "$size").StringValue())
	})

	mt.Run("remove comment matches the comment and recounts", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		commentID := primitive.NewObjectID()
		mt.AddMockResponses(findAndModifyReply(bson.D{
			{Key: "_id", Value: postID},
			{Key: "comments", Value: bson.A{}},
			{Key: "comments_count", Value: 0},
		}))

		post, err := repo.RemoveComment(context.Background(), postID, commentID)
		require.NoError(mt, err)
		assert.Equal(mt, 0, post.CommentsCount)

		cmd := sentCommand(mt, "findAndModify")
		assert.Equal(mt, commentID, cmd.Lookup("query", "comments._id").ObjectID())
		assert.Equal(mt, "$comments", cmd.Lookup("update", "1", "$set", "comments_count", "$size").StringValue())
	})

	mt.Run("removing a missing comment is not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		commentID := primitive.NewObjectID()
		mt.AddMockResponses(findAndModifyMiss())

		_, err := repo.RemoveComment(context.Background(), postID, commentID)
		require.ErrorIs(mt, err, models.ErrNotFound)
		assert.Contains(mt, err.Error(), "comment")
	})

	mt.Run("set likes writes the counter with the array", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(findAndModifyReply(bson.D{{Key: "_id", Value: postID}, {Key: "likes_count", Value: 2}}))

		_, err := repo.SetLikes(context.Background(), postID, []models.PostLike{{UserID: fan}, {UserID: primitive.NewObjectID()}})
		require.NoError(mt, err)

		set := sentCommand(mt, "findAndModify").Lookup("update", "$set").Document()
		assert.Equal(mt, int64(2), set.Lookup("likes_count").AsInt64())
		values, err := set.Lookup("likes").Array().Values()
		require.NoError(mt, err)
		assert.Len(mt, values, 2)
	})

	mt.Run("list filters by category title", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".posts", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: postID}, {Key: "category_title", Value: models.UncategorizedTitle}},
		))

		posts, err := repo.ListPosts(context.Background(), models.PostFilter{CategoryTitle: models.UncategorizedTitle}, 0, 10)
		require.NoError(mt, err)
		require.Len(mt, posts, 1)

		cmd := sentCommand(mt, "find")
		assert.Equal(mt, models.UncategorizedTitle, cmd.Lookup("filter", "category_title").StringValue())
		assert.Equal(mt, int64(-1), cmd.Lookup("sort", "created_at").AsInt64())
	})

	mt.Run("delete of a missing post is not found", func(mt *mtest.T) {
		repo := NewMongoPostRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.DeletePost(context.Background(), postID)
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})
}
