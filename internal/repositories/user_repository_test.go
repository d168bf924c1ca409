package repositories

import (
	"context"
	"testing"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	userID := primitive.NewObjectID()
	other := primitive.NewObjectID()

	mt.Run("create starts with empty relation sets", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		user := &models.User{Username: "ada", Email: "ada@example.com"}
		require.NoError(mt, repo.CreateUser(context.Background(), user))
		assert.False(mt, user.ID.IsZero())

		doc := sentCommand(mt, "insert").Lookup("documents", "0").Document()
		for _, field := range []string{"followers", "following", "saved_posts"} {
			assert.Equal(mt, bson.TypeArray, doc.Lookup(field).Type, field)
		}
	})

	mt.Run("create maps duplicate key to validation", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		err := repo.CreateUser(context.Background(), &models.User{Username: "ada", Email: "ada@example.com"})
		assert.ErrorIs(mt, err, models.ErrValidation)
	})

	mt.Run("get maps a missing user to not found", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch))

		_, err := repo.GetUserByID(context.Background(), userID)
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("update profile sets only provided fields", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(findAndModifyReply(bson.D{
			{Key: "_id", Value: userID},
			{Key: "username", Value: "ada"},
			{Key: "bio", Value: "paints"},
		}))

		user, err := repo.UpdateProfile(context.Background(), userID, &models.UpdateUserRequest{Bio: "paints"})
		require.NoError(mt, err)
		assert.Equal(mt, "paints", user.Bio)

		set := sentCommand(mt, "findAndModify").Lookup("update", "$set").Document()
		assert.Equal(mt, "paints", set.Lookup("bio").StringValue())
		_, err = set.LookupErr("username")
		assert.Error(mt, err)
	})

	mt.Run("update profile maps duplicate username to validation", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error",
		}))

		_, err := repo.UpdateProfile(context.Background(), userID, &models.UpdateUserRequest{Username: "taken"})
		assert.ErrorIs(mt, err, models.ErrValidation)
	})

	mt.Run("update profile of a missing user is not found", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(findAndModifyMiss())

		_, err := repo.UpdateProfile(context.Background(), userID, &models.UpdateUserRequest{Bio: "x"})
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("follower sets use addToSet and pull", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		require.NoError(mt, repo.AddFollower(context.Background(), userID, other))
		require.NoError(mt, repo.RemoveFollowing(context.Background(), userID, other))

		added := sentCommand(mt, "update").Lookup("updates", "0")
		assert.Equal(mt, userID, added.Document().Lookup("q", "_id").ObjectID())
		assert.Equal(mt, other, added.Document().Lookup("u", "$addToSet", "followers").ObjectID())

		pulled := sentCommand(mt, "update").Lookup("updates", "0")
		assert.Equal(mt, other, pulled.Document().Lookup("u", "$pull", "following").ObjectID())
	})

	mt.Run("set update on a missing user is not found", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.AddFollowing(context.Background(), userID, other)
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("saved posts return the updated user", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		post := primitive.NewObjectID()
		mt.AddMockResponses(findAndModifyReply(bson.D{
			{Key: "_id", Value: userID},
			{Key: "saved_posts", Value: bson.A{post}},
		}))

		user, err := repo.AddSavedPost(context.Background(), userID, post)
		require.NoError(mt, err)
		assert.True(mt, user.HasSaved(post))

		update := sentCommand(mt, "findAndModify").Lookup("update").Document()
		assert.Equal(mt, post, update.Lookup("$addToSet", "saved_posts").ObjectID())
	})

	mt.Run("increment violations bans at the threshold", func(mt *mtest.T) {
		repo := NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(findAndModifyReply(bson.D{
			{Key: "_id", Value: userID},
			{Key: "violations", Value: 3},
			{Key: "is_banned", Value: true},
		}))

		user, err := repo.IncrementViolations(context.Background(), userID, 3)
		require.NoError(mt, err)
		assert.Equal(mt, 3, user.Violations)
		assert.True(mt, user.IsBanned)

		cmd := sentCommand(mt, "findAndModify")
		add := cmd.Lookup("update", "0", "$set", "violations", "$add").Array()
		assert.Equal(mt, int64(1), add.Index(1).Value().AsInt64())

		or := cmd.Lookup("update", "1", "$set", "is_banned", "$or").Array()
		keepBan := or.Index(0).Value().Document().Lookup("$ifNull").Array()
		assert.Equal(mt, "$is_banned", keepBan.Index(0).Value().StringValue())
		gte := or.Index(1).Value().Document().Lookup("$gte").Array()
		assert.Equal(mt, "$violations", gte.Index(0).Value().StringValue())
		assert.Equal(mt, int64(3), gte.Index(1).Value().AsInt64())
	})
}

func TestMongoCategoryRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	categoryID := primitive.NewObjectID()

	mt.Run("get or create upserts by title", func(mt *mtest.T) {
		repo := NewMongoCategoryRepository(mt.DB)
		mt.AddMockResponses(findAndModifyReply(bson.D{
			{Key: "_id", Value: categoryID},
			{Key: "title", Value: models.UncategorizedTitle},
		}))

		category, err := repo.GetOrCreateByTitle(context.Background(), models.UncategorizedTitle)
		require.NoError(mt, err)
		assert.Equal(mt, categoryID, category.ID)

		cmd := sentCommand(mt, "findAndModify")
		assert.Equal(mt, models.UncategorizedTitle, cmd.Lookup("query", "title").StringValue())
		assert.True(mt, cmd.Lookup("upsert").Boolean())
		assert.True(mt, cmd.Lookup("new").Boolean())
		_, err = cmd.Lookup("update").Document().LookupErr("$setOnInsert", "created_at")
		assert.NoError(mt, err)
	})

	mt.Run("get maps a missing category to not found", func(mt *mtest.T) {
		repo := NewMongoCategoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".categories", mtest.FirstBatch))

		_, err := repo.GetCategoryByID(context.Background(), categoryID)
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})

	mt.Run("list sorts by title", func(mt *mtest.T) {
		repo := NewMongoCategoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".categories", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "title", Value: "oil painting"}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "title", Value: "watercolor"}},
		))

		categories, err := repo.ListCategories(context.Background())
		require.NoError(mt, err)
		require.Len(mt, categories, 2)
		assert.Equal(mt, "oil painting", categories[0].Title)
		assert.Equal(mt, int64(1), sentCommand(mt, "find").Lookup("sort", "title").AsInt64())
	})

	mt.Run("delete of a missing category is not found", func(mt *mtest.T) {
		repo := NewMongoCategoryRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		err := repo.DeleteCategory(context.Background(), categoryID)
		assert.ErrorIs(mt, err, models.ErrNotFound)
	})
}
