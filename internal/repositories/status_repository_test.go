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

func TestMongoStatusRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	user := primitive.NewObjectID()
	target := primitive.NewObjectID()

	mt.Run("activate inserts a new pair", func(mt *mtest.T) {
		repo := NewMongoStatusRepository(mt.DB, models.StatusLike)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: primitive.NewObjectID()}}}},
		))

		claimed, err := repo.Activate(context.Background(), user, target)
		require.NoError(mt, err)
		assert.True(mt, claimed)
	})

	mt.Run("activate on an active pair reports false", func(mt *mtest.T) {
		repo := NewMongoStatusRepository(mt.DB, models.StatusLike)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))

		claimed, err := repo.Activate(context.Background(), user, target)
		require.NoError(mt, err)
		assert.False(mt, claimed)
	})

	mt.Run("activate surfaces other errors", func(mt *mtest.T) {
		repo := NewMongoStatusRepository(mt.DB, models.StatusSave)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Name: "BadValue", Message: "bad value",
		}))

		_, err := repo.Activate(context.Background(), user, target)
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "activate saves status")
	})

	mt.Run("deactivate reports whether a row flipped", func(mt *mtest.T) {
		repo := NewMongoStatusRepository(mt.DB, models.StatusFollow)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		released, err := repo.Deactivate(context.Background(), user, target)
		require.NoError(mt, err)
		assert.True(mt, released)

		released, err = repo.Deactivate(context.Background(), user, target)
		require.NoError(mt, err)
		assert.False(mt, released)
	})

	mt.Run("is active counts matching rows", func(mt *mtest.T) {
		repo := NewMongoStatusRepository(mt.DB, models.StatusLike)
		ns := mt.DB.Name() + ".likes"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: 1}}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		active, err := repo.IsActive(context.Background(), user, target)
		require.NoError(mt, err)
		assert.True(mt, active)

		active, err = repo.IsActive(context.Background(), user, target)
		require.NoError(mt, err)
		assert.False(mt, active)
	})

	mt.Run("list active targets", func(mt *mtest.T) {
		repo := NewMongoStatusRepository(mt.DB, models.StatusLike)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".likes", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "target_id", Value: first}},
			bson.D{{Key: "_id", Value: primitive.NewObjectID()}, {Key: "target_id", Value: second}},
		))

		ids, err := repo.ListActiveTargets(context.Background(), user, 0, 10)
		require.NoError(mt, err)
		assert.Equal(mt, []primitive.ObjectID{first, second}, ids)
	})

	mt.Run("list active by target", func(mt *mtest.T) {
		repo := NewMongoStatusRepository(mt.DB, models.StatusLike)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".likes", mtest.FirstBatch,
			bson.D{
				{Key: "_id", Value: primitive.NewObjectID()},
				{Key: "user_id", Value: user},
				{Key: "target_id", Value: target},
				{Key: "status", Value: true},
			},
		))

		rows, err := repo.ListActiveByTarget(context.Background(), target)
		require.NoError(mt, err)
		require.Len(mt, rows, 1)
		assert.Equal(mt, user, rows[0].UserID)
		assert.True(mt, rows[0].Status)
	})
}
