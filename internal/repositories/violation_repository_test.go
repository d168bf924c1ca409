package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newViolationRepo(t *testing.T) *PostgresViolationRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewPostgresViolationRepository(db)
	require.NoError(t, repo.AutoMigrate())
	return repo
}

func TestViolationRepository_RecordAndQuery(t *testing.T) {
	repo := newViolationRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, reason := range []string{"explicit content: adult", "explicit content: racy"} {
		v := &models.Violation{UserID: "u1", Reason: reason, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.Record(ctx, v))
		assert.NotZero(t, v.ID)
	}
	require.NoError(t, repo.Record(ctx, &models.Violation{UserID: "u2", Reason: "explicit content: violence"}))

	count, err := repo.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	latest, err := repo.ListByUser(ctx, "u1", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "explicit content: racy", latest[0].Reason)

	none, err := repo.CountByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Zero(t, none)
}
