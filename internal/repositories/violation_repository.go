package repositories

import (
	"context"

	"github.com/anonto42/canvas-social/backend/internal/models"
	"gorm.io/gorm"
)

// ViolationRepository records moderation rejections
type ViolationRepository interface {
	Record(ctx context.Context, violation *models.Violation) error
	CountByUser(ctx context.Context, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Violation, error)
}

// PostgresViolationRepository implements ViolationRepository for PostgreSQL
type PostgresViolationRepository struct {
	db *gorm.DB
}

// NewPostgresViolationRepository creates a new PostgresViolationRepository
func NewPostgresViolationRepository(db *gorm.DB) *PostgresViolationRepository {
	return &PostgresViolationRepository{db: db}
}

// AutoMigrate creates or updates the violations table
func (r *PostgresViolationRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&models.Violation{})
}

func (r *PostgresViolationRepository) Record(ctx context.Context, violation *models.Violation) error {
	return r.db.WithContext(ctx).Create(violation).Error
}

func (r *PostgresViolationRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Violation{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// ListByUser returns the user's violations newest first
func (r *PostgresViolationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Violation, error) {
	var violations []models.Violation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&violations).Error
	return violations, err
}
